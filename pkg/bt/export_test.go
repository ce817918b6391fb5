package bt

// SetBeforeLiveCheck installs a hook on an AsyncTask node that runs between
// reading a Running status and looking up the live activation.
func SetBeforeLiveCheck(n *Node, fn func()) {
	n.behavior.(*asyncTask).beforeLiveCheck = fn
}

// LiveActivations counts the in-flight activations of an AsyncTask node.
func LiveActivations(n *Node) int {
	count := 0
	n.behavior.(*asyncTask).live.Range(func(_, _ any) bool {
		count++
		return true
	})
	return count
}
