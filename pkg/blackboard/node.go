package blackboard

import "github.com/aretw0/arbor/pkg/domain"

// NodeBoard is a Board scoped to one node within one tree.
// It always carries the isOpen flag.
type NodeBoard struct {
	Board
}

// NewNodeBoard creates a closed node board.
func NewNodeBoard() *NodeBoard {
	nb := &NodeBoard{}
	nb.Set(domain.KeyIsOpen, false)
	return nb
}

// IsOpen reports whether the node is between Open and Close.
func (nb *NodeBoard) IsOpen() bool {
	return Bool(nb.Get(domain.KeyIsOpen))
}

// OpenNode marks the node as open.
func (nb *NodeBoard) OpenNode() {
	nb.Set(domain.KeyIsOpen, true)
}

// CloseNode marks the node as closed.
func (nb *NodeBoard) CloseNode() {
	nb.Set(domain.KeyIsOpen, false)
}

// LastStatus returns the status recorded after the node's last Run.
func (nb *NodeBoard) LastStatus() (domain.Status, bool) {
	v, ok := nb.Lookup(domain.KeyLastStatus)
	if !ok {
		return "", false
	}
	return domain.ParseStatus(v)
}

// IsEmpty reports whether the board holds nothing but a closed isOpen flag.
func (nb *NodeBoard) IsEmpty() bool {
	empty := true
	nb.Update(func(v View) {
		for k, val := range v.data {
			if k == domain.KeyIsOpen && !Bool(val) {
				continue
			}
			empty = false
			return
		}
	})
	return empty
}
