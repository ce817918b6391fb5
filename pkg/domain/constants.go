package domain

// Well-known blackboard keys written by the engine.
const (
	// KeyIsOpen is the node-board flag set between Open and Close.
	KeyIsOpen = "isOpen"
	// KeyLastStatus is the node-board record of the last Run result.
	KeyLastStatus = "lastStatus"
	// KeyRunningChild is the resumption index of a composite.
	KeyRunningChild = "runningChild"
	// KeyLoopCount is the iteration counter of looping decorators.
	KeyLoopCount = "i"
	// KeyAsyncStatus holds the settled (or pending) status of an AsyncTask.
	KeyAsyncStatus = "asyncStatus"
	// KeyAsyncToken identifies the AsyncTask activation allowed to settle asyncStatus.
	KeyAsyncToken = "asyncToken"
	// KeyActiveNodes is the tree-board list of node ids on the open path after a tick.
	KeyActiveNodes = "activeNodes"
)

// DefaultTreeName is the name given to trees constructed without one.
const DefaultTreeName = "The behavior tree"
