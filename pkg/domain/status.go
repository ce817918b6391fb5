package domain

// Status is the outcome of ticking a node.
type Status string

const (
	// StatusSuccess means the node finished and achieved its goal.
	StatusSuccess Status = "SUCCESS"
	// StatusFailure means the node finished without achieving its goal.
	StatusFailure Status = "FAILURE"
	// StatusRunning means the node has not finished; tick it again to resume.
	StatusRunning Status = "RUNNING"
	// StatusError means the node logic failed to execute or produced an invalid value.
	StatusError Status = "ERROR"
)

// Valid reports whether s is one of the four known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusSuccess, StatusFailure, StatusRunning, StatusError:
		return true
	}
	return false
}

// Terminal reports whether s ends an activation (anything but Running).
func (s Status) Terminal() bool {
	return s != StatusRunning
}

func (s Status) String() string {
	return string(s)
}

// ParseStatus converts an arbitrary value into a Status.
// Values that are not one of the four known statuses yield StatusError and false.
func ParseStatus(v any) (Status, bool) {
	switch t := v.(type) {
	case Status:
		if t.Valid() {
			return t, true
		}
	case string:
		if s := Status(t); s.Valid() {
			return s, true
		}
	}
	return StatusError, false
}

// Category is the structural kind of a node.
type Category string

const (
	CategoryComposite Category = "composite"
	CategoryDecorator Category = "decorator"
	CategoryTask      Category = "task"
)
