package bt

// Type tags of the built-in node kinds.
const (
	TypeSequence          = "Sequence"
	TypePriority          = "Priority"
	TypeInverter          = "Inverter"
	TypeRepeater          = "Repeater"
	TypeUntilSuccess      = "UntilSuccess"
	TypeUntilFailure      = "UntilFailure"
	TypeRewindWhenFailure = "RewindWhenFailure"
	TypeRewindWhenRunning = "RewindWhenRunning"
	TypeTask              = "Task"
	TypeAsyncTask         = "AsyncTask"
)
