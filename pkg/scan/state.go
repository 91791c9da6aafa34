package scan

// State is the lifecycle stage of a Controller.
type State int32

const (
	StateConfiguring State = iota
	StateInvoking
	StateStreaming
	StateCompleted
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateConfiguring:
		return "configuring"
	case StateInvoking:
		return "invoking"
	case StateStreaming:
		return "streaming"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

// Active reports whether a process is being started or read.
func (s State) Active() bool {
	return s == StateInvoking || s == StateStreaming
}
