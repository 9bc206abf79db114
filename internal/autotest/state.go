package autotest

// State is the session state: Idle, Running or PendingConfirmation.
type State interface {
	isState()
}

// Idle means no test is running and none awaits confirmation.
type Idle struct{}

// Running holds the test in progress.
type Running struct {
	Test *Test
}

// PendingConfirmation holds a completed test awaiting an operator verdict.
type PendingConfirmation struct {
	Test *Test
}

func (Idle) isState()                {}
func (Running) isState()             {}
func (PendingConfirmation) isState() {}

// StateName returns a short name for logs and status output.
func StateName(s State) string {
	switch s.(type) {
	case Running:
		return "running"
	case PendingConfirmation:
		return "pending_confirmation"
	default:
		return "idle"
	}
}
