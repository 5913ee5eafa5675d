package agent

// State is the loop's execution phase. Transitions are linear within one
// iteration: Perceiving → Reasoning → Acting → Recording, then back to
// Reasoning for the next step or Idle when the turn ends.
type State int

const (
	StateIdle State = iota
	StatePerceiving
	StateReasoning
	StateActing
	StateRecording
)

func (s State) String() string {
	switch s {
	case StatePerceiving:
		return "perceiving"
	case StateReasoning:
		return "reasoning"
	case StateActing:
		return "acting"
	case StateRecording:
		return "recording"
	default:
		return "idle"
	}
}

// EventSink receives loop progress events. The terminal UI implements it;
// tests use a recording stub. All methods are called from the loop goroutine.
type EventSink interface {
	// OnStateChange fires on every phase transition.
	OnStateChange(state State)

	// OnStep fires when the planner decides an action, before dispatch.
	OnStep(tool string, rationale string)

	// OnActionDone fires after an action is recorded.
	OnActionDone(tool string, success bool, message string)

	// OnMessage delivers planner text meant for the user.
	OnMessage(text string)
}

// NopSink discards all events.
type NopSink struct{}

func (NopSink) OnStateChange(State)               {}
func (NopSink) OnStep(string, string)             {}
func (NopSink) OnActionDone(string, bool, string) {}
func (NopSink) OnMessage(string)                  {}
