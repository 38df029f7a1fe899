package core

// AgentState enumerates the execution states of an agent run.
//
// Transitions: Idle -> Running when a run starts; Running -> Finished when a
// special tool completes or a think produces neither content nor tool calls;
// Running -> Running after an ordinary step. No transition leaves Finished
// during a run. Error exists for drivers that choose to halt on think
// failures; the default policy degrades to Running with a synthetic error
// message instead.
type AgentState string

const (
	StateIdle     AgentState = "IDLE"
	StateRunning  AgentState = "RUNNING"
	StateFinished AgentState = "FINISHED"
	StateError    AgentState = "ERROR"
)

// Terminal reports whether no further steps may run in this state.
func (s AgentState) Terminal() bool {
	return s == StateFinished || s == StateError
}
