// Package agent implements the stepwise reasoning loop that drives a
// conversational agent.
//
// Each step runs a think phase followed by an optional act phase. During
// think the agent asks its model client for a decision over the current
// transcript; during act it executes the tool calls the decision requested
// and records their results. RunStream repeats steps until the agent
// finishes, errors, or exhausts its step limit, emitting core.Event values
// the whole way so callers can render progress live.
package agent
