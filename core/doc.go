// Package core defines the shared value types of the engine: transcript
// messages, tool invocation requests, streaming events and the agent state
// enumeration. Everything here is a plain immutable value; behavior lives in
// the agent, tool and model packages that produce and consume these types.
package core
