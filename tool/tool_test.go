package tool

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soragoto/kokoro/core"
)

// -------------------- Result --------------------

func TestResultEmpty(t *testing.T) {
	assert.True(t, Result{}.Empty())
	assert.False(t, Result{Content: "x"}.Empty())
	assert.False(t, Result{Args: map[string]any{"k": 1}}.Empty())
	assert.False(t, Result{Error: "bad"}.Empty())
	assert.False(t, Result{System: "note"}.Empty())
}

func TestResultString(t *testing.T) {
	assert.Equal(t, "hello", Result{Content: "hello"}.String())
	assert.Equal(t, "Error: bad", Result{Error: "bad"}.String())
	// An already prefixed error is not prefixed twice.
	assert.Equal(t, "Error: Unknown tool 'x'", Result{Error: "Error: Unknown tool 'x'"}.String())
	// Error wins over content.
	assert.Equal(t, "Error: bad", Result{Content: "partial", Error: "bad"}.String())
}

func TestResultCombine(t *testing.T) {
	a := Result{Content: "one ", Args: map[string]any{"a": 1}}
	b := Result{Content: "two", Args: map[string]any{"b": 2}, System: "note"}

	merged, err := a.Combine(b)
	require.NoError(t, err)
	assert.Equal(t, "one two", merged.Content)
	assert.Equal(t, map[string]any{"a": 1, "b": 2}, merged.Args)
	assert.Equal(t, "note", merged.System)
}

func TestResultCombineCollision(t *testing.T) {
	a := Result{Error: "first"}
	b := Result{Error: "second"}

	_, err := a.Combine(b)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error")
}

func TestFromOutput(t *testing.T) {
	assert.True(t, FromOutput(nil).Empty())
	assert.Equal(t, "text", FromOutput("text").Content)
	assert.Equal(t, "42", FromOutput(42).Content)
	res := Result{Content: "kept", System: "s"}
	assert.Equal(t, res, FromOutput(res))
}

// -------------------- Collection --------------------

func TestCollection(t *testing.T) {
	echo := NewFunctionTool("echo", "Echo", map[string]any{"type": "object"},
		func(_ context.Context, args map[string]any) (Result, error) {
			text, _ := args["text"].(string)
			return Result{Content: text}, nil
		})
	c := NewCollection(echo, NewTerminate())

	assert.Equal(t, 2, c.Len())

	got, ok := c.Get("echo")
	require.True(t, ok)
	assert.Equal(t, "echo", got.Name())

	_, ok = c.Get("missing")
	assert.False(t, ok)

	// Registration order is preserved.
	names := make([]string, 0, c.Len())
	for _, tl := range c.Tools() {
		names = append(names, tl.Name())
	}
	assert.Equal(t, []string{"echo", TerminateName}, names)
}

func TestCollectionExecute(t *testing.T) {
	c := NewCollection(NewTerminate())

	res, err := c.Execute(context.Background(), TerminateName, map[string]any{"status": "failure"})
	require.NoError(t, err)
	assert.Equal(t, "The interaction has been completed with status: failure", res.Content)

	_, err = c.Execute(context.Background(), "missing", nil)
	require.Error(t, err)
}

func TestCollectionCategory(t *testing.T) {
	speak := NewFunctionTool("speak", "Speak", map[string]any{"type": "object"},
		func(_ context.Context, _ map[string]any) (Result, error) { return Result{}, nil },
		WithCategory(core.CategorySpeakInPerson))
	c := NewCollection(speak, NewTerminate())

	assert.Equal(t, core.CategorySpeakInPerson, c.Category("speak"))
	assert.Equal(t, core.CategoryTool, c.Category(TerminateName))
	assert.Equal(t, core.CategoryTool, c.Category("missing"))
}

// -------------------- Concrete tools --------------------

func TestFunctionToolError(t *testing.T) {
	flaky := NewFunctionTool("flaky", "Fails", map[string]any{"type": "object"},
		func(_ context.Context, _ map[string]any) (Result, error) {
			return Result{}, errors.New("nope")
		})

	_, err := flaky.Execute(context.Background(), nil)
	require.Error(t, err)
}

func TestTerminateDefaultsToSuccess(t *testing.T) {
	res, err := NewTerminate().Execute(context.Background(), map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, "The interaction has been completed with status: success", res.Content)
}

func TestCurrentTimeUsesInjectedClock(t *testing.T) {
	fixed := time.Date(2024, 5, 17, 9, 30, 0, 0, time.UTC)
	ct := NewCurrentTime(WithClock(func() time.Time { return fixed }))

	res, err := ct.Execute(context.Background(), nil)
	require.NoError(t, err)
	assert.Contains(t, res.Content, "2024-05-17 09:30:00")
}

func TestSpeakInPerson(t *testing.T) {
	sp := NewSpeakInPerson()
	assert.Equal(t, core.CategorySpeakInPerson, sp.Category())

	res, err := sp.Execute(context.Background(), map[string]any{"message": "good morning"})
	require.NoError(t, err)
	assert.Equal(t, "good morning", res.Content)
}
