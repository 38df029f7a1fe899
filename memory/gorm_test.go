package memory

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soragoto/kokoro/core"
)

func openTestStore(t *testing.T) *GormStore {
	t.Helper()
	store, err := OpenSQLite(":memory:")
	require.NoError(t, err)
	return store
}

func TestGormStoreRoundTrip(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	call := core.ToolCall{
		ID:       "c1",
		Type:     "function",
		Function: core.FunctionCall{Name: "echo", Arguments: `{"text":"hi"}`},
	}
	assistant := core.AssistantToolCallMessage("checking", []core.ToolCall{call}).
		WithCategory(core.CategoryThought).
		WithVisibility([]string{"alice"})

	require.NoError(t, store.Append(ctx, "s1", core.UserMessage("hi")))
	require.NoError(t, store.Append(ctx, "s1", assistant))
	require.NoError(t, store.Append(ctx, "s1", core.ToolMessage("hi", "echo", "c1")))

	msgs, err := store.Messages(ctx, "s1", 0)
	require.NoError(t, err)
	require.Len(t, msgs, 3)

	assert.Equal(t, core.RoleUser, msgs[0].Role)

	got := msgs[1]
	assert.Equal(t, core.RoleAssistant, got.Role)
	assert.Equal(t, "checking", got.Content)
	assert.Equal(t, core.CategoryThought, got.Category)
	assert.Equal(t, []string{"alice"}, got.VisibleFor)
	require.Len(t, got.ToolCalls, 1)
	assert.Equal(t, call, got.ToolCalls[0])

	assert.Equal(t, "c1", msgs[2].ToolCallID)
	assert.Equal(t, "echo", msgs[2].ToolName)
}

func TestGormStoreLimitKeepsAppendOrder(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, store.Append(ctx, "s1", core.UserMessage(fmt.Sprintf("m%d", i))))
	}

	msgs, err := store.Messages(ctx, "s1", 3)
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	assert.Equal(t, "m2", msgs[0].Content)
	assert.Equal(t, "m3", msgs[1].Content)
	assert.Equal(t, "m4", msgs[2].Content)
}

func TestGormStoreSessionIsolation(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, "a", core.UserMessage("for a")))
	require.NoError(t, store.Append(ctx, "b", core.UserMessage("for b")))

	msgs, err := store.Messages(ctx, "b", 0)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "for b", msgs[0].Content)
}
