package prompt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderPlainTextFastPath(t *testing.T) {
	got, err := Render("no markers here", nil)
	require.NoError(t, err)
	assert.Equal(t, "no markers here", got)
}

func TestRenderSubstitutesVariables(t *testing.T) {
	got, err := Render("You are {{.AgentName}} in session {{.SessionID}}.", map[string]any{
		"AgentName": "Mika",
		"SessionID": "s1",
	})
	require.NoError(t, err)
	assert.Equal(t, "You are Mika in session s1.", got)
}

func TestRenderHelperFuncs(t *testing.T) {
	got, err := Render(`{{upper .Name}} / {{default "guest" .Missing}} / {{join ", " .Items}}`, map[string]any{
		"Name":  "mika",
		"Items": []any{"a", "b"},
	})
	require.NoError(t, err)
	assert.Equal(t, "MIKA / guest / a, b", got)
}

func TestRenderBadTemplate(t *testing.T) {
	_, err := Render("{{.Unclosed", nil)
	require.Error(t, err)
}
