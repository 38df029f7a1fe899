package tool

import (
	"context"

	"github.com/soragoto/kokoro/core"
)

// SpeakInPersonName is the registry name of the SpeakInPerson tool.
const SpeakInPersonName = "speak_in_person"

// SpeakInPerson voices a line of face-to-face dialogue. The spoken text is
// the tool's own result, so the result handler streams it back with the
// typewriter pacing of CategorySpeakInPerson.
type SpeakInPerson struct{}

// NewSpeakInPerson creates the in-person speech tool.
func NewSpeakInPerson() *SpeakInPerson { return &SpeakInPerson{} }

func (t *SpeakInPerson) Name() string { return SpeakInPersonName }

func (t *SpeakInPerson) Description() string {
	return "Say something out loud to the user in a face-to-face conversation."
}

func (t *SpeakInPerson) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"message": map[string]any{
				"type":        "string",
				"description": "What to say.",
			},
		},
		"required": []string{"message"},
	}
}

// Category implements Categorized.
func (t *SpeakInPerson) Category() core.MessageCategory { return core.CategorySpeakInPerson }

func (t *SpeakInPerson) Execute(_ context.Context, args map[string]any) (Result, error) {
	text, _ := args["message"].(string)
	if text == "" {
		return Result{Error: "message must not be empty"}, nil
	}
	return Result{Content: text}, nil
}
