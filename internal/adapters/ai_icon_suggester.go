package adapters

import (
	"context"
	"strings"

	"civicpulse_backend/platform/ai/openaicompat"
)

const iconSystemPrompt = `You classify civic issue reports into a map icon.
The available icons are: Car, SprayCan, LightbulbOff, Trash2, Wrench, TrafficCone, Waves, Trees, Bug, HelpCircle.
Respond with exactly one icon name and nothing else. Use HelpCircle when nothing fits.`

// AIIconSuggester asks the model for a map icon matching a report
// description. Callers fall back to keyword matching when it fails.
type AIIconSuggester struct {
	model *openaicompat.ChatModel
}

func NewAIIconSuggester(model *openaicompat.ChatModel) *AIIconSuggester {
	return &AIIconSuggester{model: model}
}

func (a *AIIconSuggester) SuggestIcon(ctx context.Context, description string) (string, error) {
	answer, err := a.model.Complete(ctx, iconSystemPrompt, "Report description: "+description)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(answer), nil
}
