package router

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/usetownhall/townhall/plugin/ai"
	"github.com/usetownhall/townhall/plugin/ai/timeout"
)

// llmClassify uses the LLM for semantic understanding of uncertain inputs.
// Recent history is included because a short follow-up message ("yes, at
// the park") only makes sense in context.
func llmClassify(ctx context.Context, llm ai.LLMService, input string, history []string) (*Result, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout.ClassifyTimeout)
	defer cancel()

	messages := []ai.Message{
		{Role: "system", Content: classifierSystemPrompt},
	}
	if len(history) > 0 {
		messages = append(messages, ai.Message{
			Role:    "user",
			Content: "Recent conversation:\n" + strings.Join(history, "\n"),
		})
	}
	messages = append(messages, ai.Message{Role: "user", Content: input})

	start := time.Now()
	content, err := llm.ChatStructured(ctx, messages, "intent_classification", classifierJSONSchema)
	latency := time.Since(start)
	if err != nil {
		return nil, errors.Wrap(err, "LLM classification failed")
	}

	var raw struct {
		Intent     string  `json:"intent"`
		Confidence float64 `json:"confidence"`
	}
	if err := json.Unmarshal([]byte(content), &raw); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal classification")
	}

	result := &Result{
		Intent:     mapIntent(raw.Intent),
		Confidence: raw.Confidence,
		Method:     "llm",
	}

	slog.Debug("intent classified by LLM",
		"intent", result.Intent,
		"confidence", result.Confidence,
		"latency_ms", latency.Milliseconds())

	return result, nil
}

// mapIntent converts a raw string to an Intent, defaulting to dialogue.
func mapIntent(s string) Intent {
	switch Intent(strings.ToLower(strings.TrimSpace(s))) {
	case IntentIncident:
		return IntentIncident
	case IntentFeedback:
		return IntentFeedback
	case IntentInsights:
		return IntentInsights
	default:
		return IntentDialogue
	}
}

const classifierSystemPrompt = `Intent classifier for a digital town hall. Decide what the citizen message is about:

incident: reporting a crime, lost item, violation, accident or anomaly
feedback: suggestions, recommendations, praise or complaints about the city
insights: asking for city statistics, trends or aggregated report data
dialogue: smalltalk, greetings, general inquiries, anything else

Default: dialogue`

// jsonSchema is a minimal JSON schema representation for strict outputs.
type jsonSchema struct {
	Type                 string                 `json:"type"`
	Properties           map[string]*jsonSchema `json:"properties,omitempty"`
	Enum                 []string               `json:"enum,omitempty"`
	Description          string                 `json:"description,omitempty"`
	Required             []string               `json:"required,omitempty"`
	AdditionalProperties bool                   `json:"additionalProperties"`
}

func (s *jsonSchema) MarshalJSON() ([]byte, error) {
	type alias jsonSchema
	return json.Marshal((*alias)(s))
}

// classifierJSONSchema defines the strict output schema.
var classifierJSONSchema = &jsonSchema{
	Type: "object",
	Properties: map[string]*jsonSchema{
		"intent": {
			Type:        "string",
			Enum:        []string{"incident", "feedback", "insights", "dialogue"},
			Description: "The classified intent",
		},
		"confidence": {
			Type:        "number",
			Description: "Confidence score 0-1",
		},
	},
	Required:             []string{"intent", "confidence"},
	AdditionalProperties: false,
}
