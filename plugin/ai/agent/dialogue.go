package agent

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/pkg/errors"

	ai "github.com/usetownhall/townhall/plugin/ai"
	"github.com/usetownhall/townhall/plugin/ai/timeout"
)

// DialogueAgent converses directly with the citizen. Every turn starts
// here; after answering it hands off to triage so the turn's intent can
// be classified, unless triage already ran this turn.
type DialogueAgent struct {
	llm ai.LLMService
}

// NewDialogueAgent creates the dialogue agent.
func NewDialogueAgent(llm ai.LLMService) *DialogueAgent {
	return &DialogueAgent{llm: llm}
}

func (a *DialogueAgent) Role() Role {
	return RoleDialogue
}

func (a *DialogueAgent) Execute(ctx context.Context, turn *Turn, callback EventCallback) (*Outcome, error) {
	if a.llm == nil {
		return nil, NewAgentError(RoleDialogue, "Execute", errors.New("llm service not configured"))
	}

	ctx, cancel := context.WithTimeout(ctx, timeout.StreamTimeout)
	defer cancel()

	startTime := time.Now()
	turn.Context.SetStage(StageDialogue)

	// First pass of the turn: defer to triage before generating, so the
	// answer can incorporate whatever the pipeline produced. Triage runs
	// at most once per turn, so this cannot loop.
	if !turn.Visited(RoleTriage) {
		slog.Debug("DialogueAgent: deferring to triage",
			"session_id", turn.SessionID,
		)
		return &Outcome{Handoff: RoleTriage}, nil
	}

	slog.Info("DialogueAgent: execution started",
		"session_id", turn.SessionID,
		"input", truncateString(turn.Input, 100),
		"history_count", len(turn.History),
	)

	messages := a.buildMessages(turn)

	if err := emit(callback, EventTypeThinking, "Thinking..."); err != nil {
		return nil, err
	}

	contentChan, errChan := a.llm.ChatStream(ctx, messages)

	var fullContent strings.Builder
	var streamErr error
	var chunkCount int

	for {
		select {
		case chunk, ok := <-contentChan:
			if !ok {
				if streamErr != nil {
					slog.Error("DialogueAgent: stream error",
						"session_id", turn.SessionID,
						"error", streamErr,
					)
					return nil, NewAgentError(RoleDialogue, "ChatStream", streamErr)
				}
				slog.Info("DialogueAgent: execution completed",
					"session_id", turn.SessionID,
					"chunks", chunkCount,
					"answer_length", fullContent.Len(),
					"duration", time.Since(startTime),
				)
				return &Outcome{Handoff: a.nextRole(turn)}, nil
			}
			chunkCount++
			fullContent.WriteString(chunk)
			if err := emit(callback, EventTypeAnswer, chunk); err != nil {
				return nil, err
			}
		case err, ok := <-errChan:
			if ok && err != nil {
				streamErr = err
			}
		case <-ctx.Done():
			return nil, NewAgentError(RoleDialogue, "ChatStream", ctx.Err())
		}
	}
}

// buildMessages assembles the system prompt, any pending insights, the
// session history, and the current input. Insights are relayed once and
// then cleared from the context.
func (a *DialogueAgent) buildMessages(turn *Turn) []ai.Message {
	systemPrompt := dialoguePrompt
	if insights := turn.Context.Insights(); insights != "" {
		systemPrompt += "\n\nCity data to relay to the citizen:\n" + insights
		turn.Context.SetInsights("")
	}
	if turn.Visited(RoleFormatCoordinator) {
		if inc := turn.Context.Incident(); inc != nil && turn.Context.IncidentProcessed() {
			systemPrompt += "\n\nAn incident report was just filed on the citizen's behalf (type: " +
				inc.IncidentType + "). Acknowledge it and mention that the report has been recorded."
		}
		if fb := turn.Context.Feedback(); fb != nil && turn.Context.FeedbackProcessed() {
			systemPrompt += "\n\nThe citizen's feedback about \"" + fb.Topic +
				"\" was just recorded. Thank them for it."
		}
	}

	messages := []ai.Message{
		{Role: "system", Content: systemPrompt},
	}

	// History alternates user/assistant; skip empty entries to avoid
	// upstream API errors.
	for i := 0; i+1 < len(turn.History); i += 2 {
		userMsg, assistantMsg := turn.History[i], turn.History[i+1]
		if userMsg != "" && assistantMsg != "" {
			messages = append(messages, ai.Message{Role: "user", Content: userMsg})
			messages = append(messages, ai.Message{Role: "assistant", Content: assistantMsg})
		}
	}

	messages = append(messages, ai.Message{Role: "user", Content: turn.Input})
	return messages
}

// nextRole hands off to triage exactly once per turn. When triage has
// already run, the turn ends here and dialogue stays the active role.
func (a *DialogueAgent) nextRole(turn *Turn) Role {
	if turn.Visited(RoleTriage) {
		return RoleNone
	}
	return RoleTriage
}
