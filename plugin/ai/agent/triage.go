package agent

import (
	"context"
	"log/slog"
	"time"

	"github.com/usetownhall/townhall/plugin/ai/router"
)

// TriageAgent classifies the turn and picks the next stage. It emits
// nothing to the citizen; its only output is the handoff decision.
type TriageAgent struct {
	classifier router.ClassifierService
}

// NewTriageAgent creates the triage agent.
func NewTriageAgent(classifier router.ClassifierService) *TriageAgent {
	return &TriageAgent{classifier: classifier}
}

func (a *TriageAgent) Role() Role {
	return RoleTriage
}

func (a *TriageAgent) Execute(ctx context.Context, turn *Turn, callback EventCallback) (*Outcome, error) {
	startTime := time.Now()
	turn.Context.SetStage(StageTriage)

	result, err := a.classifier.Classify(ctx, turn.Input, turn.History)
	if err != nil {
		return nil, NewAgentError(RoleTriage, "Classify", err)
	}

	turn.intent = result.Intent
	next := roleForIntent(result.Intent)

	slog.Info("TriageAgent: classified",
		"session_id", turn.SessionID,
		"intent", result.Intent,
		"confidence", result.Confidence,
		"method", result.Method,
		"next_role", next,
		"duration", time.Since(startTime),
	)

	return &Outcome{Handoff: next}, nil
}

// roleForIntent maps a classifier verdict to the next pipeline stage.
func roleForIntent(intent router.Intent) Role {
	switch intent {
	case router.IntentIncident, router.IntentFeedback:
		return RoleFormatCoordinator
	case router.IntentInsights:
		return RoleInsights
	default:
		return RoleDialogue
	}
}
