package agent

import (
	"context"
	"log/slog"
	"time"

	"github.com/usetownhall/townhall/plugin/ai/router"
)

// FormatCoordinator orders the formatting sub-pipeline. Its contract is
// sequential: conditionally run the feedback and incident formatters
// for topics present in the conversation, then run the summarizer
// exactly once, then hand back to dialogue. The formatters themselves
// enforce at-most-one persistence per entity type via the context
// flags, so invoking the coordinator repeatedly is safe.
type FormatCoordinator struct {
	incident   Agent
	feedback   Agent
	summarizer Agent
	classifier router.ClassifierService
}

// NewFormatCoordinator creates the coordinator. The classifier is used
// to detect a secondary topic (a turn can carry both an incident and
// feedback); pass nil to skip that check.
func NewFormatCoordinator(incident, feedback, summarizer Agent, classifier router.ClassifierService) *FormatCoordinator {
	return &FormatCoordinator{
		incident:   incident,
		feedback:   feedback,
		summarizer: summarizer,
		classifier: classifier,
	}
}

func (c *FormatCoordinator) Role() Role {
	return RoleFormatCoordinator
}

func (c *FormatCoordinator) Execute(ctx context.Context, turn *Turn, callback EventCallback) (*Outcome, error) {
	startTime := time.Now()

	runIncident := turn.Intent() == router.IntentIncident
	runFeedback := turn.Intent() == router.IntentFeedback

	// A single turn can carry both topics; re-classify the flattened
	// conversation to catch the one triage did not pick.
	if c.classifier != nil {
		if result, err := c.classifier.Classify(ctx, renderConversation(turn.History, turn.Input), nil); err == nil {
			switch result.Intent {
			case router.IntentIncident:
				runIncident = true
			case router.IntentFeedback:
				runFeedback = true
			}
		}
	}

	slog.Info("FormatCoordinator: pipeline started",
		"session_id", turn.SessionID,
		"run_incident", runIncident,
		"run_feedback", runFeedback,
	)

	if runFeedback {
		if err := c.runTool(ctx, c.feedback, turn, callback); err != nil {
			return nil, err
		}
	}
	if runIncident {
		if err := c.runTool(ctx, c.incident, turn, callback); err != nil {
			return nil, err
		}
	}

	// The summarizer runs exactly once per pass, after the formatters.
	if err := c.runTool(ctx, c.summarizer, turn, callback); err != nil {
		return nil, err
	}

	slog.Info("FormatCoordinator: pipeline completed",
		"session_id", turn.SessionID,
		"duration", time.Since(startTime),
	)

	return &Outcome{Handoff: RoleDialogue}, nil
}

// runTool drives a tool role inline. Tool roles never hand off; their
// outcome is discarded beyond the error.
func (c *FormatCoordinator) runTool(ctx context.Context, tool Agent, turn *Turn, callback EventCallback) error {
	if tool == nil {
		return nil
	}
	turn.markVisited(tool.Role())
	_, err := tool.Execute(ctx, turn, callback)
	return err
}
