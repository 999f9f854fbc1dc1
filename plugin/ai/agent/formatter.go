package agent

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/pkg/errors"

	ai "github.com/usetownhall/townhall/plugin/ai"
	"github.com/usetownhall/townhall/plugin/ai/timeout"
	"github.com/usetownhall/townhall/store"
)

// RecordStore is the narrow persistence surface the formatter tools
// need. Satisfied by *store.Store.
type RecordStore interface {
	CreateIncident(ctx context.Context, create *store.Incident) (*store.Incident, error)
	CreateFeedback(ctx context.Context, create *store.Feedback) (*store.Feedback, error)
}

// incidentExtraction is the structured-output target for incident
// extraction. Dates travel as strings so the schema stays flat.
type incidentExtraction struct {
	IncidentType     string `json:"incident_type"`
	Description      string `json:"description"`
	DateOfOccurrence string `json:"date_of_occurrence"`
	Location         string `json:"location"`
	PersonInvolved   string `json:"person_involved"`
	ReporterName     string `json:"reporter_name"`
	SeverityLevel    int32  `json:"severity_level" jsonschema:"minimum=1,maximum=5"`
}

// feedbackExtraction is the structured-output target for feedback
// extraction.
type feedbackExtraction struct {
	Topic     string `json:"topic"`
	Summary   string `json:"summary"`
	Sentiment string `json:"sentiment" jsonschema:"enum=positive,enum=neutral,enum=negative"`
}

// IncidentFormatter extracts a structured incident from the
// conversation and persists it. At most one successful persistence per
// session is allowed; the context's processed flag gates re-entry.
type IncidentFormatter struct {
	llm     ai.LLMService
	records RecordStore
}

// NewIncidentFormatter creates the incident formatter tool.
func NewIncidentFormatter(llm ai.LLMService, records RecordStore) *IncidentFormatter {
	return &IncidentFormatter{llm: llm, records: records}
}

func (f *IncidentFormatter) Role() Role {
	return RoleIncidentFormatter
}

func (f *IncidentFormatter) Execute(ctx context.Context, turn *Turn, callback EventCallback) (*Outcome, error) {
	if !turn.Context.TryBeginIncidentProcessing() {
		slog.Info("IncidentFormatter: already processed, skipping",
			"session_id", turn.SessionID,
		)
		return &Outcome{Handoff: RoleNone}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, timeout.ToolTimeout)
	defer cancel()

	startTime := time.Now()
	turn.Context.SetStage(StageIncidentFormatting)

	if err := emit(callback, EventTypeToolUse, "format_incident"); err != nil {
		turn.Context.AbortIncidentProcessing()
		return nil, err
	}

	extracted, err := f.extract(ctx, turn)
	if err != nil {
		// Release the claim so a later turn may retry.
		turn.Context.AbortIncidentProcessing()
		return nil, err
	}

	created, err := f.records.CreateIncident(ctx, extracted)
	if err != nil {
		turn.Context.AbortIncidentProcessing()
		return nil, NewAgentError(RoleIncidentFormatter, "CreateIncident", err)
	}

	turn.Context.SetIncident(created)

	if err := emit(callback, EventTypeToolResult, "incident recorded"); err != nil {
		return nil, err
	}

	slog.Info("IncidentFormatter: incident persisted",
		"session_id", turn.SessionID,
		"incident_id", created.ID,
		"incident_type", created.IncidentType,
		"severity", created.SeverityLevel,
		"duration", time.Since(startTime),
	)

	return &Outcome{Handoff: RoleNone}, nil
}

// extract runs the structured extraction and validates the result
// before anything is persisted.
func (f *IncidentFormatter) extract(ctx context.Context, turn *Turn) (*store.Incident, error) {
	if f.llm == nil {
		return nil, NewAgentError(RoleIncidentFormatter, "extract", errors.New("llm service not configured"))
	}
	messages := []ai.Message{
		{Role: "system", Content: incidentExtractionPrompt},
		{Role: "user", Content: renderConversation(turn.History, turn.Input)},
	}

	raw, err := f.llm.ChatStructured(ctx, messages, "incident_report", reflectSchema(&incidentExtraction{}))
	if err != nil {
		return nil, NewAgentError(RoleIncidentFormatter, "ChatStructured", err)
	}

	var ext incidentExtraction
	if err := json.Unmarshal([]byte(raw), &ext); err != nil {
		return nil, NewAgentError(RoleIncidentFormatter, "Unmarshal",
			&ValidationError{Field: "incident", Reason: "malformed extraction output"})
	}

	if ext.Description == "" {
		return nil, &ValidationError{Field: "description", Reason: "must not be empty"}
	}
	if ext.SeverityLevel < 1 || ext.SeverityLevel > 5 {
		return nil, &ValidationError{Field: "severity_level", Reason: "must be between 1 and 5"}
	}

	incident := &store.Incident{
		SessionID:      turn.SessionID,
		IncidentType:   ext.IncidentType,
		Description:    ext.Description,
		Location:       ext.Location,
		PersonInvolved: ext.PersonInvolved,
		SeverityLevel:  ext.SeverityLevel,
	}
	if ext.DateOfOccurrence != "" {
		occurred, err := time.Parse("2006-01-02", ext.DateOfOccurrence)
		if err != nil {
			return nil, &ValidationError{Field: "date_of_occurrence", Reason: "expected YYYY-MM-DD"}
		}
		incident.DateOfOccurrence = &occurred
	}
	if ext.ReporterName != "" {
		incident.ReporterName = &ext.ReporterName
	}
	return incident, nil
}

// FeedbackFormatter extracts structured citizen feedback from the
// conversation and persists it, gated by the feedback processed flag.
type FeedbackFormatter struct {
	llm     ai.LLMService
	records RecordStore
}

// NewFeedbackFormatter creates the feedback formatter tool.
func NewFeedbackFormatter(llm ai.LLMService, records RecordStore) *FeedbackFormatter {
	return &FeedbackFormatter{llm: llm, records: records}
}

func (f *FeedbackFormatter) Role() Role {
	return RoleFeedbackFormatter
}

func (f *FeedbackFormatter) Execute(ctx context.Context, turn *Turn, callback EventCallback) (*Outcome, error) {
	if !turn.Context.TryBeginFeedbackProcessing() {
		slog.Info("FeedbackFormatter: already processed, skipping",
			"session_id", turn.SessionID,
		)
		return &Outcome{Handoff: RoleNone}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, timeout.ToolTimeout)
	defer cancel()

	startTime := time.Now()
	turn.Context.SetStage(StageFeedbackFormatting)

	if err := emit(callback, EventTypeToolUse, "format_feedback"); err != nil {
		turn.Context.AbortFeedbackProcessing()
		return nil, err
	}

	extracted, err := f.extract(ctx, turn)
	if err != nil {
		turn.Context.AbortFeedbackProcessing()
		return nil, err
	}

	created, err := f.records.CreateFeedback(ctx, extracted)
	if err != nil {
		turn.Context.AbortFeedbackProcessing()
		return nil, NewAgentError(RoleFeedbackFormatter, "CreateFeedback", err)
	}

	turn.Context.SetFeedback(created)

	if err := emit(callback, EventTypeToolResult, "feedback recorded"); err != nil {
		return nil, err
	}

	slog.Info("FeedbackFormatter: feedback persisted",
		"session_id", turn.SessionID,
		"feedback_id", created.ID,
		"topic", created.Topic,
		"sentiment", created.Sentiment,
		"duration", time.Since(startTime),
	)

	return &Outcome{Handoff: RoleNone}, nil
}

func (f *FeedbackFormatter) extract(ctx context.Context, turn *Turn) (*store.Feedback, error) {
	if f.llm == nil {
		return nil, NewAgentError(RoleFeedbackFormatter, "extract", errors.New("llm service not configured"))
	}
	messages := []ai.Message{
		{Role: "system", Content: feedbackExtractionPrompt},
		{Role: "user", Content: renderConversation(turn.History, turn.Input)},
	}

	raw, err := f.llm.ChatStructured(ctx, messages, "citizen_feedback", reflectSchema(&feedbackExtraction{}))
	if err != nil {
		return nil, NewAgentError(RoleFeedbackFormatter, "ChatStructured", err)
	}

	var ext feedbackExtraction
	if err := json.Unmarshal([]byte(raw), &ext); err != nil {
		return nil, NewAgentError(RoleFeedbackFormatter, "Unmarshal",
			&ValidationError{Field: "feedback", Reason: "malformed extraction output"})
	}

	if ext.Topic == "" {
		return nil, &ValidationError{Field: "topic", Reason: "must not be empty"}
	}
	sentiment := store.FeedbackSentiment(ext.Sentiment)
	if !sentiment.IsValid() {
		return nil, &ValidationError{Field: "sentiment", Reason: "must be positive, neutral, or negative"}
	}

	return &store.Feedback{
		SessionID: turn.SessionID,
		Topic:     ext.Topic,
		Summary:   ext.Summary,
		Sentiment: sentiment,
	}, nil
}
