package agent

import (
	"sync"

	"github.com/usetownhall/townhall/store"
)

// Stage identifies which part of the pipeline currently owns the context.
type Stage string

const (
	StageDialogue               Stage = "dialogue"
	StageTriage                 Stage = "triage"
	StageInsights               Stage = "insights"
	StageConversationFormatting Stage = "conversation_formatting"
	StageIncidentFormatting     Stage = "incident_formatting"
	StageFeedbackFormatting     Stage = "feedback_formatting"
)

// TownContext is the mutable per-session conversation context threaded
// through every agent invocation. Exactly one stage is active at a
// time; only that stage's writer mutates its fields.
//
// The processed flags are the idempotence guard for the formatter
// tools: they are claimed with a check-and-set before extraction, so a
// formatter invoked twice for the same entity type within a session is
// a no-op the second time.
type TownContext struct {
	mu sync.RWMutex

	stage Stage

	incident     *store.Incident
	feedback     *store.Feedback
	conversation *Conversation
	insights     string

	incidentProcessed bool
	feedbackProcessed bool
}

// NewTownContext creates a context positioned at the dialogue stage.
func NewTownContext() *TownContext {
	return &TownContext{
		stage: StageDialogue,
	}
}

func (c *TownContext) Stage() Stage {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.stage
}

func (c *TownContext) SetStage(stage Stage) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stage = stage
}

func (c *TownContext) Incident() *store.Incident {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.incident
}

func (c *TownContext) SetIncident(incident *store.Incident) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.incident = incident
}

func (c *TownContext) Feedback() *store.Feedback {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.feedback
}

func (c *TownContext) SetFeedback(feedback *store.Feedback) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.feedback = feedback
}

func (c *TownContext) Conversation() *Conversation {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.conversation
}

func (c *TownContext) SetConversation(conversation *Conversation) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conversation = conversation
}

func (c *TownContext) Insights() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.insights
}

func (c *TownContext) SetInsights(insights string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.insights = insights
}

// TryBeginIncidentProcessing claims the incident processed flag.
// Returns false when the incident was already processed in this session.
func (c *TownContext) TryBeginIncidentProcessing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.incidentProcessed {
		return false
	}
	c.incidentProcessed = true
	return true
}

// AbortIncidentProcessing releases a claim taken by
// TryBeginIncidentProcessing after a failed extraction or persistence,
// so a later turn may retry.
func (c *TownContext) AbortIncidentProcessing() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.incidentProcessed = false
}

func (c *TownContext) IncidentProcessed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.incidentProcessed
}

// TryBeginFeedbackProcessing claims the feedback processed flag.
func (c *TownContext) TryBeginFeedbackProcessing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.feedbackProcessed {
		return false
	}
	c.feedbackProcessed = true
	return true
}

// AbortFeedbackProcessing releases a claim after a failed attempt.
func (c *TownContext) AbortFeedbackProcessing() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.feedbackProcessed = false
}

func (c *TownContext) FeedbackProcessed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.feedbackProcessed
}

// Snapshot is an immutable view of the context for logging and the API.
type Snapshot struct {
	Stage             Stage  `json:"stage"`
	HasIncident       bool   `json:"has_incident"`
	HasFeedback       bool   `json:"has_feedback"`
	HasConversation   bool   `json:"has_conversation"`
	Insights          string `json:"insights,omitempty"`
	IncidentProcessed bool   `json:"incident_processed"`
	FeedbackProcessed bool   `json:"feedback_processed"`
}

func (c *TownContext) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Snapshot{
		Stage:             c.stage,
		HasIncident:       c.incident != nil,
		HasFeedback:       c.feedback != nil,
		HasConversation:   c.conversation != nil,
		Insights:          c.insights,
		IncidentProcessed: c.incidentProcessed,
		FeedbackProcessed: c.feedbackProcessed,
	}
}
