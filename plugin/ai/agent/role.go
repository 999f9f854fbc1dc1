package agent

// Role is a named stage in the conversation routing graph.
type Role string

const (
	// RoleNone marks the absence of a handoff: the turn ends with the
	// current role.
	RoleNone Role = ""

	// RoleDialogue converses directly with the citizen. Every turn
	// starts and ends here unless a turn was interrupted mid-pipeline.
	RoleDialogue Role = "dialogue"

	// RoleTriage classifies the conversation and picks the next stage.
	RoleTriage Role = "triage"

	// RoleInsights fetches aggregated city data for dialogue to relay.
	RoleInsights Role = "insights"

	// RoleFormatCoordinator orders the formatting sub-pipeline:
	// conditional formatters, then the summarizer, then back to dialogue.
	RoleFormatCoordinator Role = "format_coordinator"

	// RoleIncidentFormatter extracts and persists a structured incident.
	// Invoked as a tool by the coordinator, never scheduled directly.
	RoleIncidentFormatter Role = "incident_formatter"

	// RoleFeedbackFormatter extracts and persists structured feedback.
	// Invoked as a tool by the coordinator, never scheduled directly.
	RoleFeedbackFormatter Role = "feedback_formatter"

	// RoleConversationSummarizer derives the conversation summary.
	// Invoked as a tool by the coordinator, never scheduled directly.
	RoleConversationSummarizer Role = "conversation_summarizer"
)

// handoffGraph is the statically declared adjacency set. Handoffs taken
// at runtime must be a subset of these edges; the runner enforces this.
var handoffGraph = map[Role][]Role{
	RoleDialogue:          {RoleTriage},
	RoleTriage:            {RoleDialogue, RoleInsights, RoleFormatCoordinator},
	RoleInsights:          {RoleDialogue},
	RoleFormatCoordinator: {RoleDialogue},

	// Tool roles never hand off; the coordinator drives them inline.
	RoleIncidentFormatter:      {},
	RoleFeedbackFormatter:      {},
	RoleConversationSummarizer: {},
}

// Handoffs returns the statically allowed next roles.
func (r Role) Handoffs() []Role {
	return handoffGraph[r]
}

// CanHandoff reports whether the edge r -> to is declared in the graph.
func (r Role) CanHandoff(to Role) bool {
	for _, next := range handoffGraph[r] {
		if next == to {
			return true
		}
	}
	return false
}

// IsValid reports whether r is a member of the fixed role set.
func (r Role) IsValid() bool {
	_, ok := handoffGraph[r]
	return ok
}

func (r Role) String() string {
	return string(r)
}

// ParseRole maps a string to a Role, defaulting to dialogue for
// anything outside the fixed role set.
func ParseRole(s string) Role {
	role := Role(s)
	if !role.IsValid() {
		return RoleDialogue
	}
	return role
}
