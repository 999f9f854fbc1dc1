package agent

import (
	"context"
	"testing"

	"github.com/usetownhall/townhall/plugin/ai/router"
)

// recordingAgent notes its invocations in a shared order slice.
type recordingAgent struct {
	role  Role
	order *[]Role
}

func (a *recordingAgent) Role() Role { return a.role }

func (a *recordingAgent) Execute(_ context.Context, _ *Turn, _ EventCallback) (*Outcome, error) {
	*a.order = append(*a.order, a.role)
	return &Outcome{Handoff: RoleNone}, nil
}

func TestFormatCoordinatorOrdering(t *testing.T) {
	tests := []struct {
		name      string
		intent    router.Intent
		secondary router.Intent
		want      []Role
	}{
		{
			name:   "incident only",
			intent: router.IntentIncident,
			want:   []Role{RoleIncidentFormatter, RoleConversationSummarizer},
		},
		{
			name:   "feedback only",
			intent: router.IntentFeedback,
			want:   []Role{RoleFeedbackFormatter, RoleConversationSummarizer},
		},
		{
			name:      "incident with secondary feedback",
			intent:    router.IntentIncident,
			secondary: router.IntentFeedback,
			want:      []Role{RoleFeedbackFormatter, RoleIncidentFormatter, RoleConversationSummarizer},
		},
		{
			name:      "feedback with secondary incident",
			intent:    router.IntentFeedback,
			secondary: router.IntentIncident,
			want:      []Role{RoleFeedbackFormatter, RoleIncidentFormatter, RoleConversationSummarizer},
		},
		{
			name:   "no formatter topic still summarizes",
			intent: router.IntentDialogue,
			want:   []Role{RoleConversationSummarizer},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var order []Role
			classifier := router.NewMockClassifierService()
			if tt.secondary != "" {
				classifier.Results = []*router.Result{
					{Intent: tt.secondary, Confidence: 0.9, Method: "mock"},
				}
			}

			coordinator := NewFormatCoordinator(
				&recordingAgent{role: RoleIncidentFormatter, order: &order},
				&recordingAgent{role: RoleFeedbackFormatter, order: &order},
				&recordingAgent{role: RoleConversationSummarizer, order: &order},
				classifier,
			)

			turn := NewTurn("session-1", "message", nil, nil)
			turn.intent = tt.intent

			outcome, err := coordinator.Execute(context.Background(), turn, nil)
			if err != nil {
				t.Fatalf("coordinator failed: %v", err)
			}
			if outcome.Handoff != RoleDialogue {
				t.Errorf("handoff = %s, want dialogue", outcome.Handoff)
			}

			if len(order) != len(tt.want) {
				t.Fatalf("invocation order = %v, want %v", order, tt.want)
			}
			for i := range tt.want {
				if order[i] != tt.want[i] {
					t.Fatalf("invocation order = %v, want %v", order, tt.want)
				}
			}

			for _, role := range tt.want {
				if !turn.Visited(role) {
					t.Errorf("expected %s to be marked visited", role)
				}
			}
		})
	}
}
