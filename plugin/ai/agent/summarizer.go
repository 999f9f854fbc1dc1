package agent

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/pkg/errors"

	ai "github.com/usetownhall/townhall/plugin/ai"
	"github.com/usetownhall/townhall/plugin/ai/timeout"
)

// ConversationSummarizer derives the structured conversation summary.
// Pure with respect to persistence: the result lives only in context.
type ConversationSummarizer struct {
	llm ai.LLMService
}

// NewConversationSummarizer creates the summarizer tool.
func NewConversationSummarizer(llm ai.LLMService) *ConversationSummarizer {
	return &ConversationSummarizer{llm: llm}
}

func (s *ConversationSummarizer) Role() Role {
	return RoleConversationSummarizer
}

func (s *ConversationSummarizer) Execute(ctx context.Context, turn *Turn, callback EventCallback) (*Outcome, error) {
	if s.llm == nil {
		return nil, NewAgentError(RoleConversationSummarizer, "Execute", errors.New("llm service not configured"))
	}

	ctx, cancel := context.WithTimeout(ctx, timeout.ToolTimeout)
	defer cancel()

	startTime := time.Now()
	turn.Context.SetStage(StageConversationFormatting)

	if err := emit(callback, EventTypeToolUse, "summarize_conversation"); err != nil {
		return nil, err
	}

	messages := []ai.Message{
		{Role: "system", Content: conversationSummaryPrompt},
		{Role: "user", Content: renderConversation(turn.History, turn.Input)},
	}

	raw, err := s.llm.ChatStructured(ctx, messages, "conversation_summary", reflectSchema(&Conversation{}))
	if err != nil {
		return nil, NewAgentError(RoleConversationSummarizer, "ChatStructured", err)
	}

	var conversation Conversation
	if err := json.Unmarshal([]byte(raw), &conversation); err != nil {
		return nil, NewAgentError(RoleConversationSummarizer, "Unmarshal",
			&ValidationError{Field: "conversation", Reason: "malformed extraction output"})
	}

	// The model cannot see handoffs; fill the count from turn state.
	conversation.HandoffCount = turn.HandoffCount()
	turn.Context.SetConversation(&conversation)

	if err := emit(callback, EventTypeToolResult, "conversation summarized"); err != nil {
		return nil, err
	}

	slog.Info("ConversationSummarizer: summary ready",
		"session_id", turn.SessionID,
		"primary_topic", conversation.PrimaryTopic,
		"conversation_type", conversation.ConversationType,
		"resolved", conversation.Resolved,
		"duration", time.Since(startTime),
	)

	return &Outcome{Handoff: RoleNone}, nil
}
