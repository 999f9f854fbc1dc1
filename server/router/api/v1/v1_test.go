package v1

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/usetownhall/townhall/internal/profile"
	ai "github.com/usetownhall/townhall/plugin/ai"
	"github.com/usetownhall/townhall/plugin/ai/agent"
	"github.com/usetownhall/townhall/plugin/ai/router"
	"github.com/usetownhall/townhall/plugin/ai/session"
	"github.com/usetownhall/townhall/store"
	storetest "github.com/usetownhall/townhall/store/test"
)

// newTestService wires the full stack over mocked LLM and classifier
// with a throwaway SQLite store.
func newTestService(t *testing.T, llm ai.LLMService, classifier router.ClassifierService) (*APIV1Service, *echo.Echo, *store.Store) {
	t.Helper()

	st := storetest.NewTestingStore(context.Background(), t)
	sessions := session.NewStore()

	coordinator := agent.NewFormatCoordinator(
		agent.NewIncidentFormatter(llm, st),
		agent.NewFeedbackFormatter(llm, st),
		agent.NewConversationSummarizer(llm),
		classifier,
	)
	runner := agent.NewRunner([]agent.Agent{
		agent.NewDialogueAgent(llm),
		agent.NewTriageAgent(classifier),
		agent.NewInsightsAgent(st),
		coordinator,
	}, 0)

	svc := NewAPIV1Service(&profile.Profile{Mode: "dev", Version: "test", ChatConcurrency: 4}, st, sessions, runner)
	echoServer := echo.New()
	svc.RegisterRoutes(echoServer)
	return svc, echoServer, st
}

func doRequest(echoServer *echo.Echo, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	echoServer.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	_, echoServer, _ := newTestService(t, ai.NewMockLLMService(), router.NewMockClassifierService())

	rec := doRequest(echoServer, http.MethodGet, "/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if body["status"] != "healthy" {
		t.Errorf("status = %q, want healthy", body["status"])
	}
}

func TestServiceInfo(t *testing.T) {
	svc, echoServer, _ := newTestService(t, ai.NewMockLLMService(), router.NewMockClassifierService())

	if _, err := svc.Sessions.Create(context.Background(), ""); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	rec := doRequest(echoServer, http.MethodGet, "/", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if body["service"] != "digital-town-hall" {
		t.Errorf("service = %v", body["service"])
	}
	if body["active_sessions"].(float64) != 1 {
		t.Errorf("active_sessions = %v, want 1", body["active_sessions"])
	}
}

func TestCreateSessionAnonymousUser(t *testing.T) {
	_, echoServer, _ := newTestService(t, ai.NewMockLLMService(), router.NewMockClassifierService())

	rec := doRequest(echoServer, http.MethodPost, "/sessions/create", `{}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var body sessionResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if body.SessionID == "" {
		t.Error("session_id must be set")
	}
	if !strings.HasPrefix(body.UserID, "anonymous-") {
		t.Errorf("user_id = %q, want anonymous- prefix", body.UserID)
	}
	if body.GroupID == "" {
		t.Error("group_id must be set")
	}
	if body.ActiveRole != "dialogue" {
		t.Errorf("active_role = %q, want dialogue", body.ActiveRole)
	}
}

func TestListSessionsFilteredByUser(t *testing.T) {
	_, echoServer, _ := newTestService(t, ai.NewMockLLMService(), router.NewMockClassifierService())

	first := doRequest(echoServer, http.MethodPost, "/sessions/create", `{"user_id":"citizen-7"}`)
	second := doRequest(echoServer, http.MethodPost, "/sessions/create", `{"user_id":"citizen-7"}`)
	doRequest(echoServer, http.MethodPost, "/sessions/create", `{"user_id":"someone-else"}`)

	var a, b sessionResponse
	_ = json.Unmarshal(first.Body.Bytes(), &a)
	_ = json.Unmarshal(second.Body.Bytes(), &b)
	if a.SessionID == b.SessionID {
		t.Error("sessions must get independent ids")
	}

	rec := doRequest(echoServer, http.MethodGet, "/sessions?user_id=citizen-7", "")
	var body struct {
		Sessions []*sessionResponse `json:"sessions"`
		Count    int                `json:"count"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if body.Count != 2 {
		t.Errorf("count = %d, want 2", body.Count)
	}
}

func TestGetSessionNotFound(t *testing.T) {
	_, echoServer, _ := newTestService(t, ai.NewMockLLMService(), router.NewMockClassifierService())

	rec := doRequest(echoServer, http.MethodGet, "/sessions/missing", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestDeleteSession(t *testing.T) {
	_, echoServer, _ := newTestService(t, ai.NewMockLLMService(), router.NewMockClassifierService())

	created := doRequest(echoServer, http.MethodPost, "/sessions/create", `{}`)
	var body sessionResponse
	_ = json.Unmarshal(created.Body.Bytes(), &body)

	rec := doRequest(echoServer, http.MethodDelete, "/sessions/"+body.SessionID, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var deleted map[string]string
	_ = json.Unmarshal(rec.Body.Bytes(), &deleted)
	if deleted["status"] != "deleted" || deleted["session_id"] != body.SessionID {
		t.Errorf("unexpected body: %v", deleted)
	}

	if rec := doRequest(echoServer, http.MethodDelete, "/sessions/"+body.SessionID, ""); rec.Code != http.StatusNotFound {
		t.Errorf("second delete status = %d, want 404", rec.Code)
	}
}

func TestChatRejectsEmptyMessage(t *testing.T) {
	_, echoServer, _ := newTestService(t, ai.NewMockLLMService(), router.NewMockClassifierService())

	rec := doRequest(echoServer, http.MethodPost, "/chat", `{"session_id":"x"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestChatUnknownSession(t *testing.T) {
	_, echoServer, _ := newTestService(t, ai.NewMockLLMService(), router.NewMockClassifierService())

	rec := doRequest(echoServer, http.MethodPost, "/chat", `{"message":"hi","session_id":"missing"}`)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestChatStreamsAnswer(t *testing.T) {
	llm := ai.NewMockLLMService()
	llm.ChatReplies = []string{"Hello! How can I help you today?"}
	svc, echoServer, _ := newTestService(t, llm, router.NewMockClassifierService())

	created := doRequest(echoServer, http.MethodPost, "/sessions/create", `{}`)
	var sess sessionResponse
	_ = json.Unmarshal(created.Body.Bytes(), &sess)

	rec := doRequest(echoServer, http.MethodPost, "/chat", `{"message":"hi there","session_id":"`+sess.SessionID+`"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get(echo.HeaderContentType); ct != "text/event-stream" {
		t.Errorf("content type = %q", ct)
	}

	body := rec.Body.String()
	if !strings.Contains(body, "data: ") {
		t.Error("expected streamed data events")
	}
	if !strings.HasSuffix(body, "data: [DONE]\n\n") {
		t.Errorf("stream must end with [DONE], got %q", body)
	}
	if strings.Contains(body, "[ERROR") {
		t.Errorf("unexpected error event in %q", body)
	}

	// Metadata reflects the turn: routing state persisted, history grew.
	updated, err := svc.Sessions.Get(context.Background(), sess.SessionID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if updated.ActiveRole != agent.RoleDialogue {
		t.Errorf("active role = %s, want dialogue", updated.ActiveRole)
	}
	if updated.MessageCount != 1 {
		t.Errorf("message count = %d, want 1", updated.MessageCount)
	}
	history, _ := svc.Sessions.History(context.Background(), sess.SessionID)
	if len(history) != 2 {
		t.Fatalf("history length = %d, want 2", len(history))
	}
	if history[1].Content != "Hello! How can I help you today?" {
		t.Errorf("assistant history = %q", history[1].Content)
	}
}

func TestChatImplicitSession(t *testing.T) {
	llm := ai.NewMockLLMService()
	llm.ChatReplies = []string{"Welcome!"}
	svc, echoServer, _ := newTestService(t, llm, router.NewMockClassifierService())

	rec := doRequest(echoServer, http.MethodPost, "/chat", `{"message":"hi"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if svc.Sessions.Count(context.Background()) != 1 {
		t.Error("expected an implicitly created session")
	}
}

func TestChatBikeTheftPersistsIncident(t *testing.T) {
	llm := ai.NewMockLLMService()
	llm.ChatReplies = []string{"I'm sorry to hear that. Your report has been filed."}
	llm.QueueStructured("incident_report", `{"incident_type":"theft","description":"Bike stolen at the park","date_of_occurrence":"","location":"the park","person_involved":"unknown","reporter_name":"","severity_level":3}`)
	llm.QueueStructured("conversation_summary", `{"topics":["bike theft"],"primary_topic":"bike theft","topic_shift_count":0,"turn_count":1,"handoff_count":0,"conversation_type":"incident","sentiment_start":-0.5,"sentiment_end":-0.3,"sentiment_trend":0.2,"sentiment_direction":"up","resolved":true}`)

	classifier := router.NewMockClassifierService()
	classifier.Results = []*router.Result{
		{Intent: router.IntentIncident, Confidence: 0.95, Method: "rules"},
	}

	_, echoServer, st := newTestService(t, llm, classifier)

	created := doRequest(echoServer, http.MethodPost, "/sessions/create", `{}`)
	var sess sessionResponse
	_ = json.Unmarshal(created.Body.Bytes(), &sess)

	rec := doRequest(echoServer, http.MethodPost, "/chat", `{"message":"Someone stole my bike at the park","session_id":"`+sess.SessionID+`"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.HasSuffix(rec.Body.String(), "data: [DONE]\n\n") {
		t.Fatalf("stream must end with [DONE], got %q", rec.Body.String())
	}

	incidents, err := st.ListIncidents(context.Background(), &store.FindIncident{SessionID: &sess.SessionID})
	if err != nil {
		t.Fatalf("list incidents failed: %v", err)
	}
	if len(incidents) != 1 {
		t.Fatalf("expected exactly one persisted incident, got %d", len(incidents))
	}
	if incidents[0].Description == "" {
		t.Error("incident description must not be empty")
	}
	if incidents[0].SeverityLevel < 1 {
		t.Error("incident severity must be a positive integer")
	}
}

func TestChatErrorStream(t *testing.T) {
	llm := ai.NewMockLLMService()
	llm.Err = context.DeadlineExceeded
	_, echoServer, _ := newTestService(t, llm, router.NewMockClassifierService())

	created := doRequest(echoServer, http.MethodPost, "/sessions/create", `{}`)
	var sess sessionResponse
	_ = json.Unmarshal(created.Body.Bytes(), &sess)

	rec := doRequest(echoServer, http.MethodPost, "/chat", `{"message":"hi","session_id":"`+sess.SessionID+`"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d (errors are delivered in-band)", rec.Code)
	}

	body := rec.Body.String()
	if got := strings.Count(body, "[ERROR:"); got != 1 {
		t.Errorf("expected exactly one error event, got %d in %q", got, body)
	}
	if strings.Contains(body, "[DONE]") {
		t.Errorf("error stream must not contain [DONE]: %q", body)
	}
}
