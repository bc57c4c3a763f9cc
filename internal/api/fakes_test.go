package api

import (
	"alcyxob/coach-tracker/internal/domain"
	"alcyxob/coach-tracker/internal/logging"
	"alcyxob/coach-tracker/internal/service"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const testCookie = "session"

var (
	coachUser  = &domain.User{ID: primitive.NewObjectID(), Name: "Coach", Email: "coach@example.com", Role: domain.RoleCoach, Status: domain.StatusActive}
	clientUser = &domain.User{ID: primitive.NewObjectID(), Name: "Client", Email: "client@example.com", Role: domain.RoleClient, Status: domain.StatusActive}
)

func init() {
	gin.SetMode(gin.TestMode)
	clientUser.CoachID = &coachUser.ID
	coachUser.ClientIDs = []primitive.ObjectID{clientUser.ID}
}

// stubIdentity resolves a fixed set of tokens.
type stubIdentity struct {
	users       map[string]*domain.User // token -> user
	unknown     map[string]bool         // verified tokens with no account
	provisioned []string
}

func newStubIdentity() *stubIdentity {
	return &stubIdentity{
		users:   map[string]*domain.User{"coach-token": coachUser, "client-token": clientUser},
		unknown: map[string]bool{"new-token": true},
	}
}

func (s *stubIdentity) Verify(token string) (string, error) {
	if token == "" {
		return "", service.ErrMissingToken
	}
	if _, ok := s.users[token]; ok || s.unknown[token] {
		return "auth|" + token, nil
	}
	return "", service.ErrInvalidToken
}

func (s *stubIdentity) Resolve(_ context.Context, token string) (*service.Identity, *domain.User, error) {
	authID, err := s.Verify(token)
	if err != nil {
		return nil, nil, err
	}
	u, ok := s.users[token]
	if !ok {
		return nil, nil, service.ErrUnknownUser
	}
	if !u.IsActive() {
		return nil, nil, service.ErrUserInactive
	}
	id := &service.Identity{AuthID: authID, UserID: u.ID, Role: u.Role, OwnerID: u.ID}
	if u.CoachID != nil {
		id.OwnerID = *u.CoachID
	}
	return id, u, nil
}

func (s *stubIdentity) Provision(_ context.Context, authID, name, email string, role domain.Role) (*domain.User, error) {
	if strings.TrimSpace(name) == "" {
		return nil, service.ErrIncompleteProfile
	}
	for _, u := range s.users {
		if u.Email == email {
			return nil, service.ErrUserAlreadyExists
		}
	}
	s.provisioned = append(s.provisioned, authID)
	return &domain.User{ID: primitive.NewObjectID(), AuthID: authID, Name: name, Email: email, Role: role, Status: domain.StatusActive}, nil
}

// The stubs below embed the interface; calling a method a test did not
// set up panics, which fails that test loudly.

type stubCoach struct {
	service.CoachService
	addClient func(coachID primitive.ObjectID, email string) (*domain.User, error)
	activate  func(coachID, planID primitive.ObjectID) error

	addSupplement func(coachID, clientID primitive.ObjectID, name, dosage string) (*domain.Supplement, error)
}

func (s *stubCoach) AddClientByEmail(_ context.Context, coachID primitive.ObjectID, email string) (*domain.User, error) {
	return s.addClient(coachID, email)
}

func (s *stubCoach) ActivateMealPlan(_ context.Context, coachID, planID primitive.ObjectID) error {
	return s.activate(coachID, planID)
}

func (s *stubCoach) AddSupplement(_ context.Context, coachID, clientID primitive.ObjectID, name, dosage string) (*domain.Supplement, error) {
	return s.addSupplement(coachID, clientID, name, dosage)
}

type stubClient struct {
	service.ClientService
	completeWorkout func(clientID, coachID primitive.ObjectID, groups []string) (*domain.WorkoutCompletion, error)
}

func (s *stubClient) CompleteWorkout(_ context.Context, clientID, coachID primitive.ObjectID, groups []string) (*domain.WorkoutCompletion, error) {
	return s.completeWorkout(clientID, coachID, groups)
}

type stubCompliance struct {
	service.ComplianceService
	weeks []int
}

func (s *stubCompliance) ClientReport(_ context.Context, _, clientID primitive.ObjectID, weeks int) (*service.ClientReport, error) {
	s.weeks = append(s.weeks, weeks)
	return &service.ClientReport{ClientID: clientID}, nil
}

func (s *stubCompliance) CoachOverview(context.Context, primitive.ObjectID) (*service.CoachOverview, error) {
	return &service.CoachOverview{Overall: 75}, nil
}

type stubMessages struct {
	service.MessageService
	sent []string
}

func (s *stubMessages) Send(_ context.Context, sender *domain.User, counterpartID primitive.ObjectID, body string) (*domain.Message, error) {
	if strings.TrimSpace(body) == "" {
		return nil, service.ErrEmptyMessage
	}
	if counterpartID != clientUser.ID && counterpartID != coachUser.ID {
		return nil, service.ErrNotConversationPeer
	}
	s.sent = append(s.sent, body)
	return &domain.Message{ID: primitive.NewObjectID(), SenderID: sender.ID, Body: body}, nil
}

type testServer struct {
	router     *gin.Engine
	identity   *stubIdentity
	coach      *stubCoach
	client     *stubClient
	compliance *stubCompliance
	messages   *stubMessages
}

func newTestServer(t *testing.T, limiter *RateLimiter) *testServer {
	t.Helper()
	ts := &testServer{
		identity:   newStubIdentity(),
		coach:      &stubCoach{},
		client:     &stubClient{},
		compliance: &stubCompliance{},
		messages:   &stubMessages{},
	}
	ts.router = gin.New()
	ts.router.Use(RequestLogger(logging.Discard()))
	SetupRoutes(ts.router, testCookie, Services{
		Identity:   ts.identity,
		Coach:      ts.coach,
		Client:     ts.client,
		Compliance: ts.compliance,
		Messages:   ts.messages,
	}, limiter)
	return ts
}

func (ts *testServer) do(method, path, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

func (ts *testServer) doCookie(method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	req.AddCookie(&http.Cookie{Name: testCookie, Value: token})
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}
