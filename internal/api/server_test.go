package api

import (
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	"github.com/aicity/aicity/internal/agents"
	"github.com/aicity/aicity/internal/engine"
	"github.com/aicity/aicity/internal/entropy"
	"github.com/aicity/aicity/internal/ledger"
	"github.com/aicity/aicity/internal/llm"
	"github.com/aicity/aicity/internal/messaging"
)

func newTestCity(t *testing.T) *engine.City {
	t.Helper()
	l := ledger.New(100000, 0.5, 5)
	bus := messaging.NewMemoryBus(0)
	city := engine.NewCity(l, entropy.NewClient(""), llm.NewClient("", "", 0), bus, zerolog.Nop(), engine.Params{
		ColdCaseTimeoutDays:       10,
		BaseArrestProb:            0.3,
		GangFormationProbability:  0.05,
		GangExposureProbability:   0.1,
		ProjectAbandonTimeoutDays: 14,
		DailyTaxRate:              0.02,
		DailyBurnAmount:           3,
		ConvictionFineAmount:      150,
	})
	a := agents.RoleDefaults(1, "Ada", agents.RoleBuilder, 0)
	city.Register(a)
	return city
}

func TestStatusRouteReturns200(t *testing.T) {
	s := &Server{City: newTestCity(t), Log: zerolog.Nop()}
	req := httptest.NewRequest("GET", "/api/v1/status", nil)
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)
	if w.Code != 200 {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
}

func TestAgentsRouteReturns200(t *testing.T) {
	s := &Server{City: newTestCity(t), Log: zerolog.Nop()}
	req := httptest.NewRequest("GET", "/api/v1/agents", nil)
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)
	if w.Code != 200 {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestAgentDetailNotFound(t *testing.T) {
	s := &Server{City: newTestCity(t), Log: zerolog.Nop()}
	req := httptest.NewRequest("GET", "/api/v1/agent/999", nil)
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)
	if w.Code != 404 {
		t.Fatalf("expected 404 for unknown agent, got %d", w.Code)
	}
}

func TestAdminRouteRejectsMissingToken(t *testing.T) {
	s := &Server{City: newTestCity(t), Log: zerolog.Nop(), AdminKey: "secret"}
	req := httptest.NewRequest("POST", "/api/v1/snapshot", nil)
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)
	if w.Code != 401 {
		t.Fatalf("expected 401 without bearer token, got %d", w.Code)
	}
}

func TestAdminRouteRejectsWrongToken(t *testing.T) {
	s := &Server{City: newTestCity(t), Log: zerolog.Nop(), AdminKey: "secret"}
	req := httptest.NewRequest("POST", "/api/v1/snapshot", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)
	if w.Code != 401 {
		t.Fatalf("expected 401 with wrong token, got %d", w.Code)
	}
}

func TestAdminRouteAcceptsCorrectToken(t *testing.T) {
	s := &Server{City: newTestCity(t), Log: zerolog.Nop(), AdminKey: "secret"}
	req := httptest.NewRequest("POST", "/api/v1/snapshot", nil)
	req.Header.Set("Authorization", "Bearer secret")
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)
	if w.Code != 202 {
		t.Fatalf("expected 202 with correct token, got %d", w.Code)
	}
}

func TestAdminRouteDisabledWithoutKey(t *testing.T) {
	s := &Server{City: newTestCity(t), Log: zerolog.Nop()}
	req := httptest.NewRequest("POST", "/api/v1/snapshot", nil)
	req.Header.Set("Authorization", "Bearer anything")
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)
	if w.Code != 403 {
		t.Fatalf("expected 403 when no admin key configured, got %d", w.Code)
	}
}

func TestNarrativeRouteUnavailableWithoutReasoningModel(t *testing.T) {
	s := &Server{City: newTestCity(t), Log: zerolog.Nop()}
	req := httptest.NewRequest("GET", "/api/v1/narrative", nil)
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)
	if w.Code != 503 {
		t.Fatalf("expected 503 with no reasoning client configured, got %d", w.Code)
	}
}
