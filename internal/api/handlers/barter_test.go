package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"skillswap-backend/internal/api/identity"
	"skillswap-backend/internal/barter"
	"skillswap-backend/internal/errs"
)

type fakeBarterService struct {
	view     barter.View
	err      error
	lastOp   string
	lastID   uuid.UUID
	lastUser uuid.UUID
}

func (f *fakeBarterService) Propose(_ context.Context, input barter.ProposeInput) (barter.View, error) {
	f.lastOp = "propose"
	f.lastUser = input.RequesterID
	return f.view, f.err
}

func (f *fakeBarterService) act(op string, sessionID, actorID uuid.UUID) (barter.View, error) {
	f.lastOp = op
	f.lastID = sessionID
	f.lastUser = actorID
	return f.view, f.err
}

func (f *fakeBarterService) Accept(_ context.Context, sessionID, actorID uuid.UUID) (barter.View, error) {
	return f.act("accept", sessionID, actorID)
}

func (f *fakeBarterService) Reject(_ context.Context, sessionID, actorID uuid.UUID) (barter.View, error) {
	return f.act("reject", sessionID, actorID)
}

func (f *fakeBarterService) Complete(_ context.Context, sessionID, actorID uuid.UUID) (barter.View, error) {
	return f.act("complete", sessionID, actorID)
}

func (f *fakeBarterService) Get(_ context.Context, sessionID, viewerID uuid.UUID) (barter.View, error) {
	return f.act("get", sessionID, viewerID)
}

func (f *fakeBarterService) List(_ context.Context, viewerID uuid.UUID, _ int) ([]barter.View, error) {
	f.lastOp = "list"
	f.lastUser = viewerID
	return []barter.View{f.view}, f.err
}

func barterRouter(svc *fakeBarterService) chi.Router {
	h := NewBarterHandler(svc)
	r := chi.NewRouter()
	r.Use(identity.Middleware)
	r.Post("/barters", h.Propose)
	r.Get("/barters", h.List)
	r.Get("/barters/{sessionID}", h.Get)
	r.Post("/barters/{sessionID}/accept", h.Accept)
	r.Post("/barters/{sessionID}/reject", h.Reject)
	r.Post("/barters/{sessionID}/complete", h.Complete)
	return r
}

func doRequest(t *testing.T, r http.Handler, method, path string, userID uuid.UUID, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encoding body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("X-User-ID", userID.String())
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestProposeHandler(t *testing.T) {
	userID := uuid.New()
	providerID := uuid.New()
	svc := &fakeBarterService{view: barter.View{ID: uuid.New(), Skill: "guitar"}}
	router := barterRouter(svc)

	rec := doRequest(t, router, http.MethodPost, "/barters", userID, ProposeRequest{
		ProviderID: providerID.String(),
		Skill:      "guitar",
		Date:       "2026-09-15",
		Time:       "18:00",
	})

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201, body %s", rec.Code, rec.Body)
	}
	if svc.lastOp != "propose" || svc.lastUser != userID {
		t.Errorf("service saw (%s, %s), want propose by the caller", svc.lastOp, svc.lastUser)
	}

	var view barter.View
	if err := json.NewDecoder(rec.Body).Decode(&view); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if view.Skill != "guitar" {
		t.Errorf("skill = %q", view.Skill)
	}
}

func TestProposeHandlerBadBody(t *testing.T) {
	svc := &fakeBarterService{}
	router := barterRouter(svc)

	req := httptest.NewRequest(http.MethodPost, "/barters", bytes.NewBufferString("{not json"))
	req.Header.Set("X-User-ID", uuid.New().String())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestProposeHandlerBadProviderID(t *testing.T) {
	svc := &fakeBarterService{}
	rec := doRequest(t, barterRouter(svc), http.MethodPost, "/barters", uuid.New(),
		ProposeRequest{ProviderID: "nope", Skill: "guitar", Date: "2026-09-15"})

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestSessionActions(t *testing.T) {
	userID := uuid.New()
	sessionID := uuid.New()
	svc := &fakeBarterService{view: barter.View{ID: sessionID}}
	router := barterRouter(svc)

	tests := []struct {
		method string
		path   string
		op     string
	}{
		{http.MethodGet, "/barters/" + sessionID.String(), "get"},
		{http.MethodPost, "/barters/" + sessionID.String() + "/accept", "accept"},
		{http.MethodPost, "/barters/" + sessionID.String() + "/reject", "reject"},
		{http.MethodPost, "/barters/" + sessionID.String() + "/complete", "complete"},
	}

	for _, tt := range tests {
		t.Run(tt.op, func(t *testing.T) {
			rec := doRequest(t, router, tt.method, tt.path, userID, nil)
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, want 200, body %s", rec.Code, rec.Body)
			}
			if svc.lastOp != tt.op || svc.lastID != sessionID || svc.lastUser != userID {
				t.Errorf("service saw (%s, %s, %s)", svc.lastOp, svc.lastID, svc.lastUser)
			}
		})
	}
}

func TestSessionActionBadID(t *testing.T) {
	rec := doRequest(t, barterRouter(&fakeBarterService{}), http.MethodPost,
		"/barters/not-a-uuid/accept", uuid.New(), nil)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestServiceErrorsMapToStatus(t *testing.T) {
	sessionID := uuid.New()
	svc := &fakeBarterService{err: errs.InvalidState("cannot accept a cancelled session")}
	rec := doRequest(t, barterRouter(svc), http.MethodPost,
		"/barters/"+sessionID.String()+"/accept", uuid.New(), nil)

	if rec.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409", rec.Code)
	}
}

func TestMissingIdentityRejected(t *testing.T) {
	router := barterRouter(&fakeBarterService{})
	req := httptest.NewRequest(http.MethodGet, "/barters", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}
