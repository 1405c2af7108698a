// Package barter drives the lifecycle of a proposed skill exchange between
// two users. Transitions depend only on the participants' confirmation flags
// and explicit cancel actions; nothing here runs on a timer, and a pending
// proposal stays pending until someone acts on it.
package barter

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"skillswap-backend/internal/errs"
	"skillswap-backend/internal/storage"
)

// Viewer-relative renderings of a raw pending status.
const (
	ViewNeedsAcceptance = "needs_acceptance"
	ViewWaitingPartner  = "waiting_partner"
)

const dateLayout = "2006-01-02"

type SessionStore interface {
	CreateSessionWithOffer(ctx context.Context, sess *storage.Session, offer *storage.Message) error
	GetSession(ctx context.Context, sessionID uuid.UUID) (*storage.Session, error)
	TransitionSession(ctx context.Context, sess *storage.Session, fromStatuses []string, statusMsg *storage.Message) error
	CompleteSession(ctx context.Context, sess *storage.Session, statusMsg *storage.Message) error
	ListUserSessions(ctx context.Context, userID uuid.UUID, limit int) ([]*storage.Session, error)
}

type UserStore interface {
	GetUser(ctx context.Context, userID uuid.UUID) (*storage.User, error)
}

// Notifier is best effort: implementations log failures instead of returning
// them, so a dropped nudge never fails the transition it trailed.
type Notifier interface {
	SessionChanged(ctx context.Context, recipientID uuid.UUID, sess *storage.Session)
}

type Service struct {
	sessions SessionStore
	users    UserStore
	notifier Notifier
}

func NewService(sessions SessionStore, users UserStore, notifier Notifier) *Service {
	return &Service{
		sessions: sessions,
		users:    users,
		notifier: notifier,
	}
}

// View is a session rendered for one viewer: same underlying row, but the
// status field is derived per viewer and never persisted.
type View struct {
	ID                 uuid.UUID `json:"id"`
	RequesterID        uuid.UUID `json:"requester_id"`
	ProviderID         uuid.UUID `json:"provider_id"`
	Skill              string    `json:"skill"`
	Date               string    `json:"date"`
	Time               string    `json:"time"`
	Status             string    `json:"status"`
	RequesterConfirmed bool      `json:"requester_confirmed"`
	ProviderConfirmed  bool      `json:"provider_confirmed"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// DeriveViewStatus maps a raw pending status to the acting viewer's side of
// it: waiting_partner once they have confirmed, needs_acceptance until they
// have. Every other status renders as stored.
func DeriveViewStatus(sess *storage.Session, viewerID uuid.UUID) string {
	if sess.Status != storage.SessionPending {
		return sess.Status
	}
	confirmed := false
	switch viewerID {
	case sess.RequesterID:
		confirmed = sess.RequesterConfirmed
	case sess.ProviderID:
		confirmed = sess.ProviderConfirmed
	}
	if confirmed {
		return ViewWaitingPartner
	}
	return ViewNeedsAcceptance
}

func NewView(sess *storage.Session, viewerID uuid.UUID) View {
	return View{
		ID:                 sess.ID,
		RequesterID:        sess.RequesterID,
		ProviderID:         sess.ProviderID,
		Skill:              sess.Skill,
		Date:               sess.Date,
		Time:               sess.Time,
		Status:             DeriveViewStatus(sess, viewerID),
		RequesterConfirmed: sess.RequesterConfirmed,
		ProviderConfirmed:  sess.ProviderConfirmed,
		CreatedAt:          sess.CreatedAt,
		UpdatedAt:          sess.UpdatedAt,
	}
}

type ProposeInput struct {
	RequesterID uuid.UUID
	ProviderID  uuid.UUID
	Skill       string
	Date        string
	Time        string
}

// Propose creates a pending session with the requester already confirmed and
// drops a barter_offer message into the shared log in the same transaction.
func (s *Service) Propose(ctx context.Context, input ProposeInput) (View, error) {
	if input.Skill == "" {
		return View{}, errs.InvalidInput("skill is required")
	}
	if input.Date == "" {
		return View{}, errs.InvalidInput("date is required")
	}
	if _, err := time.Parse(dateLayout, input.Date); err != nil {
		return View{}, errs.InvalidInput("date must be formatted as %s", dateLayout)
	}
	if input.RequesterID == input.ProviderID {
		return View{}, errs.InvalidInput("cannot propose a barter to yourself")
	}

	requester, err := s.users.GetUser(ctx, input.RequesterID)
	if err != nil {
		return View{}, translateUserErr(err, input.RequesterID)
	}
	if requester.Blocked {
		return View{}, errs.NotAuthorized("blocked users cannot propose sessions")
	}
	if _, err := s.users.GetUser(ctx, input.ProviderID); err != nil {
		return View{}, translateUserErr(err, input.ProviderID)
	}

	sess := &storage.Session{
		RequesterID:        input.RequesterID,
		ProviderID:         input.ProviderID,
		Skill:              input.Skill,
		Date:               input.Date,
		Time:               input.Time,
		Status:             storage.SessionPending,
		RequesterConfirmed: true,
		ProviderConfirmed:  false,
	}

	offer := &storage.Message{
		SenderID:   input.RequesterID,
		ReceiverID: input.ProviderID,
		Type:       storage.MessageBarterOffer,
		Content:    fmt.Sprintf("Barter offer: %s on %s", input.Skill, input.Date),
	}

	if err := s.sessions.CreateSessionWithOffer(ctx, sess, offer); err != nil {
		return View{}, err
	}

	log.Printf("[BARTER] session %s proposed by %s to %s for %q",
		sess.ID, sess.RequesterID, sess.ProviderID, sess.Skill)
	s.notifier.SessionChanged(ctx, sess.ProviderID, sess)

	return NewView(sess, input.RequesterID), nil
}

// Accept confirms the session for the acting participant. Only the party
// that has not confirmed yet may accept, and only while the session is
// pending; once both flags are set the session becomes active.
func (s *Service) Accept(ctx context.Context, sessionID, actorID uuid.UUID) (View, error) {
	sess, err := s.getParticipantSession(ctx, sessionID, actorID)
	if err != nil {
		return View{}, err
	}

	// The already-confirmed party can never accept, whatever the status.
	if (actorID == sess.RequesterID && sess.RequesterConfirmed) ||
		(actorID == sess.ProviderID && sess.ProviderConfirmed) {
		return View{}, errs.NotAuthorized("user %s has already confirmed this session", actorID)
	}
	if sess.Status != storage.SessionPending {
		return View{}, errs.InvalidState("cannot accept a %s session", sess.Status)
	}

	if actorID == sess.RequesterID {
		sess.RequesterConfirmed = true
	} else {
		sess.ProviderConfirmed = true
	}
	if sess.RequesterConfirmed && sess.ProviderConfirmed {
		sess.Status = storage.SessionActive
	}

	statusMsg := s.statusMessage(sess, actorID, "Barter accepted")
	err = s.sessions.TransitionSession(ctx, sess, []string{storage.SessionPending}, statusMsg)
	if err != nil {
		return View{}, translateTransitionErr(err)
	}

	log.Printf("[BARTER] session %s accepted by %s, status now %s", sess.ID, actorID, sess.Status)
	s.notifier.SessionChanged(ctx, sess.Partner(actorID), sess)

	return NewView(sess, actorID), nil
}

// Reject cancels a pending or active session. Either participant may do it;
// terminal sessions refuse.
func (s *Service) Reject(ctx context.Context, sessionID, actorID uuid.UUID) (View, error) {
	sess, err := s.getParticipantSession(ctx, sessionID, actorID)
	if err != nil {
		return View{}, err
	}

	if sess.Status != storage.SessionPending && sess.Status != storage.SessionActive {
		return View{}, errs.InvalidState("cannot reject a %s session", sess.Status)
	}

	sess.Status = storage.SessionCancelled
	statusMsg := s.statusMessage(sess, actorID, "Barter cancelled")
	err = s.sessions.TransitionSession(ctx, sess,
		[]string{storage.SessionPending, storage.SessionActive}, statusMsg)
	if err != nil {
		return View{}, translateTransitionErr(err)
	}

	log.Printf("[BARTER] session %s cancelled by %s", sess.ID, actorID)
	s.notifier.SessionChanged(ctx, sess.Partner(actorID), sess)

	return NewView(sess, actorID), nil
}

// Complete marks an active session as having taken place and bumps both
// participants' session counters.
func (s *Service) Complete(ctx context.Context, sessionID, actorID uuid.UUID) (View, error) {
	sess, err := s.getParticipantSession(ctx, sessionID, actorID)
	if err != nil {
		return View{}, err
	}

	if sess.Status != storage.SessionActive {
		return View{}, errs.InvalidState("cannot complete a %s session", sess.Status)
	}

	statusMsg := s.statusMessage(sess, actorID, "Barter completed")
	if err := s.sessions.CompleteSession(ctx, sess, statusMsg); err != nil {
		return View{}, translateTransitionErr(err)
	}

	log.Printf("[BARTER] session %s completed by %s", sess.ID, actorID)
	s.notifier.SessionChanged(ctx, sess.Partner(actorID), sess)

	return NewView(sess, actorID), nil
}

func (s *Service) Get(ctx context.Context, sessionID, viewerID uuid.UUID) (View, error) {
	sess, err := s.getParticipantSession(ctx, sessionID, viewerID)
	if err != nil {
		return View{}, err
	}
	return NewView(sess, viewerID), nil
}

func (s *Service) List(ctx context.Context, viewerID uuid.UUID, limit int) ([]View, error) {
	if _, err := s.users.GetUser(ctx, viewerID); err != nil {
		return nil, translateUserErr(err, viewerID)
	}

	sessions, err := s.sessions.ListUserSessions(ctx, viewerID, limit)
	if err != nil {
		return nil, err
	}

	views := make([]View, len(sessions))
	for i, sess := range sessions {
		views[i] = NewView(sess, viewerID)
	}
	return views, nil
}

func (s *Service) getParticipantSession(ctx context.Context, sessionID, actorID uuid.UUID) (*storage.Session, error) {
	sess, err := s.sessions.GetSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, errs.NotFound("session %s not found", sessionID)
		}
		return nil, err
	}
	if !sess.IsParticipant(actorID) {
		return nil, errs.NotAuthorized("user %s is not a participant of session %s", actorID, sessionID)
	}
	return sess, nil
}

// statusMessage builds the barter_status entry appended to the chat history
// alongside the transition, addressed actor -> partner.
func (s *Service) statusMessage(sess *storage.Session, actorID uuid.UUID, content string) *storage.Message {
	return &storage.Message{
		SenderID:   actorID,
		ReceiverID: sess.Partner(actorID),
		Type:       storage.MessageBarterStatus,
		Content:    content,
	}
}

func translateTransitionErr(err error) error {
	if errors.Is(err, storage.ErrStaleTransition) {
		// A concurrent transition won; the caller raced and lost.
		return errs.InvalidState("session was changed concurrently")
	}
	return err
}

func translateUserErr(err error, userID uuid.UUID) error {
	if errors.Is(err, storage.ErrNotFound) {
		return errs.NotFound("user %s not found", userID)
	}
	return err
}
