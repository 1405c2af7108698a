// Package reviews handles post-session feedback. A review targets the other
// participant of a completed session; the subject's aggregate rating is
// recomputed from the review rows on every submission.
package reviews

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"skillswap-backend/internal/errs"
	"skillswap-backend/internal/storage"
)

type ReviewStore interface {
	CreateReview(ctx context.Context, review *storage.Review) error
	ListReviewsForUser(ctx context.Context, subjectID uuid.UUID, limit int) ([]*storage.Review, error)
}

type SessionStore interface {
	GetSession(ctx context.Context, sessionID uuid.UUID) (*storage.Session, error)
}

type Service struct {
	reviews  ReviewStore
	sessions SessionStore
}

func NewService(reviews ReviewStore, sessions SessionStore) *Service {
	return &Service{
		reviews:  reviews,
		sessions: sessions,
	}
}

type SubmitInput struct {
	AuthorID  uuid.UUID
	SessionID uuid.UUID
	Rating    int
	Comment   string
}

func (s *Service) Submit(ctx context.Context, input SubmitInput) (*storage.Review, error) {
	if input.Rating < 1 || input.Rating > 5 {
		return nil, errs.InvalidInput("rating must be between 1 and 5")
	}

	sess, err := s.sessions.GetSession(ctx, input.SessionID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, errs.NotFound("session %s not found", input.SessionID)
		}
		return nil, err
	}
	if !sess.IsParticipant(input.AuthorID) {
		return nil, errs.NotAuthorized("user %s is not a participant of session %s", input.AuthorID, input.SessionID)
	}
	if sess.Status != storage.SessionCompleted {
		return nil, errs.InvalidState("cannot review a %s session", sess.Status)
	}

	review := &storage.Review{
		SessionID: input.SessionID,
		AuthorID:  input.AuthorID,
		SubjectID: sess.Partner(input.AuthorID),
		Rating:    input.Rating,
		Comment:   input.Comment,
	}
	if err := s.reviews.CreateReview(ctx, review); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			return nil, errs.InvalidState("session %s already reviewed by this user", input.SessionID)
		}
		return nil, err
	}
	return review, nil
}

func (s *Service) ListForUser(ctx context.Context, subjectID uuid.UUID, limit int) ([]*storage.Review, error) {
	reviews, err := s.reviews.ListReviewsForUser(ctx, subjectID, limit)
	if err != nil {
		return nil, err
	}
	if reviews == nil {
		reviews = []*storage.Review{}
	}
	return reviews, nil
}
