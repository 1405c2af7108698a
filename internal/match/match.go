// Package match scores skill-exchange candidates for a user. A perfect match
// teaches something the user wants to learn and learns something the user
// teaches; a partial match covers only one direction.
package match

import (
	"context"
	"errors"
	"sort"

	"github.com/google/uuid"

	"skillswap-backend/internal/errs"
	"skillswap-backend/internal/storage"
)

const (
	MatchPerfect = "perfect"
	MatchPartial = "partial"
)

type UserStore interface {
	GetUser(ctx context.Context, userID uuid.UUID) (*storage.User, error)
	ListMatchCandidates(ctx context.Context, userID uuid.UUID, teachSkills, learnSkills []string, limit int) ([]*storage.User, error)
}

type Service struct {
	users UserStore
}

func NewService(users UserStore) *Service {
	return &Service{users: users}
}

type Match struct {
	User      storage.PublicProfile `json:"user"`
	MatchType string                `json:"match_type"`
	// CanTeach are the candidate's teach skills the user wants to learn;
	// WantsToLearn are the user's teach skills the candidate wants.
	CanTeach     []string `json:"can_teach"`
	WantsToLearn []string `json:"wants_to_learn"`
}

func (s *Service) FindMatches(ctx context.Context, userID uuid.UUID, limit int) ([]Match, error) {
	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, errs.NotFound("user %s not found", userID)
		}
		return nil, err
	}
	if len(user.TeachSkills) == 0 && len(user.LearnSkills) == 0 {
		return []Match{}, nil
	}

	candidates, err := s.users.ListMatchCandidates(ctx, userID, user.TeachSkills, user.LearnSkills, 0)
	if err != nil {
		return nil, err
	}

	matches := rank(user, candidates)
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

// rank pairs the user against each candidate, perfect matches first, ties
// broken by candidate rating.
func rank(user *storage.User, candidates []*storage.User) []Match {
	matches := []Match{}
	ratings := make(map[uuid.UUID]float64, len(candidates))

	for _, candidate := range candidates {
		canTeach := intersect(candidate.TeachSkills, user.LearnSkills)
		wantsToLearn := intersect(user.TeachSkills, candidate.LearnSkills)
		if len(canTeach) == 0 && len(wantsToLearn) == 0 {
			continue
		}

		matchType := MatchPartial
		if len(canTeach) > 0 && len(wantsToLearn) > 0 {
			matchType = MatchPerfect
		}

		ratings[candidate.ID] = candidate.Rating
		matches = append(matches, Match{
			User:         candidate.Public(),
			MatchType:    matchType,
			CanTeach:     canTeach,
			WantsToLearn: wantsToLearn,
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].MatchType != matches[j].MatchType {
			return matches[i].MatchType == MatchPerfect
		}
		return ratings[matches[i].User.ID] > ratings[matches[j].User.ID]
	})
	return matches
}

// intersect keeps a's elements present in b, preserving a's order.
func intersect(a, b []string) []string {
	inB := make(map[string]bool, len(b))
	for _, skill := range b {
		inB[skill] = true
	}

	var shared []string
	for _, skill := range a {
		if inB[skill] {
			shared = append(shared, skill)
		}
	}
	return shared
}
