package match

import (
	"context"
	"reflect"
	"testing"

	"github.com/google/uuid"

	"skillswap-backend/internal/errs"
	"skillswap-backend/internal/storage"
)

type fakeUserStore struct {
	users      map[uuid.UUID]*storage.User
	candidates []*storage.User
}

func (f *fakeUserStore) GetUser(_ context.Context, userID uuid.UUID) (*storage.User, error) {
	user, ok := f.users[userID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return user, nil
}

func (f *fakeUserStore) ListMatchCandidates(_ context.Context, userID uuid.UUID, _, _ []string, _ int) ([]*storage.User, error) {
	var result []*storage.User
	for _, candidate := range f.candidates {
		if candidate.ID != userID {
			result = append(result, candidate)
		}
	}
	return result, nil
}

func user(name string, teach, learn []string) *storage.User {
	return &storage.User{
		ID:          uuid.New(),
		Name:        name,
		TeachSkills: teach,
		LearnSkills: learn,
	}
}

func TestFindMatchesClassification(t *testing.T) {
	me := user("Me", []string{"guitar"}, []string{"spanish"})
	perfect := user("Perfect", []string{"spanish"}, []string{"guitar"})
	partial := user("Partial", []string{"spanish"}, []string{"piano"})
	unrelated := user("Unrelated", []string{"cooking"}, []string{"piano"})

	store := &fakeUserStore{
		users:      map[uuid.UUID]*storage.User{me.ID: me},
		candidates: []*storage.User{unrelated, partial, perfect},
	}
	svc := NewService(store)

	matches, err := svc.FindMatches(context.Background(), me.ID, 0)
	if err != nil {
		t.Fatalf("FindMatches failed: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("match count = %d, want 2", len(matches))
	}

	if matches[0].User.ID != perfect.ID || matches[0].MatchType != MatchPerfect {
		t.Errorf("first match = (%s, %s), want perfect candidate first", matches[0].User.Name, matches[0].MatchType)
	}
	if !reflect.DeepEqual(matches[0].CanTeach, []string{"spanish"}) {
		t.Errorf("CanTeach = %v, want [spanish]", matches[0].CanTeach)
	}
	if !reflect.DeepEqual(matches[0].WantsToLearn, []string{"guitar"}) {
		t.Errorf("WantsToLearn = %v, want [guitar]", matches[0].WantsToLearn)
	}
	if matches[1].User.ID != partial.ID || matches[1].MatchType != MatchPartial {
		t.Errorf("second match = (%s, %s), want the partial candidate", matches[1].User.Name, matches[1].MatchType)
	}
}

func TestFindMatchesRatingTiebreak(t *testing.T) {
	me := user("Me", []string{"guitar"}, []string{"spanish"})
	low := user("Low", []string{"spanish"}, []string{"guitar"})
	low.Rating = 3.2
	high := user("High", []string{"spanish"}, []string{"guitar"})
	high.Rating = 4.8

	store := &fakeUserStore{
		users:      map[uuid.UUID]*storage.User{me.ID: me},
		candidates: []*storage.User{low, high},
	}

	matches, err := NewService(store).FindMatches(context.Background(), me.ID, 0)
	if err != nil {
		t.Fatalf("FindMatches failed: %v", err)
	}
	if len(matches) != 2 || matches[0].User.ID != high.ID {
		t.Errorf("want higher rated candidate first, got %+v", matches)
	}
}

func TestFindMatchesLimit(t *testing.T) {
	me := user("Me", []string{"guitar"}, []string{"spanish"})
	store := &fakeUserStore{users: map[uuid.UUID]*storage.User{me.ID: me}}
	for i := 0; i < 5; i++ {
		store.candidates = append(store.candidates, user("C", []string{"spanish"}, nil))
	}

	matches, err := NewService(store).FindMatches(context.Background(), me.ID, 2)
	if err != nil {
		t.Fatalf("FindMatches failed: %v", err)
	}
	if len(matches) != 2 {
		t.Errorf("match count = %d, want 2", len(matches))
	}
}

func TestFindMatchesNoSkills(t *testing.T) {
	me := user("Me", nil, nil)
	store := &fakeUserStore{
		users:      map[uuid.UUID]*storage.User{me.ID: me},
		candidates: []*storage.User{user("C", []string{"spanish"}, []string{"guitar"})},
	}

	matches, err := NewService(store).FindMatches(context.Background(), me.ID, 0)
	if err != nil {
		t.Fatalf("FindMatches failed: %v", err)
	}
	if len(matches) != 0 {
		t.Errorf("match count = %d, want 0 for a user with no skills", len(matches))
	}
}

func TestFindMatchesUnknownUser(t *testing.T) {
	store := &fakeUserStore{users: map[uuid.UUID]*storage.User{}}

	_, err := NewService(store).FindMatches(context.Background(), uuid.New(), 0)
	if !errs.IsKind(err, errs.KindNotFound) {
		t.Errorf("FindMatches = %v, want NotFound", err)
	}
}

func TestIntersectPreservesOrder(t *testing.T) {
	got := intersect([]string{"a", "b", "c", "d"}, []string{"d", "b"})
	if !reflect.DeepEqual(got, []string{"b", "d"}) {
		t.Errorf("intersect = %v, want [b d]", got)
	}
	if intersect([]string{"a"}, nil) != nil {
		t.Error("empty intersection should be nil")
	}
}
