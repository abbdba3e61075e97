package server

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"caza-fotos/internal/db"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestIsUniqueViolation(t *testing.T) {
	dup := &pgconn.PgError{Code: "23505", ConstraintName: "idx_votes_user_photo"}
	if !isUniqueViolation(dup) {
		t.Fatal("unique violation from the postgres driver not recognized")
	}
	if !isUniqueViolation(fmt.Errorf("create vote: %w", dup)) {
		t.Fatal("wrapped unique violation not recognized")
	}
	if isUniqueViolation(&pgconn.PgError{Code: "23503"}) {
		t.Fatal("foreign key violation must not count as unique")
	}
	if isUniqueViolation(errors.New("plain error")) {
		t.Fatal("plain error must not count as unique")
	}
}

func TestMemStoreCastVote(t *testing.T) {
	store := newMemStore()
	photo := db.Photo{ContestID: 1, UserID: 2, StoragePath: "k", PublicURL: "u", Status: db.StatusApproved}
	if err := store.CreatePhoto(&photo); err != nil {
		t.Fatalf("create photo: %v", err)
	}

	count, err := store.CastVote(7, photo.ID)
	if err != nil {
		t.Fatalf("first vote: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected counter 1, got %d", count)
	}

	if _, err := store.CastVote(7, photo.ID); !errors.Is(err, ErrAlreadyVoted) {
		t.Fatalf("second vote should conflict, got %v", err)
	}
	stored, err := store.PhotoByID(photo.ID)
	if err != nil {
		t.Fatalf("photo lookup: %v", err)
	}
	if stored.VotesCount != 1 {
		t.Fatalf("rejected vote must not change the counter, got %d", stored.VotesCount)
	}

	if _, err := store.CastVote(7, 999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("vote on a missing photo should fail, got %v", err)
	}
}

func TestMemStoreCountVotesSince(t *testing.T) {
	store := newMemStore()
	for i := 0; i < 3; i++ {
		photo := db.Photo{ContestID: 1, UserID: 2, StoragePath: "k", PublicURL: "u", Status: db.StatusApproved}
		if err := store.CreatePhoto(&photo); err != nil {
			t.Fatalf("create photo: %v", err)
		}
		if _, err := store.CastVote(7, photo.ID); err != nil {
			t.Fatalf("vote: %v", err)
		}
	}

	count, err := store.CountVotesSince(7, time.Now().UTC().Add(-time.Minute))
	if err != nil {
		t.Fatalf("count votes: %v", err)
	}
	if count != 3 {
		t.Fatalf("expected 3 recent votes, got %d", count)
	}

	count, err = store.CountVotesSince(7, time.Now().UTC().Add(time.Hour))
	if err != nil {
		t.Fatalf("count votes: %v", err)
	}
	if count != 0 {
		t.Fatalf("future cutoff should count nothing, got %d", count)
	}
}

func TestMemStoreEmailUniqueness(t *testing.T) {
	store := newMemStore()
	first := db.User{Email: "ana@example.com", PasswordHash: "x", DisplayName: "Ana", Role: db.RoleGeneral, Status: db.StatusActive}
	if err := store.CreateUser(&first); err != nil {
		t.Fatalf("create user: %v", err)
	}
	second := db.User{Email: "ANA@example.com", PasswordHash: "x", DisplayName: "Ana2", Role: db.RoleGeneral, Status: db.StatusActive}
	if err := store.CreateUser(&second); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("duplicate email should be rejected, got %v", err)
	}
}

func TestMemStoreMembershipUniqueness(t *testing.T) {
	store := newMemStore()
	first := db.Membership{ContestID: 1, UserID: 2, Status: db.StatusPending}
	if err := store.CreateMembership(&first); err != nil {
		t.Fatalf("create membership: %v", err)
	}
	second := db.Membership{ContestID: 1, UserID: 2, Status: db.StatusPending}
	if err := store.CreateMembership(&second); !errors.Is(err, ErrAlreadyRequested) {
		t.Fatalf("duplicate membership should be rejected, got %v", err)
	}
	other := db.Membership{ContestID: 2, UserID: 2, Status: db.StatusPending}
	if err := store.CreateMembership(&other); err != nil {
		t.Fatalf("membership in another contest should be fine: %v", err)
	}
}

func TestMemStoreListEventsNewestFirst(t *testing.T) {
	store := newMemStore()
	for _, kind := range []string{"first", "second", "third"} {
		if err := store.AppendEvent(&db.Event{Type: kind, Payload: []byte("{}")}); err != nil {
			t.Fatalf("append event: %v", err)
		}
	}

	events, total, err := store.ListEvents(0, 2)
	if err != nil {
		t.Fatalf("list events: %v", err)
	}
	if total != 3 {
		t.Fatalf("expected total 3, got %d", total)
	}
	if len(events) != 2 || events[0].Type != "third" || events[1].Type != "second" {
		t.Fatalf("unexpected page: %+v", events)
	}

	events, _, err = store.ListEvents(2, 2)
	if err != nil {
		t.Fatalf("list events: %v", err)
	}
	if len(events) != 1 || events[0].Type != "first" {
		t.Fatalf("unexpected last page: %+v", events)
	}

	events, _, err = store.ListEvents(10, 2)
	if err != nil {
		t.Fatalf("list events: %v", err)
	}
	if len(events) != 0 {
		t.Fatalf("offset past the end should be empty, got %+v", events)
	}
}
