package server

import (
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"caza-fotos/internal/db"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrEmailTaken       = errors.New("email already registered")
	ErrAlreadyVoted     = errors.New("already voted for this photo")
	ErrAlreadyRequested = errors.New("participation already requested")
)

// Store is the persistence boundary for all contest data. gormStore backs it
// with Postgres; memStore keeps everything in process and is used when the
// server is constructed without a database connection.
type Store interface {
	CreateUser(user *db.User) error
	UserByID(id uint) (*db.User, error)
	UserByEmail(email string) (*db.User, error)
	UserByConfirmToken(token string) (*db.User, error)
	UserByResetToken(token string) (*db.User, error)
	UpdateUser(user *db.User) error
	ListUsers(role, status string) ([]db.User, error)

	CreateContest(contest *db.Contest) error
	UpdateContest(contest *db.Contest) error
	ContestByID(id uint) (*db.Contest, error)
	ListContests() ([]db.Contest, error)

	CreateMembership(membership *db.Membership) error
	MembershipByID(id uint) (*db.Membership, error)
	MembershipFor(contestID, userID uint) (*db.Membership, error)
	UpdateMembership(membership *db.Membership) error
	ListMemberships(contestID uint, status string) ([]db.Membership, error)
	CountMemberships(contestID uint, status string) (int64, error)

	CreatePhoto(photo *db.Photo) error
	PhotoByID(id uint) (*db.Photo, error)
	UpdatePhoto(photo *db.Photo) error
	DeletePhoto(id uint) error
	CountUserPhotos(contestID, userID uint) (int64, error)
	CountPhotosByUser(userID uint) (int64, error)
	ListContestPhotos(contestID uint, status string) ([]db.Photo, error)
	ListUserPhotos(userID uint) ([]db.Photo, error)

	// CastVote inserts the vote row and bumps the photo counter in one
	// atomic step, returning the new counter value.
	CastVote(userID, photoID uint) (int, error)
	CountVotesSince(userID uint, since time.Time) (int64, error)
	VotesReceived(userID uint) (int64, error)

	AppendEvent(event *db.Event) error
	ListEvents(offset, limit int) ([]db.Event, int64, error)
}

type voteKey struct {
	userID  uint
	photoID uint
}

type memStore struct {
	mu          sync.Mutex
	nextID      uint
	users       map[uint]*db.User
	contests    map[uint]*db.Contest
	memberships map[uint]*db.Membership
	photos      map[uint]*db.Photo
	votes       map[voteKey]struct{}
	voteRows    []db.Vote
	events      []db.Event
}

func newMemStore() *memStore {
	return &memStore{
		nextID:      1,
		users:       make(map[uint]*db.User),
		contests:    make(map[uint]*db.Contest),
		memberships: make(map[uint]*db.Membership),
		photos:      make(map[uint]*db.Photo),
		votes:       make(map[voteKey]struct{}),
	}
}

func (s *memStore) allocID() uint {
	id := s.nextID
	s.nextID++
	return id
}

func (s *memStore) CreateUser(user *db.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if strings.EqualFold(existing.Email, user.Email) {
			return ErrEmailTaken
		}
	}
	user.ID = s.allocID()
	user.CreatedAt = timeNowUTC()
	user.UpdatedAt = user.CreatedAt
	clone := *user
	s.users[user.ID] = &clone
	return nil
}

func (s *memStore) UserByID(id uint) (*db.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	clone := *user
	return &clone, nil
}

func (s *memStore) UserByEmail(email string) (*db.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, user := range s.users {
		if strings.EqualFold(user.Email, email) {
			clone := *user
			return &clone, nil
		}
	}
	return nil, ErrNotFound
}

func (s *memStore) UserByConfirmToken(token string) (*db.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if token == "" {
		return nil, ErrNotFound
	}
	for _, user := range s.users {
		if user.ConfirmToken == token {
			clone := *user
			return &clone, nil
		}
	}
	return nil, ErrNotFound
}

func (s *memStore) UserByResetToken(token string) (*db.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if token == "" {
		return nil, ErrNotFound
	}
	for _, user := range s.users {
		if user.ResetToken == token {
			clone := *user
			return &clone, nil
		}
	}
	return nil, ErrNotFound
}

func (s *memStore) UpdateUser(user *db.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[user.ID]; !ok {
		return ErrNotFound
	}
	user.UpdatedAt = timeNowUTC()
	clone := *user
	s.users[user.ID] = &clone
	return nil
}

func (s *memStore) ListUsers(role, status string) ([]db.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := make([]db.User, 0)
	for _, user := range s.users {
		if role != "" && user.Role != role {
			continue
		}
		if status != "" && user.Status != status {
			continue
		}
		list = append(list, *user)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list, nil
}

func (s *memStore) CreateContest(contest *db.Contest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	contest.ID = s.allocID()
	contest.CreatedAt = timeNowUTC()
	contest.UpdatedAt = contest.CreatedAt
	clone := *contest
	s.contests[contest.ID] = &clone
	return nil
}

func (s *memStore) UpdateContest(contest *db.Contest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.contests[contest.ID]; !ok {
		return ErrNotFound
	}
	contest.UpdatedAt = timeNowUTC()
	clone := *contest
	s.contests[contest.ID] = &clone
	return nil
}

func (s *memStore) ContestByID(id uint) (*db.Contest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	contest, ok := s.contests[id]
	if !ok {
		return nil, ErrNotFound
	}
	clone := *contest
	return &clone, nil
}

func (s *memStore) ListContests() ([]db.Contest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := make([]db.Contest, 0, len(s.contests))
	for _, contest := range s.contests {
		list = append(list, *contest)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID > list[j].ID })
	return list, nil
}

func (s *memStore) CreateMembership(membership *db.Membership) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.memberships {
		if existing.ContestID == membership.ContestID && existing.UserID == membership.UserID {
			return ErrAlreadyRequested
		}
	}
	membership.ID = s.allocID()
	membership.CreatedAt = timeNowUTC()
	membership.UpdatedAt = membership.CreatedAt
	clone := *membership
	s.memberships[membership.ID] = &clone
	return nil
}

func (s *memStore) MembershipByID(id uint) (*db.Membership, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	membership, ok := s.memberships[id]
	if !ok {
		return nil, ErrNotFound
	}
	clone := *membership
	return &clone, nil
}

func (s *memStore) MembershipFor(contestID, userID uint) (*db.Membership, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, membership := range s.memberships {
		if membership.ContestID == contestID && membership.UserID == userID {
			clone := *membership
			return &clone, nil
		}
	}
	return nil, ErrNotFound
}

func (s *memStore) UpdateMembership(membership *db.Membership) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.memberships[membership.ID]; !ok {
		return ErrNotFound
	}
	membership.UpdatedAt = timeNowUTC()
	clone := *membership
	s.memberships[membership.ID] = &clone
	return nil
}

func (s *memStore) ListMemberships(contestID uint, status string) ([]db.Membership, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := make([]db.Membership, 0)
	for _, membership := range s.memberships {
		if membership.ContestID != contestID {
			continue
		}
		if status != "" && membership.Status != status {
			continue
		}
		list = append(list, *membership)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list, nil
}

func (s *memStore) CountMemberships(contestID uint, status string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var count int64
	for _, membership := range s.memberships {
		if membership.ContestID != contestID {
			continue
		}
		if status != "" && membership.Status != status {
			continue
		}
		count++
	}
	return count, nil
}

func (s *memStore) CreatePhoto(photo *db.Photo) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	photo.ID = s.allocID()
	photo.CreatedAt = timeNowUTC()
	photo.UpdatedAt = photo.CreatedAt
	clone := *photo
	s.photos[photo.ID] = &clone
	return nil
}

func (s *memStore) PhotoByID(id uint) (*db.Photo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	photo, ok := s.photos[id]
	if !ok {
		return nil, ErrNotFound
	}
	clone := *photo
	return &clone, nil
}

func (s *memStore) UpdatePhoto(photo *db.Photo) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.photos[photo.ID]; !ok {
		return ErrNotFound
	}
	photo.UpdatedAt = timeNowUTC()
	clone := *photo
	s.photos[photo.ID] = &clone
	return nil
}

func (s *memStore) DeletePhoto(id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.photos[id]; !ok {
		return ErrNotFound
	}
	delete(s.photos, id)
	return nil
}

func (s *memStore) CountUserPhotos(contestID, userID uint) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var count int64
	for _, photo := range s.photos {
		if photo.ContestID == contestID && photo.UserID == userID {
			count++
		}
	}
	return count, nil
}

func (s *memStore) CountPhotosByUser(userID uint) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var count int64
	for _, photo := range s.photos {
		if photo.UserID == userID {
			count++
		}
	}
	return count, nil
}

func (s *memStore) ListContestPhotos(contestID uint, status string) ([]db.Photo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := make([]db.Photo, 0)
	for _, photo := range s.photos {
		if photo.ContestID != contestID {
			continue
		}
		if status != "" && photo.Status != status {
			continue
		}
		list = append(list, *photo)
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].VotesCount != list[j].VotesCount {
			return list[i].VotesCount > list[j].VotesCount
		}
		return list[i].ID < list[j].ID
	})
	return list, nil
}

func (s *memStore) ListUserPhotos(userID uint) ([]db.Photo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := make([]db.Photo, 0)
	for _, photo := range s.photos {
		if photo.UserID == userID {
			list = append(list, *photo)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID > list[j].ID })
	return list, nil
}

func (s *memStore) CastVote(userID, photoID uint) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	photo, ok := s.photos[photoID]
	if !ok {
		return 0, ErrNotFound
	}
	key := voteKey{userID: userID, photoID: photoID}
	if _, voted := s.votes[key]; voted {
		return 0, ErrAlreadyVoted
	}
	s.votes[key] = struct{}{}
	s.voteRows = append(s.voteRows, db.Vote{
		ID:        s.allocID(),
		UserID:    userID,
		PhotoID:   photoID,
		CreatedAt: timeNowUTC(),
	})
	photo.VotesCount++
	photo.UpdatedAt = timeNowUTC()
	return photo.VotesCount, nil
}

func (s *memStore) CountVotesSince(userID uint, since time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var count int64
	for _, vote := range s.voteRows {
		if vote.UserID == userID && !vote.CreatedAt.Before(since) {
			count++
		}
	}
	return count, nil
}

func (s *memStore) VotesReceived(userID uint) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var total int64
	for _, photo := range s.photos {
		if photo.UserID == userID {
			total += int64(photo.VotesCount)
		}
	}
	return total, nil
}

func (s *memStore) AppendEvent(event *db.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	event.ID = s.allocID()
	event.CreatedAt = timeNowUTC()
	s.events = append(s.events, *event)
	return nil
}

func (s *memStore) ListEvents(offset, limit int) ([]db.Event, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := int64(len(s.events))
	// newest first
	ordered := make([]db.Event, len(s.events))
	for i, event := range s.events {
		ordered[len(s.events)-1-i] = event
	}
	if offset < 0 {
		offset = 0
	}
	if offset >= len(ordered) {
		return []db.Event{}, total, nil
	}
	end := len(ordered)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return ordered[offset:end], total, nil
}

func timeNowUTC() time.Time {
	return time.Now().UTC()
}
