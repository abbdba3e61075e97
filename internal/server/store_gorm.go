package server

import (
	"errors"
	"time"

	"caza-fotos/internal/db"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

type gormStore struct {
	db *gorm.DB
}

func newGormStore(conn *gorm.DB) *gormStore {
	return &gormStore{db: conn}
}

func (s *gormStore) CreateUser(user *db.User) error {
	if err := s.db.Create(user).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrEmailTaken
		}
		return err
	}
	return nil
}

func (s *gormStore) UserByID(id uint) (*db.User, error) {
	var user db.User
	if err := s.db.First(&user, id).Error; err != nil {
		return nil, translateError(err)
	}
	return &user, nil
}

func (s *gormStore) UserByEmail(email string) (*db.User, error) {
	var user db.User
	if err := s.db.Where("email = ?", email).First(&user).Error; err != nil {
		return nil, translateError(err)
	}
	return &user, nil
}

func (s *gormStore) UserByConfirmToken(token string) (*db.User, error) {
	if token == "" {
		return nil, ErrNotFound
	}
	var user db.User
	if err := s.db.Where("confirm_token = ?", token).First(&user).Error; err != nil {
		return nil, translateError(err)
	}
	return &user, nil
}

func (s *gormStore) UserByResetToken(token string) (*db.User, error) {
	if token == "" {
		return nil, ErrNotFound
	}
	var user db.User
	if err := s.db.Where("reset_token = ?", token).First(&user).Error; err != nil {
		return nil, translateError(err)
	}
	return &user, nil
}

func (s *gormStore) UpdateUser(user *db.User) error {
	return s.db.Save(user).Error
}

func (s *gormStore) ListUsers(role, status string) ([]db.User, error) {
	query := s.db.Model(&db.User{})
	if role != "" {
		query = query.Where("role = ?", role)
	}
	if status != "" {
		query = query.Where("status = ?", status)
	}
	users := make([]db.User, 0)
	if err := query.Order("id ASC").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (s *gormStore) CreateContest(contest *db.Contest) error {
	return s.db.Create(contest).Error
}

func (s *gormStore) UpdateContest(contest *db.Contest) error {
	return s.db.Save(contest).Error
}

func (s *gormStore) ContestByID(id uint) (*db.Contest, error) {
	var contest db.Contest
	if err := s.db.First(&contest, id).Error; err != nil {
		return nil, translateError(err)
	}
	return &contest, nil
}

func (s *gormStore) ListContests() ([]db.Contest, error) {
	contests := make([]db.Contest, 0)
	if err := s.db.Order("id DESC").Find(&contests).Error; err != nil {
		return nil, err
	}
	return contests, nil
}

func (s *gormStore) CreateMembership(membership *db.Membership) error {
	if err := s.db.Create(membership).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrAlreadyRequested
		}
		return err
	}
	return nil
}

func (s *gormStore) MembershipByID(id uint) (*db.Membership, error) {
	var membership db.Membership
	if err := s.db.First(&membership, id).Error; err != nil {
		return nil, translateError(err)
	}
	return &membership, nil
}

func (s *gormStore) MembershipFor(contestID, userID uint) (*db.Membership, error) {
	var membership db.Membership
	err := s.db.Where("contest_id = ? AND user_id = ?", contestID, userID).First(&membership).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &membership, nil
}

func (s *gormStore) UpdateMembership(membership *db.Membership) error {
	return s.db.Save(membership).Error
}

func (s *gormStore) ListMemberships(contestID uint, status string) ([]db.Membership, error) {
	query := s.db.Where("contest_id = ?", contestID)
	if status != "" {
		query = query.Where("status = ?", status)
	}
	memberships := make([]db.Membership, 0)
	if err := query.Order("id ASC").Find(&memberships).Error; err != nil {
		return nil, err
	}
	return memberships, nil
}

func (s *gormStore) CountMemberships(contestID uint, status string) (int64, error) {
	query := s.db.Model(&db.Membership{}).Where("contest_id = ?", contestID)
	if status != "" {
		query = query.Where("status = ?", status)
	}
	var count int64
	err := query.Count(&count).Error
	return count, err
}

func (s *gormStore) CreatePhoto(photo *db.Photo) error {
	return s.db.Create(photo).Error
}

func (s *gormStore) PhotoByID(id uint) (*db.Photo, error) {
	var photo db.Photo
	if err := s.db.First(&photo, id).Error; err != nil {
		return nil, translateError(err)
	}
	return &photo, nil
}

func (s *gormStore) UpdatePhoto(photo *db.Photo) error {
	return s.db.Save(photo).Error
}

func (s *gormStore) DeletePhoto(id uint) error {
	result := s.db.Delete(&db.Photo{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *gormStore) CountUserPhotos(contestID, userID uint) (int64, error) {
	var count int64
	err := s.db.Model(&db.Photo{}).
		Where("contest_id = ? AND user_id = ?", contestID, userID).
		Count(&count).Error
	return count, err
}

func (s *gormStore) CountPhotosByUser(userID uint) (int64, error) {
	var count int64
	err := s.db.Model(&db.Photo{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}

func (s *gormStore) ListContestPhotos(contestID uint, status string) ([]db.Photo, error) {
	query := s.db.Where("contest_id = ?", contestID)
	if status != "" {
		query = query.Where("status = ?", status)
	}
	photos := make([]db.Photo, 0)
	if err := query.Order("votes_count DESC, id ASC").Find(&photos).Error; err != nil {
		return nil, err
	}
	return photos, nil
}

func (s *gormStore) ListUserPhotos(userID uint) ([]db.Photo, error) {
	photos := make([]db.Photo, 0)
	if err := s.db.Where("user_id = ?", userID).Order("id DESC").Find(&photos).Error; err != nil {
		return nil, err
	}
	return photos, nil
}

// CastVote runs the vote insert and the counter bump in a single transaction
// so the denormalized votes_count cannot drift from the vote table.
func (s *gormStore) CastVote(userID, photoID uint) (int, error) {
	var votesCount int
	err := s.db.Transaction(func(tx *gorm.DB) error {
		vote := db.Vote{UserID: userID, PhotoID: photoID}
		if err := tx.Create(&vote).Error; err != nil {
			if isUniqueViolation(err) {
				return ErrAlreadyVoted
			}
			return err
		}
		if err := tx.Model(&db.Photo{}).
			Where("id = ?", photoID).
			UpdateColumn("votes_count", gorm.Expr("votes_count + 1")).Error; err != nil {
			return err
		}
		var photo db.Photo
		if err := tx.Select("votes_count").First(&photo, photoID).Error; err != nil {
			return translateError(err)
		}
		votesCount = photo.VotesCount
		return nil
	})
	if err != nil {
		return 0, err
	}
	return votesCount, nil
}

func (s *gormStore) CountVotesSince(userID uint, since time.Time) (int64, error) {
	var count int64
	err := s.db.Model(&db.Vote{}).
		Where("user_id = ? AND created_at >= ?", userID, since).
		Count(&count).Error
	return count, err
}

func (s *gormStore) VotesReceived(userID uint) (int64, error) {
	var total int64
	err := s.db.Model(&db.Photo{}).
		Where("user_id = ?", userID).
		Select("COALESCE(SUM(votes_count), 0)").
		Scan(&total).Error
	return total, err
}

func (s *gormStore) AppendEvent(event *db.Event) error {
	return s.db.Create(event).Error
}

func (s *gormStore) ListEvents(offset, limit int) ([]db.Event, int64, error) {
	var total int64
	if err := s.db.Model(&db.Event{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	events := make([]db.Event, 0)
	query := s.db.Order("id DESC").Offset(offset)
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&events).Error; err != nil {
		return nil, 0, err
	}
	return events, total, nil
}

func translateError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
