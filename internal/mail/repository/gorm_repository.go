package repository

import (
	"strings"

	maildomain "replydesk/internal/mail/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// gormEmailRepository implements EmailRepository using GORM
type gormEmailRepository struct {
	db *gorm.DB
}

// NewGormEmailRepository creates a new GORM-based EmailRepository
func NewGormEmailRepository(db *gorm.DB) EmailRepository {
	return &gormEmailRepository{db: db}
}

func (r *gormEmailRepository) FindByMessageID(messageID string) (*maildomain.Email, error) {
	var email maildomain.Email
	err := r.db.Where("message_id = ?", messageID).First(&email).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &email, nil
}

func (r *gormEmailRepository) FindByMessageOrReplyID(id string) (*maildomain.Email, error) {
	var email maildomain.Email
	err := r.db.Where("message_id = ? OR in_reply_to = ?", id, id).First(&email).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &email, nil
}

// Insert relies on the unique index on message_id: a concurrent insert of the
// same message resolves to DO NOTHING and reports created=false, which the
// usecase treats the same as an ordinary duplicate.
func (r *gormEmailRepository) Insert(email *maildomain.Email) (bool, error) {
	result := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "message_id"}},
		DoNothing: true,
	}).Create(email)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *gormEmailRepository) ReassignSessions(senderEmail, subjectNorm, newSessionID string, limit int) (int64, error) {
	// Sender matches with a case-insensitive substring so rows stored as
	// "Name <addr>" still match a bare address. Subject matches on the
	// normalized column populated at insert time.
	match := r.db.Where("lower(sender_email) LIKE ?", "%"+escapeLike(senderEmail)+"%")
	if subjectNorm != "" {
		match = match.Or("subject_norm = ?", subjectNorm)
	}

	// The limit bounds merge fan-out per call; an oversized conversation
	// converges over subsequent ingests.
	sub := r.db.Model(&maildomain.Email{}).
		Select("id").
		Where("session_id <> ?", newSessionID).
		Where(match).
		Limit(limit)

	result := r.db.Model(&maildomain.Email{}).
		Where("id IN (?)", sub).
		Update("session_id", newSessionID)
	return result.RowsAffected, result.Error
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike neutralizes LIKE wildcards so an address containing % or _
// (underscores are common in local parts) cannot widen the merge predicate.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func (r *gormEmailRepository) ListAll() ([]*maildomain.Email, error) {
	var emails []*maildomain.Email
	err := r.db.Order("received_at DESC").Find(&emails).Error
	return emails, err
}
