package chat

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

type Repo struct {
	db *gorm.DB
}

func NewRepo(db *gorm.DB) *Repo {
	return &Repo{db: db}
}

func (r *Repo) InsertMessage(ctx context.Context, m *Message) error {
	return r.db.WithContext(ctx).Create(m).Error
}

// UpdateResponse overwrites the response of the row captured at insert time.
// Keyed by primary key only; ownership was established when the row was created.
func (r *Repo) UpdateResponse(ctx context.Context, id uint64, response string) error {
	return r.db.WithContext(ctx).Model(&Message{}).
		Where("id = ?", id).
		Update("response", response).Error
}

// LatestByUserAndPrompt returns the newest message matching (userID, prompt)
// or nil when none exists. Ties on created_at break by highest id.
func (r *Repo) LatestByUserAndPrompt(ctx context.Context, userID uint64, prompt string) (*Message, error) {
	var m Message
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND prompt = ?", userID, prompt).
		Order("created_at DESC, id DESC").
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &m, nil
}

// ListByUser returns one page of a user's messages, newest first, with an
// optional substring filter on the prompt, plus the total matching count.
func (r *Repo) ListByUser(ctx context.Context, userID uint64, search string, page, limit int) ([]Message, int64, error) {
	q := r.db.WithContext(ctx).Model(&Message{}).Where("user_id = ?", userID)
	if search != "" {
		q = q.Where("prompt LIKE ?", "%"+search+"%")
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var msgs []Message
	err := q.Order("created_at DESC, id DESC").
		Limit(limit).
		Offset((page - 1) * limit).
		Find(&msgs).Error
	if err != nil {
		return nil, 0, err
	}
	return msgs, total, nil
}

// DeleteByIDAndOwner removes a message only when the caller owns it. Returns
// false when no row matched, deliberately indistinguishable from a foreign id.
func (r *Repo) DeleteByIDAndOwner(ctx context.Context, id, userID uint64) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&Message{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *Repo) GetByID(ctx context.Context, id uint64) (*Message, error) {
	var m Message
	if err := r.db.WithContext(ctx).First(&m, id).Error; err != nil {
		return nil, err
	}
	return &m, nil
}
