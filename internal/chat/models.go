package chat

import (
	"time"

	"pagesmith-backend/internal/models"
)

// Message is one generation exchange: the prompt the user submitted and the
// full assistant response. The row is inserted with an empty response the
// moment generation starts and updated exactly once when the stream ends.
type Message struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    uint64    `gorm:"not null;index:idx_messages_user_created,priority:1" json:"-"`
	Prompt    string    `gorm:"type:text;not null" json:"prompt"`
	Response  string    `gorm:"type:text;not null;default:''" json:"response"`
	CreatedAt time.Time `gorm:"index:idx_messages_user_created,priority:2" json:"created_at"`

	User models.User `gorm:"foreignKey:UserID" json:"-"`
}

func (Message) TableName() string { return "messages" }

// Turn is one element of the conversation the client submits. Only the last
// turn's content is used as the generation prompt.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
