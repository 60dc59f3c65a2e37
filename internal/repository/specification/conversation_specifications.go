package specification

import (
	"gorm.io/gorm"
)

type ByConversationID struct {
	ConversationID uint
}

func (s ByConversationID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("conversation_id = ?", s.ConversationID)
}

// ChronologicalOrder sorts messages by creation time, insertion order breaks ties.
type ChronologicalOrder struct{}

func (s ChronologicalOrder) Apply(db *gorm.DB) *gorm.DB {
	return db.Order("created_at ASC").Order("id ASC")
}

// RecentFirst sorts conversations by last activity.
type RecentFirst struct{}

func (s RecentFirst) Apply(db *gorm.DB) *gorm.DB {
	return db.Order("updated_at DESC").Order("id DESC")
}
