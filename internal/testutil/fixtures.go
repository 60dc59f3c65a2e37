package testutil

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"ai-chatbot-be/internal/model"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// CreateUser inserts a user row so foreign keys on conversations hold.
func CreateUser(t *testing.T, db *gorm.DB, username string) uint {
	t.Helper()

	u := &model.User{
		Email:        fmt.Sprintf("%s@example.com", username),
		Username:     username,
		PasswordHash: "not-a-real-hash",
		IsActive:     true,
		CreatedAt:    time.Now(),
	}
	require.NoError(t, db.Create(u).Error)
	return u.Id
}

// Clock is a manually advanced time source.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

func NewClock(start time.Time) *Clock {
	return &Clock{now: start}
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
