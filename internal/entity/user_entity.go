package entity

import (
	"time"
)

type User struct {
	Id           uint
	Email        string
	Username     string
	PasswordHash string
	IsActive     bool
	CreatedAt    time.Time
}
