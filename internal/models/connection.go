package models

import (
	"time"
)

// Connection is the persisted result of a completed Finch Connect flow
type Connection struct {
	ID          string    `json:"id"`
	AccessToken string    `json:"accessToken"`
	CreatedAt   time.Time `json:"createdAt"`
}
