package storage

import (
	"context"
	"time"

	"github.com/andyleap/finchconnect/internal/models"
	"github.com/google/uuid"
)

// TokenSetter is the single write the callback flow depends on
type TokenSetter interface {
	SetConnectionToken(ctx context.Context, token string) error
}

// ConnectionStorage holds the one Finch connection of this deployment
type ConnectionStorage interface {
	TokenSetter
	// GetConnection returns nil, nil when nothing has been connected yet
	GetConnection(ctx context.Context) (*models.Connection, error)
}

func newConnection(token string) *models.Connection {
	return &models.Connection{
		ID:          uuid.NewString(),
		AccessToken: token,
		CreatedAt:   time.Now().UTC(),
	}
}
