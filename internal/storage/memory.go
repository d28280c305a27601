package storage

import (
	"context"

	"github.com/andyleap/finchconnect/internal/models"
	gocache "github.com/patrickmn/go-cache"
)

const connectionKey = "finch:connection"

type MemoryStorage struct {
	c *gocache.Cache
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{c: gocache.New(gocache.NoExpiration, 0)}
}

func (m *MemoryStorage) SetConnectionToken(ctx context.Context, token string) error {
	m.c.Set(connectionKey, newConnection(token), gocache.NoExpiration)
	return nil
}

func (m *MemoryStorage) GetConnection(ctx context.Context) (*models.Connection, error) {
	v, ok := m.c.Get(connectionKey)
	if !ok {
		return nil, nil
	}
	conn := *v.(*models.Connection)
	return &conn, nil
}
