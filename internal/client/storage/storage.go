// Package storage provides durable persisters for the client credential
// record: a plain JSON file, an encrypted file for tokens at rest, and an
// in-memory variant for tests.
package storage

import (
	"context"
	"sync"

	"umclient/internal/models"
)

// Memory keeps the record in process memory. Useful in tests and for
// short-lived sessions that should not touch disk.
type Memory struct {
	mu    sync.Mutex
	creds models.Credentials
	set   bool
}

func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Load(_ context.Context) (models.Credentials, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.set {
		return models.Credentials{}, nil
	}
	return m.creds, nil
}

func (m *Memory) Save(_ context.Context, creds models.Credentials) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.creds = creds
	m.set = true
	return nil
}
