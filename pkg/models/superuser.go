package models

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Superuser is the administrative account for the card ledger admin site.
type Superuser struct {
	UUID      uuid.UUID `json:"uuid"`
	ID        int64     `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	IsActive  bool      `json:"is_active"`
}

type CreateSuperuserRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	// Password is the plaintext password. It is hashed before storage and
	// never persisted as-is.
	Password string `json:"-"`
}

type SuperuserStore interface {
	Create(ctx context.Context, request *CreateSuperuserRequest) (*Superuser, error)
	Get(ctx context.Context, username string) (*Superuser, error)
	Authenticate(ctx context.Context, username string, password string) (*Superuser, error)
}
