package model

import (
	"time"

	"github.com/google/uuid"
)

// RevokedToken marks a bearer token id as unusable until it would have expired anyway.
type RevokedToken struct {
	TokenID   string    `db:"token_id"`
	UserID    uuid.UUID `db:"user_id"`
	ExpiresAt time.Time `db:"expires_at"`
	RevokedAt time.Time `db:"revoked_at"`
}
