package model

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleShipper Role = "shipper"
	RoleCarrier Role = "carrier"
)

func ValidRole(r Role) bool {
	return r == RoleShipper || r == RoleCarrier
}

type User struct {
	ID           uuid.UUID
	Email        string
	PasswordHash string
	Name         string
	Role         Role
	CreatedAt    time.Time
}

// RefreshToken is single-use: rotation revokes the old row.
type RefreshToken struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	TokenHash string
	ExpiresAt time.Time
	Revoked   bool
	CreatedAt time.Time
}

// Principal is the authenticated caller extracted from the access token.
type Principal struct {
	UserID uuid.UUID
	Role   Role
	Email  string
}

func (p Principal) IsShipper() bool { return p.Role == RoleShipper }
func (p Principal) IsCarrier() bool { return p.Role == RoleCarrier }
