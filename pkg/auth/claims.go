package auth

import (
	"github.com/evmotors/warranty-backend/pkg/enums"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ActorRef is the explicit identity handed to every workflow call. The core
// never reads session state; controllers build this from the verified token.
type ActorRef struct {
	UserID uuid.UUID       `json:"user_id"`
	Role   enums.ActorRole `json:"role"`
}

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	UserID uuid.UUID
	Role   enums.ActorRole
	JTI    string
}

// AccessTokenClaims represents the typed JWT issued to dealership staff.
type AccessTokenClaims struct {
	UserID uuid.UUID       `json:"user_id"`
	Role   enums.ActorRole `json:"role"`
	jwt.RegisteredClaims
}

// Actor converts verified claims into the explicit actor reference.
func (c *AccessTokenClaims) Actor() ActorRef {
	return ActorRef{UserID: c.UserID, Role: c.Role}
}
