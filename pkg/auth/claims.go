package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/voltbridge/markethub/pkg/enums"
)

// ActorTokenPayload captures the data available when minting an actor token.
type ActorTokenPayload struct {
	ActorNumber string
	ActorRole   enums.ActorRole
	JTI         string
}

// ActorTokenClaims represents the typed JWT the perimeter gateway issues for
// authenticated market actors.
type ActorTokenClaims struct {
	ActorNumber string          `json:"actor_number"`
	ActorRole   enums.ActorRole `json:"actor_role"`
	jwt.RegisteredClaims
}
