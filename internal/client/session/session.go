// Package session derives the signed-in identity from the access token the
// client was configured with. The token is issued and validated by the remote
// auth service; the client only reads its subject claim to scope queries, so
// the signature is not verified here.
package session

import (
	"fmt"

	"github.com/chafidzadlan/anotherfile/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// Session is the identity context every owner-scoped operation runs under.
type Session struct {
	UserID      string
	AccessToken string
}

// FromToken extracts the user id from the token's subject claim.
func FromToken(tokenString string) (*Session, error) {
	if tokenString == "" {
		return nil, fmt.Errorf("%w: access token", common.ErrEmptyArgument)
	}

	parser := jwt.NewParser()
	token, _, err := parser.ParseUnverified(tokenString, jwt.MapClaims{})
	if err != nil {
		return nil, fmt.Errorf("failed to parse access token: %w", err)
	}

	sub, err := token.Claims.GetSubject()
	if err != nil {
		return nil, fmt.Errorf("failed to read subject claim: %w", err)
	}
	if sub == "" {
		return nil, fmt.Errorf("access token has no subject claim")
	}

	return &Session{UserID: sub, AccessToken: tokenString}, nil
}
