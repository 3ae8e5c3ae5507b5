package service

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"medride/internal/domain"
)

// ChannelSigner signs a private channel subscription. The params are the
// raw form body sent by the realtime client.
type ChannelSigner interface {
	AuthorizePrivateChannel(params []byte) ([]byte, error)
}

// RealtimeAuthorizer decides which private channels a client may join.
type RealtimeAuthorizer struct {
	secret []byte
	signer ChannelSigner
}

// NewRealtimeAuthorizer creates a new RealtimeAuthorizer. secret is the
// HS256 key of identity tokens.
func NewRealtimeAuthorizer(secret string, signer ChannelSigner) *RealtimeAuthorizer {
	return &RealtimeAuthorizer{secret: []byte(secret), signer: signer}
}

// ParseToken resolves the actor behind an identity token. The token must
// carry a numeric sub claim and a role claim.
func (a *RealtimeAuthorizer) ParseToken(raw string) (domain.Actor, error) {
	if raw == "" || len(a.secret) == 0 {
		return domain.Actor{}, ErrInvalidToken
	}

	token, err := jwt.Parse(raw, func(*jwt.Token) (any, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return domain.Actor{}, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return domain.Actor{}, ErrInvalidToken
	}
	sub, err := claims.GetSubject()
	if err != nil {
		return domain.Actor{}, ErrInvalidToken
	}
	id, err := strconv.ParseInt(sub, 10, 64)
	if err != nil || id <= 0 {
		return domain.Actor{}, ErrInvalidToken
	}
	role, _ := claims["role"].(string)
	actor := domain.Actor{Role: domain.Role(role), ID: id}
	if !actor.Role.IsValid() || actor.Role == domain.RoleSystem {
		return domain.Actor{}, ErrInvalidToken
	}
	return actor, nil
}

// CanSubscribe reports whether actor may join channel.
func CanSubscribe(actor domain.Actor, channel string) bool {
	switch {
	case channel == ChannelAdmin:
		return actor.IsAdmin()
	case channel == ChannelDriverPool:
		return actor.IsDriver()
	case strings.HasPrefix(channel, "private-driver-"):
		return channel == DriverChannel(actor.ID) && actor.IsDriver()
	case strings.HasPrefix(channel, "private-user-"):
		return channel == UserChannel(actor.ID) && actor.IsUser()
	}
	return false
}

// Authorize verifies the token and signs the subscription when the actor
// may join channel.
func (a *RealtimeAuthorizer) Authorize(token, channel string, params []byte) ([]byte, error) {
	actor, err := a.ParseToken(token)
	if err != nil {
		return nil, err
	}
	if !CanSubscribe(actor, channel) {
		return nil, ErrForbiddenAction
	}
	signed, err := a.signer.AuthorizePrivateChannel(params)
	if err != nil {
		return nil, fmt.Errorf("sign channel: %w", err)
	}
	return signed, nil
}
