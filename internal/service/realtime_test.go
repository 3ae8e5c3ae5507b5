package service

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"medride/internal/domain"
)

const testJWTSecret = "test-secret"

type echoSigner struct{ calls int }

func (s *echoSigner) AuthorizePrivateChannel(params []byte) ([]byte, error) {
	s.calls++
	return append([]byte("signed:"), params...), nil
}

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func TestParseToken(t *testing.T) {
	auth := NewRealtimeAuthorizer(testJWTSecret, &echoSigner{})
	exp := time.Now().Add(time.Hour).Unix()

	actor, err := auth.ParseToken(signToken(t, testJWTSecret, jwt.MapClaims{"sub": "7", "role": "driver", "exp": exp}))
	if err != nil {
		t.Fatalf("ParseToken failed: %v", err)
	}
	if actor != domain.DriverActor(7) {
		t.Errorf("expected driver:7, got %s", actor)
	}

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"garbage", "not-a-jwt"},
		{"wrong secret", signToken(t, "other", jwt.MapClaims{"sub": "7", "role": "driver"})},
		{"expired", signToken(t, testJWTSecret, jwt.MapClaims{"sub": "7", "role": "driver", "exp": time.Now().Add(-time.Hour).Unix()})},
		{"missing role", signToken(t, testJWTSecret, jwt.MapClaims{"sub": "7"})},
		{"system role", signToken(t, testJWTSecret, jwt.MapClaims{"sub": "7", "role": "system"})},
		{"non numeric subject", signToken(t, testJWTSecret, jwt.MapClaims{"sub": "abc", "role": "user"})},
		{"zero subject", signToken(t, testJWTSecret, jwt.MapClaims{"sub": "0", "role": "user"})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := auth.ParseToken(tt.token); !errors.Is(err, ErrInvalidToken) {
				t.Errorf("expected ErrInvalidToken, got %v", err)
			}
		})
	}
}

func TestParseToken_RejectsNoneAlgorithm(t *testing.T) {
	auth := NewRealtimeAuthorizer(testJWTSecret, &echoSigner{})
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "1", "role": "admin"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	if _, err := auth.ParseToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
}

func TestCanSubscribe(t *testing.T) {
	tests := []struct {
		actor   domain.Actor
		channel string
		want    bool
	}{
		{domain.AdminActor(1), ChannelAdmin, true},
		{domain.DriverActor(7), ChannelAdmin, false},
		{domain.DriverActor(7), ChannelDriverPool, true},
		{domain.UserActor(10), ChannelDriverPool, false},
		{domain.DriverActor(7), DriverChannel(7), true},
		{domain.DriverActor(7), DriverChannel(8), false},
		{domain.UserActor(7), DriverChannel(7), false},
		{domain.UserActor(10), UserChannel(10), true},
		{domain.UserActor(10), UserChannel(11), false},
		{domain.AdminActor(1), UserChannel(10), false},
		{domain.AdminActor(1), "presence-lobby", false},
	}

	for _, tt := range tests {
		if got := CanSubscribe(tt.actor, tt.channel); got != tt.want {
			t.Errorf("CanSubscribe(%s, %s) = %v, want %v", tt.actor, tt.channel, got, tt.want)
		}
	}
}

func TestAuthorize(t *testing.T) {
	signer := &echoSigner{}
	auth := NewRealtimeAuthorizer(testJWTSecret, signer)
	token := signToken(t, testJWTSecret, jwt.MapClaims{"sub": "10", "role": "user"})

	signed, err := auth.Authorize(token, UserChannel(10), []byte("socket_id=1.2&channel_name=private-user-10"))
	if err != nil {
		t.Fatalf("Authorize failed: %v", err)
	}
	if string(signed) != "signed:socket_id=1.2&channel_name=private-user-10" {
		t.Errorf("unexpected signature: %s", signed)
	}

	if _, err := auth.Authorize(token, ChannelAdmin, nil); !errors.Is(err, ErrForbiddenAction) {
		t.Errorf("expected ErrForbiddenAction, got %v", err)
	}
	if signer.calls != 1 {
		t.Errorf("forbidden channels must not be signed, got %d calls", signer.calls)
	}
}
