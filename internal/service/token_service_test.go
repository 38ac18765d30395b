package service

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/classroomhq/classroom-backend/internal/model"
	"github.com/golang-jwt/jwt/v5"
)

var tokenTestUser = &model.User{ID: 7, Username: "alice", Role: model.RoleTeacher}

func frozenTokenService(at time.Time) *TokenService {
	s := NewTokenService(testSecret, 30*time.Minute)
	s.SetClock(func() time.Time { return at })
	return s
}

func TestTokenRoundTrip(t *testing.T) {
	now := time.Date(2024, 9, 1, 8, 0, 0, 0, time.UTC)
	s := frozenTokenService(now)

	token, expiresAt, err := s.Issue(tokenTestUser)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if want := now.Add(30 * time.Minute); !expiresAt.Equal(want) {
		t.Errorf("expiresAt = %v, want %v", expiresAt, want)
	}

	claims, err := s.Verify(token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if claims.Subject != "alice" || claims.Role != model.RoleTeacher || claims.UserID != 7 {
		t.Errorf("claims = %+v", claims)
	}
	if claims.ID == "" {
		t.Error("token id is empty")
	}
}

func TestTokenExpiry(t *testing.T) {
	now := time.Date(2024, 9, 1, 8, 0, 0, 0, time.UTC)
	s := frozenTokenService(now)
	token, _, err := s.Issue(tokenTestUser)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	s.SetClock(func() time.Time { return now.Add(29 * time.Minute) })
	if _, err := s.Verify(token); err != nil {
		t.Fatalf("token should still be valid: %v", err)
	}

	s.SetClock(func() time.Time { return now.Add(31 * time.Minute) })
	if _, err := s.Verify(token); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expired token: error = %v, want ErrUnauthenticated", err)
	}
}

func TestTokenRejected(t *testing.T) {
	now := time.Now()
	s := frozenTokenService(now)
	valid, _, err := s.Issue(tokenTestUser)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	other := NewTokenService("another-secret-that-is-at-least-32-bytes", time.Hour)
	foreign, _, err := other.Issue(&model.User{ID: 1, Username: "mallory", Role: model.RoleTeacher})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	vp := strings.Split(valid, ".")
	fp := strings.Split(foreign, ".")
	tampered := vp[0] + "." + fp[1] + "." + vp[2]

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        "x",
			Subject:   "alice",
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
		Role: model.RoleTeacher,
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none: %v", err)
	}

	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{ID: "x", Subject: "alice"},
		Role:             model.RoleTeacher,
	}).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	badRole, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        "x",
			Subject:   "alice",
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
		Role: model.Role("admin"),
	}).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"garbage", "not-a-token"},
		{"two segments", vp[0] + "." + vp[1]},
		{"foreign secret", foreign},
		{"tampered payload", tampered},
		{"alg none", none},
		{"missing expiry", noExpiry},
		{"unknown role", badRole},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := s.Verify(tt.token); !errors.Is(err, ErrUnauthenticated) {
				t.Fatalf("error = %v, want ErrUnauthenticated", err)
			}
		})
	}
}
