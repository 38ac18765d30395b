package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/classroomhq/classroom-backend/internal/model"
	"github.com/classroomhq/classroom-backend/internal/repository"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

// TokenTypeBearer is reported in login responses.
const TokenTypeBearer = "bearer"

// Session is the result of authenticating a bearer token.
type Session struct {
	Principal model.Principal
	TokenID   string
	ExpiresAt time.Time
}

// AuthService handles signup, login and bearer-token authentication.
type AuthService struct {
	store      repository.Store
	tokens     *TokenService
	revoked    RevocationList
	bcryptCost int
	// dummyHash is compared against when the username is unknown so that both
	// login failures cost one bcrypt comparison.
	dummyHash []byte
	log       zerolog.Logger
}

// NewAuthService creates an AuthService. revoked may be nil, in which case
// logout is a no-op and tokens stay valid until they expire.
func NewAuthService(store repository.Store, tokens *TokenService, revoked RevocationList, bcryptCost int, log zerolog.Logger) *AuthService {
	dummy, _ := bcrypt.GenerateFromPassword([]byte("not-a-real-password"), bcryptCost)
	return &AuthService{
		store:      store,
		tokens:     tokens,
		revoked:    revoked,
		bcryptCost: bcryptCost,
		dummyHash:  dummy,
		log:        log.With().Str("component", "auth_service").Logger(),
	}
}

// HashPassword hashes a password with the configured bcrypt cost.
func (s *AuthService) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// Signup registers a new account and returns it.
func (s *AuthService) Signup(ctx context.Context, req model.SignupRequest) (*model.User, error) {
	username := strings.TrimSpace(req.Username)

	fe := fieldErrors{}
	switch n := utf8.RuneCountInString(username); {
	case n < 3:
		fe.add("username", "must be at least 3 characters")
	case n > 50:
		fe.add("username", "must be at most 50 characters")
	}
	switch n := len(req.Password); {
	case n < 6:
		fe.add("password", "must be at least 6 characters")
	case n > 72:
		fe.add("password", "must be at most 72 bytes")
	}
	if !req.Role.Valid() {
		fe.add("role", "must be one of teacher, student, parent")
	}
	if err := fe.err(); err != nil {
		return nil, err
	}

	hash, err := s.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &model.User{Username: username, PasswordHash: hash, Role: req.Role}
	err = s.store.InTx(ctx, func(tx repository.Tx) error {
		return tx.Users().Create(ctx, user)
	})
	if errors.Is(err, repository.ErrDuplicate) {
		return nil, ErrUsernameTaken
	}
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.log.Info().Int("user_id", user.ID).Str("role", string(user.Role)).Msg("User registered")
	return user, nil
}

// Login checks credentials and issues an access token. Unknown usernames and
// wrong passwords both yield ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, req model.LoginRequest) (*model.TokenResponse, error) {
	var user *model.User
	err := s.store.InTx(ctx, func(tx repository.Tx) error {
		var err error
		user, err = tx.Users().GetByUsername(ctx, strings.TrimSpace(req.Username))
		return err
	})
	if errors.Is(err, repository.ErrNotFound) {
		_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(req.Password))
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, expiresAt, err := s.tokens.Issue(user)
	if err != nil {
		return nil, err
	}
	return &model.TokenResponse{
		AccessToken: token,
		TokenType:   TokenTypeBearer,
		ExpiresAt:   expiresAt,
	}, nil
}

// Authenticate resolves a bearer token to the session it represents. The
// token's subject is looked up again so that deleted accounts and changed
// roles are rejected.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*Session, error) {
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return nil, err
	}

	if s.revoked != nil {
		revoked, err := s.revoked.IsRevoked(ctx, claims.ID)
		if err != nil {
			return nil, err
		}
		if revoked {
			return nil, ErrUnauthenticated
		}
	}

	var user *model.User
	err = s.store.InTx(ctx, func(tx repository.Tx) error {
		var err error
		user, err = tx.Users().GetByUsername(ctx, claims.Subject)
		return err
	})
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrUnauthenticated
	}
	if err != nil {
		return nil, fmt.Errorf("resolve token subject: %w", err)
	}
	if user.Role != claims.Role || (claims.UserID != 0 && user.ID != claims.UserID) {
		return nil, ErrUnauthenticated
	}

	return &Session{
		Principal: user.Principal(),
		TokenID:   claims.ID,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// Logout revokes the token behind sess.
func (s *AuthService) Logout(ctx context.Context, sess *Session) error {
	if s.revoked == nil {
		return nil
	}
	if err := s.revoked.Revoke(ctx, sess.TokenID, sess.ExpiresAt); err != nil {
		return err
	}
	s.log.Debug().Int("user_id", sess.Principal.UserID).Msg("Token revoked")
	return nil
}

// RequireRole returns ErrForbidden unless p holds one of roles.
func RequireRole(p model.Principal, roles ...model.Role) error {
	for _, r := range roles {
		if p.Role == r {
			return nil
		}
	}
	return ErrForbidden
}
