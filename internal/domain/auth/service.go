package auth

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"net/mail"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLen = 6

// Service handles sign up, sign in and bearer token authentication.
type Service struct {
	users    UserRepository
	sessions SessionRepository
	pepper   []byte
	cost     int
	now      func() time.Time
}

// NewService creates an auth Service. The pepper keys the HMAC used to hash
// bearer tokens at rest.
func NewService(users UserRepository, sessions SessionRepository, pepper []byte) *Service {
	return &Service{
		users:    users,
		sessions: sessions,
		pepper:   pepper,
		cost:     bcrypt.DefaultCost,
		now:      time.Now,
	}
}

// SignUpRequest holds the input for creating an account.
type SignUpRequest struct {
	Email        string
	Password     string
	BusinessName string
}

// SignUp creates a new account and returns its profile.
func (s *Service) SignUp(ctx context.Context, req SignUpRequest) (*Profile, error) {
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return nil, err
	}
	if len(req.Password) < minPasswordLen {
		return nil, errors.Wrapf(ErrInvalidInput, "password must be at least %d characters", minPasswordLen)
	}

	if _, err := s.users.FindUserByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, ErrNotFound) {
		return nil, errors.Wrap(err, "lookup user")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cost)
	if err != nil {
		return nil, errors.Wrap(err, "hash password")
	}

	business := strings.TrimSpace(req.BusinessName)
	if business == "" {
		business = DefaultBusinessName
	}

	u := User{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: string(hash),
		BusinessName: business,
		CreatedAt:    s.now(),
	}
	if err := s.users.CreateUser(ctx, u); err != nil {
		return nil, errors.Wrap(err, "create user")
	}

	return &Profile{UserID: u.ID, Email: u.Email, BusinessName: u.BusinessName}, nil
}

// SignIn verifies the credentials and opens a session, returning the bearer
// token to present on later requests.
func (s *Service) SignIn(ctx context.Context, email, password string) (string, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return "", ErrInvalidCredentials
	}

	u, err := s.users.FindUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", errors.Wrap(err, "lookup user")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", errors.Wrap(err, "generate token")
	}
	token := hex.EncodeToString(raw)

	if err := s.sessions.CreateSession(ctx, Session{
		ID:        uuid.New().String(),
		UserID:    u.ID,
		TokenHash: hex.EncodeToString(s.hashToken(token)),
		CreatedAt: s.now(),
	}); err != nil {
		return "", errors.Wrap(err, "create session")
	}

	return token, nil
}

// SignOut closes the session identified by token. Unknown tokens are ignored.
func (s *Service) SignOut(ctx context.Context, token string) error {
	if err := s.sessions.DeleteSessionByHash(ctx, hex.EncodeToString(s.hashToken(token))); err != nil {
		return errors.Wrap(err, "delete session")
	}
	return nil
}

// Authenticate resolves a bearer token to the owning user id.
func (s *Service) Authenticate(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", ErrNotAuthenticated
	}
	hash := s.hashToken(token)

	sess, err := s.sessions.FindSessionByHash(ctx, hex.EncodeToString(hash))
	if err != nil {
		return "", ErrNotAuthenticated
	}

	// Stored hash must match the presented token exactly.
	stored, err := hex.DecodeString(sess.TokenHash)
	if err != nil || subtle.ConstantTimeCompare(hash, stored) != 1 {
		return "", ErrNotAuthenticated
	}

	return sess.UserID, nil
}

// Profile returns the profile of the user in ctx.
func (s *Service) Profile(ctx context.Context) (*Profile, error) {
	userID, err := RequireUserID(ctx)
	if err != nil {
		return nil, err
	}
	p, err := s.users.GetProfile(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "get profile")
	}
	return p, nil
}

// UpdateBusinessName renames the business of the user in ctx.
func (s *Service) UpdateBusinessName(ctx context.Context, name string) (*Profile, error) {
	userID, err := RequireUserID(ctx)
	if err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.Wrap(ErrInvalidInput, "business name required")
	}
	p, err := s.users.UpdateBusinessName(ctx, userID, name)
	if err != nil {
		return nil, errors.Wrap(err, "update profile")
	}
	return p, nil
}

func (s *Service) hashToken(token string) []byte {
	mac := hmac.New(sha256.New, s.pepper)
	mac.Write([]byte(token))
	return mac.Sum(nil)
}

func normalizeEmail(email string) (string, error) {
	addr, err := mail.ParseAddress(strings.TrimSpace(email))
	if err != nil {
		return "", errors.Wrapf(ErrInvalidInput, "email: %v", err)
	}
	return strings.ToLower(addr.Address), nil
}
