package user

import (
	"context"
	"errors"
	"strings"

	"lms-commerce/internal/domain"
	userrepo "lms-commerce/internal/repository/user"

	pkgerrors "github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials is returned when email/password do not match.
var ErrInvalidCredentials = domain.Unauthorized("Invalid email or password")

type tokenIssuer interface {
	Issue(userID string) (string, error)
}

// Service handles registration and login.
type Service struct {
	repo        userrepo.Repository
	tokens      tokenIssuer
	passwordMin int
}

func New(repo userrepo.Repository, tokens tokenIssuer) *Service {
	return &Service{repo: repo, tokens: tokens, passwordMin: 6}
}

type RegisterInput struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	PhoneNumber string `json:"phoneNumber"`
}

// Register creates the user and returns a fresh token.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*domain.User, string, error) {
	name := strings.TrimSpace(in.Name)
	email := strings.TrimSpace(strings.ToLower(in.Email))
	if name == "" || email == "" || in.Password == "" {
		return nil, "", domain.Invalid("Please provide all required fields")
	}
	if !strings.Contains(email, "@") {
		return nil, "", domain.Invalid("Please provide a valid email")
	}
	if len(in.Password) < s.passwordMin {
		return nil, "", domain.Invalid("Password must be at least 6 characters")
	}
	if _, err := s.repo.GetByEmail(ctx, email); err == nil {
		return nil, "", domain.Invalid("User already exists")
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, "", err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", pkgerrors.Wrap(err, "hash password")
	}
	u, err := s.repo.Create(ctx, domain.User{
		Name:         name,
		Email:        email,
		PasswordHash: string(hashed),
		PhoneNumber:  strings.TrimSpace(in.PhoneNumber),
	})
	if err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			return nil, "", domain.Invalid("User already exists")
		}
		return nil, "", err
	}
	token, err := s.tokens.Issue(u.ID)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}

func (s *Service) Login(ctx context.Context, email, password string) (*domain.User, string, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return nil, "", domain.Invalid("Please provide email and password")
	}
	u, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, "", ErrInvalidCredentials
	}
	token, err := s.tokens.Issue(u.ID)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.User, error) {
	return s.repo.GetByID(ctx, id)
}
