package service

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/crucial707/quill/internal/apperr"
	"github.com/crucial707/quill/internal/auth"
	"github.com/crucial707/quill/internal/models"
	"github.com/crucial707/quill/internal/repo"
	"github.com/go-playground/validator/v10"
)

const msgInvalidCredentials = "invalid credentials"

// UserStore is the credential store. *repo.UserRepo satisfies it.
type UserStore interface {
	Create(ctx context.Context, username, email, passwordHash string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}

// TokenIssuer signs access tokens. *auth.Tokens satisfies it.
type TokenIssuer interface {
	Issue(userID, username string) (string, error)
}

type RegisterInput struct {
	Username string `json:"username" validate:"required,min=3,max=32,alphanum"`
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResult is returned by a successful login.
type LoginResult struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

type AuthService struct {
	users    UserStore
	tokens   TokenIssuer
	validate *validator.Validate
}

func NewAuthService(users UserStore, tokens TokenIssuer) *AuthService {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return &AuthService{users: users, tokens: tokens, validate: v}
}

// Register creates a user with a bcrypt-hashed password. Usernames and emails are unique.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))

	if err := s.validate.Struct(in); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return nil, apperr.Validation("validation failed", fieldMessages(verrs))
		}
		return nil, apperr.Internal(err)
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	user, err := s.users.Create(ctx, in.Username, in.Email, hash)
	if repo.IsUniqueViolation(err) {
		return nil, apperr.Conflict("username or email already exists")
	}
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return user, nil
}

// Login checks the password for the account with the given email and issues a token.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (*LoginResult, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if email == "" || in.Password == "" {
		return nil, apperr.InvalidInput("email and password are required")
	}

	user, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, apperr.Unauthenticated(msgInvalidCredentials)
	}
	if err != nil {
		return nil, apperr.Internal(err)
	}

	if err := auth.CheckPassword(user.PasswordHash, in.Password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			return nil, apperr.Unauthenticated(msgInvalidCredentials)
		}
		return nil, apperr.Internal(err)
	}

	token, err := s.tokens.Issue(user.ID, user.Username)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return &LoginResult{Token: token, User: user}, nil
}

func fieldMessages(verrs validator.ValidationErrors) map[string]string {
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			fields[fe.Field()] = "required"
		case "min":
			fields[fe.Field()] = fmt.Sprintf("must be at least %s characters", fe.Param())
		case "max":
			fields[fe.Field()] = fmt.Sprintf("must be at most %s characters", fe.Param())
		case "email":
			fields[fe.Field()] = "must be a valid email address"
		case "alphanum":
			fields[fe.Field()] = "must contain only letters and digits"
		default:
			fields[fe.Field()] = "is invalid"
		}
	}
	return fields
}
