package service

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"

	"miniblog/internal/models"
	"miniblog/internal/observability"
	"miniblog/internal/repository"

	"golang.org/x/crypto/bcrypt"
)

const (
	msgRegisterRequired   = "Username, email and password required"
	msgUserExists         = "User already exists"
	msgLoginRequired      = "Email and password required"
	msgInvalidCredentials = "Invalid email or password"
	msgNotAuthorized      = "Not authorized"
	msgUserNotFound       = "User not found"
)

// LooseString decodes a JSON string, number or boolean into its text form.
// null decodes to "".
type LooseString string

func (s *LooseString) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch t := v.(type) {
	case nil:
		*s = ""
	case string:
		*s = LooseString(t)
	case float64:
		*s = LooseString(strconv.FormatFloat(t, 'f', -1, 64))
	case bool:
		*s = LooseString(strconv.FormatBool(t))
	default:
		return errors.New("expected a string")
	}
	return nil
}

// String returns the decoded text.
func (s LooseString) String() string {
	return string(s)
}

type RegisterInput struct {
	Username LooseString `json:"username"`
	Email    LooseString `json:"email"`
	Password LooseString `json:"password"`
}

type LoginInput struct {
	Email    LooseString `json:"email"`
	Password LooseString `json:"password"`
}

// AuthResult is returned by Register and Login.
type AuthResult struct {
	User  models.UserRef `json:"user"`
	Token string         `json:"token"`
}

// AuthService registers users, checks credentials and verifies bearer tokens.
type AuthService struct {
	users    repository.UserRepository
	tokens   *TokenManager
	hashCost int
}

func NewAuthService(users repository.UserRepository, tokens *TokenManager) *AuthService {
	return &AuthService{
		users:    users,
		tokens:   tokens,
		hashCost: bcrypt.DefaultCost,
	}
}

// WithHashCost overrides the bcrypt cost. Tests use bcrypt.MinCost.
func (s *AuthService) WithHashCost(cost int) *AuthService {
	s.hashCost = cost
	return s
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (result *AuthResult, err error) {
	ctx, span := observability.StartSpan(ctx, "AuthService.Register")
	defer func() {
		observability.RecordAuth("register", err)
		observability.EndSpan(span, err)
	}()

	username, email, password := in.Username.String(), in.Email.String(), in.Password.String()
	if username == "" || email == "" || password == "" {
		return nil, models.NewValidationError(msgRegisterRequired)
	}

	existing, err := s.users.FindByEmailOrUsername(ctx, email, username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, models.NewConflictError(msgUserExists)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	user := &models.User{Username: username, Email: email, Password: string(hash)}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	return s.issue(user)
}

func (s *AuthService) Login(ctx context.Context, in LoginInput) (result *AuthResult, err error) {
	ctx, span := observability.StartSpan(ctx, "AuthService.Login")
	defer func() {
		observability.RecordAuth("login", err)
		observability.EndSpan(span, err)
	}()

	email := strings.TrimSpace(in.Email.String())
	password := in.Password.String()
	if email == "" || password == "" {
		return nil, models.NewValidationError(msgLoginRequired)
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, models.NewUnauthorizedError(msgInvalidCredentials)
	}
	if cmpErr := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); cmpErr != nil {
		return nil, models.NewUnauthorizedError(msgInvalidCredentials)
	}

	return s.issue(user)
}

func (s *AuthService) issue(user *models.User) (*AuthResult, error) {
	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return &AuthResult{User: user.Ref(), Token: token}, nil
}

// VerifyToken resolves a bearer token to its user.
func (s *AuthService) VerifyToken(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, models.NewUnauthorizedError(msgNotAuthorized)
	}
	userID, err := s.tokens.Parse(token)
	if err != nil {
		return nil, &models.AppError{Code: models.CodeUnauthorized, Message: msgNotAuthorized, Err: err}
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if models.ErrorCode(err) == models.CodeNotFound {
			return nil, models.NewUnauthorizedError(msgUserNotFound)
		}
		return nil, err
	}
	return user, nil
}
