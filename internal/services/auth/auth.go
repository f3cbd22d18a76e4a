package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"yamdb/proj/internal/domain/models"
	"yamdb/proj/internal/lib/validator"
	"yamdb/proj/internal/mails"
	"yamdb/proj/internal/storage"
)

type MailProvider interface {
	Send(recipient string, tmplName string, tmplData any) error
}

type TokenProvider interface {
	NewToken(userID int64) (string, error)
	ParseToken(token string) (int64, error)
}

type UserStorage interface {
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Insert(ctx context.Context, user *models.User) (*models.User, error)
	SetConfirmationCode(ctx context.Context, userID int64, codeHash string, expiresAt time.Time) error
	Activate(ctx context.Context, userID int64, codeHash string, now time.Time) (*models.User, error)
}

type AuthService struct {
	log     *slog.Logger
	users   UserStorage
	mailer  MailProvider
	tokens  TokenProvider
	codeTTL time.Duration
	now     func() time.Time
}

func New(
	log *slog.Logger,
	users UserStorage,
	mailer MailProvider,
	tokens TokenProvider,
	codeTTL time.Duration,
) *AuthService {
	return &AuthService{
		log:     log,
		users:   users,
		mailer:  mailer,
		tokens:  tokens,
		codeTTL: codeTTL,
		now:     time.Now,
	}
}

const confirmationCodeBytes = 24

func newConfirmationCode() (string, error) {
	b := make([]byte, confirmationCodeBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func hashConfirmationCode(code string) string {
	sum := sha256.Sum256([]byte(code))
	return hex.EncodeToString(sum[:])
}

// SignupConflict reports which of the given identifiers already belong to
// another account. Nil users mean no match.
func SignupConflict(byEmail, byUsername *models.User) validator.Errors {
	errs := validator.Errors{}
	switch {
	case byEmail == nil && byUsername == nil:
		return nil
	case byEmail != nil && byUsername != nil && byEmail.ID == byUsername.ID:
		return nil
	}
	if byEmail != nil {
		errs["email"] = "A user with this email already exists"
	}
	if byUsername != nil {
		errs["username"] = "A user with this username already exists"
	}
	return errs
}

func (a *AuthService) lookup(ctx context.Context, get func(context.Context, string) (*models.User, error), key string) (*models.User, error) {
	user, err := get(ctx, key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return user, nil
}

// Signup finds or creates the user identified by the (email, username) pair
// and mails a fresh confirmation code, replacing any previous one.
func (a *AuthService) Signup(ctx context.Context, username, email string) (*models.User, error) {
	const op = "auth.AuthService.Signup"
	log := a.log.With("op", op, "username", username, "email", email)
	if err := models.ValidateUsername(username); err != nil {
		return nil, validator.NewError("username", err.Error())
	}

	byEmail, err := a.lookup(ctx, a.users.GetByEmail, email)
	if err != nil {
		log.Error("Error getting user by email", "errMsg", err.Error())
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	byUsername, err := a.lookup(ctx, a.users.GetByUsername, username)
	if err != nil {
		log.Error("Error getting user by username", "errMsg", err.Error())
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if errs := SignupConflict(byEmail, byUsername); errs != nil {
		log.Info("signup collides with existing user")
		return nil, errs
	}

	user := byEmail
	if user == nil {
		user, err = a.users.Insert(ctx, &models.User{
			Username: username,
			Email:    email,
			Role:     models.RoleUser,
		})
		if err != nil {
			if errors.Is(err, storage.ErrConflict) {
				log.Info("lost race creating user", "constraint", storage.Constraint(err))
				return nil, conflictFromConstraint(storage.Constraint(err))
			}
			log.Error("Error creating user", "errMsg", err.Error())
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		log.Info("user created", "user_id", user.ID)
	}

	if err := a.sendConfirmationCode(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func conflictFromConstraint(constraint string) validator.Errors {
	switch constraint {
	case storage.UsersEmailKey:
		return validator.NewError("email", "A user with this email already exists")
	case storage.UsersUsernameKey:
		return validator.NewError("username", "A user with this username already exists")
	}
	return validator.Errors{"username": "Username or email is already taken"}
}

func (a *AuthService) sendConfirmationCode(ctx context.Context, user *models.User) error {
	const op = "auth.AuthService.sendConfirmationCode"
	log := a.log.With("op", op, "user_id", user.ID)
	code, err := newConfirmationCode()
	if err != nil {
		log.Error("Error generating confirmation code", "errMsg", err.Error())
		return fmt.Errorf("%s: %w", op, err)
	}
	expiresAt := a.now().Add(a.codeTTL)
	if err := a.users.SetConfirmationCode(ctx, user.ID, hashConfirmationCode(code), expiresAt); err != nil {
		log.Error("Error storing confirmation code", "errMsg", err.Error())
		return fmt.Errorf("%s: %w", op, err)
	}
	log.Info("sending confirmation code")
	err = a.mailer.Send(user.Email, mails.ConfirmationCodeTmpl, map[string]any{
		"username":         user.Username,
		"confirmationCode": code,
		"expiresAt":        expiresAt.UTC().Format(time.RFC1123),
	})
	if err != nil {
		log.Error("Error sending confirmation code", "errMsg", err.Error())
		return fmt.Errorf("%s: %w: %w", op, ErrConfirmationCodeDelivery, err)
	}
	return nil
}

// ObtainToken exchanges a confirmation code for an access token. The code is
// consumed and the user activated in a single storage call.
func (a *AuthService) ObtainToken(ctx context.Context, username, code string) (string, error) {
	const op = "auth.AuthService.ObtainToken"
	log := a.log.With("op", op, "username", username)
	if err := models.ValidateUsername(username); err != nil {
		return "", validator.NewError("username", err.Error())
	}
	user, err := a.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			log.Info("user not found")
			return "", ErrUserNotFound
		}
		log.Error("Error getting user", "errMsg", err.Error())
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if user.ConfirmationCode == nil ||
		subtle.ConstantTimeCompare([]byte(*user.ConfirmationCode), []byte(hashConfirmationCode(code))) != 1 {
		log.Info("confirmation code mismatch")
		return "", ErrInvalidConfirmationCode
	}
	user, err = a.users.Activate(ctx, user.ID, hashConfirmationCode(code), a.now())
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			log.Info("confirmation code expired or already used")
			return "", ErrInvalidConfirmationCode
		}
		log.Error("Error activating user", "errMsg", err.Error())
		return "", fmt.Errorf("%s: %w", op, err)
	}
	token, err := a.tokens.NewToken(user.ID)
	if err != nil {
		log.Error("Error issuing token", "errMsg", err.Error())
		return "", fmt.Errorf("%s: %w", op, err)
	}
	log.Info("token issued", "user_id", user.ID)
	return token, nil
}

// Authenticate resolves a bearer token to an active user.
func (a *AuthService) Authenticate(ctx context.Context, token string) (*models.User, error) {
	const op = "auth.AuthService.Authenticate"
	log := a.log.With("op", op)
	userID, err := a.tokens.ParseToken(token)
	if err != nil {
		log.Debug("token rejected", "errMsg", err.Error())
		return nil, ErrInvalidToken
	}
	user, err := a.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			log.Warn("token for unknown user", "user_id", userID)
			return nil, ErrInvalidToken
		}
		log.Error("Error getting user", "errMsg", err.Error())
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !user.IsActive {
		return nil, ErrUserInactive
	}
	return user, nil
}
