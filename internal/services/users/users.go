package users

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"yamdb/proj/internal/domain/filters"
	"yamdb/proj/internal/domain/models"
	"yamdb/proj/internal/lib/validator"
	"yamdb/proj/internal/storage"
)

var SortSafelist = []string{"username", "id", "email", "role"}

type UserStorage interface {
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	Insert(ctx context.Context, user *models.User) (*models.User, error)
	Update(ctx context.Context, user *models.User) (*models.User, error)
	List(ctx context.Context, search string, filters filters.Filters) ([]models.User, int, error)
	Delete(ctx context.Context, username string) error
}

// Patch holds the profile fields of a partial update. Nil fields are kept.
type Patch struct {
	Username  *string
	Email     *string
	FirstName *string
	LastName  *string
	Bio       *string
	Role      *models.Role
}

type UserService struct {
	log     *slog.Logger
	storage UserStorage
}

func New(log *slog.Logger, storage UserStorage) *UserService {
	return &UserService{
		log:     log,
		storage: storage,
	}
}

func conflictErrors(err error) validator.Errors {
	switch storage.Constraint(err) {
	case storage.UsersEmailKey:
		return validator.NewError("email", "A user with this email already exists")
	case storage.UsersUsernameKey:
		return validator.NewError("username", "A user with this username already exists")
	}
	return validator.NewError("username", "Username or email is already taken")
}

func (s *UserService) List(ctx context.Context, search string, filters filters.Filters) ([]models.User, int, error) {
	const op = "users.UserService.List"
	log := s.log.With("op", op, "search", search)
	users, total, err := s.storage.List(ctx, search, filters)
	if err != nil {
		log.Error("Error listing users", "errMsg", err.Error())
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}
	return users, total, nil
}

func (s *UserService) Get(ctx context.Context, username string) (*models.User, error) {
	const op = "users.UserService.Get"
	log := s.log.With("op", op, "username", username)
	user, err := s.storage.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			log.Info("user not found")
			return nil, ErrUserNotFound
		}
		log.Error("Error getting user", "errMsg", err.Error())
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return user, nil
}

// Create adds an active account with role user unless another is given.
func (s *UserService) Create(ctx context.Context, user *models.User) (*models.User, error) {
	const op = "users.UserService.Create"
	log := s.log.With("op", op, "username", user.Username)
	if err := models.ValidateUsername(user.Username); err != nil {
		return nil, validator.NewError("username", err.Error())
	}
	if user.Role == "" {
		user.Role = models.RoleUser
	}
	if !user.Role.Valid() {
		return nil, validator.NewError("role", "Must be one of: user, moderator, admin")
	}
	user.IsActive = true
	created, err := s.storage.Insert(ctx, user)
	if err != nil {
		if errors.Is(err, storage.ErrConflict) {
			log.Info("user already exists", "constraint", storage.Constraint(err))
			return nil, conflictErrors(err)
		}
		log.Error("Error creating user", "errMsg", err.Error())
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	log.Info("user created", "user_id", created.ID)
	return created, nil
}

// Update applies patch to the user identified by username.
func (s *UserService) Update(ctx context.Context, username string, patch Patch) (*models.User, error) {
	user, err := s.Get(ctx, username)
	if err != nil {
		return nil, err
	}
	return s.apply(ctx, user, patch)
}

// UpdateMe applies patch to the requester's own profile. The role is never
// changed here.
func (s *UserService) UpdateMe(ctx context.Context, me *models.User, patch Patch) (*models.User, error) {
	patch.Role = nil
	current := *me
	return s.apply(ctx, &current, patch)
}

func (s *UserService) apply(ctx context.Context, user *models.User, patch Patch) (*models.User, error) {
	const op = "users.UserService.apply"
	log := s.log.With("op", op, "user_id", user.ID)
	if patch.Username != nil {
		if err := models.ValidateUsername(*patch.Username); err != nil {
			return nil, validator.NewError("username", err.Error())
		}
		user.Username = *patch.Username
	}
	if patch.Email != nil {
		user.Email = *patch.Email
	}
	if patch.FirstName != nil {
		user.FirstName = *patch.FirstName
	}
	if patch.LastName != nil {
		user.LastName = *patch.LastName
	}
	if patch.Bio != nil {
		user.Bio = *patch.Bio
	}
	if patch.Role != nil {
		if !patch.Role.Valid() {
			return nil, validator.NewError("role", "Must be one of: user, moderator, admin")
		}
		user.Role = *patch.Role
	}
	updated, err := s.storage.Update(ctx, user)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrConflict):
			log.Info("profile collides with another user", "constraint", storage.Constraint(err))
			return nil, conflictErrors(err)
		case errors.Is(err, storage.ErrNotFound):
			log.Info("user not found")
			return nil, ErrUserNotFound
		}
		log.Error("Error updating user", "errMsg", err.Error())
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return updated, nil
}

func (s *UserService) Delete(ctx context.Context, username string) error {
	const op = "users.UserService.Delete"
	log := s.log.With("op", op, "username", username)
	if err := s.storage.Delete(ctx, username); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			log.Info("user not found")
			return ErrUserNotFound
		}
		log.Error("Error deleting user", "errMsg", err.Error())
		return fmt.Errorf("%s: %w", op, err)
	}
	log.Info("user deleted")
	return nil
}
