package service

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"relay-back/internal/apperrors"
	"relay-back/internal/model"
)

type UserRepository interface {
	InsertUser(user model.User) error
	SelectUserByID(id string) (model.User, error)
	SelectUserIDs() []string
	Count() int
}

// UserService is a directory of known identities. Registration is never
// required to send or fetch messages.
type UserService struct {
	userRepo UserRepository
	now      func() time.Time
}

func NewUserService(userRepo UserRepository) *UserService {
	return &UserService{
		userRepo: userRepo,
		now:      time.Now,
	}
}

func (s *UserService) Register(ctx context.Context, userID, password string) (model.User, error) {
	if err := ctx.Err(); err != nil {
		return model.User{}, err
	}

	if userID == "" {
		return model.User{}, fmt.Errorf("%w: userId is empty", apperrors.ErrInvalidInput)
	}

	user := model.User{
		ID:        userID,
		CreatedAt: s.now().UTC(),
	}

	if password != "" {
		hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return model.User{}, fmt.Errorf("failed to hash password: %w", err)
		}

		user.HashedPassword = hashed
	}

	if err := s.userRepo.InsertUser(user); err != nil {
		return model.User{}, err
	}

	return user, nil
}

func (s *UserService) GetUser(ctx context.Context, userID string) (model.User, error) {
	if err := ctx.Err(); err != nil {
		return model.User{}, err
	}

	user, err := s.userRepo.SelectUserByID(userID)
	if err != nil {
		return model.User{}, fmt.Errorf("failed to select user: %w", err)
	}

	return user, nil
}

// CheckPassword reports whether password matches the stored hash. Users
// registered without a password match only the empty password.
func (s *UserService) CheckPassword(ctx context.Context, userID, password string) (bool, error) {
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return false, err
	}

	if len(user.HashedPassword) == 0 {
		return password == "", nil
	}

	if err := bcrypt.CompareHashAndPassword(user.HashedPassword, []byte(password)); err != nil {
		return false, nil
	}

	return true, nil
}

func (s *UserService) ListUsers(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return s.userRepo.SelectUserIDs(), nil
}

func (s *UserService) Count() int {
	return s.userRepo.Count()
}
