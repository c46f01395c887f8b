package repository

import (
	"sort"
	"sync"

	"relay-back/internal/apperrors"
	"relay-back/internal/model"
)

type UserRepository struct {
	mu    sync.RWMutex
	users map[string]model.User
}

func NewUserRepository() *UserRepository {
	return &UserRepository{
		users: make(map[string]model.User),
	}
}

func (r *UserRepository) InsertUser(user model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[user.ID]; ok {
		return apperrors.ErrUserAlreadyExists
	}

	r.users[user.ID] = user

	return nil
}

func (r *UserRepository) SelectUserByID(id string) (model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[id]
	if !ok {
		return model.User{}, apperrors.ErrUserDoesNotExist
	}

	return user, nil
}

// SelectUserIDs returns registered identities sorted lexicographically.
func (r *UserRepository) SelectUserIDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.users))
	for id := range r.users {
		ids = append(ids, id)
	}

	sort.Strings(ids)

	return ids
}

func (r *UserRepository) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.users)
}
