package users

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	apperrors "github.com/jrsteele09/go-oauth20-server/internal/errors"
)

var _ Repo = (*InMemoryRepo)(nil)

type InMemoryRepo struct {
	users       map[string]*User
	usernameIDs map[string]string // username to user id
	lock        sync.RWMutex
}

func NewInMemoryRepo() *InMemoryRepo {
	return &InMemoryRepo{
		users:       make(map[string]*User),
		usernameIDs: make(map[string]string),
	}
}

func notFound(key string) error {
	return apperrors.Wrapf(apperrors.ErrNotFound, "user %s", key)
}

// Upsert stores user, assigning an id when it has none. A username already held by another
// user is rejected.
func (r *InMemoryRepo) Upsert(_ context.Context, user *User) error {
	if user == nil {
		return apperrors.ErrNilRecord
	}
	if user.Username == "" {
		return ErrMissingUsername
	}

	r.lock.Lock()
	defer r.lock.Unlock()

	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if id, ok := r.usernameIDs[user.Username]; ok && id != user.ID {
		return apperrors.Wrapf(apperrors.ErrAlreadyExists, "username %s", user.Username)
	}
	if previous, ok := r.users[user.ID]; ok && previous.Username != user.Username {
		delete(r.usernameIDs, previous.Username)
	}
	r.users[user.ID] = user.Copy()
	r.usernameIDs[user.Username] = user.ID
	return nil
}

func (r *InMemoryRepo) Delete(_ context.Context, username string) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	userID, ok := r.usernameIDs[username]
	if !ok {
		return notFound(username)
	}
	delete(r.usernameIDs, username)
	delete(r.users, userID)
	return nil
}

func (r *InMemoryRepo) GetByUsername(_ context.Context, username string) (*User, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	userID, ok := r.usernameIDs[username]
	if !ok {
		return nil, notFound(username)
	}
	return r.users[userID].Copy(), nil
}

func (r *InMemoryRepo) GetByID(_ context.Context, id string) (*User, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	user, ok := r.users[id]
	if !ok {
		return nil, notFound(id)
	}
	return user.Copy(), nil
}

// List returns users ordered by username. A non-positive limit returns every user from offset.
func (r *InMemoryRepo) List(_ context.Context, offset, limit int) ([]*User, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	userList := make([]*User, 0, len(r.users))
	for _, u := range r.users {
		userList = append(userList, u.Copy())
	}
	sort.Slice(userList, func(i, j int) bool {
		return userList[i].Username < userList[j].Username
	})

	if offset < 0 {
		offset = 0
	}
	if offset >= len(userList) {
		return []*User{}, nil
	}
	end := len(userList)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return userList[offset:end], nil
}

func (r *InMemoryRepo) SetBlocked(_ context.Context, username string, blocked bool) error {
	return r.update(username, func(u *User) { u.Blocked = blocked })
}

func (r *InMemoryRepo) SetLastLogin(_ context.Context, username string, at time.Time) error {
	return r.update(username, func(u *User) { u.LastLogin = at })
}

func (r *InMemoryRepo) update(username string, apply func(u *User)) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	userID, ok := r.usernameIDs[username]
	if !ok {
		return notFound(username)
	}
	apply(r.users[userID])
	return nil
}
