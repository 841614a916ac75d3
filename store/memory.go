package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"nutriguide/apperr"
	"nutriguide/models"
)

// MemoryUserStore is an in-memory UserStore used by tests. A single mutex
// stands in for the transaction boundary.
type MemoryUserStore struct {
	mu     sync.Mutex
	inTx   bool
	nextID int
	users  map[string]*models.User
}

func NewMemoryUserStore() *MemoryUserStore {
	return &MemoryUserStore{users: make(map[string]*models.User)}
}

func cloneUser(u *models.User) *models.User {
	c := *u
	if u.Regular != nil {
		r := *u.Regular
		c.Regular = &r
	}
	if u.Premium != nil {
		p := *u.Premium
		c.Premium = &p
	}
	return &c
}

func (s *MemoryUserStore) lock() func() {
	if s.inTx {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (s *MemoryUserStore) Load(ctx context.Context, id string) (*models.User, error) {
	defer s.lock()()
	u, ok := s.users[id]
	if !ok {
		return nil, apperr.NotFound("user not found")
	}
	return cloneUser(u), nil
}

func (s *MemoryUserStore) findBy(match func(*models.User) bool) (*models.User, error) {
	for _, u := range s.users {
		if match(u) {
			return cloneUser(u), nil
		}
	}
	return nil, apperr.NotFound("user not found")
}

func (s *MemoryUserStore) LoadByUsername(ctx context.Context, username string) (*models.User, error) {
	defer s.lock()()
	return s.findBy(func(u *models.User) bool {
		return strings.EqualFold(u.Username, username)
	})
}

func (s *MemoryUserStore) LoadByEmail(ctx context.Context, email string) (*models.User, error) {
	defer s.lock()()
	return s.findBy(func(u *models.User) bool {
		return strings.EqualFold(u.Email, email)
	})
}

func (s *MemoryUserStore) List(ctx context.Context) ([]*models.User, error) {
	defer s.lock()()
	var users []*models.User
	for _, u := range s.users {
		users = append(users, cloneUser(u))
	}
	sort.Slice(users, func(i, j int) bool {
		return users[i].CreatedAt.Before(users[j].CreatedAt)
	})
	return users, nil
}

func (s *MemoryUserStore) Create(ctx context.Context, u *models.User) (*models.User, error) {
	defer s.lock()()
	for _, existing := range s.users {
		if strings.EqualFold(existing.Username, u.Username) {
			return nil, apperr.Conflict("username already taken")
		}
		if strings.EqualFold(existing.Email, u.Email) {
			return nil, apperr.Conflict("email already registered")
		}
	}

	s.nextID++
	c := cloneUser(u)
	c.ID = fmt.Sprintf("user-%d", s.nextID)
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	if c.UpdatedAt.IsZero() {
		c.UpdatedAt = c.CreatedAt
	}
	s.users[c.ID] = c
	return cloneUser(c), nil
}

func (s *MemoryUserStore) Update(ctx context.Context, u *models.User) error {
	defer s.lock()()
	if _, ok := s.users[u.ID]; !ok {
		return apperr.NotFound("user not found")
	}
	for id, existing := range s.users {
		if id == u.ID {
			continue
		}
		if strings.EqualFold(existing.Username, u.Username) {
			return apperr.Conflict("username already taken")
		}
		if strings.EqualFold(existing.Email, u.Email) {
			return apperr.Conflict("email already registered")
		}
	}
	s.users[u.ID] = cloneUser(u)
	return nil
}

func (s *MemoryUserStore) Delete(ctx context.Context, id string) error {
	defer s.lock()()
	if _, ok := s.users[id]; !ok {
		return apperr.NotFound("user not found")
	}
	delete(s.users, id)
	return nil
}

func (s *MemoryUserStore) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	defer s.lock()()
	_, err := s.findBy(func(u *models.User) bool {
		return strings.EqualFold(u.Username, username)
	})
	return err == nil, nil
}

func (s *MemoryUserStore) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	defer s.lock()()
	_, err := s.findBy(func(u *models.User) bool {
		return strings.EqualFold(u.Email, email)
	})
	return err == nil, nil
}

func (s *MemoryUserStore) WithTx(ctx context.Context, fn func(UserStore) error) error {
	if s.inTx {
		return fn(s)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	// fn works on a snapshot that is swapped in only on success, so a
	// failed transaction leaves no partial writes behind.
	snapshot := make(map[string]*models.User, len(s.users))
	for id, u := range s.users {
		snapshot[id] = cloneUser(u)
	}
	txStore := &MemoryUserStore{inTx: true, nextID: s.nextID, users: snapshot}
	if err := fn(txStore); err != nil {
		return err
	}
	s.users = txStore.users
	s.nextID = txStore.nextID
	return nil
}

func (s *MemoryUserStore) ExpiredUnnotified(ctx context.Context, now time.Time) ([]*models.User, error) {
	defer s.lock()()
	var users []*models.User
	for _, u := range s.users {
		if u.Tier != models.TierPremium || u.Premium == nil || u.ExpiryNotified {
			continue
		}
		end := u.Premium.SubscriptionEndsAt
		if !end.IsZero() && !end.After(now) {
			users = append(users, cloneUser(u))
		}
	}
	return users, nil
}

func (s *MemoryUserStore) MarkExpiryNotified(ctx context.Context, id string) error {
	defer s.lock()()
	if u, ok := s.users[id]; ok {
		u.ExpiryNotified = true
	}
	return nil
}
