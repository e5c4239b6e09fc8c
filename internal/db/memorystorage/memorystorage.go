// Package memorystorage provides the in-memory user and link directories.
// Both mappings live for the lifetime of the process and are guarded by
// a single lock, so every operation is atomic with respect to the others.
package memorystorage

import (
	"context"
	"sync"

	"github.com/patric-chuzhbe/tinyapp/internal/models"
	"github.com/patric-chuzhbe/tinyapp/internal/user"
)

// MemoryStorage keeps users keyed by ID and links keyed by short code.
type MemoryStorage struct {
	mu    sync.RWMutex
	users map[string]user.User
	links models.Links
}

func New() (*MemoryStorage, error) {
	return &MemoryStorage{
		users: map[string]user.User{},
		links: models.Links{},
	}, nil
}

// CreateUser stores a new user keyed by its ID.
// It returns models.ErrEmailAlreadyRegistered if another user already has the same email.
func (s *MemoryStorage) CreateUser(ctx context.Context, usr *user.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, found := s.findUserByEmail(usr.Email); found {
		return models.ErrEmailAlreadyRegistered
	}
	s.users[usr.ID] = *usr

	return nil
}

// FindUserByEmail scans all users for an exact, case-sensitive email match.
func (s *MemoryStorage) FindUserByEmail(ctx context.Context, email string) (*user.User, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	usr, found := s.findUserByEmail(email)

	return usr, found, nil
}

func (s *MemoryStorage) findUserByEmail(email string) (*user.User, bool) {
	for _, usr := range s.users {
		if usr.Email == email {
			return &usr, true
		}
	}

	return nil, false
}

func (s *MemoryStorage) GetUserByID(ctx context.Context, userID string) (*user.User, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	usr, found := s.users[userID]
	if !found {
		return nil, false, nil
	}

	return &usr, true, nil
}

func (s *MemoryStorage) IsUserIDExists(ctx context.Context, userID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, exists := s.users[userID]

	return exists, nil
}

func (s *MemoryStorage) GetLink(ctx context.Context, short string) (*models.Link, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	link, found := s.links[short]
	if !found {
		return nil, false, nil
	}

	return &link, true, nil
}

// InsertLink creates the entry at short, overwriting whatever was there.
func (s *MemoryStorage) InsertLink(ctx context.Context, short, longURL, ownerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.links[short] = models.Link{
		LongURL: longURL,
		UserID:  ownerID,
	}

	return nil
}

func (s *MemoryStorage) SetLongURL(ctx context.Context, short, longURL string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	link, found := s.links[short]
	if !found {
		return models.ErrLinkNotFound
	}
	link.LongURL = longURL
	s.links[short] = link

	return nil
}

func (s *MemoryStorage) DeleteLink(ctx context.Context, short string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, found := s.links[short]; !found {
		return models.ErrLinkNotFound
	}
	delete(s.links, short)

	return nil
}

// GetLinksByOwner returns a copy of every link whose owner is ownerID.
// The result is empty, not nil, for a user without links.
func (s *MemoryStorage) GetLinksByOwner(ctx context.Context, ownerID string) (models.Links, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := models.Links{}
	for short, link := range s.links {
		if link.UserID == ownerID {
			result[short] = link
		}
	}

	return result, nil
}

// GetAllLinks returns a snapshot of the whole link directory.
func (s *MemoryStorage) GetAllLinks(ctx context.Context) (models.Links, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(models.Links, len(s.links))
	for short, link := range s.links {
		result[short] = link
	}

	return result, nil
}

func (s *MemoryStorage) Ping(ctx context.Context) error {
	return nil
}

func (s *MemoryStorage) Close() error {
	return nil
}
