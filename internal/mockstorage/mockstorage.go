// Package mockstorage provides a testify-based mock of the user and link
// directories. It is used to check which storage calls an operation makes,
// in particular that failed operations never mutate anything.
package mockstorage

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/patric-chuzhbe/tinyapp/internal/models"
	"github.com/patric-chuzhbe/tinyapp/internal/user"
)

// StorageMock is a testify mock implementing every storage method the service uses.
type StorageMock struct {
	mock.Mock
}

func (m *StorageMock) CreateUser(ctx context.Context, usr *user.User) error {
	args := m.Called(ctx, usr)
	return args.Error(0)
}

func (m *StorageMock) FindUserByEmail(ctx context.Context, email string) (*user.User, bool, error) {
	args := m.Called(ctx, email)
	usr, _ := args.Get(0).(*user.User)
	return usr, args.Bool(1), args.Error(2)
}

func (m *StorageMock) GetUserByID(ctx context.Context, userID string) (*user.User, bool, error) {
	args := m.Called(ctx, userID)
	usr, _ := args.Get(0).(*user.User)
	return usr, args.Bool(1), args.Error(2)
}

func (m *StorageMock) IsUserIDExists(ctx context.Context, userID string) (bool, error) {
	args := m.Called(ctx, userID)
	return args.Bool(0), args.Error(1)
}

func (m *StorageMock) GetLink(ctx context.Context, short string) (*models.Link, bool, error) {
	args := m.Called(ctx, short)
	link, _ := args.Get(0).(*models.Link)
	return link, args.Bool(1), args.Error(2)
}

func (m *StorageMock) InsertLink(ctx context.Context, short, longURL, ownerID string) error {
	args := m.Called(ctx, short, longURL, ownerID)
	return args.Error(0)
}

func (m *StorageMock) SetLongURL(ctx context.Context, short, longURL string) error {
	args := m.Called(ctx, short, longURL)
	return args.Error(0)
}

func (m *StorageMock) DeleteLink(ctx context.Context, short string) error {
	args := m.Called(ctx, short)
	return args.Error(0)
}

func (m *StorageMock) GetLinksByOwner(ctx context.Context, ownerID string) (models.Links, error) {
	args := m.Called(ctx, ownerID)
	links, _ := args.Get(0).(models.Links)
	return links, args.Error(1)
}

func (m *StorageMock) GetAllLinks(ctx context.Context) (models.Links, error) {
	args := m.Called(ctx)
	links, _ := args.Get(0).(models.Links)
	return links, args.Error(1)
}

func (m *StorageMock) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
