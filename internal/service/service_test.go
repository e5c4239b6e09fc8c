package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/patric-chuzhbe/tinyapp/internal/auth"
	"github.com/patric-chuzhbe/tinyapp/internal/db/memorystorage"
	"github.com/patric-chuzhbe/tinyapp/internal/mockstorage"
	"github.com/patric-chuzhbe/tinyapp/internal/models"
	"github.com/patric-chuzhbe/tinyapp/internal/user"
)

func newMemoryService(t *testing.T, optionsProto ...InitOption) (*Service, *memorystorage.MemoryStorage) {
	t.Helper()
	db, err := memorystorage.New()
	require.NoError(t, err)

	return New(db, auth.NewPasswords(bcrypt.MinCost), optionsProto...), db
}

func register(t *testing.T, s *Service, email, password string) *user.User {
	t.Helper()
	usr, err := s.Register(context.Background(), models.CredentialsForm{Email: email, Password: password})
	require.NoError(t, err)
	return usr
}

func TestRegister(t *testing.T) {
	ctx := context.Background()
	s, db := newMemoryService(t)

	usr := register(t, s, "a@x.com", "pw1")
	assert.Len(t, usr.ID, 6)
	assert.Equal(t, "a@x.com", usr.Email)
	assert.NotEqual(t, "pw1", usr.PasswordHash)

	stored, found, err := db.GetUserByID(ctx, usr.ID)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, usr, stored)

	testCases := []struct {
		name        string
		credentials models.CredentialsForm
		wantErr     error
	}{
		{name: "empty email", credentials: models.CredentialsForm{Password: "pw"}, wantErr: ErrEmptyCredentials},
		{name: "empty password", credentials: models.CredentialsForm{Email: "b@x.com"}, wantErr: ErrEmptyCredentials},
		{name: "taken email", credentials: models.CredentialsForm{Email: "a@x.com", Password: "pw2"}, wantErr: ErrEmailTaken},
		{
			name:        "password over the bcrypt limit",
			credentials: models.CredentialsForm{Email: "c@x.com", Password: strings.Repeat("p", 73)},
			wantErr:     ErrPasswordTooLong,
		},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			_, err := s.Register(ctx, testCase.credentials)
			assert.ErrorIs(t, err, testCase.wantErr)
		})
	}

	// A different case is a different email.
	register(t, s, "A@X.COM", "pw3")
}

func TestRegisterTakenEmailNeverMutates(t *testing.T) {
	db := &mockstorage.StorageMock{}
	db.On("FindUserByEmail", mock.Anything, "a@x.com").
		Return(&user.User{ID: "abc123", Email: "a@x.com"}, true, nil)

	s := New(db, auth.NewPasswords(bcrypt.MinCost))
	_, err := s.Register(context.Background(), models.CredentialsForm{Email: "a@x.com", Password: "pw"})

	assert.ErrorIs(t, err, ErrEmailTaken)
	db.AssertNotCalled(t, "CreateUser", mock.Anything, mock.Anything)
	db.AssertExpectations(t)
}

func TestRegisterLostRace(t *testing.T) {
	db := &mockstorage.StorageMock{}
	db.On("FindUserByEmail", mock.Anything, "a@x.com").Return(nil, false, nil)
	db.On("IsUserIDExists", mock.Anything, "user01").Return(false, nil)
	db.On("CreateUser", mock.Anything, mock.Anything).Return(models.ErrEmailAlreadyRegistered)

	s := New(db, auth.NewPasswords(bcrypt.MinCost), WithIDGenerator(func() string { return "user01" }))
	_, err := s.Register(context.Background(), models.CredentialsForm{Email: "a@x.com", Password: "pw"})

	assert.ErrorIs(t, err, ErrEmailTaken)
	db.AssertExpectations(t)
}

func TestLogin(t *testing.T) {
	ctx := context.Background()
	s, _ := newMemoryService(t)
	registered := register(t, s, "a@x.com", "pw1")

	usr, err := s.Login(ctx, models.CredentialsForm{Email: "a@x.com", Password: "pw1"})
	require.NoError(t, err)
	assert.Equal(t, registered.ID, usr.ID)

	_, err = s.Login(ctx, models.CredentialsForm{Email: "a@x.com", Password: "wrong"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = s.Login(ctx, models.CredentialsForm{Email: "nobody@x.com", Password: "pw1"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = s.Login(ctx, models.CredentialsForm{Email: "a@x.com"})
	assert.ErrorIs(t, err, ErrEmptyCredentials)
}

func TestLinkLifecycle(t *testing.T) {
	ctx := context.Background()
	s, _ := newMemoryService(t)
	owner := register(t, s, "a@x.com", "pw1")
	stranger := register(t, s, "b@x.com", "pw2")

	short, err := s.CreateLink(ctx, owner.ID, models.LinkForm{LongURL: "http://e.com"})
	require.NoError(t, err)
	assert.Len(t, short, 6)

	link, err := s.GetOwnedLink(ctx, owner.ID, short)
	require.NoError(t, err)
	assert.Equal(t, &models.Link{LongURL: "http://e.com", UserID: owner.ID}, link)

	longURL, err := s.GetLongURL(ctx, short)
	require.NoError(t, err)
	assert.Equal(t, "http://e.com", longURL)

	t.Run("stranger is refused and nothing changes", func(t *testing.T) {
		_, err := s.GetOwnedLink(ctx, stranger.ID, short)
		assert.ErrorIs(t, err, ErrNotOwner)

		err = s.UpdateLink(ctx, stranger.ID, short, models.LinkForm{LongURL: "http://evil.com"})
		assert.ErrorIs(t, err, ErrNotOwner)

		err = s.DeleteLink(ctx, stranger.ID, short)
		assert.ErrorIs(t, err, ErrNotOwner)

		link, err := s.GetOwnedLink(ctx, owner.ID, short)
		require.NoError(t, err)
		assert.Equal(t, "http://e.com", link.LongURL)
	})

	t.Run("lists are per owner", func(t *testing.T) {
		links, err := s.GetUserLinks(ctx, owner.ID)
		require.NoError(t, err)
		assert.Equal(t, models.Links{short: {LongURL: "http://e.com", UserID: owner.ID}}, links)

		links, err = s.GetUserLinks(ctx, stranger.ID)
		require.NoError(t, err)
		assert.Empty(t, links)
	})

	t.Run("owner edits", func(t *testing.T) {
		err := s.UpdateLink(ctx, owner.ID, short, models.LinkForm{})
		assert.ErrorIs(t, err, ErrEmptyLongURL)

		require.NoError(t, s.UpdateLink(ctx, owner.ID, short, models.LinkForm{LongURL: "https://e.org"}))
		longURL, err := s.GetLongURL(ctx, short)
		require.NoError(t, err)
		assert.Equal(t, "https://e.org", longURL)
	})

	t.Run("owner deletes", func(t *testing.T) {
		require.NoError(t, s.DeleteLink(ctx, owner.ID, short))

		_, err := s.GetLongURL(ctx, short)
		assert.ErrorIs(t, err, ErrLinkNotFound)

		err = s.DeleteLink(ctx, owner.ID, short)
		assert.ErrorIs(t, err, ErrLinkNotFound)

		err = s.UpdateLink(ctx, owner.ID, short, models.LinkForm{LongURL: "http://e.com"})
		assert.ErrorIs(t, err, ErrLinkNotFound)
	})

	t.Run("empty long URL is rejected", func(t *testing.T) {
		_, err := s.CreateLink(ctx, owner.ID, models.LinkForm{})
		assert.ErrorIs(t, err, ErrEmptyLongURL)
	})
}

func TestForeignLinkIsNeverMutated(t *testing.T) {
	db := &mockstorage.StorageMock{}
	db.On("GetLink", mock.Anything, "b2xVn2").
		Return(&models.Link{LongURL: "http://e.com", UserID: "userA1"}, true, nil)
	db.On("GetLink", mock.Anything, "nope00").Return(nil, false, nil)

	s := New(db, auth.NewPasswords(bcrypt.MinCost))
	ctx := context.Background()

	assert.ErrorIs(t, s.UpdateLink(ctx, "userB1", "b2xVn2", models.LinkForm{LongURL: "http://x.com"}), ErrNotOwner)
	assert.ErrorIs(t, s.DeleteLink(ctx, "userB1", "b2xVn2"), ErrNotOwner)
	assert.ErrorIs(t, s.DeleteLink(ctx, "userB1", "nope00"), ErrLinkNotFound)

	db.AssertNotCalled(t, "SetLongURL", mock.Anything, mock.Anything, mock.Anything)
	db.AssertNotCalled(t, "DeleteLink", mock.Anything, mock.Anything)
}

func TestCreateLinkRetriesOnCollision(t *testing.T) {
	ctx := context.Background()
	ids := []string{"taken1", "taken1", "fresh1"}
	next := 0
	s, db := newMemoryService(t, WithIDGenerator(func() string {
		id := ids[next]
		next++
		return id
	}))
	require.NoError(t, db.InsertLink(ctx, "taken1", "http://old.com", "someone"))

	short, err := s.CreateLink(ctx, "owner1", models.LinkForm{LongURL: "http://new.com"})
	require.NoError(t, err)
	assert.Equal(t, "fresh1", short)

	longURL, err := s.GetLongURL(ctx, "taken1")
	require.NoError(t, err)
	assert.Equal(t, "http://old.com", longURL)
}

func TestCreateLinkGivesUp(t *testing.T) {
	ctx := context.Background()
	s, db := newMemoryService(t, WithIDGenerator(func() string { return "taken1" }))
	require.NoError(t, db.InsertLink(ctx, "taken1", "http://old.com", "someone"))

	_, err := s.CreateLink(ctx, "owner1", models.LinkForm{LongURL: "http://new.com"})
	assert.ErrorIs(t, err, ErrUnableToGenerateID)
}

func TestStorageErrorsPropagate(t *testing.T) {
	boom := errors.New("boom")
	db := &mockstorage.StorageMock{}
	db.On("GetLink", mock.Anything, mock.Anything).Return(nil, false, boom)
	db.On("Ping", mock.Anything).Return(boom)

	s := New(db, auth.NewPasswords(bcrypt.MinCost))
	ctx := context.Background()

	_, err := s.GetLongURL(ctx, "b2xVn2")
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, s.Ping(ctx), boom)
}
