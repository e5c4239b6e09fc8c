// Package service implements the link and account operations. Every
// operation performs its checks first and at most one directory mutation.
package service

import (
	"context"
	"errors"
	"fmt"

	validator "github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/patric-chuzhbe/tinyapp/internal/models"
	"github.com/patric-chuzhbe/tinyapp/internal/randstr"
	"github.com/patric-chuzhbe/tinyapp/internal/user"
)

// TriesToGenerateUniqueKey bounds the number of draws made while looking
// for an identifier that is not taken yet.
const TriesToGenerateUniqueKey = 10

type userKeeper interface {
	CreateUser(ctx context.Context, usr *user.User) error
	FindUserByEmail(ctx context.Context, email string) (*user.User, bool, error)
	GetUserByID(ctx context.Context, userID string) (*user.User, bool, error)
	IsUserIDExists(ctx context.Context, userID string) (bool, error)
}

type linksKeeper interface {
	GetLink(ctx context.Context, short string) (*models.Link, bool, error)
	InsertLink(ctx context.Context, short, longURL, ownerID string) error
	SetLongURL(ctx context.Context, short, longURL string) error
	DeleteLink(ctx context.Context, short string) error
	GetLinksByOwner(ctx context.Context, ownerID string) (models.Links, error)
	GetAllLinks(ctx context.Context) (models.Links, error)
}

type pinger interface {
	Ping(ctx context.Context) error
}

type storage interface {
	userKeeper
	linksKeeper
	pinger
}

type passwordHasher interface {
	Hash(password string) (string, error)
	Matches(hash, password string) (bool, error)
}

// Validation errors.
var (
	ErrEmptyCredentials = errors.New("email and password cannot be empty")
	ErrEmailTaken       = errors.New("email already exists")
	ErrPasswordTooLong  = errors.New("password is too long")
	ErrEmptyLongURL     = errors.New("long URL cannot be empty")
)

var (
	// ErrInvalidCredentials covers both an unknown email and a wrong password.
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrNotOwner           = errors.New("the URL belongs to another user")
	ErrLinkNotFound       = errors.New("URL not found")
	ErrUnableToGenerateID = errors.New("the number of attempts to generate a unique key has been exceeded")
)

type Service struct {
	db        storage
	passwords passwordHasher
	validate  *validator.Validate
	newID     func() string
}

// InitOption customizes a Service.
type InitOption func(*Service)

// WithIDGenerator replaces randstr.New as the source of short codes and user IDs.
func WithIDGenerator(generate func() string) InitOption {
	return func(s *Service) {
		s.newID = generate
	}
}

func New(
	db storage,
	passwords passwordHasher,
	optionsProto ...InitOption,
) *Service {
	s := &Service{
		db:        db,
		passwords: passwords,
		validate:  validator.New(),
		newID:     randstr.New,
	}
	for _, protoOption := range optionsProto {
		protoOption(s)
	}

	return s
}

// Register creates a new user and returns it.
func (s *Service) Register(ctx context.Context, credentials models.CredentialsForm) (*user.User, error) {
	if err := s.validate.Struct(credentials); err != nil {
		return nil, ErrEmptyCredentials
	}

	_, found, err := s.db.FindUserByEmail(ctx, credentials.Email)
	if err != nil {
		return nil, err
	}
	if found {
		return nil, ErrEmailTaken
	}

	passwordHash, err := s.passwords.Hash(credentials.Password)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return nil, ErrPasswordTooLong
	}
	if err != nil {
		return nil, fmt.Errorf("in internal/service/service.go/Register(): error while `s.passwords.Hash()` calling: %w", err)
	}

	userID, err := s.generateUniqueID(func(id string) (bool, error) {
		return s.db.IsUserIDExists(ctx, id)
	})
	if err != nil {
		return nil, err
	}

	usr := &user.User{
		ID:           userID,
		Email:        credentials.Email,
		PasswordHash: passwordHash,
	}
	err = s.db.CreateUser(ctx, usr)
	if errors.Is(err, models.ErrEmailAlreadyRegistered) {
		return nil, ErrEmailTaken
	}
	if err != nil {
		return nil, err
	}

	return usr, nil
}

// Login returns the user owning the credentials.
func (s *Service) Login(ctx context.Context, credentials models.CredentialsForm) (*user.User, error) {
	if err := s.validate.Struct(credentials); err != nil {
		return nil, ErrEmptyCredentials
	}

	usr, found, err := s.db.FindUserByEmail(ctx, credentials.Email)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrInvalidCredentials
	}

	matches, err := s.passwords.Matches(usr.PasswordHash, credentials.Password)
	if err != nil {
		return nil, fmt.Errorf("in internal/service/service.go/Login(): error while `s.passwords.Matches()` calling: %w", err)
	}
	if !matches {
		return nil, ErrInvalidCredentials
	}

	return usr, nil
}

// GetUser returns the user with the given ID, or nil for an unknown ID.
func (s *Service) GetUser(ctx context.Context, userID string) (*user.User, error) {
	if userID == "" {
		return nil, nil
	}
	usr, found, err := s.db.GetUserByID(ctx, userID)
	if err != nil || !found {
		return nil, err
	}

	return usr, nil
}

// CreateLink stores a new link owned by userID and returns its short code.
func (s *Service) CreateLink(ctx context.Context, userID string, form models.LinkForm) (string, error) {
	if err := s.validate.Struct(form); err != nil {
		return "", ErrEmptyLongURL
	}

	short, err := s.generateUniqueID(func(id string) (bool, error) {
		_, found, err := s.db.GetLink(ctx, id)
		return found, err
	})
	if err != nil {
		return "", err
	}

	if err := s.db.InsertLink(ctx, short, form.LongURL, userID); err != nil {
		return "", err
	}

	return short, nil
}

// GetOwnedLink returns the link if it exists and belongs to userID.
func (s *Service) GetOwnedLink(ctx context.Context, userID, short string) (*models.Link, error) {
	link, found, err := s.db.GetLink(ctx, short)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrLinkNotFound
	}
	if link.UserID != userID {
		return nil, ErrNotOwner
	}

	return link, nil
}

// UpdateLink replaces the destination of a link owned by userID.
func (s *Service) UpdateLink(ctx context.Context, userID, short string, form models.LinkForm) error {
	if _, err := s.GetOwnedLink(ctx, userID, short); err != nil {
		return err
	}
	if err := s.validate.Struct(form); err != nil {
		return ErrEmptyLongURL
	}

	err := s.db.SetLongURL(ctx, short, form.LongURL)
	if errors.Is(err, models.ErrLinkNotFound) {
		return ErrLinkNotFound
	}

	return err
}

// DeleteLink removes a link owned by userID.
func (s *Service) DeleteLink(ctx context.Context, userID, short string) error {
	if _, err := s.GetOwnedLink(ctx, userID, short); err != nil {
		return err
	}

	err := s.db.DeleteLink(ctx, short)
	if errors.Is(err, models.ErrLinkNotFound) {
		return ErrLinkNotFound
	}

	return err
}

// GetUserLinks returns the links owned by userID.
func (s *Service) GetUserLinks(ctx context.Context, userID string) (models.Links, error) {
	return s.db.GetLinksByOwner(ctx, userID)
}

// GetAllLinks returns the whole link directory.
func (s *Service) GetAllLinks(ctx context.Context) (models.Links, error) {
	return s.db.GetAllLinks(ctx)
}

// GetLongURL resolves a short code for redirection. No ownership is required.
func (s *Service) GetLongURL(ctx context.Context, short string) (string, error) {
	link, found, err := s.db.GetLink(ctx, short)
	if err != nil {
		return "", err
	}
	if !found {
		return "", ErrLinkNotFound
	}

	return link.LongURL, nil
}

// Ping checks the health of the storage layer.
func (s *Service) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

func (s *Service) generateUniqueID(isTaken func(id string) (bool, error)) (string, error) {
	for i := 0; i < TriesToGenerateUniqueKey; i++ {
		id := s.newID()
		taken, err := isTaken(id)
		if err != nil {
			return "", err
		}
		if !taken {
			return id, nil
		}
	}

	return "", ErrUnableToGenerateID
}
