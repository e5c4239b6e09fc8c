// Package auth resolves the request session from a signed cookie and
// provides the login-required gates for HTTP routes.
//
// The cookie carries an HS256 JWT whose only application claim is the
// user ID. No session state is kept on the server.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/patric-chuzhbe/tinyapp/internal/logger"
	"github.com/patric-chuzhbe/tinyapp/internal/user"
)

type userKeeper interface {
	GetUserByID(ctx context.Context, userID string) (*user.User, bool, error)
}

// Session is the per-request identity. The zero value is an anonymous session.
type Session struct {
	UserID string
}

// IsAuthenticated reports whether the session belongs to a user.
func (s Session) IsAuthenticated() bool {
	return s.UserID != ""
}

// Auth signs, verifies and resolves session cookies.
type Auth struct {
	// db is used to make sure the user of a valid cookie still exists.
	db userKeeper

	// cookieName is the name of the cookie used to store the JWT.
	cookieName string

	// signingKey is the HMAC key used to sign JWTs.
	signingKey []byte

	// ttl bounds the lifetime of an issued session.
	ttl time.Duration
}

// Claims represents the JWT claims stored in the session cookie.
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"user_id"`
}

// ContextKey is a custom type for storing values in context to avoid collisions.
type ContextKey string

// SessionKey is the context key of the resolved Session.
const SessionKey ContextKey = "session"

// ErrInvalidSessionToken is returned for tokens that are malformed, expired or wrongly signed.
var ErrInvalidSessionToken = errors.New("invalid session token")

func New(
	db userKeeper,
	cookieName string,
	signingKey []byte,
	ttl time.Duration,
) *Auth {
	return &Auth{
		db:         db,
		cookieName: cookieName,
		signingKey: signingKey,
		ttl:        ttl,
	}
}

// ResolveSession is an HTTP middleware that turns the session cookie into a
// Session stored in the request context. Missing, invalid, expired cookies
// and cookies of unknown users all resolve to an anonymous session.
func (a *Auth) ResolveSession(h http.Handler) http.Handler {
	middleware := func(response http.ResponseWriter, request *http.Request) {
		session := Session{}

		userID, err := a.userIDFromCookie(request)
		if err != nil {
			logger.Log.Debugw("Ignoring the session cookie", zap.Error(err))
		}

		if userID != "" {
			_, found, err := a.db.GetUserByID(request.Context(), userID)
			if err != nil {
				logger.Log.Errorw("Error calling the `a.db.GetUserByID()`", zap.Error(err))
				response.WriteHeader(http.StatusInternalServerError)

				return
			}
			if found {
				session.UserID = userID
			}
		}

		ctx := context.WithValue(request.Context(), SessionKey, session)
		h.ServeHTTP(response, request.WithContext(ctx))
	}

	return http.HandlerFunc(middleware)
}

// SessionFromContext returns the session resolved by ResolveSession,
// or an anonymous session if there is none.
func SessionFromContext(ctx context.Context) Session {
	session, _ := ctx.Value(SessionKey).(Session)

	return session
}

// SaveSession writes the given session to the response. An authenticated
// session issues a fresh signed cookie, an anonymous one expires the cookie.
func (a *Auth) SaveSession(response http.ResponseWriter, session Session) error {
	if !session.IsAuthenticated() {
		http.SetCookie(response, &http.Cookie{
			Name:     a.cookieName,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})

		return nil
	}

	now := time.Now()
	token, err := a.buildJWTString(&Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
		},
		UserID: session.UserID,
	})
	if err != nil {
		return fmt.Errorf("in internal/auth/auth.go/SaveSession(): error while `a.buildJWTString()` calling: %w", err)
	}

	http.SetCookie(response, &http.Cookie{
		Name:     a.cookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(a.ttl.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	return nil
}

func (a *Auth) userIDFromCookie(request *http.Request) (string, error) {
	cookie, err := request.Cookie(a.cookieName)
	if err != nil || cookie.Value == "" {
		return "", nil
	}

	return a.GetUserIDFromToken(cookie.Value)
}

// GetUserIDFromToken verifies the token and returns the user ID it carries.
func (a *Auth) GetUserIDFromToken(tokenString string) (string, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(
		tokenString,
		claims,
		func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return a.signingKey, nil
		},
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidSessionToken, err)
	}
	if !token.Valid {
		return "", ErrInvalidSessionToken
	}

	return claims.UserID, nil
}

func (a *Auth) buildJWTString(claims *Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, *claims)

	tokenString, err := token.SignedString(a.signingKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}
