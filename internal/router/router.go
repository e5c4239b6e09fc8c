// Package router wires the HTTP routes of the application to the service
// layer. Handlers read the session and form values, call exactly one
// service operation and answer with a page, a redirect or an error page.
package router

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/patric-chuzhbe/tinyapp/internal/auth"
	"github.com/patric-chuzhbe/tinyapp/internal/gzippedhttp"
	"github.com/patric-chuzhbe/tinyapp/internal/logger"
	"github.com/patric-chuzhbe/tinyapp/internal/models"
	"github.com/patric-chuzhbe/tinyapp/internal/service"
	"github.com/patric-chuzhbe/tinyapp/internal/user"
	"github.com/patric-chuzhbe/tinyapp/internal/views"
)

type linkService interface {
	Register(ctx context.Context, credentials models.CredentialsForm) (*user.User, error)
	Login(ctx context.Context, credentials models.CredentialsForm) (*user.User, error)
	GetUser(ctx context.Context, userID string) (*user.User, error)
	CreateLink(ctx context.Context, userID string, form models.LinkForm) (string, error)
	GetOwnedLink(ctx context.Context, userID, short string) (*models.Link, error)
	UpdateLink(ctx context.Context, userID, short string, form models.LinkForm) error
	DeleteLink(ctx context.Context, userID, short string) error
	GetUserLinks(ctx context.Context, userID string) (models.Links, error)
	GetAllLinks(ctx context.Context) (models.Links, error)
	GetLongURL(ctx context.Context, short string) (string, error)
	Ping(ctx context.Context) error
}

type sessionKeeper interface {
	ResolveSession(h http.Handler) http.Handler
	SaveSession(response http.ResponseWriter, session auth.Session) error
}

type renderer interface {
	Render(response http.ResponseWriter, status int, name string, data views.Data) error
}

type ipChecker interface {
	TrustedOnly(h http.Handler) http.Handler
}

// Router holds the collaborators shared by all handlers.
type Router struct {
	svc       linkService
	sessions  sessionKeeper
	views     renderer
	ipChecker ipChecker
}

type initOptions struct {
	gzip bool
}

// InitOption customizes the router built by New.
type InitOption func(*initOptions)

// WithGzip enables gzip compression of HTML and JSON responses.
func WithGzip(enabled bool) InitOption {
	return func(options *initOptions) {
		options.gzip = enabled
	}
}

// New builds the chi router with every application route.
func New(
	svc linkService,
	sessions sessionKeeper,
	pages renderer,
	checker ipChecker,
	optionsProto ...InitOption,
) *chi.Mux {
	options := &initOptions{
		gzip: false,
	}
	for _, protoOption := range optionsProto {
		protoOption(options)
	}

	r := &Router{
		svc:       svc,
		sessions:  sessions,
		views:     pages,
		ipChecker: checker,
	}

	router := chi.NewRouter()
	router.Use(
		middleware.Recoverer,
		logger.WithLoggingHTTPMiddleware,
		gzippedhttp.UngzipRequest,
	)
	if options.gzip {
		router.Use(gzippedhttp.GzipResponse)
	}
	router.Use(sessions.ResolveSession)

	requireUser := auth.RequireUser(r.unauthenticated)
	redirectAnonymous := auth.RedirectAnonymous("/login")
	redirectAuthenticated := auth.RedirectAuthenticated("/urls")

	router.Get(`/`, r.GetRoot)
	router.Get(`/ping`, r.GetPing)
	router.With(checker.TrustedOnly).Get(`/urls.json`, r.GetURLsJSON)
	router.Get(`/u/{id}`, r.GetRedirectToLongURL)

	router.With(requireUser).Get(`/urls`, r.GetURLs)
	router.With(redirectAnonymous).Get(`/urls/new`, r.GetURLsNew)
	router.With(requireUser).Get(`/urls/{id}`, r.GetURL)
	router.With(requireUser).Post(`/urls`, r.PostURLs)
	router.With(requireUser).Post(`/urls/{id}`, r.PostURL)
	router.With(requireUser).Post(`/urls/{id}/delete`, r.PostURLDelete)

	router.With(redirectAuthenticated).Get(`/register`, r.GetRegister)
	router.With(redirectAuthenticated).Get(`/login`, r.GetLogin)
	router.Post(`/register`, r.PostRegister)
	router.Post(`/login`, r.PostLogin)
	router.With(requireUser).Post(`/logout`, r.PostLogout)

	router.NotFound(r.notFound)

	return router
}

// GetRoot sends logged-in users to their links and greets everyone else.
func (r *Router) GetRoot(response http.ResponseWriter, request *http.Request) {
	if auth.SessionFromContext(request.Context()).IsAuthenticated() {
		http.Redirect(response, request, "/urls", http.StatusFound)
		return
	}

	r.render(response, request, http.StatusOK, views.PageGreeting, views.Data{})
}

func (r *Router) GetPing(response http.ResponseWriter, request *http.Request) {
	if err := r.svc.Ping(request.Context()); err != nil {
		logger.Log.Errorw("Error calling the `r.svc.Ping()`", zap.Error(err))
		response.WriteHeader(http.StatusInternalServerError)
		return
	}

	response.WriteHeader(http.StatusOK)
}

// GetURLsJSON dumps the whole link directory.
func (r *Router) GetURLsJSON(response http.ResponseWriter, request *http.Request) {
	links, err := r.svc.GetAllLinks(request.Context())
	if err != nil {
		r.renderError(response, request, err)
		return
	}

	body, err := json.Marshal(links)
	if err != nil {
		r.renderError(response, request, err)
		return
	}

	response.Header().Set("Content-Type", "application/json")
	response.WriteHeader(http.StatusOK)
	if _, err := response.Write(body); err != nil {
		logger.Log.Debugw("Error writing the response", zap.Error(err))
	}
}

// GetRedirectToLongURL follows a short code. It is public.
func (r *Router) GetRedirectToLongURL(response http.ResponseWriter, request *http.Request) {
	longURL, err := r.svc.GetLongURL(request.Context(), chi.URLParam(request, "id"))
	if err != nil {
		r.renderError(response, request, err)
		return
	}

	http.Redirect(response, request, longURL, http.StatusFound)
}

func (r *Router) GetURLs(response http.ResponseWriter, request *http.Request) {
	session := auth.SessionFromContext(request.Context())

	links, err := r.svc.GetUserLinks(request.Context(), session.UserID)
	if err != nil {
		r.renderError(response, request, err)
		return
	}

	r.render(response, request, http.StatusOK, views.PageURLs, views.Data{
		URLs: views.Rows(links),
	})
}

func (r *Router) GetURLsNew(response http.ResponseWriter, request *http.Request) {
	r.render(response, request, http.StatusOK, views.PageNewURL, views.Data{})
}

func (r *Router) GetURL(response http.ResponseWriter, request *http.Request) {
	session := auth.SessionFromContext(request.Context())
	short := chi.URLParam(request, "id")

	link, err := r.svc.GetOwnedLink(request.Context(), session.UserID, short)
	if err != nil {
		r.renderError(response, request, err)
		return
	}

	r.render(response, request, http.StatusOK, views.PageShowURL, views.Data{
		ID:   short,
		Link: link,
	})
}

// PostURLs creates a link owned by the caller and shows it.
func (r *Router) PostURLs(response http.ResponseWriter, request *http.Request) {
	session := auth.SessionFromContext(request.Context())

	short, err := r.svc.CreateLink(request.Context(), session.UserID, models.LinkForm{
		LongURL: request.PostFormValue("longURL"),
	})
	if err != nil {
		r.renderError(response, request, err)
		return
	}

	http.Redirect(response, request, "/urls/"+short, http.StatusFound)
}

// PostURL changes the destination of a link owned by the caller.
func (r *Router) PostURL(response http.ResponseWriter, request *http.Request) {
	session := auth.SessionFromContext(request.Context())

	err := r.svc.UpdateLink(request.Context(), session.UserID, chi.URLParam(request, "id"), models.LinkForm{
		LongURL: request.PostFormValue("longURL"),
	})
	if err != nil {
		r.renderError(response, request, err)
		return
	}

	http.Redirect(response, request, "/urls", http.StatusFound)
}

func (r *Router) PostURLDelete(response http.ResponseWriter, request *http.Request) {
	session := auth.SessionFromContext(request.Context())

	err := r.svc.DeleteLink(request.Context(), session.UserID, chi.URLParam(request, "id"))
	if err != nil {
		r.renderError(response, request, err)
		return
	}

	http.Redirect(response, request, "/urls", http.StatusFound)
}

func (r *Router) GetRegister(response http.ResponseWriter, request *http.Request) {
	r.render(response, request, http.StatusOK, views.PageRegister, views.Data{})
}

func (r *Router) GetLogin(response http.ResponseWriter, request *http.Request) {
	r.render(response, request, http.StatusOK, views.PageLogin, views.Data{})
}

// PostRegister creates an account and logs it in.
func (r *Router) PostRegister(response http.ResponseWriter, request *http.Request) {
	credentials := credentialsFromForm(request)
	usr, err := r.svc.Register(request.Context(), credentials)
	if err != nil {
		r.renderFormError(response, request, views.PageRegister, credentials.Email, err)
		return
	}

	r.startSession(response, request, auth.Session{UserID: usr.ID})
}

func (r *Router) PostLogin(response http.ResponseWriter, request *http.Request) {
	credentials := credentialsFromForm(request)
	usr, err := r.svc.Login(request.Context(), credentials)
	if err != nil {
		r.renderFormError(response, request, views.PageLogin, credentials.Email, err)
		return
	}

	r.startSession(response, request, auth.Session{UserID: usr.ID})
}

// PostLogout clears the session.
func (r *Router) PostLogout(response http.ResponseWriter, request *http.Request) {
	r.startSession(response, request, auth.Session{})
}

func (r *Router) startSession(response http.ResponseWriter, request *http.Request, session auth.Session) {
	if err := r.sessions.SaveSession(response, session); err != nil {
		r.renderError(response, request, err)
		return
	}

	http.Redirect(response, request, "/urls", http.StatusFound)
}

func credentialsFromForm(request *http.Request) models.CredentialsForm {
	return models.CredentialsForm{
		Email:    request.PostFormValue("email"),
		Password: request.PostFormValue("password"),
	}
}

func (r *Router) unauthenticated(response http.ResponseWriter, request *http.Request) {
	r.renderError(response, request, errUnauthenticated)
}

func (r *Router) notFound(response http.ResponseWriter, request *http.Request) {
	r.renderError(response, request, errPageNotFound)
}

// render adds the current user to data and writes the page.
func (r *Router) render(response http.ResponseWriter, request *http.Request, status int, page string, data views.Data) {
	session := auth.SessionFromContext(request.Context())
	usr, err := r.svc.GetUser(request.Context(), session.UserID)
	if err != nil {
		logger.Log.Errorw("Error calling the `r.svc.GetUser()`", zap.Error(err))
		http.Error(response, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	data.User = usr

	if err := r.views.Render(response, status, page, data); err != nil {
		logger.Log.Errorw("Error calling the `r.views.Render()`", "page", page, zap.Error(err))
		http.Error(response, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func (r *Router) renderError(response http.ResponseWriter, request *http.Request, err error) {
	status, message := describeError(err)
	if status >= http.StatusInternalServerError {
		logger.Log.Errorw("Request failed", "uri", request.RequestURI, zap.Error(err))
	} else {
		logger.Log.Debugw("Request rejected", "uri", request.RequestURI, "status", status, zap.Error(err))
	}

	r.render(response, request, status, views.PageError, views.Data{
		Status:  status,
		Message: message,
	})
}

// renderFormError shows the form page again with the submitted email and
// the error message. Server failures get the error page.
func (r *Router) renderFormError(response http.ResponseWriter, request *http.Request, page, email string, err error) {
	status, message := describeError(err)
	if status >= http.StatusInternalServerError {
		r.renderError(response, request, err)
		return
	}
	logger.Log.Debugw("Form rejected", "uri", request.RequestURI, "status", status, zap.Error(err))

	r.render(response, request, status, page, views.Data{
		Email:   email,
		Status:  status,
		Message: message,
	})
}

var (
	errUnauthenticated = errors.New("the route requires a logged-in user")
	errPageNotFound    = errors.New("no such page")
)

// describeError maps an error to the response status and the message shown to the user.
func describeError(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrEmptyCredentials):
		return http.StatusBadRequest, "Email and password cannot be empty."
	case errors.Is(err, service.ErrEmailTaken):
		return http.StatusBadRequest, "Email already exists."
	case errors.Is(err, service.ErrPasswordTooLong):
		return http.StatusBadRequest, "Password is too long."
	case errors.Is(err, service.ErrEmptyLongURL):
		return http.StatusBadRequest, "Long URL cannot be empty."
	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusForbidden, "Invalid email or password."
	case errors.Is(err, service.ErrNotOwner):
		return http.StatusForbidden, "You do not have permission to access this URL."
	case errors.Is(err, service.ErrLinkNotFound):
		return http.StatusNotFound, "URL not found."
	case errors.Is(err, errPageNotFound):
		return http.StatusNotFound, "Page not found."
	case errors.Is(err, errUnauthenticated):
		return http.StatusUnauthorized, "Please log in or register to view this page."
	default:
		return http.StatusInternalServerError, "Something went wrong. Please try again later."
	}
}
