package auth

import "net/http"

// RequireUser lets only authenticated sessions through; anonymous
// requests are answered by onAnonymous.
func RequireUser(onAnonymous http.HandlerFunc) func(http.Handler) http.Handler {
	return func(h http.Handler) http.Handler {
		return http.HandlerFunc(func(response http.ResponseWriter, request *http.Request) {
			if !SessionFromContext(request.Context()).IsAuthenticated() {
				onAnonymous(response, request)

				return
			}
			h.ServeHTTP(response, request)
		})
	}
}

// RedirectAnonymous sends anonymous sessions to location with 302 Found.
func RedirectAnonymous(location string) func(http.Handler) http.Handler {
	return RequireUser(func(response http.ResponseWriter, request *http.Request) {
		http.Redirect(response, request, location, http.StatusFound)
	})
}

// RedirectAuthenticated sends authenticated sessions to location with 302 Found.
// It guards the login and registration forms.
func RedirectAuthenticated(location string) func(http.Handler) http.Handler {
	return func(h http.Handler) http.Handler {
		return http.HandlerFunc(func(response http.ResponseWriter, request *http.Request) {
			if SessionFromContext(request.Context()).IsAuthenticated() {
				http.Redirect(response, request, location, http.StatusFound)

				return
			}
			h.ServeHTTP(response, request)
		})
	}
}
