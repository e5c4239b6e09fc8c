package auth

import "net/http"

func save(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{Name: "session", Value: "signed"})
}
