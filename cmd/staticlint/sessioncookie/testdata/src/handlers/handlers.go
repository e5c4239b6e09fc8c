package handlers

import "net/http"

func login(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{Name: "session", Value: "raw"}) // want "cookies must be written through the auth package"
}

func logout(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", "no-store")
}
