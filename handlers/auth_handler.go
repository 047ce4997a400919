package handlers

import (
	"net/http"

	"github.com/upb/studio-auth/auth"
	"github.com/upb/studio-auth/utils"
)

// AuthDeps provides auth handler for route wiring
type AuthDeps interface {
	AuthHandler() *auth.Handler
}

// AuthLoginHandler returns an http.HandlerFunc for the login endpoint
func AuthLoginHandler(deps AuthDeps) http.HandlerFunc {
	return withAuthHandler(deps, (*auth.Handler).HandleLogin)
}

// AuthRegisterHandler returns an http.HandlerFunc for the signup endpoint
func AuthRegisterHandler(deps AuthDeps) http.HandlerFunc {
	return withAuthHandler(deps, (*auth.Handler).HandleRegister)
}

// AuthMeHandler returns an http.HandlerFunc describing the caller
func AuthMeHandler(deps AuthDeps) http.HandlerFunc {
	return withAuthHandler(deps, (*auth.Handler).HandleMe)
}

func withAuthHandler(deps AuthDeps, serve func(*auth.Handler, http.ResponseWriter, *http.Request)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if h := deps.AuthHandler(); h != nil {
			serve(h, w, r)
			return
		}
		_ = utils.WriteInternalServerError(w, "Authentication not configured")
	}
}
