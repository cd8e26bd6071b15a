package api

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/hackgods/clinic-scheduling/internal/auth"
)

func loginHandler(p auth.Provider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req LoginRequest
		if err := decodeAndValidate(r, &req); err != nil {
			writeServiceError(w, r, err)
			return
		}

		s, err := p.Login(r.Context(), req.Email, req.Password)
		if err != nil {
			zerolog.Ctx(r.Context()).Info().Str("email", req.Email).Msg("login failed")
			writeServiceError(w, r, err)
			return
		}

		zerolog.Ctx(r.Context()).Info().Str("user_id", s.User.ID).Msg("login succeeded")
		writeJSON(w, http.StatusOK, LoginResponse{
			AccessToken:  s.AccessToken,
			RefreshToken: s.RefreshToken,
			User:         toUserResponse(s.User),
		})
	}
}

func logoutHandler(p auth.Provider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, _ := auth.BearerToken(r.Header.Get("Authorization"))
		if err := p.Logout(r.Context(), token); err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, MessageResponse{Message: "logged out"})
	}
}

func meHandler(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.UserFrom(r.Context())
	if !ok {
		writeServiceError(w, r, auth.ErrMissingToken)
		return
	}
	writeJSON(w, http.StatusOK, toUserResponse(*u))
}
