package server

import (
	"net/http"
	"strings"

	"github.com/Its-donkey/rel8/internal/backend"
	"github.com/Its-donkey/rel8/internal/guard"
	"github.com/Its-donkey/rel8/logging"
)

type authPageData struct {
	basePageData
	Email string
	Next  string
}

func (s *server) handleAuth(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		if user := guard.UserFromContext(r.Context()); user != nil {
			http.Redirect(w, r, landingFor(user), http.StatusSeeOther)
			return
		}
		data := authPageData{
			basePageData: s.buildBasePageData(r, "Sign in"),
			Next:         safeNext(r.URL.Query().Get("next")),
		}
		s.render(w, "auth", data, http.StatusOK)
	case http.MethodPost:
		s.handleSignIn(w, r)
	default:
		methodNotAllowed(w, http.MethodGet, http.MethodPost)
	}
}

func (s *server) handleSignIn(w http.ResponseWriter, r *http.Request) {
	data := authPageData{basePageData: s.buildBasePageData(r, "Sign in")}
	if err := r.ParseForm(); err != nil {
		data.Error = "Invalid sign-in form."
		s.render(w, "auth", data, http.StatusBadRequest)
		return
	}
	email := strings.TrimSpace(r.PostFormValue("email"))
	password := r.PostFormValue("password")
	data.Email = email
	data.Next = safeNext(r.PostFormValue("next"))
	if email == "" || strings.TrimSpace(password) == "" {
		data.Error = "Email and password are required."
		s.render(w, "auth", data, http.StatusUnprocessableEntity)
		return
	}

	ctx, cancel := s.backendContext(r)
	defer cancel()
	sess, err := s.backend.SignIn(ctx, email, password)
	if err != nil {
		s.logger.WithRequestID(logging.RequestIDFromContext(r.Context())).
			WithCategory("auth").
			WithField("email", email).
			Warn("sign-in failed: " + backend.Message(err))
		data.Error = backend.Message(err)
		s.render(w, "auth", data, http.StatusUnauthorized)
		return
	}
	s.sessions.Start(w, r, sess)
	s.logger.Info("auth", "signed in", map[string]any{"user_id": sess.User.ID})

	target := data.Next
	if target == "" {
		target = landingFor(&sess.User)
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func (s *server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	if token := accessToken(r); token != "" {
		ctx, cancel := s.backendContext(r)
		defer cancel()
		if err := s.backend.SignOut(ctx, token); err != nil {
			s.logger.Warn("auth", "sign-out failed", map[string]any{"error": err.Error()})
		}
	}
	s.sessions.Clear(w)
	redirectWith(w, r, "/", nil, "Signed out.", "")
}

func landingFor(user *backend.User) string {
	if guard.AdminOrOrganizer(user) {
		return "/organizer"
	}
	return "/"
}
