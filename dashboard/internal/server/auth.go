package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/mbd888/resumeiq-web/dashboard/internal/forms"
	apiclient "github.com/mbd888/resumeiq-web/pkg/api/client"
)

func (s *Server) handleLanding(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		s.renderError(w, r, http.StatusNotFound, "Page not found")
		return
	}
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if token, err := s.sessions.TokenFromRequest(r); err == nil && strings.TrimSpace(token) != "" {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}
	s.render(w, r, "landing", map[string]any{
		"Title": "ResumeIQ",
		"Flash": flashFromRequest(r),
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.render(w, r, "login", map[string]any{
			"Title":      "Sign in",
			"Flash":      flashFromRequest(r),
			"HideChrome": true,
			"Username":   "",
		})
	case http.MethodPost:
		if err := r.ParseForm(); err != nil {
			s.renderError(w, r, http.StatusBadRequest, "invalid form payload")
			return
		}
		creds := apiclient.Credentials{
			Username: strings.TrimSpace(r.PostFormValue("username")),
			Password: r.PostFormValue("password"),
		}
		rerender := func(status int, flash string) {
			s.renderStatus(w, r, status, "login", map[string]any{
				"Title":      "Sign in",
				"Flash":      flash,
				"HideChrome": true,
				"Username":   creds.Username,
			})
		}
		if err := s.validator.Validate(creds); err != nil {
			rerender(http.StatusUnprocessableEntity, validationMessage(err, "Login failed"))
			return
		}
		ctx, cancel := s.requestContext(r)
		defer cancel()
		if _, err := s.sessionFor(w, r).Login(ctx, creds); err != nil {
			s.logger.Warn("login failed", "username", creds.Username, "error", err)
			rerender(formStatus(err), apiclient.Detail(err, "Login failed"))
			return
		}
		redirectWithFlash(w, r, "/dashboard", "Login successful!")
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.render(w, r, "register", map[string]any{
			"Title":      "Create account",
			"Flash":      flashFromRequest(r),
			"HideChrome": true,
			"Form":       apiclient.RegisterInput{UserType: apiclient.RoleJobSeeker},
			"Errors":     map[string]string{},
		})
	case http.MethodPost:
		if err := r.ParseForm(); err != nil {
			s.renderError(w, r, http.StatusBadRequest, "invalid form payload")
			return
		}
		input := apiclient.RegisterInput{
			FullName: strings.TrimSpace(r.PostFormValue("full_name")),
			Email:    strings.TrimSpace(r.PostFormValue("email")),
			Username: strings.TrimSpace(r.PostFormValue("username")),
			Password: r.PostFormValue("password"),
			UserType: strings.TrimSpace(r.PostFormValue("user_type")),
		}
		if input.UserType == "" {
			input.UserType = apiclient.RoleJobSeeker
		}
		rerender := func(status int, flash string, fieldErrors map[string]string) {
			form := input
			form.Password = ""
			s.renderStatus(w, r, status, "register", map[string]any{
				"Title":      "Create account",
				"Flash":      flash,
				"HideChrome": true,
				"Form":       form,
				"Errors":     fieldErrors,
			})
		}
		if err := s.validator.Validate(input); err != nil {
			var verr *forms.ValidationError
			errors.As(err, &verr)
			fieldErrors := map[string]string{}
			if verr != nil {
				fieldErrors = verr.Errors
			}
			rerender(http.StatusUnprocessableEntity, validationMessage(err, "Registration failed"), fieldErrors)
			return
		}
		ctx, cancel := s.requestContext(r)
		defer cancel()
		if _, err := s.sessionFor(w, r).Register(ctx, input); err != nil {
			s.logger.Warn("registration failed", "username", input.Username, "error", err)
			rerender(formStatus(err), apiclient.Detail(err, "Registration failed"), map[string]string{})
			return
		}
		redirectWithFlash(w, r, "/login", "Registration successful! Please login.")
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if err := s.sessionFor(w, r).Logout(); err != nil {
		s.logger.Warn("logout failed", "error", err)
	}
	redirectWithFlash(w, r, "/login", "Signed out")
}

// validationMessage returns the validation problems of err, or fallback when
// err is not a validation error.
func validationMessage(err error, fallback string) string {
	var verr *forms.ValidationError
	if errors.As(err, &verr) && len(verr.Errors) > 0 {
		return verr.Error()
	}
	return fallback
}
