package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"strings"
	"time"

	apiclient "github.com/mbd888/resumeiq-web/pkg/api/client"
	"github.com/mbd888/resumeiq-web/pkg/resume"
)

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"atsScore":        resume.Score,
		"atsLabel":        resume.ATSLabel,
		"experienceYears": resume.ExperienceYears,
		"experienceLevel": resume.ExperienceLevel,
		"scoreClass": func(score int) string {
			switch resume.ATSLabel(score) {
			case resume.LabelExcellent:
				return "score-excellent"
			case resume.LabelGood:
				return "score-good"
			default:
				return "score-poor"
			}
		},
		"deref": func(s *string) string {
			if s == nil {
				return ""
			}
			return *s
		},
		"date": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Local().Format("Jan 2, 2006")
		},
		"fileSize": func(n int64) string {
			switch {
			case n >= 1<<20:
				return fmt.Sprintf("%.1f MB", float64(n)/(1<<20))
			case n >= 1<<10:
				return fmt.Sprintf("%.1f KB", float64(n)/(1<<10))
			default:
				return fmt.Sprintf("%d B", n)
			}
		},
		"percent": func(f float64) string {
			return fmt.Sprintf("%.0f%%", f*100)
		},
		"join": strings.Join,
		"resumePath": func(id string) string {
			return "/dashboard/resumes/" + url.PathEscape(id)
		},
		"jobMatchPath": jobMatchPath,
		"candidate": func(m apiclient.Match) string {
			return m.Candidate("Unknown candidate")
		},
	}
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, tpl string, data map[string]any) {
	s.renderStatus(w, r, http.StatusOK, tpl, data)
}

// renderStatus executes tpl into a buffer first so a template failure never
// leaves a half-written page behind.
func (s *Server) renderStatus(w http.ResponseWriter, r *http.Request, status int, tpl string, data map[string]any) {
	if data == nil {
		data = map[string]any{}
	}
	if _, ok := data["SignedIn"]; !ok {
		_, err := s.sessions.TokenFromRequest(r)
		data["SignedIn"] = err == nil
	}
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, tpl, data); err != nil {
		s.logger.Error("template render failed", "template", tpl, "error", err)
		http.Error(w, "template error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func (s *Server) renderError(w http.ResponseWriter, r *http.Request, status int, message string) {
	s.logger.Warn("dashboard error", "status", status, "message", message, "path", r.URL.Path)
	s.renderStatus(w, r, status, "error", map[string]any{
		"Title":      http.StatusText(status),
		"Flash":      message,
		"Status":     status,
		"StatusText": http.StatusText(status),
	})
}

func flashFromRequest(r *http.Request) string {
	return strings.TrimSpace(r.URL.Query().Get("flash"))
}

func redirectWithFlash(w http.ResponseWriter, r *http.Request, target, message string) {
	if strings.TrimSpace(target) == "" {
		target = "/"
	}
	if strings.TrimSpace(message) == "" {
		http.Redirect(w, r, target, http.StatusSeeOther)
		return
	}
	u, err := url.Parse(target)
	if err != nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	q := u.Query()
	q.Set("flash", message)
	u.RawQuery = q.Encode()
	http.Redirect(w, r, u.String(), http.StatusSeeOther)
}

// formStatus picks the status of a re-rendered form after an API failure.
func formStatus(err error) int {
	var apiErr *apiclient.APIError
	if errors.As(err, &apiErr) && apiErr.Status >= 400 && apiErr.Status < 500 {
		return apiErr.Status
	}
	return http.StatusBadGateway
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
