package server

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"

	apiclient "github.com/mbd888/resumeiq-web/pkg/api/client"
)

func (s *Server) handleResumeSubroutes(w http.ResponseWriter, r *http.Request) {
	trimmed := strings.Trim(strings.TrimPrefix(r.URL.Path, "/dashboard/resumes/"), "/")
	parts := strings.Split(trimmed, "/")
	resumeID := strings.TrimSpace(parts[0])
	if _, err := uuid.Parse(resumeID); err != nil {
		s.renderError(w, r, http.StatusNotFound, "Resume not found")
		return
	}
	switch {
	case len(parts) == 1:
		s.handleResumeDetail(w, r, resumeID)
	case len(parts) == 2 && parts[1] == "delete":
		s.handleResumeDelete(w, r, resumeID)
	default:
		s.renderError(w, r, http.StatusNotFound, "Page not found")
	}
}

func (s *Server) handleResumeDetail(w http.ResponseWriter, r *http.Request, resumeID string) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	ctx, cancel := s.requestContext(r)
	defer cancel()
	api := s.sessionFor(w, r).API()

	doc, err := api.GetResume(ctx, resumeID)
	if err != nil {
		if apiclient.IsNotFound(err) {
			s.renderError(w, r, http.StatusNotFound, "Resume not found")
			return
		}
		s.loadFailed(w, r, err, "Failed to load resume")
		return
	}
	analysis, err := api.GetAnalysis(ctx, resumeID)
	if err != nil {
		s.logger.Debug("analysis not available", "resume_id", resumeID, "error", err)
	}

	s.render(w, r, "resume", map[string]any{
		"Title":    doc.Filename,
		"Flash":    flashFromRequest(r),
		"Resume":   doc,
		"Analysis": analysis,
	})
}

// handleResumeDelete renders a confirmation page on GET and deletes on a
// confirmed POST.
func (s *Server) handleResumeDelete(w http.ResponseWriter, r *http.Request, resumeID string) {
	detail := "/dashboard/resumes/" + url.PathEscape(resumeID)
	switch r.Method {
	case http.MethodGet:
		ctx, cancel := s.requestContext(r)
		defer cancel()
		doc, err := s.sessionFor(w, r).API().GetResume(ctx, resumeID)
		if err != nil {
			if apiclient.IsNotFound(err) {
				s.renderError(w, r, http.StatusNotFound, "Resume not found")
				return
			}
			s.loadFailed(w, r, err, "Failed to load resume")
			return
		}
		s.render(w, r, "resume_delete", map[string]any{
			"Title":  "Delete resume",
			"Resume": doc,
		})
	case http.MethodPost:
		if err := r.ParseForm(); err != nil {
			s.renderError(w, r, http.StatusBadRequest, "invalid form payload")
			return
		}
		if r.PostFormValue("confirm") != "yes" {
			redirectWithFlash(w, r, detail, "")
			return
		}
		ctx, cancel := s.requestContext(r)
		defer cancel()
		if err := s.sessionFor(w, r).API().DeleteResume(ctx, resumeID); err != nil {
			if s.sessionExpired(w, r, err) {
				return
			}
			s.logger.Warn("resume delete failed", "resume_id", resumeID, "error", err)
			redirectWithFlash(w, r, detail, apiclient.Detail(err, "Error deleting resume"))
			return
		}
		redirectWithFlash(w, r, "/dashboard", "Resume deleted")
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}
