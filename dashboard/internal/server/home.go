package server

import (
	"net/http"

	apiclient "github.com/mbd888/resumeiq-web/pkg/api/client"
	"github.com/mbd888/resumeiq-web/pkg/resume"
)

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	ctx, cancel := s.requestContext(r)
	defer cancel()
	mgr := s.sessionFor(w, r)

	const failure = "Failed to load dashboard"
	user, err := mgr.CurrentUser(ctx)
	if err != nil {
		s.loadFailed(w, r, err, failure)
		return
	}
	resumes, err := mgr.API().ListResumes(ctx)
	if err != nil {
		s.loadFailed(w, r, err, failure)
		return
	}
	var jobs []apiclient.Job
	if user.IsRecruiter() {
		jobs, err = mgr.API().ListJobs(ctx, apiclient.JobQuery{MyJobsOnly: true})
		if err != nil {
			s.loadFailed(w, r, err, failure)
			return
		}
	}

	s.render(w, r, "dashboard", map[string]any{
		"Title":        "Dashboard",
		"Flash":        flashFromRequest(r),
		"User":         user,
		"Actions":      resume.AffordancesFor(user),
		"Resumes":      resume.RecentResumes(resumes, resume.RecentLimit),
		"ResumeTotal":  len(resumes),
		"Jobs":         resume.RecentJobs(jobs, resume.RecentLimit),
		"JobTotal":     len(jobs),
		"MaxUploadMiB": resume.MaxUploadBytes >> 20,
	})
}
