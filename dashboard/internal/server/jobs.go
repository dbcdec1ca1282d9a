package server

import (
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"

	apiclient "github.com/mbd888/resumeiq-web/pkg/api/client"
	"github.com/mbd888/resumeiq-web/pkg/resume"
)

func (s *Server) handleJobs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	ctx, cancel := s.requestContext(r)
	defer cancel()
	mgr := s.sessionFor(w, r)

	const failure = "Failed to load jobs"
	user, err := mgr.CurrentUser(ctx)
	if err != nil {
		s.loadFailed(w, r, err, failure)
		return
	}
	mine := user.IsRecruiter() && r.URL.Query().Get("mine") == "1"
	jobs, err := mgr.API().ListJobs(ctx, apiclient.JobQuery{MyJobsOnly: mine})
	if err != nil {
		s.loadFailed(w, r, err, failure)
		return
	}
	s.render(w, r, "jobs", map[string]any{
		"Title":   "Jobs",
		"Flash":   flashFromRequest(r),
		"User":    user,
		"Actions": resume.AffordancesFor(user),
		"Jobs":    resume.RecentJobs(jobs, -1),
		"Mine":    mine,
	})
}

func (s *Server) handleJobSubroutes(w http.ResponseWriter, r *http.Request) {
	trimmed := strings.Trim(strings.TrimPrefix(r.URL.Path, "/dashboard/jobs/"), "/")
	parts := strings.Split(trimmed, "/")
	switch {
	case len(parts) == 1 && parts[0] == "new":
		s.handleJobCreate(w, r)
	case len(parts) == 2 && parts[1] == "match":
		if _, err := uuid.Parse(parts[0]); err != nil {
			s.renderError(w, r, http.StatusNotFound, "Job not found")
			return
		}
		s.handleJobMatch(w, r, parts[0])
	default:
		s.renderError(w, r, http.StatusNotFound, "Page not found")
	}
}

// recruiterOnly loads the current user and rejects everyone but recruiters.
// It reports whether the handler may continue.
func (s *Server) recruiterOnly(w http.ResponseWriter, r *http.Request, user apiclient.User, err error) bool {
	if err != nil {
		s.loadFailed(w, r, err, "Failed to load account")
		return false
	}
	if !user.IsRecruiter() {
		s.renderError(w, r, http.StatusForbidden, "Only recruiters can manage job postings")
		return false
	}
	return true
}

type jobForm struct {
	Title              string
	Company            string
	Location           string
	Description        string
	RequiredSkills     string
	PreferredSkills    string
	ExperienceRequired string
	SalaryMin          string
	SalaryMax          string
}

func (s *Server) handleJobCreate(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.requestContext(r)
	defer cancel()
	mgr := s.sessionFor(w, r)
	user, err := mgr.CurrentUser(ctx)
	if !s.recruiterOnly(w, r, user, err) {
		return
	}

	switch r.Method {
	case http.MethodGet:
		s.render(w, r, "job_new", map[string]any{
			"Title": "Post a job",
			"Flash": flashFromRequest(r),
			"Form":  jobForm{},
		})
	case http.MethodPost:
		if err := r.ParseForm(); err != nil {
			s.renderError(w, r, http.StatusBadRequest, "invalid form payload")
			return
		}
		form := jobForm{
			Title:              strings.TrimSpace(r.PostFormValue("title")),
			Company:            strings.TrimSpace(r.PostFormValue("company")),
			Location:           strings.TrimSpace(r.PostFormValue("location")),
			Description:        strings.TrimSpace(r.PostFormValue("description")),
			RequiredSkills:     r.PostFormValue("required_skills"),
			PreferredSkills:    r.PostFormValue("preferred_skills"),
			ExperienceRequired: strings.TrimSpace(r.PostFormValue("experience_required")),
			SalaryMin:          strings.TrimSpace(r.PostFormValue("salary_min")),
			SalaryMax:          strings.TrimSpace(r.PostFormValue("salary_max")),
		}
		rerender := func(status int, flash string) {
			s.renderStatus(w, r, status, "job_new", map[string]any{
				"Title": "Post a job",
				"Flash": flash,
				"Form":  form,
			})
		}
		input := apiclient.CreateJobInput{
			Title:              form.Title,
			Company:            form.Company,
			Location:           form.Location,
			Description:        form.Description,
			RequiredSkills:     resume.SplitSkills(form.RequiredSkills),
			PreferredSkills:    resume.SplitSkills(form.PreferredSkills),
			ExperienceRequired: form.ExperienceRequired,
		}
		var ok bool
		if input.SalaryMin, ok = parseOptionalInt(form.SalaryMin); !ok {
			rerender(http.StatusUnprocessableEntity, "salary min must be a whole number")
			return
		}
		if input.SalaryMax, ok = parseOptionalInt(form.SalaryMax); !ok {
			rerender(http.StatusUnprocessableEntity, "salary max must be a whole number")
			return
		}
		if err := s.validator.Validate(input); err != nil {
			rerender(http.StatusUnprocessableEntity, validationMessage(err, "Failed to create job"))
			return
		}
		if input.SalaryMin != nil && input.SalaryMax != nil && *input.SalaryMin > *input.SalaryMax {
			rerender(http.StatusUnprocessableEntity, "salary min must not exceed salary max")
			return
		}
		job, err := mgr.API().CreateJob(ctx, input)
		if err != nil {
			if s.sessionExpired(w, r, err) {
				return
			}
			s.logger.Warn("job create failed", "error", err)
			rerender(formStatus(err), apiclient.Detail(err, "Failed to create job"))
			return
		}
		s.logger.Info("job posted", "job_id", job.ID)
		redirectWithFlash(w, r, "/dashboard/jobs?mine=1", "Job posted successfully!")
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func parseOptionalInt(raw string) (*int, bool) {
	if raw == "" {
		return nil, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return nil, false
	}
	return &n, true
}

func (s *Server) handleJobMatch(w http.ResponseWriter, r *http.Request, jobID string) {
	if r.Method != http.MethodGet && r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	ctx, cancel := s.requestContext(r)
	defer cancel()
	mgr := s.sessionFor(w, r)
	user, err := mgr.CurrentUser(ctx)
	if !s.recruiterOnly(w, r, user, err) {
		return
	}

	const failure = "Failed to load job"
	job, err := mgr.API().GetJob(ctx, jobID)
	if err != nil {
		if apiclient.IsNotFound(err) {
			s.renderError(w, r, http.StatusNotFound, "Job not found")
			return
		}
		s.loadFailed(w, r, err, failure)
		return
	}
	resumes, err := mgr.API().ListResumes(ctx)
	if err != nil {
		s.loadFailed(w, r, err, failure)
		return
	}
	data := map[string]any{
		"Title":   "Find matches: " + job.Title,
		"Flash":   flashFromRequest(r),
		"Job":     job,
		"Resumes": resume.RecentResumes(resumes, -1),
	}
	if r.Method == http.MethodGet {
		s.render(w, r, "job_match", data)
		return
	}

	if err := r.ParseForm(); err != nil {
		s.renderError(w, r, http.StatusBadRequest, "invalid form payload")
		return
	}
	var selected []string
	for _, id := range r.PostForm["resume_ids"] {
		if _, err := uuid.Parse(id); err == nil {
			selected = append(selected, id)
		}
	}
	if len(selected) == 0 {
		data["Flash"] = "Select at least one resume"
		s.renderStatus(w, r, http.StatusUnprocessableEntity, "job_match", data)
		return
	}
	result, err := mgr.API().MatchJob(ctx, jobID, selected)
	if err != nil {
		if s.sessionExpired(w, r, err) {
			return
		}
		s.logger.Warn("job match failed", "job_id", jobID, "error", err)
		data["Flash"] = apiclient.Detail(err, "Matching failed")
		s.renderStatus(w, r, formStatus(err), "job_match", data)
		return
	}
	sort.SliceStable(result.Matches, func(i, j int) bool {
		return result.Matches[i].OverallScore > result.Matches[j].OverallScore
	})
	data["Matches"] = result.Matches
	data["Selected"] = selected
	data["Flash"] = ""
	s.render(w, r, "job_match", data)
}

// jobMatchPath is the match page of a job.
func jobMatchPath(jobID string) string {
	return "/dashboard/jobs/" + url.PathEscape(jobID) + "/match"
}
