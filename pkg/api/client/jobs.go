package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Job describes a job posting.
type Job struct {
	ID                 string     `json:"id"`
	UserID             string     `json:"user_id"`
	Title              string     `json:"title"`
	Company            *string    `json:"company,omitempty"`
	Location           *string    `json:"location,omitempty"`
	Description        string     `json:"description"`
	RequiredSkills     []string   `json:"required_skills"`
	PreferredSkills    []string   `json:"preferred_skills"`
	ExperienceRequired *string    `json:"experience_required,omitempty"`
	SalaryMin          *int       `json:"salary_min,omitempty"`
	SalaryMax          *int       `json:"salary_max,omitempty"`
	SalaryCurrency     string     `json:"salary_currency"`
	IsActive           string     `json:"is_active"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          *time.Time `json:"updated_at,omitempty"`
}

// CompanyName returns the company or an empty string.
func (j Job) CompanyName() string {
	if j.Company == nil {
		return ""
	}
	return *j.Company
}

// LocationName returns the location or an empty string.
func (j Job) LocationName() string {
	if j.Location == nil {
		return ""
	}
	return *j.Location
}

// JobList is the paginated list envelope.
type JobList struct {
	Jobs    []Job `json:"jobs"`
	Total   int   `json:"total"`
	Page    int   `json:"page"`
	PerPage int   `json:"per_page"`
}

// JobQuery filters job listings.
type JobQuery struct {
	MyJobsOnly bool
	Page       int
	PerPage    int
}

func (q JobQuery) encode() string {
	values := url.Values{}
	if q.MyJobsOnly {
		values.Set("my_jobs_only", "true")
	}
	if q.Page > 0 {
		values.Set("page", strconv.Itoa(q.Page))
	}
	if q.PerPage > 0 {
		values.Set("per_page", strconv.Itoa(q.PerPage))
	}
	if len(values) == 0 {
		return ""
	}
	return "?" + values.Encode()
}

// CreateJobInput captures the payload for job creation.
type CreateJobInput struct {
	Title              string   `json:"title" validate:"required,max=255"`
	Company            string   `json:"company,omitempty" validate:"max=255"`
	Location           string   `json:"location,omitempty" validate:"max=255"`
	Description        string   `json:"description" validate:"required,min=10"`
	RequiredSkills     []string `json:"required_skills"`
	PreferredSkills    []string `json:"preferred_skills"`
	ExperienceRequired string   `json:"experience_required,omitempty"`
	SalaryMin          *int     `json:"salary_min,omitempty" validate:"omitempty,gte=0"`
	SalaryMax          *int     `json:"salary_max,omitempty" validate:"omitempty,gte=0"`
}

// Match is one resume scored against a job. Scores are fractions in [0, 1].
type Match struct {
	ResumeID         string   `json:"resume_id"`
	CandidateName    *string  `json:"candidate_name,omitempty"`
	OverallScore     float64  `json:"overall_score"`
	SkillsMatchScore float64  `json:"skills_match_score"`
	MatchedSkills    []string `json:"matched_skills"`
	MissingSkills    []string `json:"missing_skills"`
}

// Candidate returns the extracted candidate name or fallback.
func (m Match) Candidate(fallback string) string {
	if m.CandidateName == nil || *m.CandidateName == "" {
		return fallback
	}
	return *m.CandidateName
}

// JobMatchResult lists the matches computed for a job.
type JobMatchResult struct {
	JobID   string  `json:"job_id"`
	Matches []Match `json:"matches"`
}

// ListJobs returns job postings matching the query.
func (c *Client) ListJobs(ctx context.Context, query JobQuery) ([]Job, error) {
	var list JobList
	req := request{method: http.MethodGet, path: "/jobs/" + query.encode(), route: "/jobs/"}
	if err := c.do(ctx, req, &list); err != nil {
		return nil, err
	}
	return list.Jobs, nil
}

// GetJob fetches a single job posting.
func (c *Client) GetJob(ctx context.Context, jobID string) (Job, error) {
	path := fmt.Sprintf("/jobs/%s", url.PathEscape(jobID))
	var job Job
	if err := c.do(ctx, request{method: http.MethodGet, path: path, route: "/jobs/{id}"}, &job); err != nil {
		return Job{}, err
	}
	return job, nil
}

// CreateJob publishes a job posting. Only recruiters may call it.
func (c *Client) CreateJob(ctx context.Context, input CreateJobInput) (Job, error) {
	if input.RequiredSkills == nil {
		input.RequiredSkills = []string{}
	}
	if input.PreferredSkills == nil {
		input.PreferredSkills = []string{}
	}
	var job Job
	if err := c.Post(ctx, "/jobs/", input, &job); err != nil {
		return Job{}, err
	}
	return job, nil
}

// MatchJob scores the given resumes against a job.
func (c *Client) MatchJob(ctx context.Context, jobID string, resumeIDs []string) (JobMatchResult, error) {
	path := fmt.Sprintf("/jobs/%s/match", url.PathEscape(jobID))
	req, err := jsonRequest(http.MethodPost, path, "/jobs/{id}/match", map[string][]string{"resume_ids": resumeIDs})
	if err != nil {
		return JobMatchResult{}, err
	}
	var result JobMatchResult
	if err := c.do(ctx, req, &result); err != nil {
		return JobMatchResult{}, err
	}
	return result, nil
}
