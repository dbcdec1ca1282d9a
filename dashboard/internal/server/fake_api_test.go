package server

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	apiclient "github.com/mbd888/resumeiq-web/pkg/api/client"
	"github.com/mbd888/resumeiq-web/pkg/config"
)

const (
	resumeA = "3f6c1f2e-8a4b-4c1d-9a51-0c2a1b3d4e5f"
	resumeB = "7b1d2c3e-4f5a-4b6c-8d7e-9f0a1b2c3d4e"
	jobID   = "c0ffee00-1234-4abc-8def-0123456789ab"

	seekerToken    = "seeker-token"
	recruiterToken = "recruiter-token"
)

// fakeAPI is a minimal ResumeIQ backend that records every call.
type fakeAPI struct {
	mu    sync.Mutex
	calls []string

	resumesStatus int
	analyzeStatus int
	deleteStatus  int
	analyses      map[string]string
	uploadedType  string
	matchedIDs    []string

	srv *httptest.Server
}

func newFakeAPI(t *testing.T) *fakeAPI {
	t.Helper()
	f := &fakeAPI{analyses: map[string]string{}}
	f.srv = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeAPI) record(r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, r.Method+" "+r.URL.RequestURI())
}

// Calls returns the recorded calls.
func (f *fakeAPI) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeAPI) count(prefix string) int {
	n := 0
	for _, call := range f.Calls() {
		if strings.HasPrefix(call, prefix) {
			n++
		}
	}
	return n
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"detail": detail})
}

func writeBody(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (f *fakeAPI) user(r *http.Request) (apiclient.User, bool) {
	switch strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ") {
	case seekerToken:
		return apiclient.User{ID: "u-1", Username: "ada", FullName: "Ada Lovelace", UserType: apiclient.RoleJobSeeker}, true
	case recruiterToken:
		return apiclient.User{ID: "u-2", Username: "grace", FullName: "Grace Hopper", UserType: apiclient.RoleRecruiter}, true
	default:
		return apiclient.User{}, false
	}
}

func sampleResume(id, name string, uploaded time.Time) apiclient.Resume {
	return apiclient.Resume{
		ID:         id,
		UserID:     "u-1",
		Filename:   name,
		FileSize:   2048,
		FileType:   "pdf",
		Status:     apiclient.ResumeCompleted,
		UploadedAt: uploaded,
	}
}

func (f *fakeAPI) serve(w http.ResponseWriter, r *http.Request) {
	f.record(r)
	path := r.URL.Path

	switch {
	case r.Method == http.MethodPost && path == "/auth/login":
		_ = r.ParseForm()
		if r.PostFormValue("password") != "correct-horse" {
			writeDetail(w, http.StatusUnauthorized, "Incorrect username or password")
			return
		}
		token := seekerToken
		if r.PostFormValue("username") == "grace" {
			token = recruiterToken
		}
		writeBody(w, http.StatusOK, apiclient.LoginResponse{AccessToken: token, TokenType: "bearer"})
		return
	case r.Method == http.MethodPost && path == "/auth/register":
		var in apiclient.RegisterInput
		_ = json.NewDecoder(r.Body).Decode(&in)
		if in.Username == "taken" {
			writeDetail(w, http.StatusBadRequest, "Username already registered")
			return
		}
		writeBody(w, http.StatusCreated, apiclient.User{ID: "u-9", Username: in.Username, UserType: in.UserType})
		return
	}

	user, ok := f.user(r)
	if !ok {
		writeDetail(w, http.StatusUnauthorized, "Could not validate credentials")
		return
	}

	switch {
	case r.Method == http.MethodGet && path == "/auth/me":
		writeBody(w, http.StatusOK, user)
	case r.Method == http.MethodGet && path == "/resumes/":
		if f.resumesStatus != 0 {
			writeDetail(w, f.resumesStatus, "database unavailable")
			return
		}
		now := time.Now().UTC()
		writeBody(w, http.StatusOK, apiclient.ResumeList{
			Resumes: []apiclient.Resume{
				sampleResume(resumeA, "ada-2024.pdf", now.Add(-48*time.Hour)),
				sampleResume(resumeB, "ada-2025.pdf", now.Add(-time.Hour)),
			},
			Total: 2,
		})
	case r.Method == http.MethodPost && path == "/resumes/upload":
		file, header, err := r.FormFile("file")
		if err != nil {
			writeDetail(w, http.StatusBadRequest, "file is required")
			return
		}
		_, _ = io.Copy(io.Discard, file)
		f.mu.Lock()
		f.uploadedType = header.Header.Get("Content-Type")
		f.mu.Unlock()
		writeBody(w, http.StatusCreated, sampleResume(resumeA, header.Filename, time.Now().UTC()))
	case r.Method == http.MethodPost && strings.HasPrefix(path, "/ai/analyze/"):
		if f.analyzeStatus != 0 {
			writeDetail(w, f.analyzeStatus, "analysis backend unavailable")
			return
		}
		writeBody(w, http.StatusOK, map[string]any{"message": "Analysis completed", "analysis": map[string]any{"ats_score": 81}})
	case strings.HasPrefix(path, "/resumes/"):
		f.serveResume(w, r, strings.TrimPrefix(path, "/resumes/"))
	case r.Method == http.MethodGet && path == "/jobs/":
		writeBody(w, http.StatusOK, apiclient.JobList{Jobs: []apiclient.Job{{
			ID:             jobID,
			UserID:         "u-2",
			Title:          "Backend Engineer",
			Description:    "Build resilient services in Go.",
			RequiredSkills: []string{"Go", "PostgreSQL"},
			IsActive:       "active",
			CreatedAt:      time.Now().UTC(),
		}}, Total: 1})
	case r.Method == http.MethodPost && path == "/jobs/":
		var in apiclient.CreateJobInput
		_ = json.NewDecoder(r.Body).Decode(&in)
		writeBody(w, http.StatusCreated, apiclient.Job{ID: jobID, Title: in.Title, RequiredSkills: in.RequiredSkills})
	case r.Method == http.MethodGet && path == "/jobs/"+jobID:
		writeBody(w, http.StatusOK, apiclient.Job{ID: jobID, Title: "Backend Engineer", Description: "Build resilient services in Go."})
	case r.Method == http.MethodPost && path == "/jobs/"+jobID+"/match":
		var in struct {
			ResumeIDs []string `json:"resume_ids"`
		}
		_ = json.NewDecoder(r.Body).Decode(&in)
		f.mu.Lock()
		f.matchedIDs = in.ResumeIDs
		f.mu.Unlock()
		name := "Ada Lovelace"
		writeBody(w, http.StatusOK, apiclient.JobMatchResult{JobID: jobID, Matches: []apiclient.Match{
			{ResumeID: resumeA, OverallScore: 0.41, SkillsMatchScore: 0.5, MissingSkills: []string{"PostgreSQL"}},
			{ResumeID: resumeB, CandidateName: &name, OverallScore: 0.87, SkillsMatchScore: 1, MatchedSkills: []string{"Go"}},
		}})
	default:
		writeDetail(w, http.StatusNotFound, "Not Found")
	}
}

func (f *fakeAPI) serveResume(w http.ResponseWriter, r *http.Request, rest string) {
	id, sub, _ := strings.Cut(rest, "/")
	if id != resumeA && id != resumeB {
		writeDetail(w, http.StatusNotFound, "Resume not found")
		return
	}
	switch {
	case r.Method == http.MethodGet && sub == "":
		writeBody(w, http.StatusOK, sampleResume(id, "ada.pdf", time.Now().UTC()))
	case r.Method == http.MethodGet && sub == "analysis":
		body, ok := f.analyses[id]
		if !ok {
			writeDetail(w, http.StatusNotFound, "Analysis not found")
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, body)
	case r.Method == http.MethodDelete && sub == "":
		if f.deleteStatus != 0 {
			writeDetail(w, f.deleteStatus, "Resume is locked")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		writeDetail(w, http.StatusNotFound, "Not Found")
	}
}

func testConfig(apiURL string) config.DashboardConfig {
	cfg := config.DefaultDashboardConfig()
	cfg.APIBaseURL = apiURL
	cfg.SessionSecret = "test-session-secret"
	cfg.AuthRateLimit = 0
	return cfg
}

func newTestServer(t *testing.T, api *fakeAPI, mutate func(*config.DashboardConfig)) *Server {
	t.Helper()
	cfg := testConfig(api.srv.URL)
	if mutate != nil {
		mutate(&cfg)
	}
	srv, err := New(cfg, WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	t.Cleanup(srv.Close)
	return srv
}

// do serves req with the session cookie of token attached when token is set.
func do(t *testing.T, srv *Server, req *http.Request, token string) *httptest.ResponseRecorder {
	t.Helper()
	if token != "" {
		cookie, err := srv.sessions.MakeCookie(token)
		if err != nil {
			t.Fatalf("make cookie: %v", err)
		}
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}
