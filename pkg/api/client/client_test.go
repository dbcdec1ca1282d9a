package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	cli, err := New(srv.URL, opts...)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return cli
}

func TestNewNormalisesBaseURL(t *testing.T) {
	cli, err := New(" api.example.test/api/v1/ ")
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if got := cli.BaseURL(); got != "http://api.example.test/api/v1" {
		t.Fatalf("unexpected base url %q", got)
	}
	cli, err = New("")
	if err != nil {
		t.Fatalf("New with empty base: %v", err)
	}
	if cli.BaseURL() != defaultBaseURL {
		t.Fatalf("expected default base url, got %q", cli.BaseURL())
	}
}

func TestLoginSendsFormEncodedCredentials(t *testing.T) {
	cli := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/auth/login" {
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/x-www-form-urlencoded" {
			t.Fatalf("unexpected content type %q", ct)
		}
		if err := r.ParseForm(); err != nil {
			t.Fatalf("parse form: %v", err)
		}
		if r.PostFormValue("username") != "ada" || r.PostFormValue("password") != "s3cret-pass" {
			t.Fatalf("unexpected form %v", r.PostForm)
		}
		if r.Header.Get("Authorization") != "" {
			t.Fatalf("login must not carry a bearer token")
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"access_token": "tok-1", "token_type": "bearer"})
	})

	resp, err := cli.Login(context.Background(), Credentials{Username: "ada", Password: "s3cret-pass"})
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	if resp.AccessToken != "tok-1" || resp.TokenType != "bearer" {
		t.Fatalf("unexpected login response %+v", resp)
	}
}

func TestTokenIsReadOnEveryRequest(t *testing.T) {
	var mu sync.Mutex
	var seen []string
	cli := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		seen = append(seen, r.Header.Get("Authorization"))
		mu.Unlock()
		_ = json.NewEncoder(w).Encode(User{ID: "u-1"})
	})

	token := "first"
	bound := cli.WithTokens(TokenFunc(func() (string, error) { return token, nil }))
	if _, err := bound.Me(context.Background()); err != nil {
		t.Fatalf("Me: %v", err)
	}
	token = ""
	if _, err := bound.Me(context.Background()); err != nil {
		t.Fatalf("Me: %v", err)
	}
	if _, err := cli.Me(context.Background()); err != nil {
		t.Fatalf("Me unbound: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	want := []string{"Bearer first", "", ""}
	if len(seen) != len(want) {
		t.Fatalf("expected %d requests, got %d", len(want), len(seen))
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Fatalf("request %d: expected Authorization %q, got %q", i, want[i], seen[i])
		}
	}
}

func TestTokenSourceErrorAbortsRequest(t *testing.T) {
	called := false
	cli := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})
	boom := errors.New("store unavailable")
	_, err := cli.WithTokens(TokenFunc(func() (string, error) { return "", boom })).Me(context.Background())
	if !errors.Is(err, boom) {
		t.Fatalf("expected token source error, got %v", err)
	}
	if called {
		t.Fatalf("request must not be sent when the token cannot be read")
	}
}

func TestErrorDetailExtraction(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{name: "string detail", status: http.StatusBadRequest, body: `{"detail":"Username already registered"}`, want: "Username already registered"},
		{name: "validation list", status: http.StatusUnprocessableEntity, body: `{"detail":[{"loc":["body","password"],"msg":"too short"}]}`, want: "password: too short"},
		{name: "error field", status: http.StatusBadGateway, body: `{"error":"upstream down"}`, want: "upstream down"},
		{name: "plain text", status: http.StatusInternalServerError, body: "boom\n", want: "boom"},
		{name: "empty", status: http.StatusNotFound, body: "", want: ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cli := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = io.WriteString(w, tc.body)
			})
			err := cli.Get(context.Background(), "/anything", nil)
			var apiErr *APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("expected *APIError, got %v", err)
			}
			if apiErr.Status != tc.status {
				t.Fatalf("expected status %d, got %d", tc.status, apiErr.Status)
			}
			if apiErr.Message != tc.want {
				t.Fatalf("expected message %q, got %q", tc.want, apiErr.Message)
			}
		})
	}
}

func TestErrorClassification(t *testing.T) {
	if !IsAuthError(&APIError{Status: http.StatusUnauthorized}) {
		t.Fatalf("401 must be an auth error")
	}
	if !IsAuthError(&APIError{Status: http.StatusForbidden}) {
		t.Fatalf("403 must be an auth error")
	}
	if IsAuthError(&APIError{Status: http.StatusInternalServerError}) {
		t.Fatalf("500 must not be an auth error")
	}
	if IsAuthError(errors.New("dial tcp: connection refused")) {
		t.Fatalf("transport errors must not be auth errors")
	}
	if !IsNotFound(&APIError{Status: http.StatusNotFound}) {
		t.Fatalf("404 must be reported as not found")
	}
	if got := Detail(&APIError{Status: 400, Message: "bad file"}, "Upload failed"); got != "bad file" {
		t.Fatalf("unexpected detail %q", got)
	}
	if got := Detail(errors.New("timeout"), "Upload failed"); got != "Upload failed" {
		t.Fatalf("expected fallback, got %q", got)
	}
}

func TestListJobsUsesMyJobsOnlyQuery(t *testing.T) {
	cli := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.RequestURI() != "/jobs/?my_jobs_only=true" {
			t.Fatalf("unexpected request uri %q", r.URL.RequestURI())
		}
		_, _ = io.WriteString(w, `{"jobs":[{"id":"j-1","title":"Go Engineer","company":"Acme"}],"total":1,"page":1,"per_page":10}`)
	})
	jobs, err := cli.ListJobs(context.Background(), JobQuery{MyJobsOnly: true})
	if err != nil {
		t.Fatalf("ListJobs: %v", err)
	}
	if len(jobs) != 1 || jobs[0].Title != "Go Engineer" || jobs[0].CompanyName() != "Acme" || jobs[0].LocationName() != "" {
		t.Fatalf("unexpected jobs %+v", jobs)
	}
}

func TestUploadResumeSendsMultipart(t *testing.T) {
	cli := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/resumes/upload" {
			t.Fatalf("unexpected path %q", r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parse multipart: %v", err)
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("form file: %v", err)
		}
		defer file.Close()
		data, _ := io.ReadAll(file)
		if string(data) != "resume body" || header.Filename != "cv.txt" {
			t.Fatalf("unexpected file %q (%s)", data, header.Filename)
		}
		if ct := header.Header.Get("Content-Type"); ct != "text/plain" {
			t.Fatalf("unexpected part content type %q", ct)
		}
		if got := r.FormValue("position_applied"); got != "Backend Engineer" {
			t.Fatalf("unexpected position %q", got)
		}
		_, _ = io.WriteString(w, `{"id":"r-1","filename":"cv.txt","status":"pending"}`)
	})

	resume, err := cli.UploadResume(context.Background(), UploadInput{
		Filename:        "cv.txt",
		ContentType:     "text/plain",
		Content:         strings.NewReader("resume body"),
		PositionApplied: " Backend Engineer ",
	})
	if err != nil {
		t.Fatalf("UploadResume: %v", err)
	}
	if resume.ID != "r-1" || resume.Status != ResumePending {
		t.Fatalf("unexpected resume %+v", resume)
	}
}

func TestUploadResumeOmitsEmptyPosition(t *testing.T) {
	cli := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parse multipart: %v", err)
		}
		if _, ok := r.MultipartForm.Value["position_applied"]; ok {
			t.Fatalf("position_applied must be omitted when empty")
		}
		_, _ = io.WriteString(w, `{"id":"r-2"}`)
	})
	if _, err := cli.UploadResume(context.Background(), UploadInput{Filename: "cv.pdf", Content: strings.NewReader("%PDF-1.4")}); err != nil {
		t.Fatalf("UploadResume: %v", err)
	}
}

func TestAnalysisDecodesOptionalFields(t *testing.T) {
	var a Analysis
	body := `{"resume_id":"r-1","extracted_skills":["go","sql"],"total_experience_years":4.5,"ats_score":81,"contact_info":{"email":"ada@example.com"}}`
	if err := json.Unmarshal([]byte(body), &a); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if a.ExperienceYears == nil || *a.ExperienceYears != 4.5 {
		t.Fatalf("expected experience years alias to decode, got %v", a.ExperienceYears)
	}
	if a.ExperienceLevel != nil {
		t.Fatalf("expected missing experience level to stay nil")
	}
	if a.ATSScore == nil || *a.ATSScore != 81 {
		t.Fatalf("unexpected ats score %v", a.ATSScore)
	}
	if a.ContactInfo.Email != "ada@example.com" || a.ContactInfo.Empty() {
		t.Fatalf("unexpected contact info %+v", a.ContactInfo)
	}

	var b Analysis
	if err := json.Unmarshal([]byte(`{"experience_years":2,"total_experience_years":9}`), &b); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if *b.ExperienceYears != 2 {
		t.Fatalf("experience_years must win over the alias, got %v", *b.ExperienceYears)
	}
}

func TestContactInfoKeepsExtraKeys(t *testing.T) {
	var c ContactInfo
	if err := json.Unmarshal([]byte(`{"email":"ada@example.com","portfolio":"https://ada.dev","location":null}`), &c); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if c.Email != "ada@example.com" || c.Extra["portfolio"] != "https://ada.dev" {
		t.Fatalf("unexpected contact info %+v", c)
	}
	if _, ok := c.Extra["location"]; ok {
		t.Fatalf("null values must be dropped")
	}

	only := ContactInfo{}
	if err := json.Unmarshal([]byte(`{"website":"https://ada.dev"}`), &only); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if only.Empty() {
		t.Fatalf("extra keys count as contact details")
	}

	data, err := json.Marshal(c)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back map[string]any
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back["portfolio"] != "https://ada.dev" || back["email"] != "ada@example.com" {
		t.Fatalf("expected flat contact object, got %s", data)
	}
}

func TestObserverReceivesRouteTemplates(t *testing.T) {
	type call struct {
		method string
		route  string
		status int
	}
	var calls []call
	cli := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}, WithObserver(func(method, route string, status int, _ time.Duration) {
		calls = append(calls, call{method, route, status})
	}))

	if err := cli.DeleteResume(context.Background(), "6f1c"); err != nil {
		t.Fatalf("DeleteResume: %v", err)
	}
	if len(calls) != 1 {
		t.Fatalf("expected one observed call, got %d", len(calls))
	}
	if calls[0] != (call{http.MethodDelete, "/resumes/{id}", http.StatusNoContent}) {
		t.Fatalf("unexpected observation %+v", calls[0])
	}
}
