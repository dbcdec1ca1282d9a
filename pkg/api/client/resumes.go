package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"
)

// Resume processing states reported by the API.
const (
	ResumePending    = "pending"
	ResumeProcessing = "processing"
	ResumeCompleted  = "completed"
	ResumeFailed     = "failed"
)

// Resume describes an uploaded resume.
type Resume struct {
	ID              string     `json:"id"`
	UserID          string     `json:"user_id"`
	Filename        string     `json:"filename"`
	FileSize        int64      `json:"file_size"`
	FileType        string     `json:"file_type"`
	Status          string     `json:"status"`
	UploadedAt      time.Time  `json:"uploaded_at"`
	ProcessedAt     *time.Time `json:"processed_at,omitempty"`
	CandidateName   *string    `json:"candidate_name,omitempty"`
	CandidateEmail  *string    `json:"candidate_email,omitempty"`
	CandidatePhone  *string    `json:"candidate_phone,omitempty"`
	PositionApplied *string    `json:"position_applied,omitempty"`
}

// ResumeList is the paginated list envelope.
type ResumeList struct {
	Resumes []Resume `json:"resumes"`
	Total   int      `json:"total"`
	Page    int      `json:"page"`
	PerPage int      `json:"per_page"`
}

// ContactInfo holds contact details extracted from a resume. Keys the API adds
// beyond the known four are kept in Extra.
type ContactInfo struct {
	Email    string         `json:"email,omitempty"`
	Phone    string         `json:"phone,omitempty"`
	LinkedIn string         `json:"linkedin,omitempty"`
	GitHub   string         `json:"github,omitempty"`
	Extra    map[string]any `json:"-"`
}

// Empty reports whether no contact field was extracted.
func (c ContactInfo) Empty() bool {
	return c.Email == "" && c.Phone == "" && c.LinkedIn == "" && c.GitHub == "" && len(c.Extra) == 0
}

// UnmarshalJSON decodes the open-ended contact_info object.
func (c *ContactInfo) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*c = ContactInfo{}
	for key, value := range raw {
		switch key {
		case "email":
			c.Email = contactString(value)
		case "phone":
			c.Phone = contactString(value)
		case "linkedin":
			c.LinkedIn = contactString(value)
		case "github":
			c.GitHub = contactString(value)
		default:
			if value == nil {
				continue
			}
			if c.Extra == nil {
				c.Extra = make(map[string]any)
			}
			c.Extra[key] = value
		}
	}
	return nil
}

// MarshalJSON flattens Extra back beside the known keys.
func (c ContactInfo) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(c.Extra)+4)
	for key, value := range c.Extra {
		out[key] = value
	}
	for key, value := range map[string]string{"email": c.Email, "phone": c.Phone, "linkedin": c.LinkedIn, "github": c.GitHub} {
		if value != "" {
			out[key] = value
		}
	}
	return json.Marshal(out)
}

func contactString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	default:
		return fmt.Sprint(t)
	}
}

// Analysis is the backend-derived summary of a resume.
type Analysis struct {
	ResumeID        string      `json:"resume_id"`
	ExtractedSkills []string    `json:"extracted_skills"`
	ExperienceYears *float64    `json:"experience_years,omitempty"`
	ExperienceLevel *string     `json:"experience_level,omitempty"`
	ATSScore        *int        `json:"ats_score,omitempty"`
	ContactInfo     ContactInfo `json:"contact_info"`
	AnalyzedAt      time.Time   `json:"analyzed_at"`
}

// UnmarshalJSON accepts total_experience_years as an alias of experience_years.
func (a *Analysis) UnmarshalJSON(data []byte) error {
	type plain Analysis
	var aux struct {
		plain
		TotalExperienceYears *float64 `json:"total_experience_years"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*a = Analysis(aux.plain)
	if a.ExperienceYears == nil {
		a.ExperienceYears = aux.TotalExperienceYears
	}
	return nil
}

// AnalyzeResult is returned when an analysis run is triggered.
type AnalyzeResult struct {
	Message  string `json:"message"`
	Analysis struct {
		Skills          []string `json:"all_skills"`
		ExperienceYears *float64 `json:"experience_years,omitempty"`
		ExperienceLevel *string  `json:"experience_level,omitempty"`
		ATSScore        *int     `json:"ats_score,omitempty"`
	} `json:"analysis"`
}

// UploadInput carries a resume file for upload.
type UploadInput struct {
	Filename        string
	ContentType     string
	Content         io.Reader
	PositionApplied string
}

// ListResumes returns the caller's resumes.
func (c *Client) ListResumes(ctx context.Context) ([]Resume, error) {
	var list ResumeList
	if err := c.Get(ctx, "/resumes/", &list); err != nil {
		return nil, err
	}
	return list.Resumes, nil
}

// GetResume fetches a single resume.
func (c *Client) GetResume(ctx context.Context, resumeID string) (Resume, error) {
	path := fmt.Sprintf("/resumes/%s", url.PathEscape(resumeID))
	var resume Resume
	if err := c.do(ctx, request{method: http.MethodGet, path: path, route: "/resumes/{id}"}, &resume); err != nil {
		return Resume{}, err
	}
	return resume, nil
}

// GetAnalysis fetches the stored analysis of a resume. The API answers 404
// until an analysis exists.
func (c *Client) GetAnalysis(ctx context.Context, resumeID string) (*Analysis, error) {
	path := fmt.Sprintf("/resumes/%s/analysis", url.PathEscape(resumeID))
	var analysis Analysis
	if err := c.do(ctx, request{method: http.MethodGet, path: path, route: "/resumes/{id}/analysis"}, &analysis); err != nil {
		return nil, err
	}
	return &analysis, nil
}

// UploadResume sends the file as multipart form data.
func (c *Client) UploadResume(ctx context.Context, input UploadInput) (Resume, error) {
	if input.Content == nil {
		return Resume{}, errors.New("upload content is required")
	}
	filename := strings.TrimSpace(input.Filename)
	if filename == "" {
		filename = "resume"
	}
	contentType := input.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, escapeQuotes(filename)))
	header.Set("Content-Type", contentType)
	part, err := mw.CreatePart(header)
	if err != nil {
		return Resume{}, fmt.Errorf("create file part: %w", err)
	}
	if _, err := io.Copy(part, input.Content); err != nil {
		return Resume{}, fmt.Errorf("write file part: %w", err)
	}
	if position := strings.TrimSpace(input.PositionApplied); position != "" {
		if err := mw.WriteField("position_applied", position); err != nil {
			return Resume{}, fmt.Errorf("write position field: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return Resume{}, fmt.Errorf("close multipart body: %w", err)
	}

	var resume Resume
	if err := c.PostMultipart(ctx, "/resumes/upload", &buf, mw.FormDataContentType(), &resume); err != nil {
		return Resume{}, err
	}
	if resume.ID == "" {
		return Resume{}, errors.New("upload response is missing the resume id")
	}
	return resume, nil
}

// AnalyzeResume triggers an analysis run for the resume.
func (c *Client) AnalyzeResume(ctx context.Context, resumeID string) (AnalyzeResult, error) {
	path := fmt.Sprintf("/ai/analyze/%s", url.PathEscape(resumeID))
	var result AnalyzeResult
	if err := c.do(ctx, request{method: http.MethodPost, path: path, route: "/ai/analyze/{id}"}, &result); err != nil {
		return AnalyzeResult{}, err
	}
	return result, nil
}

// DeleteResume removes a resume.
func (c *Client) DeleteResume(ctx context.Context, resumeID string) error {
	path := fmt.Sprintf("/resumes/%s", url.PathEscape(resumeID))
	return c.do(ctx, request{method: http.MethodDelete, path: path, route: "/resumes/{id}"}, nil)
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}
