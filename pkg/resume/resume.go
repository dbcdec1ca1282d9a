// Package resume holds the presentation rules shared by the dashboard and the
// CLI: upload validation, ATS score labels and recent-item selection.
package resume

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	apiclient "github.com/mbd888/resumeiq-web/pkg/api/client"
)

// MaxUploadBytes is the largest file accepted for upload (10 MiB).
const MaxUploadBytes int64 = 10 * 1024 * 1024

// RecentLimit is how many resumes and jobs the dashboard lists.
const RecentLimit = 5

// SniffLen is the number of leading bytes inspected for type detection.
const SniffLen = 3072

var (
	ErrNoFile          = errors.New("no file selected")
	ErrFileTooLarge    = errors.New("file exceeds the 10MB upload limit")
	ErrUnsupportedType = errors.New("unsupported file type")
)

// Message returns the user-facing text of an upload validation error.
func Message(err error) string {
	switch {
	case errors.Is(err, ErrNoFile):
		return "Please select a file"
	case errors.Is(err, ErrFileTooLarge):
		return "File size must be less than 10MB"
	case errors.Is(err, ErrUnsupportedType):
		return "Only PDF or TXT files are supported"
	case err == nil:
		return ""
	default:
		return err.Error()
	}
}

// ValidateSize rejects missing and oversized files.
func ValidateSize(size int64) error {
	if size <= 0 {
		return ErrNoFile
	}
	if size > MaxUploadBytes {
		return ErrFileTooLarge
	}
	return nil
}

// DetectContentType sniffs head and returns the MIME type to upload the file
// with. Only PDF and plain-text documents are accepted.
func DetectContentType(head []byte) (string, error) {
	detected := mimetype.Detect(head)
	for m := detected; m != nil; m = m.Parent() {
		switch {
		case m.Is("application/pdf"):
			return "application/pdf", nil
		case m.Is("text/plain"):
			return "text/plain", nil
		}
	}
	return "", fmt.Errorf("%w (got %s)", ErrUnsupportedType, detected.String())
}

// ValidateUpload runs every client-side check and returns the content type.
func ValidateUpload(size int64, head []byte) (string, error) {
	if err := ValidateSize(size); err != nil {
		return "", err
	}
	return DetectContentType(head)
}

// ATS score labels.
const (
	LabelExcellent        = "Excellent"
	LabelGood             = "Good"
	LabelNeedsImprovement = "Needs Improvement"
)

// ATSLabel maps a 0-100 score to its qualitative label.
func ATSLabel(score int) string {
	switch {
	case score >= 80:
		return LabelExcellent
	case score >= 60:
		return LabelGood
	default:
		return LabelNeedsImprovement
	}
}

// Score returns the analysis ATS score, zero when absent.
func Score(a *apiclient.Analysis) int {
	if a == nil || a.ATSScore == nil {
		return 0
	}
	return *a.ATSScore
}

// ExperienceYears formats the experience years or "N/A".
func ExperienceYears(a *apiclient.Analysis) string {
	if a == nil || a.ExperienceYears == nil || *a.ExperienceYears == 0 {
		return "N/A"
	}
	return strings.TrimSuffix(strings.TrimRight(fmt.Sprintf("%.1f", *a.ExperienceYears), "0"), ".")
}

// ExperienceLevel returns the level or "N/A".
func ExperienceLevel(a *apiclient.Analysis) string {
	if a == nil || a.ExperienceLevel == nil || strings.TrimSpace(*a.ExperienceLevel) == "" {
		return "N/A"
	}
	return *a.ExperienceLevel
}

// RecentResumes returns at most n resumes, newest upload first.
func RecentResumes(resumes []apiclient.Resume, n int) []apiclient.Resume {
	out := append([]apiclient.Resume(nil), resumes...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].UploadedAt.After(out[j].UploadedAt)
	})
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// RecentJobs returns at most n jobs, newest first.
func RecentJobs(jobs []apiclient.Job, n int) []apiclient.Job {
	out := append([]apiclient.Job(nil), jobs...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// Affordances lists the role-dependent actions shown on the dashboard.
type Affordances struct {
	PostJob     bool
	JobPostings bool
	MatchJobs   bool
}

// AffordancesFor derives the dashboard actions available to user.
func AffordancesFor(user apiclient.User) Affordances {
	recruiter := user.IsRecruiter()
	return Affordances{
		PostJob:     recruiter,
		JobPostings: recruiter,
		MatchJobs:   recruiter,
	}
}

// SplitSkills turns a comma or newline separated list into trimmed, de-duplicated skills.
func SplitSkills(raw string) []string {
	fields := strings.FieldsFunc(raw, func(r rune) bool { return r == ',' || r == '\n' || r == ';' })
	seen := make(map[string]struct{}, len(fields))
	skills := make([]string, 0, len(fields))
	for _, f := range fields {
		skill := strings.TrimSpace(f)
		if skill == "" {
			continue
		}
		key := strings.ToLower(skill)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		skills = append(skills, skill)
	}
	return skills
}
