package resume

import (
	"bytes"
	"errors"
	"testing"
	"time"

	apiclient "github.com/mbd888/resumeiq-web/pkg/api/client"
)

func TestATSLabelBoundaries(t *testing.T) {
	cases := []struct {
		score int
		want  string
	}{
		{0, LabelNeedsImprovement},
		{59, LabelNeedsImprovement},
		{60, LabelGood},
		{79, LabelGood},
		{80, LabelExcellent},
		{100, LabelExcellent},
	}
	for _, tc := range cases {
		if got := ATSLabel(tc.score); got != tc.want {
			t.Fatalf("ATSLabel(%d) = %q, want %q", tc.score, got, tc.want)
		}
	}
}

func TestValidateSize(t *testing.T) {
	if err := ValidateSize(MaxUploadBytes); err != nil {
		t.Fatalf("exactly 10MiB must be accepted, got %v", err)
	}
	if err := ValidateSize(10_485_761); !errors.Is(err, ErrFileTooLarge) {
		t.Fatalf("expected ErrFileTooLarge, got %v", err)
	}
	if err := ValidateSize(0); !errors.Is(err, ErrNoFile) {
		t.Fatalf("expected ErrNoFile, got %v", err)
	}
	if Message(ErrFileTooLarge) != "File size must be less than 10MB" {
		t.Fatalf("unexpected message %q", Message(ErrFileTooLarge))
	}
}

func TestDetectContentType(t *testing.T) {
	pdf := []byte("%PDF-1.7\n%\xe2\xe3\xcf\xd3\n1 0 obj\n<<>>\nendobj\n")
	if ct, err := DetectContentType(pdf); err != nil || ct != "application/pdf" {
		t.Fatalf("expected application/pdf, got %q, %v", ct, err)
	}
	txt := []byte("Ada Lovelace\nSoftware Engineer\nSkills: Go, SQL\n")
	if ct, err := DetectContentType(txt); err != nil || ct != "text/plain" {
		t.Fatalf("expected text/plain, got %q, %v", ct, err)
	}
	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	if _, err := DetectContentType(png); !errors.Is(err, ErrUnsupportedType) {
		t.Fatalf("expected ErrUnsupportedType, got %v", err)
	}
	if _, err := ValidateUpload(MaxUploadBytes+1, txt); !errors.Is(err, ErrFileTooLarge) {
		t.Fatalf("size must be checked first, got %v", err)
	}
	zip := append([]byte("PK\x03\x04"), bytes.Repeat([]byte{0}, 26)...)
	if _, err := ValidateUpload(int64(len(zip)), zip); !errors.Is(err, ErrUnsupportedType) {
		t.Fatalf("expected zip rejected, got %v", err)
	}
}

func TestRecentResumesNewestFirst(t *testing.T) {
	base := time.Date(2025, time.March, 1, 9, 0, 0, 0, time.UTC)
	var resumes []apiclient.Resume
	for i := 0; i < 7; i++ {
		resumes = append(resumes, apiclient.Resume{ID: string(rune('a' + i)), UploadedAt: base.Add(time.Duration(i) * time.Hour)})
	}
	got := RecentResumes(resumes, RecentLimit)
	if len(got) != RecentLimit {
		t.Fatalf("expected %d resumes, got %d", RecentLimit, len(got))
	}
	if got[0].ID != "g" || got[4].ID != "c" {
		t.Fatalf("unexpected order %v..%v", got[0].ID, got[4].ID)
	}
	if resumes[0].ID != "a" {
		t.Fatalf("input slice must not be reordered")
	}
	if len(RecentResumes(nil, RecentLimit)) != 0 {
		t.Fatalf("nil input must yield no resumes")
	}
}

func TestRecentJobsNewestFirst(t *testing.T) {
	base := time.Date(2025, time.March, 1, 9, 0, 0, 0, time.UTC)
	jobs := []apiclient.Job{
		{ID: "old", CreatedAt: base},
		{ID: "new", CreatedAt: base.Add(48 * time.Hour)},
		{ID: "mid", CreatedAt: base.Add(24 * time.Hour)},
	}
	got := RecentJobs(jobs, 2)
	if len(got) != 2 || got[0].ID != "new" || got[1].ID != "mid" {
		t.Fatalf("unexpected jobs %+v", got)
	}
}

func TestAffordancesByRole(t *testing.T) {
	seeker := AffordancesFor(apiclient.User{UserType: apiclient.RoleJobSeeker})
	if seeker.PostJob || seeker.JobPostings || seeker.MatchJobs {
		t.Fatalf("job seekers must not see recruiter actions: %+v", seeker)
	}
	recruiter := AffordancesFor(apiclient.User{UserType: apiclient.RoleRecruiter})
	if !recruiter.PostJob || !recruiter.JobPostings {
		t.Fatalf("recruiters must see recruiter actions: %+v", recruiter)
	}
	admin := AffordancesFor(apiclient.User{UserType: apiclient.RoleAdmin})
	if admin.PostJob {
		t.Fatalf("admins are not recruiters: %+v", admin)
	}
}

func TestAnalysisFormatting(t *testing.T) {
	if Score(nil) != 0 || ExperienceYears(nil) != "N/A" || ExperienceLevel(nil) != "N/A" {
		t.Fatalf("nil analysis must format as defaults")
	}
	years := 4.0
	level := "Mid"
	score := 72
	a := &apiclient.Analysis{ExperienceYears: &years, ExperienceLevel: &level, ATSScore: &score}
	if got := ExperienceYears(a); got != "4" {
		t.Fatalf("unexpected years %q", got)
	}
	years = 10.5
	if got := ExperienceYears(a); got != "10.5" {
		t.Fatalf("unexpected years %q", got)
	}
	if ExperienceLevel(a) != "Mid" || Score(a) != 72 {
		t.Fatalf("unexpected formatting for %+v", a)
	}
}

func TestSplitSkills(t *testing.T) {
	got := SplitSkills(" Go, sql;\nGo ,, Kubernetes ")
	want := []string{"Go", "sql", "Kubernetes"}
	if len(got) != len(want) {
		t.Fatalf("unexpected skills %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("unexpected skills %v", got)
		}
	}
}
