package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	apiclient "github.com/mbd888/resumeiq-web/pkg/api/client"
	"github.com/mbd888/resumeiq-web/pkg/resume"
)

func (a *app) commandResumes(args []string) error {
	if len(args) == 0 {
		return errors.New("usage: resumeiq resumes [list|show|upload|analyze|delete]")
	}
	sub, rest := args[0], args[1:]
	switch sub {
	case "list":
		return a.resumesList(rest)
	case "show":
		return a.resumesShow(rest)
	case "upload":
		return a.resumesUpload(rest)
	case "analyze":
		return a.resumesAnalyze(rest)
	case "delete":
		return a.resumesDelete(rest)
	default:
		return fmt.Errorf("unknown resumes command: %s", sub)
	}
}

func (a *app) resumesList(args []string) error {
	fs := flag.NewFlagSet("resumes list", flag.ContinueOnError)
	limit := fs.Int("limit", 0, "Maximum number of resumes to display")
	if err := fs.Parse(args); err != nil {
		return err
	}
	mgr, err := a.session()
	if err != nil {
		return err
	}
	ctx, cancel := a.context()
	defer cancel()
	resumes, err := mgr.API().ListResumes(ctx)
	if err != nil {
		return err
	}
	n := *limit
	if n <= 0 {
		n = -1
	}
	resumes = resume.RecentResumes(resumes, n)
	if len(resumes) == 0 {
		fmt.Fprintln(a.out, "no resumes")
		return nil
	}
	for _, r := range resumes {
		fmt.Fprintf(a.out, "%s\t%s\t%s\t%s\n", r.ID, r.Filename, r.Status, r.UploadedAt.Format(time.RFC3339))
	}
	return nil
}

func requireID(fs *flag.FlagSet, args []string) (string, error) {
	id := fs.String("id", "", "Resume identifier")
	if err := fs.Parse(args); err != nil {
		return "", err
	}
	if strings.TrimSpace(*id) == "" {
		return "", errors.New("--id is required")
	}
	return strings.TrimSpace(*id), nil
}

func (a *app) resumesShow(args []string) error {
	id, err := requireID(flag.NewFlagSet("resumes show", flag.ContinueOnError), args)
	if err != nil {
		return err
	}
	mgr, err := a.session()
	if err != nil {
		return err
	}
	ctx, cancel := a.context()
	defer cancel()
	doc, err := mgr.API().GetResume(ctx, id)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "file:\t%s\nstatus:\t%s\nuploaded:\t%s\n", doc.Filename, doc.Status, doc.UploadedAt.Format(time.RFC3339))
	// a missing or failing analysis only degrades the output
	analysis, err := mgr.API().GetAnalysis(ctx, id)
	if err != nil {
		fmt.Fprintln(a.out, "analysis:\tnot available yet")
		return nil
	}
	printAnalysis(a.out, analysis)
	return nil
}

func printAnalysis(w io.Writer, analysis *apiclient.Analysis) {
	score := resume.Score(analysis)
	fmt.Fprintf(w, "ats score:\t%d/100 (%s)\n", score, resume.ATSLabel(score))
	fmt.Fprintf(w, "experience:\t%s, %s years\n", resume.ExperienceLevel(analysis), resume.ExperienceYears(analysis))
	if len(analysis.ExtractedSkills) > 0 {
		fmt.Fprintf(w, "skills:\t%s\n", strings.Join(analysis.ExtractedSkills, ", "))
	}
}

// resumesUpload validates the file locally, uploads it and runs the analysis.
// A failed analysis leaves the upload in place.
func (a *app) resumesUpload(args []string) error {
	fs := flag.NewFlagSet("resumes upload", flag.ContinueOnError)
	path := fs.String("file", "", "Path to a PDF or text resume")
	position := fs.String("position", "", "Position applied for")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if strings.TrimSpace(*path) == "" {
		return errors.New(resume.Message(resume.ErrNoFile))
	}
	mgr, err := a.session()
	if err != nil {
		return err
	}

	f, err := os.Open(*path)
	if err != nil {
		return err
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return err
	}
	head := make([]byte, resume.SniffLen)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return fmt.Errorf("read %s: %w", *path, err)
	}
	contentType, err := resume.ValidateUpload(info.Size(), head[:n])
	if err != nil {
		return errors.New(resume.Message(err))
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return err
	}

	ctx, cancel := a.context()
	defer cancel()
	uploaded, err := mgr.API().UploadResume(ctx, apiclient.UploadInput{
		Filename:        filepath.Base(*path),
		ContentType:     contentType,
		Content:         f,
		PositionApplied: strings.TrimSpace(*position),
	})
	if err != nil {
		return errors.New(apiclient.Detail(err, "Upload failed"))
	}
	fmt.Fprintf(a.out, "uploaded: %s\n", uploaded.ID)
	if _, err := mgr.API().AnalyzeResume(ctx, uploaded.ID); err != nil {
		fmt.Fprintln(a.out, "Analysis failed, but resume was saved")
		return nil
	}
	fmt.Fprintln(a.out, "Resume uploaded successfully! Analysis complete!")
	return nil
}

func (a *app) resumesAnalyze(args []string) error {
	id, err := requireID(flag.NewFlagSet("resumes analyze", flag.ContinueOnError), args)
	if err != nil {
		return err
	}
	mgr, err := a.session()
	if err != nil {
		return err
	}
	ctx, cancel := a.context()
	defer cancel()
	if _, err := mgr.API().AnalyzeResume(ctx, id); err != nil {
		return errors.New(apiclient.Detail(err, "Analysis failed"))
	}
	analysis, err := mgr.API().GetAnalysis(ctx, id)
	if err != nil {
		fmt.Fprintln(a.out, "analysis complete")
		return nil
	}
	printAnalysis(a.out, analysis)
	return nil
}

func (a *app) resumesDelete(args []string) error {
	fs := flag.NewFlagSet("resumes delete", flag.ContinueOnError)
	yes := fs.Bool("yes", false, "Confirm deletion")
	id, err := requireID(fs, args)
	if err != nil {
		return err
	}
	if !*yes {
		return fmt.Errorf("refusing to delete %s without --yes", id)
	}
	mgr, err := a.session()
	if err != nil {
		return err
	}
	ctx, cancel := a.context()
	defer cancel()
	if err := mgr.API().DeleteResume(ctx, id); err != nil {
		return errors.New(apiclient.Detail(err, "Error deleting resume"))
	}
	fmt.Fprintln(a.out, "Resume deleted")
	return nil
}
