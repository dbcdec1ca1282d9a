package server

import (
	"net/http"

	"golang.org/x/sync/errgroup"

	apiclient "github.com/mbd888/resumeiq-web/pkg/api/client"
	"github.com/mbd888/resumeiq-web/pkg/resume"
)

type analysisRow struct {
	Resume   apiclient.Resume
	Analysis *apiclient.Analysis
}

type analysisSummary struct {
	Total        int
	Analyzed     int
	AverageScore int
	Excellent    int
	Good         int
	NeedsWork    int
}

func (s *Server) handleAnalysis(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	ctx, cancel := s.requestContext(r)
	defer cancel()
	mgr := s.sessionFor(w, r)

	const failure = "Failed to load analysis"
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
	resumes = resume.RecentResumes(resumes, -1)

	rows := make([]analysisRow, len(resumes))
	var g errgroup.Group
	g.SetLimit(s.cfg.AnalysisConcurrency)
	for i, doc := range resumes {
		rows[i].Resume = doc
		g.Go(func() error {
			analysis, err := mgr.API().GetAnalysis(ctx, doc.ID)
			if err != nil {
				s.logger.Debug("analysis not available", "resume_id", doc.ID, "error", err)
				return nil
			}
			rows[i].Analysis = analysis
			return nil
		})
	}
	_ = g.Wait()

	s.render(w, r, "analysis", map[string]any{
		"Title":   "Analysis overview",
		"Flash":   flashFromRequest(r),
		"User":    user,
		"Rows":    rows,
		"Summary": summarize(rows),
	})
}

func summarize(rows []analysisRow) analysisSummary {
	sum := analysisSummary{Total: len(rows)}
	total := 0
	for _, row := range rows {
		if row.Analysis == nil {
			continue
		}
		score := resume.Score(row.Analysis)
		sum.Analyzed++
		total += score
		switch resume.ATSLabel(score) {
		case resume.LabelExcellent:
			sum.Excellent++
		case resume.LabelGood:
			sum.Good++
		default:
			sum.NeedsWork++
		}
	}
	if sum.Analyzed > 0 {
		sum.AverageScore = total / sum.Analyzed
	}
	return sum
}
