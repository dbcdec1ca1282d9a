package server

import (
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"

	apiclient "github.com/mbd888/resumeiq-web/pkg/api/client"
	"github.com/mbd888/resumeiq-web/pkg/resume"
)

// uploadOverhead is the multipart framing allowed on top of the file itself.
const uploadOverhead = 1 << 20

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.render(w, r, "upload", map[string]any{
			"Title":    "Upload resume",
			"Flash":    flashFromRequest(r),
			"Position": "",
		})
	case http.MethodPost:
		s.handleUploadSubmit(w, r)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleUploadSubmit(w http.ResponseWriter, r *http.Request) {
	position := ""
	rerender := func(status int, flash string) {
		s.renderStatus(w, r, status, "upload", map[string]any{
			"Title":    "Upload resume",
			"Flash":    flash,
			"Position": position,
		})
	}

	r.Body = http.MaxBytesReader(w, r.Body, resume.MaxUploadBytes+uploadOverhead)
	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			err = resume.ErrFileTooLarge
		case errors.Is(err, http.ErrMissingFile):
			err = resume.ErrNoFile
		default:
			s.renderError(w, r, http.StatusBadRequest, "invalid form payload")
			return
		}
		s.recordUpload(uploadRejected)
		rerender(http.StatusUnprocessableEntity, resume.Message(err))
		return
	}
	defer file.Close()
	position = strings.TrimSpace(r.PostFormValue("position_applied"))

	head := make([]byte, resume.SniffLen)
	n, err := io.ReadFull(file, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		s.renderError(w, r, http.StatusBadRequest, "could not read uploaded file")
		return
	}
	contentType, err := resume.ValidateUpload(header.Size, head[:n])
	if err != nil {
		s.recordUpload(uploadRejected)
		rerender(http.StatusUnprocessableEntity, resume.Message(err))
		return
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		s.renderError(w, r, http.StatusInternalServerError, "could not read uploaded file")
		return
	}

	ctx, cancel := s.requestContext(r)
	defer cancel()
	api := s.sessionFor(w, r).API()
	uploaded, err := api.UploadResume(ctx, apiclient.UploadInput{
		Filename:        header.Filename,
		ContentType:     contentType,
		Content:         file,
		PositionApplied: position,
	})
	if err != nil {
		s.recordUpload(uploadFailed)
		if s.sessionExpired(w, r, err) {
			return
		}
		s.logger.Warn("resume upload failed", "filename", header.Filename, "error", err)
		rerender(formStatus(err), apiclient.Detail(err, "Upload failed"))
		return
	}

	target := "/dashboard/resumes/" + url.PathEscape(uploaded.ID)
	if _, err := api.AnalyzeResume(ctx, uploaded.ID); err != nil {
		s.recordUpload(uploadAnalysisFailed)
		s.logger.Warn("resume analysis failed", "resume_id", uploaded.ID, "error", err)
		redirectWithFlash(w, r, target, "Analysis failed, but resume was saved")
		return
	}
	s.recordUpload(uploadAnalyzed)
	s.logger.Info("resume uploaded", "resume_id", uploaded.ID, "size", header.Size, "content_type", contentType)
	redirectWithFlash(w, r, target, "Resume uploaded successfully! Analysis complete!")
}
