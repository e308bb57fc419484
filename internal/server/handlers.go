package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/joseph-ayodele/doc-classifier/internal/common"
	"github.com/joseph-ayodele/doc-classifier/internal/llm"
	"github.com/joseph-ayodele/doc-classifier/internal/normalize"
)

type classifyResponse struct {
	RequestID         string    `json:"request_id"`
	DocumentType      string    `json:"document_type"`
	Notes             string    `json:"notes"`
	MediaType         string    `json:"media_type"`
	Pages             int       `json:"pages"`
	ImageBytes        int       `json:"image_bytes"`
	Model             string    `json:"model,omitempty"`
	Usage             llm.Usage `json:"usage"`
	UpstreamRequestID string    `json:"upstream_request_id,omitempty"`
	Artifact          string    `json:"artifact,omitempty"`
	ElapsedMS         int64     `json:"elapsed_ms"`
}

type normalizeResponse struct {
	MediaType  string `json:"media_type"`
	Pages      int    `json:"pages"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	ImageBytes int    `json:"image_bytes"`
	Encoded    string `json:"encoded"`
}

func (s *Server) handleClassify(w http.ResponseWriter, r *http.Request) {
	doc, err := s.readUpload(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out, err := s.classifier.Classify(r.Context(), doc)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, classifyResponse{
		RequestID:         common.RequestIDFromContext(r.Context()),
		DocumentType:      string(out.Analysis.DocumentType),
		Notes:             out.Analysis.Notes,
		MediaType:         out.MediaType,
		Pages:             out.Pages,
		ImageBytes:        out.ImageBytes,
		Model:             out.Model,
		Usage:             out.Usage,
		UpstreamRequestID: out.RequestID,
		Artifact:          out.Artifact,
		ElapsedMS:         out.Elapsed.Milliseconds(),
	})
}

func (s *Server) handleNormalize(w http.ResponseWriter, r *http.Request) {
	doc, err := s.readUpload(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var opts []normalize.Option
	if v := strings.TrimSpace(r.FormValue("dpi")); v != "" {
		dpi, err := strconv.Atoi(v)
		if err != nil || dpi < 1 || dpi > 1200 {
			s.writeError(w, r, common.NewAppError("INVALID_DPI", "dpi must be an integer between 1 and 1200", common.ErrInvalidInput))
			return
		}
		opts = append(opts, normalize.WithDPI(dpi))
	}
	p, err := s.normalizer.Normalize(r.Context(), doc, opts...)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, normalizeResponse{
		MediaType:  p.MediaType,
		Pages:      p.Pages,
		Width:      p.Width,
		Height:     p.Height,
		ImageBytes: len(p.Raw),
		Encoded:    p.Data,
	})
}

// readUpload reads the multipart "file" field, capped at MaxUploadBytes.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) (normalize.InputDocument, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxUploadBytes)
	if err := r.ParseMultipartForm(8 << 20); err != nil {
		return normalize.InputDocument{}, uploadError(err)
	}
	// spilled parts live in temp files; form values stay readable
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	f, hdr, err := r.FormFile("file")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return normalize.InputDocument{}, common.NewAppError("MISSING_FILE", `multipart field "file" is required`, common.ErrInvalidInput)
		}
		return normalize.InputDocument{}, uploadError(err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return normalize.InputDocument{}, uploadError(err)
	}
	if len(data) == 0 {
		return normalize.InputDocument{}, common.NewAppError("EMPTY_FILE", "uploaded file is empty", common.ErrInvalidInput)
	}
	return normalize.InputDocument{
		Filename:    hdr.Filename,
		ContentType: hdr.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}

func uploadError(err error) error {
	var tooBig *http.MaxBytesError
	if errors.As(err, &tooBig) {
		return common.NewAppError("UPLOAD_TOO_LARGE", fmt.Sprintf("upload exceeds %d bytes", tooBig.Limit), common.ErrTooLarge)
	}
	return common.NewAppError("BAD_UPLOAD", "cannot read multipart upload", errors.Join(common.ErrInvalidInput, err))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
