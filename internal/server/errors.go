package server

import (
	"errors"
	"net/http"

	"github.com/joseph-ayodele/doc-classifier/internal/classify"
	"github.com/joseph-ayodele/doc-classifier/internal/common"
	"github.com/joseph-ayodele/doc-classifier/internal/llm"
	"github.com/joseph-ayodele/doc-classifier/internal/normalize"
)

type errorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	RequestID string `json:"request_id"`
}

// statusFor maps pipeline and classifier errors to an HTTP status and a
// stable error code.
func statusFor(err error) (int, string) {
	switch {
	case normalize.IsUnsupported(err):
		return http.StatusUnsupportedMediaType, "UNSUPPORTED_MEDIA_TYPE"
	case normalize.IsRasterization(err):
		return http.StatusUnprocessableEntity, "RASTERIZE_FAILED"
	case errors.Is(err, common.ErrTooLarge):
		return http.StatusRequestEntityTooLarge, "UPLOAD_TOO_LARGE"
	case errors.Is(err, common.ErrInvalidInput):
		if code := common.ErrorCode(err); code != "" {
			return http.StatusBadRequest, code
		}
		return http.StatusBadRequest, "INVALID_INPUT"
	case errors.Is(err, llm.ErrRateLimited):
		return http.StatusTooManyRequests, "UPSTREAM_RATE_LIMITED"
	case errors.Is(err, llm.ErrTransport),
		errors.Is(err, llm.ErrRefused),
		errors.Is(err, llm.ErrSchema),
		errors.Is(err, classify.ErrClassification):
		return http.StatusBadGateway, "CLASSIFY_FAILED"
	}
	return http.StatusInternalServerError, "INTERNAL"
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := statusFor(err)
	rid := common.RequestIDFromContext(r.Context())
	if status >= 500 {
		s.logger.Error("http.error", "req_id", rid, "status", status, "code", code, "error", err)
	} else {
		s.logger.Warn("http.error", "req_id", rid, "status", status, "code", code, "error", err)
	}

	var body errorBody
	body.Error.Code = code
	body.Error.Message = err.Error()
	body.RequestID = rid
	if status >= 500 && status != http.StatusBadGateway {
		body.Error.Message = "internal error"
	}
	writeJSON(w, status, body)
}
