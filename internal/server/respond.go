package server

import (
	stderrors "errors"
	"net/http"

	"github.com/matzehuels/kgview/pkg/errors"
	"github.com/matzehuels/kgview/pkg/graph"
)

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Detail string      `json:"detail"`
	Code   errors.Code `json:"code"`
}

// statusFor maps an error code to an HTTP status.
func statusFor(err error) int {
	var tooLarge *http.MaxBytesError
	switch {
	case stderrors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.IsClientError(err):
		return http.StatusBadRequest
	case errors.Is(err, errors.ErrCodeNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := graph.MarshalCompact(v)
	if err != nil {
		http.Error(w, `{"detail":"encode response","code":"INTERNAL_ERROR"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(data)
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	code := errors.GetCode(err)
	detail := errors.UserMessage(err)

	switch {
	case status == http.StatusRequestEntityTooLarge:
		code, detail = errors.ErrCodeInvalidInput, "request body too large"
	case code == "":
		code = errors.ErrCodeInternal
	}
	if status >= 500 {
		// Internal details stay in the log.
		s.logger.Error("request failed", "path", r.URL.Path, "err", err, "request_id", RequestID(r.Context()))
		detail = "internal error"
	}
	writeJSON(w, status, errorBody{Detail: detail, Code: code})
}

func errNotFound(path string) error {
	return errors.New(errors.ErrCodeNotFound, "no route for %s", path)
}
