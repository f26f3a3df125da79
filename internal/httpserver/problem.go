package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/CarVault/CarVault/internal/car"
	"github.com/CarVault/CarVault/internal/common/auth"
	"github.com/CarVault/CarVault/internal/common/logger"
)

const (
	typeClientError   = "/problems/client-error"
	typeInternalError = "/problems/internal-error"
)

// Problem is the error payload, RFC 7807 shaped. Violations carries
// field-level validation messages when present.
type Problem struct {
	Type       string            `json:"type"`
	Title      string            `json:"title"`
	Status     int               `json:"status"`
	Detail     string            `json:"detail,omitempty"`
	Path       string            `json:"path"`
	Timestamp  time.Time         `json:"timestamp"`
	Violations map[string]string `json:"violations,omitempty"`
	Fields     map[string]string `json:"fields,omitempty"`
}

func newProblem(r *http.Request, status int, title, detail string) Problem {
	typ := typeClientError
	if status >= http.StatusInternalServerError {
		typ = typeInternalError
	}
	return Problem{
		Type:      typ,
		Title:     title,
		Status:    status,
		Detail:    detail,
		Path:      r.URL.Path,
		Timestamp: time.Now().UTC(),
	}
}

func writeProblem(w http.ResponseWriter, p Problem) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(p.Status)
	_ = json.NewEncoder(w).Encode(p)
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		_ = json.NewEncoder(w).Encode(body)
	}
}

// writeError maps domain errors to problem responses. Anything unmatched is
// logged and reported as an opaque 500.
func writeError(w http.ResponseWriter, r *http.Request, log logger.Logger, err error) {
	var verr *car.ValidationError
	switch {
	case errors.As(err, &verr):
		p := newProblem(r, http.StatusBadRequest, "Validation failed", "")
		p.Violations = make(map[string]string, len(verr.Violations))
		for _, v := range verr.Violations {
			p.Violations[v.Path] = v.Message
		}
		writeProblem(w, p)
	case errors.Is(err, car.ErrNotFound):
		writeProblem(w, newProblem(r, http.StatusNotFound, "Cars not found", err.Error()))
	case errors.Is(err, car.ErrVersionConflict), errors.Is(err, car.ErrStaleVersion):
		writeProblem(w, newProblem(r, http.StatusConflict, "Version mismatch", "stale or missing version"))
	case errors.Is(err, car.ErrDuplicateVIN):
		writeProblem(w, newProblem(r, http.StatusConflict, "Constraint violation", "vin already exists"))
	case errors.Is(err, auth.ErrUnauthorized):
		writeProblem(w, newProblem(r, http.StatusUnauthorized, "Unauthorized", ""))
	default:
		log.WithFields(map[string]interface{}{
			"method": r.Method,
			"path":   r.URL.Path,
		}).Errorf("request failed: %v", err)
		writeProblem(w, newProblem(r, http.StatusInternalServerError, "Internal server error", ""))
	}
}
