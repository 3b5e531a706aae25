package apperr

import (
	"encoding/json"
	"errors"
	"net/http"

	log "github.com/sirupsen/logrus"
)

type envelope struct {
	Error *Error `json:"error"`
}

// Write renders err as a JSON error envelope with the status of its Kind.
// Unclassified errors become a generic internal error; their detail is
// logged, never sent.
func Write(w http.ResponseWriter, r *http.Request, err error) {
	var e *Error
	if !errors.As(err, &e) {
		e = Internal("internal server error", err)
	}

	status := e.Kind.HTTPStatus()
	body := e
	if status >= http.StatusInternalServerError {
		entry := log.WithError(err).WithFields(log.Fields{
			"code":   e.Kind,
			"method": r.Method,
			"path":   r.URL.Path,
		})
		if e.Kind == KindInternal {
			entry.Error("Request failed")
			body = &Error{Kind: KindInternal, Message: "internal server error"}
		} else {
			entry.Warn("Request failed")
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(envelope{Error: body})
}
