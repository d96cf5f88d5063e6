package httpx

import (
	"fmt"
	"net/http"
)

// StatusBody returns the canonical plain-text body for a status code, e.g. "404: Not Found".
func StatusBody(status int) string {
	if status == 0 {
		status = http.StatusInternalServerError
	}
	return fmt.Sprintf("%d: %s", status, http.StatusText(status))
}

// WriteStatus writes the canonical plain-text status response. Headers already set on w are kept.
func WriteStatus(w http.ResponseWriter, status int) {
	if status == 0 {
		status = http.StatusInternalServerError
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(StatusBody(status)))
}
