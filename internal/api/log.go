package api

import (
	"net/http"

	"worldwidewaves/pkg/logging"
)

// handleLogTail serves GET /api/log: the most recent server log lines from
// the in-memory ring, oldest first.
func handleLogTail(w http.ResponseWriter, r *http.Request) {
	n := parseLimit(r, 50)
	writeJSON(w, http.StatusOK, map[string]any{
		"lines": logging.Capture.Tail(n),
	})
}
