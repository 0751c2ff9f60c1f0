package monitoring

import (
	// Needed for the embedded dashboard page.
	_ "embed"
	"net/http"
)

//go:embed dashboard/index.html
var dashboardPage []byte

// serveDashboard writes the single page that polls the API of the monitor.
func (m *Monitor) serveDashboard(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	_, err := w.Write(dashboardPage)
	if err != nil {
		m.logger.Warn("serving dashboard", "error", err)
	}
}
