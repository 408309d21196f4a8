package handlers

import "net/http"

// AnalyticsRedirect sends the browser to the analytics dashboard process.
func AnalyticsRedirect(dashboardURL string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, dashboardURL, http.StatusFound)
	}
}
