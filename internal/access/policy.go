// Package access decides whether an identity may perform an action. It is a
// pure function of its arguments: no storage, no clock, no side effects.
package access

import "github.com/isdelr/mediinsight-be/internal/models"

// Action is something a request wants to do.
type Action string

const (
	ViewLanding        Action = "view-landing"
	ViewLoginForm      Action = "view-login-form"
	ViewSignupForm     Action = "view-signup-form"
	ResetPassword      Action = "reset-password"
	ViewOwnDashboard   Action = "view-own-dashboard"
	ViewAdminDashboard Action = "view-admin-dashboard"
	DeleteAnyReport    Action = "delete-any-report"
	DownloadReport     Action = "download-report"
	Predict            Action = "predict"
	ViewCharts         Action = "view-charts"
	ExportReports      Action = "export-reports"
	RerunReport        Action = "rerun-report"
	Chat               Action = "chat"
)

// Deny reasons.
const (
	ReasonAuthRequired       = "authentication required"
	ReasonUnauthorized       = "unauthorized"
	ReasonUnauthorizedAccess = "unauthorized access"
	ReasonUnknownAction      = "unknown action"
)

// Resource is the target of an action. Report is set for report-scoped actions.
type Resource struct {
	Report *models.Report
}

// Decision is the outcome of Authorize.
type Decision struct {
	Allowed bool
	Reason  string
}

// Allow and Deny construct decisions.
func Allow() Decision { return Decision{Allowed: true} }

func Deny(reason string) Decision { return Decision{Reason: reason} }

var public = map[Action]bool{
	ViewLanding:    true,
	ViewLoginForm:  true,
	ViewSignupForm: true,
	ResetPassword:  true,
}

// authenticated lists actions any signed-in user may perform on their own data.
var authenticated = map[Action]bool{
	Predict:       true,
	ViewCharts:    true,
	ExportReports: true,
	Chat:          true,
}

// Authorize evaluates the rules in order; the first match wins.
//
// Downloads are owner-only, even for admins; deletion is admin-only.
func Authorize(id *models.Identity, action Action, res Resource) Decision {
	if public[action] {
		return Allow()
	}
	if id == nil || id.Username == "" {
		return Deny(ReasonAuthRequired)
	}

	switch action {
	case ViewOwnDashboard:
		return Allow()
	case ViewAdminDashboard, DeleteAnyReport:
		if id.IsAdmin {
			return Allow()
		}
		return Deny(ReasonUnauthorized)
	case DownloadReport:
		if res.Report == nil || res.Report.User != id.Username {
			return Deny(ReasonUnauthorizedAccess)
		}
		return Allow()
	case RerunReport:
		// admins may re-run any report
		if res.Report == nil || (res.Report.User != id.Username && !id.IsAdmin) {
			return Deny(ReasonUnauthorizedAccess)
		}
		return Allow()
	}

	if authenticated[action] {
		return Allow()
	}
	return Deny(ReasonUnknownAction)
}
