package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/isdelr/mediinsight-be/internal/access"
	"github.com/isdelr/mediinsight-be/internal/otp"
	"github.com/isdelr/mediinsight-be/internal/services"
	"github.com/rs/zerolog/log"
)

// ResetFlow is the one-time-code password reset.
type ResetFlow interface {
	RequestReset(ctx context.Context, email string) (otp.RequestOutcome, error)
	Verify(ctx context.Context, email, code, newPassword string) (otp.State, error)
}

// PasswordHandler serves the forgot/reset password endpoints.
type PasswordHandler struct {
	flow   ResetFlow
	events services.EventServiceProvider
}

// NewPasswordHandler creates a new PasswordHandler.
func NewPasswordHandler(flow ResetFlow, events services.EventServiceProvider) *PasswordHandler {
	return &PasswordHandler{flow: flow, events: events}
}

// ForgotResponse is the body of Forgot.
type ForgotResponse struct {
	Message string `json:"message"`
	State   string `json:"state"`
	Warning string `json:"warning,omitempty"`
}

// Forgot issues a code for the posted email. It answers the same way whether
// or not the address belongs to an account.
func (h *PasswordHandler) Forgot(w http.ResponseWriter, r *http.Request) {
	if _, ok := authorize(w, r, access.ResetPassword, access.Resource{}); !ok {
		return
	}
	var payload struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload.Email == "" {
		writeError(w, http.StatusBadRequest, "Email is required")
		return
	}

	outcome, err := h.flow.RequestReset(r.Context(), payload.Email)
	if err != nil {
		writeServiceError(w, err, "Failed to start password reset")
		return
	}

	resp := ForgotResponse{Message: "OTP sent to your email", State: outcome.State.String()}
	if !outcome.Delivered {
		resp.Message = "OTP generated"
		resp.Warning = "The code could not be emailed. Please try again later."
	}
	writeJSON(w, http.StatusAccepted, resp)
}

// ResetPayload defines the structure for reset requests.
type ResetPayload struct {
	Email       string `json:"email"`
	OTP         string `json:"otp"`
	NewPassword string `json:"newPassword"`
}

// Reset verifies the code and replaces the password.
func (h *PasswordHandler) Reset(w http.ResponseWriter, r *http.Request) {
	if _, ok := authorize(w, r, access.ResetPassword, access.Resource{}); !ok {
		return
	}
	var payload ResetPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if payload.Email == "" || payload.OTP == "" || payload.NewPassword == "" {
		writeError(w, http.StatusBadRequest, "Email, OTP and new password are required")
		return
	}

	state, err := h.flow.Verify(r.Context(), payload.Email, payload.OTP, payload.NewPassword)
	if err != nil {
		if errors.Is(err, otp.ErrInvalidCode) || errors.Is(err, services.ErrNotFound) {
			log.Warn().Str("email", payload.Email).Str("state", state.String()).Msg("Password reset rejected")
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid OTP", "state": state.String()})
			return
		}
		writeServiceError(w, err, "Failed to reset password")
		return
	}

	recordEvent(r, h.events, "password.reset", "info", "Password reset for "+payload.Email+".", nil)
	writeJSON(w, http.StatusOK, map[string]string{"message": "Password reset successfully", "redirect": LoginPage})
}
