package handlers

import (
	stderrors "errors"
	"net/http"

	"github.com/abrezinsky/everyonevotes/internal/auth"
	"github.com/abrezinsky/everyonevotes/internal/models"
	"github.com/abrezinsky/everyonevotes/internal/services"
	"github.com/abrezinsky/everyonevotes/internal/validation"
)

// handleSendOTP issues a fresh code for a mobile number
func (h *Handlers) handleSendOTP(w http.ResponseWriter, r *http.Request) {
	var req SendOTPRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	ch, err := h.OTP.IssueChallenge(r.Context(), req.Mobile)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	respondOK(w, SendOTPResponse{
		Success:   true,
		Message:   "OTP sent successfully",
		OTP:       ch.Code,
		ExpiresIn: ch.TTLSeconds,
	})
}

// handleVerifyOTP checks a code and logs in a registered voter, or tells
// the client to register
func (h *Handlers) handleVerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req VerifyOTPRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}
	if req.Mobile == "" || req.OTP == "" {
		h.respondError(w, r, BadRequest("Mobile number and OTP are required"))
		return
	}

	if err := h.OTP.VerifyChallenge(r.Context(), req.Mobile, req.OTP); err != nil {
		h.respondError(w, r, err)
		return
	}

	mobile := validation.NormalizeMobile(req.Mobile)
	voter, err := h.Identity.FindByMobile(r.Context(), mobile)
	if stderrors.Is(err, services.ErrVoterNotFound) {
		// the ticket lives as long as the OTP itself, not just the grace window
		ticket, err := h.Sessions.IssueFor(auth.AudienceRegistration, mobile, h.OTP.TTL())
		if err != nil {
			h.respondError(w, r, err)
			return
		}
		respondOK(w, VerifyOTPResponse{
			Success:           true,
			IsNewUser:         true,
			Mobile:            mobile,
			RegistrationToken: ticket,
		})
		return
	}
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	token, err := h.Sessions.Issue(auth.AudienceVoter, voter.ID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondOK(w, VerifyOTPResponse{Success: true, Token: token, User: voter})
}

// handleRegister registers a voter whose mobile was verified. It requires
// the registration ticket from verify-otp and consumes it on success.
func (h *Handlers) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	ticket, ok := h.Sessions.Validate(req.RegistrationToken, auth.AudienceRegistration)
	if !ok {
		h.respondError(w, r, Unauthorized("Verified mobile number required"))
		return
	}
	if req.Mobile != "" && validation.NormalizeMobile(req.Mobile) != ticket.Subject {
		h.respondError(w, r, BadRequest("Mobile number does not match the verified number"))
		return
	}

	dob, err := validation.ParseDate(req.DateOfBirth)
	if err != nil {
		h.respondError(w, r, services.ErrInvalidDateOfBirth)
		return
	}

	voter, err := h.Identity.Register(r.Context(), models.VoterDraft{
		Mobile:       ticket.Subject,
		NationalID:   req.AadharNumber,
		VoterCode:    req.VoterIDNumber,
		Name:         req.FullName,
		DateOfBirth:  dob,
		Constituency: req.Constituency,
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.Sessions.Revoke(req.RegistrationToken)

	token, err := h.Sessions.Issue(auth.AudienceVoter, voter.ID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondCreated(w, SessionResponse{Success: true, Token: token, User: voter})
}

// handleLogout revokes the caller's token
func (h *Handlers) handleLogout(w http.ResponseWriter, r *http.Request) {
	if token := auth.TokenFromRequest(r); token != "" {
		h.Sessions.Revoke(token)
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleOfficerLogin verifies officer credentials and issues an officer token
func (h *Handlers) handleOfficerLogin(w http.ResponseWriter, r *http.Request) {
	var req OfficerLoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	officer, err := h.Officers.Login(r.Context(), req.EmployeeID, req.Password)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	token, err := h.Sessions.Issue(auth.AudienceOfficer, officer.EmployeeID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondOK(w, OfficerSessionResponse{Success: true, Token: token, Officer: officer})
}
