package handlers

import (
	"net/http"
	"strings"

	"github.com/abrezinsky/everyonevotes/internal/auth"
	apperrors "github.com/abrezinsky/everyonevotes/internal/errors"
	"github.com/abrezinsky/everyonevotes/internal/services"
)

func voterID(r *http.Request) (string, error) {
	id, ok := auth.VoterIDFromContext(r.Context())
	if !ok {
		return "", Unauthorized("Access token required")
	}
	return id, nil
}

// handleConstituencies lists the known constituencies
func (h *Handlers) handleConstituencies(w http.ResponseWriter, r *http.Request) {
	names, err := h.Candidates.Constituencies(r.Context())
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondOK(w, ConstituenciesResponse{Constituencies: names})
}

// handleCandidates lists candidates for the requested constituency, or for
// the voter's own constituency when none is given
func (h *Handlers) handleCandidates(w http.ResponseWriter, r *http.Request) {
	id, err := voterID(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	constituency := strings.TrimSpace(r.URL.Query().Get("constituency"))
	if constituency == "" {
		voter, err := h.Identity.FindByID(r.Context(), id)
		if err != nil {
			h.respondError(w, r, err)
			return
		}
		constituency = voter.Constituency
	}

	candidates, err := h.Candidates.ListByConstituency(r.Context(), constituency)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondOK(w, CandidatesResponse{Constituency: constituency, Candidates: candidates})
}

// handleEligibility runs the verification pipeline for the current voter.
// An ineligible voter still gets the full report with status 200.
func (h *Handlers) handleEligibility(w http.ResponseWriter, r *http.Request) {
	id, err := voterID(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	report, err := h.Eligibility.CheckEligibility(r.Context(), id)
	if err != nil && apperrors.KindOf(err) != apperrors.ErrIneligible {
		h.respondError(w, r, err)
		return
	}
	respondOK(w, EligibilityResponse{EligibilityReport: report, Success: true})
}

func (req VoteRequest) choice() services.VoteChoice {
	return services.VoteChoice{CandidateID: req.CandidateID, Abstain: req.IsNOTA}
}

// handleValidateVote checks a vote request without recording anything
func (h *Handlers) handleValidateVote(w http.ResponseWriter, r *http.Request) {
	id, err := voterID(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	var req VoteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	validated, err := h.Ballots.ValidateVoteRequest(r.Context(), id, req.choice())
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondOK(w, ValidateVoteResponse{Valid: true, Candidate: validated.Candidate, IsNOTA: validated.Abstain})
}

// handleCastVote records the voter's ballot
func (h *Handlers) handleCastVote(w http.ResponseWriter, r *http.Request) {
	id, err := voterID(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	var req VoteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	ballot, err := h.Ballots.CastVote(r.Context(), id, req.choice())
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondCreated(w, CastVoteResponse{
		Success: true,
		Message: "Vote cast successfully",
		Ballot:  ballotSummary(ballot),
	})
}

// handleReceipt returns the voter's ballot receipt as a PNG QR code
func (h *Handlers) handleReceipt(w http.ResponseWriter, r *http.Request) {
	id, err := voterID(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	png, err := h.Receipts.GenerateReceiptQR(r.Context(), id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.Write(png)
}
