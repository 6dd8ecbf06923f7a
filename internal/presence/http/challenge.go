package http

import (
	"net/http"

	"github.com/rollcallhq/presence/internal/presence/domain"
	"github.com/rollcallhq/presence/internal/presence/service"
	"github.com/rollcallhq/presence/pkg/httpx"
	"github.com/rollcallhq/presence/pkg/slogx"
)

// ChallengeHandler serves the explicit-challenge flow:
//
//	GET  /api/v1/challenge          - mint a challenge for the display
//	POST /api/v1/validate-challenge - trade an observed challenge for a
//	                                  verification token
type ChallengeHandler struct {
	Challenges    *service.ChallengeService
	Verifications *service.VerificationService
}

type issueChallengeRequest struct {
	SID   string `json:"sid" validate:"required,session_id"`
	Phase string `json:"phase" validate:"required,oneof=start break end"`
}

type issueChallengeResponse struct {
	Challenge   string `json:"challenge"`
	ExpiresAtMS int64  `json:"expires_at_ms"`
	TTLMS       int64  `json:"ttl_ms"`
}

func (h *ChallengeHandler) HandleIssue(w http.ResponseWriter, r *http.Request) {
	log := slogx.FromContext(r.Context())

	req := issueChallengeRequest{
		SID:   r.URL.Query().Get("sid"),
		Phase: r.URL.Query().Get("phase"),
	}
	if !validateRequest(w, &req) {
		return
	}

	issued, err := h.Challenges.Issue(req.SID, domain.Phase(req.Phase))
	if err != nil {
		log.Error("failed to issue challenge", "sid", req.SID, "err", err)
		httpx.WriteError(w, http.StatusInternalServerError,
			"server_error", "Failed to issue challenge")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, issueChallengeResponse{
		Challenge:   issued.Value,
		ExpiresAtMS: issued.ExpiresAt.UnixMilli(),
		TTLMS:       issued.TTL.Milliseconds(),
	})
}

type validateChallengeRequest struct {
	SID           string `json:"sid" validate:"required,session_id"`
	Phase         string `json:"phase" validate:"required,oneof=start break end"`
	Challenge     string `json:"challenge" validate:"required,max=256"`
	PageSessionID string `json:"page_session_id" validate:"required,max=120"`
}

type verifyResponse struct {
	Verified       bool   `json:"verified"`
	VerificationID string `json:"verification_id,omitempty"`
	Error          string `json:"error,omitempty"`
}

func (h *ChallengeHandler) HandleValidate(w http.ResponseWriter, r *http.Request) {
	log := slogx.FromContext(r.Context())

	var req validateChallengeRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if !h.Challenges.Validate(req.SID, domain.Phase(req.Phase), req.Challenge) {
		httpx.WriteJSON(w, http.StatusBadRequest, verifyResponse{
			Verified: false,
			Error:    "challenge_expired",
		})
		return
	}

	// The explicit flow still needs a human to type an identifier after the
	// scan, so the token gets the longer TTL.
	key := connectionKey(r, req.SID, req.Phase, req.PageSessionID)
	id, err := h.Verifications.Issue(key, service.ChallengeFlowVerificationTTL)
	if err != nil {
		log.Error("failed to issue verification token", "sid", req.SID, "err", err)
		httpx.WriteError(w, http.StatusInternalServerError,
			"server_error", "Failed to issue verification token")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, verifyResponse{
		Verified:       true,
		VerificationID: id,
	})
}
