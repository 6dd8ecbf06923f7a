package http

import (
	"net/http"

	"github.com/rollcallhq/presence/internal/presence/domain"
	"github.com/rollcallhq/presence/internal/presence/service"
	"github.com/rollcallhq/presence/pkg/httpx"
	"github.com/rollcallhq/presence/pkg/slogx"
)

// OverrideHandler serves the manual-override flow:
//
//	POST /api/v1/override/check    - is an override even possible here
//	POST /api/v1/override/complete - verify the teacher secret and mint a
//	                                 pre-authorised verification token
type OverrideHandler struct {
	Overrides     *service.OverrideService
	Verifications *service.VerificationService
}

type overrideCheckRequest struct {
	SID      string `json:"sid" validate:"required,session_id"`
	Phase    string `json:"phase" validate:"required,oneof=start break end"`
	DeviceID string `json:"device_id" validate:"omitempty,max=120"`
}

type overrideCheckResponse struct {
	OK bool `json:"ok"`
}

// HandleCheck reports availability without side effects; the client uses it
// to decide whether to show the override option at all. The request is still
// logged so repeated probing shows up in review.
func (h *OverrideHandler) HandleCheck(w http.ResponseWriter, r *http.Request) {
	log := slogx.FromContext(r.Context())

	var req overrideCheckRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	log.Info("override availability check",
		"sid", req.SID,
		"phase", req.Phase,
		"device_id", req.DeviceID,
	)

	httpx.WriteJSON(w, http.StatusOK, overrideCheckResponse{
		OK: h.Overrides.Available(),
	})
}

type overrideCompleteRequest struct {
	SID           string `json:"sid" validate:"required,session_id"`
	Phase         string `json:"phase" validate:"required,oneof=start break end"`
	Module        string `json:"module" validate:"omitempty,max=120"`
	Group         string `json:"group" validate:"omitempty,max=120"`
	DeviceID      string `json:"device_id" validate:"omitempty,max=120"`
	PageSessionID string `json:"page_session_id" validate:"required,max=120"`
	TeacherSecret string `json:"teacher_secret" validate:"required,max=256"`
}

// HandleComplete checks the teacher secret and, on success, mints a
// verification token with the override registered against it. The student
// then finishes through the normal check-in endpoint, which writes the audit
// line when the override is consumed.
func (h *OverrideHandler) HandleComplete(w http.ResponseWriter, r *http.Request) {
	log := slogx.FromContext(r.Context())

	var req overrideCompleteRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if !h.Overrides.Available() {
		httpx.WriteError(w, http.StatusServiceUnavailable,
			"override_unavailable", "Manual override is not configured")
		return
	}

	if !h.Overrides.VerifySecret(req.TeacherSecret) {
		log.Warn("override secret rejected",
			"sid", req.SID,
			"phase", req.Phase,
			"device_id", req.DeviceID,
		)
		httpx.WriteError(w, http.StatusUnauthorized,
			"invalid_secret", "Teacher secret not accepted")
		return
	}

	// The override flow involves two people at one machine, so it gets the
	// longer token TTL.
	key := connectionKey(r, req.SID, req.Phase, req.PageSessionID)
	id, err := h.Verifications.Issue(key, service.ChallengeFlowVerificationTTL)
	if err != nil {
		log.Error("failed to issue verification token", "sid", req.SID, "err", err)
		httpx.WriteError(w, http.StatusInternalServerError,
			"server_error", "Failed to issue verification token")
		return
	}

	overrideID := h.Overrides.Register(id, domain.OverrideMeta{
		SID:      req.SID,
		Phase:    domain.Phase(req.Phase),
		Module:   req.Module,
		Group:    req.Group,
		DeviceID: req.DeviceID,
	})

	log.Info("override approved",
		"override_id", overrideID,
		"sid", req.SID,
		"phase", req.Phase,
	)

	httpx.WriteJSON(w, http.StatusOK, verifyResponse{
		Verified:       true,
		VerificationID: id,
	})
}
