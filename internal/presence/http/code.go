package http

import (
	"net/http"
	"time"

	"github.com/rollcallhq/presence/internal/presence/service"
	"github.com/rollcallhq/presence/pkg/httpx"
	"github.com/rollcallhq/presence/pkg/slogx"
)

// CodeHandler serves POST /api/v1/validate-code
// The temporal-code flow: a submitted MM:SS:DD code is judged against server
// time and the live salt pair, and a passing code is traded for a
// verification token.
type CodeHandler struct {
	Codes         *service.CodeService
	Verifications *service.VerificationService

	// DebugExpected exposes the currently-valid code set on rejection.
	// Only ever enabled outside production.
	DebugExpected bool
}

type validateCodeRequest struct {
	SID           string `json:"sid" validate:"required,session_id"`
	Phase         string `json:"phase" validate:"required,oneof=start break end"`
	Code          string `json:"code" validate:"required,proof_code"`
	PageSessionID string `json:"page_session_id" validate:"required,max=120"`
}

type validateCodeResponse struct {
	Verified       bool     `json:"verified"`
	VerificationID string   `json:"verification_id,omitempty"`
	Error          string   `json:"error,omitempty"`
	Reason         string   `json:"reason,omitempty"`
	ExpectedCodes  []string `json:"expected_codes,omitempty"`
}

func (h *CodeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	log := slogx.FromContext(r.Context())

	var req validateCodeRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result := h.Codes.Validate(req.Code, time.Now())
	if !result.OK {
		response := validateCodeResponse{
			Verified: false,
			Error:    "code_mismatch",
			Reason:   string(result.Reason),
		}
		if h.DebugExpected {
			response.ExpectedCodes = result.Expected
		}
		httpx.WriteJSON(w, http.StatusBadRequest, response)
		return
	}

	key := connectionKey(r, req.SID, req.Phase, req.PageSessionID)
	id, err := h.Verifications.Issue(key, 0)
	if err != nil {
		log.Error("failed to issue verification token", "sid", req.SID, "err", err)
		httpx.WriteError(w, http.StatusInternalServerError,
			"server_error", "Failed to issue verification token")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, validateCodeResponse{
		Verified:       true,
		VerificationID: id,
	})
}
