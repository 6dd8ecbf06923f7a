package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/rollcallhq/presence/internal/presence/domain"
	"github.com/rollcallhq/presence/internal/presence/service"
	"github.com/rollcallhq/presence/pkg/httpx"
	"github.com/rollcallhq/presence/pkg/slogx"
)

// CheckinHandler serves POST /api/v1/checkin
// The final step of every flow: spend the verification token and write the
// durable record.
type CheckinHandler struct {
	Checkins *service.CheckinService
}

type checkinRequest struct {
	SID            string `json:"sid" validate:"required,session_id"`
	Phase          string `json:"phase" validate:"required,oneof=start break end"`
	StudentID      string `json:"student_id" validate:"required,student_id"`
	VerificationID string `json:"verification_id" validate:"required,max=256"`
	PageSessionID  string `json:"page_session_id" validate:"required,max=120"`
	DeviceID       string `json:"device_id" validate:"omitempty,max=120"`
	Module         string `json:"module" validate:"omitempty,max=120"`
	Group          string `json:"group" validate:"omitempty,max=120"`
}

type checkinResponse struct {
	OK      bool   `json:"ok"`
	Error   string `json:"error,omitempty"`
	Warning string `json:"warning,omitempty"`
}

func (h *CheckinHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req checkinRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.Checkins.Submit(ctx, domain.CheckinRequest{
		SID:            req.SID,
		Phase:          domain.Phase(req.Phase),
		StudentID:      req.StudentID,
		VerificationID: req.VerificationID,
		ConnectionKey:  connectionKey(r, req.SID, req.Phase, req.PageSessionID),
		DeviceKey:      deviceKey(r, req.SID, req.Phase, req.DeviceID),
		IP:             httpx.IPKeyExtractor(r),
		UserAgent:      r.UserAgent(),
		DeviceID:       req.DeviceID,
		Module:         req.Module,
		Group:          req.Group,
	})
	if err != nil {
		var conflict *service.DeviceConflictError
		switch {
		case errors.Is(err, service.ErrVerificationRequired):
			httpx.WriteJSON(w, http.StatusBadRequest, checkinResponse{
				Error: "verification_required",
			})
		case errors.Is(err, service.ErrRateLimited):
			w.Header().Set("Retry-After",
				strconv.Itoa(int(h.Checkins.Gate.Window().Seconds())))
			httpx.WriteJSON(w, http.StatusTooManyRequests, checkinResponse{
				Error: "rate_limited",
			})
		case errors.As(err, &conflict):
			httpx.WriteJSON(w, http.StatusConflict, checkinResponse{
				Error: "device_conflict",
			})
		default:
			log.Error("check-in failed", "sid", req.SID, "err", err)
			httpx.WriteError(w, http.StatusInternalServerError,
				"server_error", "Failed to record check-in")
		}
		return
	}

	httpx.WriteJSON(w, http.StatusOK, checkinResponse{
		OK:      true,
		Warning: result.Warning,
	})
}
