package http

import (
	"net/http"
	"time"

	"github.com/rollcallhq/presence/internal/presence/service"
	"github.com/rollcallhq/presence/pkg/httpx"
)

// TimeHandler serves GET /api/v1/time
// Display clients poll it to align their clock and salt with the server;
// submitted codes are always judged against server time regardless.
type TimeHandler struct {
	Salts *service.SaltRotator
}

type timeResponse struct {
	NowMS          int64 `json:"now_ms"`
	Salt           int   `json:"salt"`
	SaltExpiresMS  int64 `json:"salt_expires_ms"`
	RotationMS     int64 `json:"rotation_ms"`
	AcceptWindowMS int64 `json:"accept_window_ms"`
}

func (h *TimeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	pair := h.Salts.Snapshot()

	httpx.WriteJSON(w, http.StatusOK, timeResponse{
		NowMS:          time.Now().UnixMilli(),
		Salt:           pair.Current.Value,
		SaltExpiresMS:  pair.Current.ExpiresAt.UnixMilli(),
		RotationMS:     pair.Rotation.Milliseconds(),
		AcceptWindowMS: pair.AcceptWindow.Milliseconds(),
	})
}
