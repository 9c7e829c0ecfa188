package handles

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/vendo-org/vendo/internal/errs"
	"github.com/vendo-org/vendo/internal/registry"
	"github.com/vendo-org/vendo/internal/restore"
	"github.com/vendo-org/vendo/server/common"
)

type RestoreReq struct {
	Token    string `json:"token" binding:"required"`
	ClientID string `json:"client_id"`
}

type RestoreResp struct {
	Outcome          string `json:"outcome"`
	RemainingSeconds int64  `json:"remaining_seconds"`
	Paused           bool   `json:"paused"`
}

// Restore reattaches a client to its session after a reconnect. The status
// code carries the retry contract: 503 means the identity is temporarily
// unresolvable and the client must retry with backoff keeping its token; 404
// means the token maps to no live session and may be discarded.
func Restore(rst *restore.Restorer, reg *registry.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req RestoreReq
		if err := c.ShouldBindJSON(&req); err != nil {
			common.ErrorResp(c, err, http.StatusBadRequest)
			return
		}
		outcome, err := rst.Restore(req.Token, req.ClientID)
		if err != nil {
			switch {
			case errors.Is(err, errs.Unresolvable):
				c.Header("Retry-After", "2")
				common.ErrorResp(c, err, http.StatusServiceUnavailable)
			case errors.Is(err, errs.SessionNotFound):
				common.ErrorResp(c, err, http.StatusNotFound)
			case errors.Is(err, errs.ClientConflict):
				common.ErrorResp(c, err, http.StatusConflict)
			default:
				common.ErrorResp(c, err, http.StatusInternalServerError)
			}
			return
		}
		s, err := reg.Get(req.Token)
		if err != nil {
			common.ErrorResp(c, err, http.StatusNotFound)
			return
		}
		common.SuccessResp(c, RestoreResp{
			Outcome:          outcome.String(),
			RemainingSeconds: s.RemainingSeconds,
			Paused:           s.Paused,
		})
	}
}

type TokenReq struct {
	Token string `json:"token" binding:"required"`
}

func Pause(reg *registry.Registry) gin.HandlerFunc {
	return setPaused(reg, true)
}

func Resume(reg *registry.Registry) gin.HandlerFunc {
	return setPaused(reg, false)
}

func setPaused(reg *registry.Registry, paused bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req TokenReq
		if err := c.ShouldBindJSON(&req); err != nil {
			common.ErrorResp(c, err, http.StatusBadRequest)
			return
		}
		var err error
		if paused {
			err = reg.Pause(req.Token)
		} else {
			err = reg.Resume(req.Token)
		}
		if err != nil {
			switch {
			case errors.Is(err, errs.SessionNotFound):
				common.ErrorResp(c, err, http.StatusNotFound)
			case errors.Is(err, errs.NotPausable):
				common.ErrorResp(c, err, http.StatusForbidden)
			default:
				common.ErrorResp(c, err, http.StatusInternalServerError)
			}
			return
		}
		common.SuccessResp(c)
	}
}

type SessionResp struct {
	Token            string `json:"token,omitempty"`
	ClientID         string `json:"client_id"`
	SlotID           string `json:"slot_id"`
	RemainingSeconds int64  `json:"remaining_seconds"`
	AmountPaid       int    `json:"amount_paid"`
	Paused           bool   `json:"paused"`
	DownKbps         int    `json:"down_kbps"`
	UpKbps           int    `json:"up_kbps"`
	CreatedAt        int64  `json:"created_at"`
}

// SessionStatus reports the authoritative countdown for a token. Client-side
// countdown displays reconcile against this, never the other way around.
func SessionStatus(reg *registry.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Query("token")
		if token == "" {
			common.ErrorStrResp(c, "token required", http.StatusBadRequest)
			return
		}
		s, err := reg.Get(token)
		if err != nil {
			common.ErrorResp(c, err, http.StatusNotFound)
			return
		}
		common.SuccessResp(c, SessionResp{
			ClientID:         s.ClientID,
			SlotID:           s.SlotID,
			RemainingSeconds: s.RemainingSeconds,
			AmountPaid:       s.AmountPaid,
			Paused:           s.Paused,
			DownKbps:         s.DownKbps,
			UpKbps:           s.UpKbps,
			CreatedAt:        s.CreatedAt,
		})
	}
}

// ListSessions is the admin view of the active arena.
func ListSessions(reg *registry.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessions := reg.List()
		resp := make([]SessionResp, len(sessions))
		for i, s := range sessions {
			resp[i] = SessionResp{
				Token:            s.Token,
				ClientID:         s.ClientID,
				SlotID:           s.SlotID,
				RemainingSeconds: s.RemainingSeconds,
				AmountPaid:       s.AmountPaid,
				Paused:           s.Paused,
				DownKbps:         s.DownKbps,
				UpKbps:           s.UpKbps,
				CreatedAt:        s.CreatedAt,
			}
		}
		common.SuccessResp(c, resp)
	}
}

// EvictSession terminates a session before natural expiry.
func EvictSession(reg *registry.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req TokenReq
		if err := c.ShouldBindJSON(&req); err != nil {
			common.ErrorResp(c, err, http.StatusBadRequest)
			return
		}
		if err := reg.Terminate(req.Token); err != nil {
			common.ErrorResp(c, err, http.StatusNotFound)
			return
		}
		common.SuccessResp(c)
	}
}
