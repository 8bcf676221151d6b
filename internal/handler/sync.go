package handler

import (
	"net/http"

	"finance-tracker/internal/ledger"
	"finance-tracker/internal/util"

	"github.com/gin-gonic/gin"
)

// SyncHandler triggers a manual push of the backing file.
type SyncHandler struct {
	Service *ledger.Service
}

func NewSyncHandler(svc *ledger.Service) *SyncHandler {
	return &SyncHandler{Service: svc}
}

// Sync pushes now. A failed or disabled sync is still a 200 with the
// outcome in "sync", matching the mutation endpoints.
func (h *SyncHandler) Sync(c *gin.Context) {
	report := h.Service.Sync(c.Request.Context())
	util.Success(c, util.Response{
		"sync": syncView(report),
	})
}

// Health answers liveness probes and checks the database connection.
func Health(store *ledger.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := store.Ping(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
