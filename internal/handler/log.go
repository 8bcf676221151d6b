package handler

import (
	"net/http"
	"strconv"

	"finance-tracker/internal/ledger"
	"finance-tracker/internal/util"

	"github.com/gin-gonic/gin"
)

// LogHandler serves the audit log.
type LogHandler struct {
	Store *ledger.Store
}

func NewLogHandler(store *ledger.Store) *LogHandler {
	return &LogHandler{Store: store}
}

// ListLogs returns the newest audit entries, the caller's own unless admin.
func (h *LogHandler) ListLogs(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))

	logs, err := h.Store.AuditLogs(c.Request.Context(), readScope(c), limit)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to query logs")
		return
	}

	util.Success(c, util.Response{
		"items": logs,
	})
}
