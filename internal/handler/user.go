package handler

import (
	"errors"
	"log"
	"net/http"

	"finance-tracker/internal/catalog"
	"finance-tracker/internal/ledger"
	"finance-tracker/internal/middleware"
	"finance-tracker/internal/util"

	"github.com/gin-gonic/gin"
)

// GetMe returns the logged in account (requires AuthMiddleware).
func GetMe(c *gin.Context) {
	acc := middleware.CurrentAccount(c)
	if acc == nil {
		util.Error(c, http.StatusUnauthorized, util.CodeAuth, "not logged in")
		return
	}

	util.Success(c, util.Response{
		"user": gin.H{
			"id":         acc.ID,
			"username":   acc.Username,
			"is_admin":   acc.IsAdmin,
			"created_at": acc.CreatedAt,
		},
	})
}

// ListCategories returns the fixed category table.
func ListCategories(c *gin.Context) {
	util.Success(c, util.Response{
		"categories": catalog.All(),
	})
}

// ownerOf is the owner recorded on new rows: the caller in multi-user mode,
// nobody in single-user mode.
func ownerOf(c *gin.Context) *uint {
	acc := middleware.CurrentAccount(c)
	if acc == nil {
		return nil
	}
	id := acc.ID
	return &id
}

// readScope limits reads and deletes to the caller's rows. Admins and the
// single-user mode see everything.
func readScope(c *gin.Context) *uint {
	acc := middleware.CurrentAccount(c)
	if acc == nil || acc.IsAdmin {
		return nil
	}
	id := acc.ID
	return &id
}

func writeLedgerError(c *gin.Context, err error, msg string) {
	switch {
	case ledger.IsValidation(err):
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, err.Error())
	case errors.Is(err, ledger.ErrAccessDenied):
		util.Error(c, http.StatusUnauthorized, util.CodeAuth, "access denied")
	default:
		log.Printf("[api] %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, msg)
	}
}

func syncView(r *ledger.SyncReport) gin.H {
	switch {
	case r == nil:
		return gin.H{"ok": false}
	case r.Skipped():
		return gin.H{"ok": false, "skipped": true}
	case r.Err != nil:
		return gin.H{"ok": false, "warning": r.Message()}
	}
	return gin.H{
		"ok":       true,
		"revision": r.Result.Revision,
		"created":  r.Result.Created,
	}
}
