package middleware

import (
	"errors"
	"net/http"
	"strings"

	"finance-tracker/internal/ledger"
	"finance-tracker/internal/models"
	"finance-tracker/internal/util"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// CurrentAccountKey holds the *models.Account of an authenticated request.
const CurrentAccountKey = "currentAccount"

// AuthMiddleware verifies the JWT and puts the current account in the
// context. Only mounted in multi-user mode.
func AuthMiddleware(jwtSecret string, store *ledger.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		var tokenStr string

		// Authorization: Bearer xxx
		if authHeader := c.GetHeader("Authorization"); authHeader != "" {
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
				tokenStr = parts[1]
			}
		}

		// ?token=xxx for downloads where headers cannot be set
		if tokenStr == "" {
			tokenStr = c.Query("token")
		}

		if tokenStr == "" {
			util.Error(c, http.StatusUnauthorized, util.CodeAuth, "not logged in")
			c.Abort()
			return
		}

		claims, err := util.ParseToken(jwtSecret, tokenStr)
		if err != nil {
			util.Error(c, http.StatusUnauthorized, util.CodeAuth, "session expired, please log in again")
			c.Abort()
			return
		}

		acc, err := store.Account(c.Request.Context(), claims.AccountID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				util.Error(c, http.StatusUnauthorized, util.CodeAuth, "account not found")
			} else {
				util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to load account")
			}
			c.Abort()
			return
		}

		c.Set(CurrentAccountKey, acc)
		c.Next()
	}
}

// CurrentAccount returns the authenticated account, or nil in single-user
// mode.
func CurrentAccount(c *gin.Context) *models.Account {
	v, ok := c.Get(CurrentAccountKey)
	if !ok {
		return nil
	}
	acc, _ := v.(*models.Account)
	return acc
}
