package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"finance-tracker/internal/ledger"
	"finance-tracker/internal/util"

	"github.com/gin-gonic/gin"
)

// AuthHandler serves register and login in multi-user mode.
type AuthHandler struct {
	Service   *ledger.Service
	JWTSecret string
	Issuer    string
	TokenTTL  time.Duration
}

func NewAuthHandler(svc *ledger.Service, jwtSecret, issuer string, ttlHours int) *AuthHandler {
	if ttlHours <= 0 {
		ttlHours = 24
	}
	return &AuthHandler{
		Service:   svc,
		JWTSecret: jwtSecret,
		Issuer:    issuer,
		TokenTTL:  time.Duration(ttlHours) * time.Hour,
	}
}

// ---------- register ----------

type registerReq struct {
	Username        string `json:"username" binding:"required"`
	Password        string `json:"password" binding:"required"`
	ConfirmPassword string `json:"confirm_password" binding:"required"`
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req registerReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid parameters")
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	if err := util.ValidateUsername(req.Username); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, err.Error())
		return
	}
	if err := util.ValidatePassword(req.Password); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, err.Error())
		return
	}
	if req.Password != req.ConfirmPassword {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "passwords do not match")
		return
	}

	acc, report, err := h.Service.RegisterAccount(c.Request.Context(), req.Username, req.Password, false)
	if err != nil {
		writeLedgerError(c, err, "failed to create account")
		return
	}

	util.Success(c, util.Response{
		"user": gin.H{
			"id":       acc.ID,
			"username": acc.Username,
		},
		"sync": syncView(report),
	})
}

// ---------- login ----------

type loginReq struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req loginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid parameters")
		return
	}

	acc, err := h.Service.Store().Authenticate(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, ledger.ErrAccessDenied) {
			util.Error(c, http.StatusUnauthorized, util.CodeAuth, "invalid username or password")
		} else {
			writeLedgerError(c, err, "failed to query account")
		}
		return
	}

	token, err := util.GenerateToken(h.JWTSecret, h.Issuer, acc.ID, acc.IsAdmin, h.TokenTTL)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to issue token")
		return
	}

	util.Success(c, util.Response{
		"token": token,
		"user": gin.H{
			"id":       acc.ID,
			"username": acc.Username,
			"is_admin": acc.IsAdmin,
		},
	})
}
