package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"finance-tracker/internal/ledger"
	"finance-tracker/internal/models"
	"finance-tracker/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// TransactionHandler serves the ledger endpoints.
type TransactionHandler struct {
	Service *ledger.Service
}

func NewTransactionHandler(svc *ledger.Service) *TransactionHandler {
	return &TransactionHandler{Service: svc}
}

// ---------- request/response ----------

type createTransactionReq struct {
	Date        string           `json:"date" binding:"required"` // YYYY-MM-DD
	Category    string           `json:"category" binding:"required,max=32"`
	Subcategory string           `json:"subcategory" binding:"required,max=64"`
	Amount      *decimal.Decimal `json:"amount" binding:"required"` // number or string
	Comment     string           `json:"comment" binding:"max=1024"`
}

type deleteTransactionsReq struct {
	IDs []uint `json:"ids" binding:"required"`
}

type transactionResp struct {
	ID          uint            `json:"id"`
	Date        string          `json:"date"`
	Category    string          `json:"category"`
	Subcategory string          `json:"subcategory"`
	Amount      decimal.Decimal `json:"amount"`
	Comment     string          `json:"comment"`
	CreatedAt   time.Time       `json:"created_at"`
}

func toTransactionResp(t *models.Transaction) transactionResp {
	return transactionResp{
		ID:          t.ID,
		Date:        t.Date.UTC().Format(util.DateLayout),
		Category:    t.Category,
		Subcategory: t.Subcategory,
		Amount:      t.Amount,
		Comment:     t.Comment,
		CreatedAt:   t.CreatedAt,
	}
}

// yearParam reads ?year=. Missing means def; anything else must be a
// four digit year.
func yearParam(c *gin.Context, def int) (int, error) {
	s := strings.TrimSpace(c.Query("year"))
	if s == "" {
		return def, nil
	}
	y, err := strconv.Atoi(s)
	if err != nil || y < 1000 || y > 9999 {
		return 0, fmt.Errorf("invalid year %q", s)
	}
	return y, nil
}

// ---------- add ----------

func (h *TransactionHandler) Create(c *gin.Context) {
	var req createTransactionReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid parameters")
		return
	}

	date, err := util.ParseDate(strings.TrimSpace(req.Date))
	if err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, err.Error())
		return
	}

	tx, report, err := h.Service.AddTransaction(c.Request.Context(), ledger.NewTransaction{
		Owner:       ownerOf(c),
		Date:        date,
		Category:    strings.TrimSpace(req.Category),
		Subcategory: strings.TrimSpace(req.Subcategory),
		Amount:      *req.Amount,
		Comment:     req.Comment,
	})
	if err != nil {
		writeLedgerError(c, err, "failed to save transaction")
		return
	}

	util.Success(c, util.Response{
		"transaction": toTransactionResp(tx),
		"sync":        syncView(report),
	})
}

// ---------- list ----------

func (h *TransactionHandler) List(c *gin.Context) {
	year, err := yearParam(c, 0)
	if err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, err.Error())
		return
	}

	rows, err := h.Service.Store().QueryTransactions(c.Request.Context(), ledger.Query{
		Owner: readScope(c),
		Year:  year,
	})
	if err != nil {
		writeLedgerError(c, err, "failed to query transactions")
		return
	}

	items := make([]transactionResp, 0, len(rows))
	for i := range rows {
		items = append(items, toTransactionResp(&rows[i]))
	}

	util.Success(c, util.Response{
		"items": items,
		"total": len(items),
	})
}

// ---------- delete ----------

func (h *TransactionHandler) Delete(c *gin.Context) {
	var req deleteTransactionsReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid parameters")
		return
	}

	n, report, err := h.Service.DeleteTransactions(c.Request.Context(), req.IDs, readScope(c), ownerOf(c))
	if err != nil {
		writeLedgerError(c, err, "failed to delete transactions")
		return
	}

	util.Success(c, util.Response{
		"deleted": n,
		"sync":    syncView(report),
	})
}

// ---------- summary ----------

// InvestmentSummary returns per-subcategory investment totals for a year,
// the current year by default.
func (h *TransactionHandler) InvestmentSummary(c *gin.Context) {
	year, err := yearParam(c, time.Now().Year())
	if err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, err.Error())
		return
	}

	totals, err := h.Service.Store().InvestmentSummary(c.Request.Context(), ledger.Query{
		Owner: readScope(c),
		Year:  year,
	})
	if err != nil {
		writeLedgerError(c, err, "failed to compute summary")
		return
	}

	util.Success(c, util.Response{
		"year":   year,
		"totals": totals,
	})
}
