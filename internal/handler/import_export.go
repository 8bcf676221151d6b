package handler

import (
	"bytes"
	"fmt"
	"net/http"

	"finance-tracker/internal/export"
	"finance-tracker/internal/ledger"
	"finance-tracker/internal/util"

	"github.com/gin-gonic/gin"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type ImportExportHandler struct {
	Store *ledger.Store
}

func NewImportExportHandler(store *ledger.Store) *ImportExportHandler {
	return &ImportExportHandler{Store: store}
}

func (h *ImportExportHandler) rows(c *gin.Context) ([]export.Row, string, bool) {
	year, err := yearParam(c, 0)
	if err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, err.Error())
		return nil, "", false
	}

	txs, err := h.Store.QueryTransactions(c.Request.Context(), ledger.Query{
		Owner: readScope(c),
		Year:  year,
	})
	if err != nil {
		writeLedgerError(c, err, "failed to query transactions")
		return nil, "", false
	}

	suffix := "all"
	if year != 0 {
		suffix = fmt.Sprint(year)
	}
	return export.RowsFrom(txs), "transactions_" + suffix, true
}

// ExportCSV downloads the selected rows as CSV.
func (h *ImportExportHandler) ExportCSV(c *gin.Context) {
	rows, name, ok := h.rows(c)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := export.WriteCSV(&buf, rows); err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to write csv")
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s.csv\"", name))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

// ExportXLSX downloads the selected rows as a workbook.
func (h *ImportExportHandler) ExportXLSX(c *gin.Context) {
	rows, name, ok := h.rows(c)
	if !ok {
		return
	}

	// buffer first so a failure can still be reported as JSON
	var buf bytes.Buffer
	if err := export.WriteXLSX(&buf, rows); err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to write workbook")
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s.xlsx\"", name))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}
