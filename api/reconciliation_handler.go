package api

import (
	"net/http"

	"challenger/service"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

type ReconciliationHandler struct {
	reconciliation service.ReconciliationService
}

func NewReconciliationHandler(reconciliation service.ReconciliationService) *ReconciliationHandler {
	return &ReconciliationHandler{reconciliation: reconciliation}
}

// Analyze is a dry run
func (h *ReconciliationHandler) Analyze(c *gin.Context) {
	report, err := h.reconciliation.AnalyzeDuplicates(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *ReconciliationHandler) Fix(c *gin.Context) {
	report, err := h.reconciliation.FixDuplicates(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	log.WithFields(log.Fields{
		"actor":             GetUserID(c),
		"accessVia":         c.GetString(ctxAccessVia),
		"duplicatesRemoved": report.DuplicatesRemoved,
		"amountRecovered":   report.AmountRecovered,
	}).Info("Duplicate payouts fixed via API")
	c.JSON(http.StatusOK, report)
}
