package service

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
)

// StartReconciliationWorker runs the duplicate payout auditor every interval.
// With autoFix set it deletes what it finds, otherwise it only reports.
// Returns a cleanup function to stop the worker gracefully.
func StartReconciliationWorker(ctx context.Context, svc ReconciliationService, interval time.Duration, autoFix bool) func() {
	stopChan := make(chan struct{})

	runAudit := func() {
		if autoFix {
			report, err := svc.FixDuplicates(ctx)
			if err != nil {
				log.WithError(err).Error("Scheduled duplicate payout fix failed")
				return
			}
			if report.DuplicatesFound > 0 {
				log.WithFields(log.Fields{
					"duplicatesRemoved": report.DuplicatesRemoved,
					"amountRecovered":   report.AmountRecovered,
					"errors":            len(report.Errors),
				}).Warn("Scheduled audit removed duplicate payouts")
			}
			return
		}

		report, err := svc.AnalyzeDuplicates(ctx)
		if err != nil {
			log.WithError(err).Error("Scheduled duplicate payout analysis failed")
			return
		}
		if report.DuplicatesFound > 0 {
			log.WithFields(log.Fields{
				"duplicatesFound":   report.DuplicatesFound,
				"amountRecoverable": report.AmountRecoverable,
				"affectedUsers":     report.AffectedUsers,
			}).Warn("Duplicate payouts detected; run `challenger audit fix` to remove them")
		}
	}

	go func() {
		log.WithField("interval", interval).Info("Reconciliation worker started")

		for {
			select {
			case <-ctx.Done():
				log.Info("Reconciliation worker shutting down (context cancelled)...")
				return
			case <-stopChan:
				log.Info("Reconciliation worker shutting down (stop requested)...")
				return
			case <-time.After(interval):
				runAudit()
			}
		}
	}()

	return func() {
		close(stopChan)
	}
}
