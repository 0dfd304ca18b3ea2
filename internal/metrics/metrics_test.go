package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/mmeshcher/points-wallet/internal/model"
)

func TestObserveTransfer(t *testing.T) {
	before := testutil.ToFloat64(transferredPoints)
	failedBefore := testutil.ToFloat64(transfersTotal.WithLabelValues("failed", "insufficient_balance"))

	ObserveTransfer(model.TransactionStatusSuccess, model.FailureNone, 200)
	ObserveTransfer(model.TransactionStatusFailed, model.FailureInsufficientBalance, 50)

	assert.Equal(t, before+200, testutil.ToFloat64(transferredPoints))
	assert.Equal(t, failedBefore+1, testutil.ToFloat64(transfersTotal.WithLabelValues("failed", "insufficient_balance")))
}

func TestObserveAdjustment(t *testing.T) {
	debit := testutil.ToFloat64(balanceAdjustments.WithLabelValues("debit"))

	ObserveAdjustment(-30)

	assert.Equal(t, debit+1, testutil.ToFloat64(balanceAdjustments.WithLabelValues("debit")))
}
