package billing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	_ "github.com/fiberdesk/fiberdesk/testing"
)

func d(v string) decimal.Decimal { return decimal.RequireFromString(v) }

func TestApplyPaymentNeverOverApplies(t *testing.T) {
	total := d("100.00")

	paid, status, err := applyPayment(total, d("0"), StatusPending, d("60"))
	require.NoError(t, err)
	require.True(t, paid.Equal(d("60")))
	require.Equal(t, StatusPending, status)

	paid, status, err = applyPayment(total, paid, status, d("40"))
	require.NoError(t, err)
	require.True(t, paid.Equal(total))
	require.Equal(t, StatusPaid, status)

	_, _, err = applyPayment(total, paid, status, d("0.01"))
	require.ErrorIs(t, err, ErrOverApplication)
}

func TestApplyPaymentSequenceBoundedByTotal(t *testing.T) {
	total := d("250.00")
	paid := decimal.Zero
	status := StatusPending
	for _, amount := range []string{"75.25", "75.25", "75.25", "75.25"} {
		newPaid, newStatus, err := applyPayment(total, paid, status, d(amount))
		if err != nil {
			require.ErrorIs(t, err, ErrOverApplication)
			continue
		}
		paid, status = newPaid, newStatus
	}
	require.True(t, paid.LessThanOrEqual(total), "paid %s exceeds total %s", paid, total)
}

func TestApplyPaymentRejectsCancelledInvoice(t *testing.T) {
	_, _, err := applyPayment(d("100"), d("0"), StatusCancelled, d("10"))
	require.ErrorIs(t, err, ErrInvoiceCancelled)
}

func TestApplyAdjustmentCreditCannotGoBelowPaid(t *testing.T) {
	_, _, err := applyAdjustment(d("100"), d("80"), StatusPending, AdjustmentCredit, d("30"))
	require.ErrorIs(t, err, ErrOverApplication)

	total, status, err := applyAdjustment(d("100"), d("80"), StatusPending, AdjustmentCredit, d("20"))
	require.NoError(t, err)
	require.True(t, total.Equal(d("80")))
	require.Equal(t, StatusPaid, status)
}

func TestApplyAdjustmentDebitReopensPaidInvoice(t *testing.T) {
	total, status, err := applyAdjustment(d("100"), d("100"), StatusPaid, AdjustmentDebit, d("25"))
	require.NoError(t, err)
	require.True(t, total.Equal(d("125")))
	require.Equal(t, StatusPending, status)
}

func TestOutstanding(t *testing.T) {
	inv := Invoice{Total: d("150.50"), PaidAmount: d("50.25")}
	require.True(t, inv.Outstanding().Equal(d("100.25")))
}
