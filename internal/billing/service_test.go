package billing

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/fiberdesk/fiberdesk/internal/shared"
	_ "github.com/fiberdesk/fiberdesk/testing"
)

type mockRepo struct {
	invoices    map[int64]*Invoice
	payments    []Payment
	adjustments []Adjustment
	configs     map[int64]BillingConfig
	nextID      int64
	seq         int64
}

func newMockRepo() *mockRepo {
	return &mockRepo{invoices: map[int64]*Invoice{}, configs: map[int64]BillingConfig{}}
}

func (m *mockRepo) CreateInvoice(ctx context.Context, number string, input CreateInvoiceInput, subtotal, tax, total decimal.Decimal) (*Invoice, error) {
	m.nextID++
	inv := &Invoice{
		ID: m.nextID, Number: number, CustomerID: input.CustomerID,
		Subtotal: subtotal, TaxAmount: tax, Discount: input.Discount, Total: total,
		PaidAmount: decimal.Zero, Status: StatusPending,
		IssueDate: input.IssueDate, DueDate: input.DueDate,
	}
	m.invoices[inv.ID] = inv
	return inv, nil
}

func (m *mockRepo) GetInvoice(ctx context.Context, id int64) (*Invoice, error) {
	inv, ok := m.invoices[id]
	if !ok {
		return nil, ErrNotFound
	}
	return inv, nil
}

func (m *mockRepo) ListInvoices(ctx context.Context, filter InvoiceFilter) ([]Invoice, error) {
	out := make([]Invoice, 0)
	for _, inv := range m.invoices {
		out = append(out, *inv)
	}
	return out, nil
}

func (m *mockRepo) ApplyPayment(ctx context.Context, input CreatePaymentInput) (*Payment, error) {
	if input.InvoiceID != nil {
		inv, ok := m.invoices[*input.InvoiceID]
		if !ok {
			return nil, ErrNotFound
		}
		paid, status, err := applyPayment(inv.Total, inv.PaidAmount, inv.Status, input.Amount)
		if err != nil {
			return nil, err
		}
		inv.PaidAmount, inv.Status = paid, status
	}
	m.nextID++
	p := Payment{ID: m.nextID, Reference: input.Reference, CustomerID: &input.CustomerID,
		InvoiceID: input.InvoiceID, Amount: input.Amount, Method: input.Method, Status: "completed", PaidAt: input.PaidAt}
	m.payments = append(m.payments, p)
	return &p, nil
}

func (m *mockRepo) ApplyAdjustment(ctx context.Context, input CreateAdjustmentInput) (*Adjustment, error) {
	if input.InvoiceID != nil {
		inv, ok := m.invoices[*input.InvoiceID]
		if !ok {
			return nil, ErrNotFound
		}
		total, status, err := applyAdjustment(inv.Total, inv.PaidAmount, inv.Status, input.Type, input.Amount)
		if err != nil {
			return nil, err
		}
		inv.Total, inv.Status = total, status
	}
	m.nextID++
	a := Adjustment{ID: m.nextID, CustomerID: input.CustomerID, InvoiceID: input.InvoiceID,
		Type: input.Type, Amount: input.Amount, Reason: input.Reason}
	m.adjustments = append(m.adjustments, a)
	return &a, nil
}

func (m *mockRepo) ListPayments(ctx context.Context, customerID int64) ([]Payment, error) {
	return m.payments, nil
}

func (m *mockRepo) SaveBillingConfig(ctx context.Context, cfg BillingConfig) (*BillingConfig, error) {
	m.configs[cfg.CustomerID] = cfg
	return &cfg, nil
}

func (m *mockRepo) GetBillingConfig(ctx context.Context, customerID int64) (*BillingConfig, error) {
	cfg, ok := m.configs[customerID]
	if !ok {
		return nil, ErrNotFound
	}
	return &cfg, nil
}

func (m *mockRepo) NextInvoiceNumber(ctx context.Context) (string, error) {
	m.seq++
	return fmt.Sprintf("INV-TEST-%05d", m.seq), nil
}

type mockIdempotency struct {
	seen map[string]int64
}

func newMockIdempotency() *mockIdempotency { return &mockIdempotency{seen: map[string]int64{}} }

func (m *mockIdempotency) CheckAndInsert(ctx context.Context, key, module string) error {
	if _, ok := m.seen[key]; ok {
		return shared.ErrIdempotencyConflict
	}
	m.seen[key] = 0
	return nil
}

func (m *mockIdempotency) Complete(ctx context.Context, key string, entityID int64) error {
	m.seen[key] = entityID
	return nil
}

func (m *mockIdempotency) Delete(ctx context.Context, key string) error {
	delete(m.seen, key)
	return nil
}

func newTestService(repo *mockRepo) *Service {
	return NewService(repo, newMockIdempotency(), nil, nil)
}

type mockInvalidator struct {
	calls int
}

func (m *mockInvalidator) Invalidate(ctx context.Context) error {
	m.calls++
	return nil
}

func TestCreateInvoiceComputesTotals(t *testing.T) {
	svc := newTestService(newMockRepo())
	inv, err := svc.CreateInvoice(context.Background(), CreateInvoiceInput{
		CustomerID: 7,
		TaxRate:    d("16"),
		Discount:   d("10"),
		Lines: []CreateLineInput{
			{Description: "Fibre 20Mbps monthly", Quantity: d("1"), UnitPrice: d("2500")},
			{Description: "Static IP", Quantity: d("2"), UnitPrice: d("250")},
		},
	})
	require.NoError(t, err)
	require.True(t, inv.Subtotal.Equal(d("3000")))
	// (3000 - 10) * 16% = 478.40
	require.True(t, inv.TaxAmount.Equal(d("478.40")), "tax was %s", inv.TaxAmount)
	require.True(t, inv.Total.Equal(d("3468.40")), "total was %s", inv.Total)
	require.Equal(t, StatusPending, inv.Status)
}

func TestCreateInvoiceNumbersNeverRepeat(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo)
	seen := map[string]bool{}
	for i := 0; i < 3; i++ {
		inv, err := svc.CreateInvoice(context.Background(), CreateInvoiceInput{
			CustomerID: 7,
			Lines:      []CreateLineInput{{Description: "Monthly plan", Quantity: d("1"), UnitPrice: d("2500")}},
		})
		require.NoError(t, err)
		require.False(t, seen[inv.Number], "number %s issued twice", inv.Number)
		seen[inv.Number] = true
	}
}

func TestCreateInvoiceRejectsEmptyLines(t *testing.T) {
	svc := newTestService(newMockRepo())
	_, err := svc.CreateInvoice(context.Background(), CreateInvoiceInput{CustomerID: 7})
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestRecordPaymentRejectsUnknownMethod(t *testing.T) {
	svc := newTestService(newMockRepo())
	_, err := svc.RecordPayment(context.Background(), "key-m1", CreatePaymentInput{
		CustomerID: 7, Amount: d("100"), Method: "barter",
	})
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestRecordPaymentRequiresIdempotencyKey(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo)
	_, err := svc.RecordPayment(context.Background(), "", CreatePaymentInput{
		CustomerID: 7, Amount: d("100"), Method: "cash",
	})
	require.ErrorIs(t, err, shared.ErrValidation)
	require.Empty(t, repo.payments)
}

func TestRecordPaymentReplayedKeyConflicts(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo)
	input := CreatePaymentInput{CustomerID: 7, Amount: d("100"), Method: "mpesa"}

	_, err := svc.RecordPayment(context.Background(), "key-1", input)
	require.NoError(t, err)

	_, err = svc.RecordPayment(context.Background(), "key-1", input)
	require.ErrorIs(t, err, shared.ErrConflict)
	require.Len(t, repo.payments, 1)
}

func TestRecordPaymentOverApplicationConflicts(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo)
	inv, err := svc.CreateInvoice(context.Background(), CreateInvoiceInput{
		CustomerID: 7,
		Lines:      []CreateLineInput{{Description: "Install fee", Quantity: d("1"), UnitPrice: d("100")}},
	})
	require.NoError(t, err)

	_, err = svc.RecordPayment(context.Background(), "key-a1", CreatePaymentInput{
		CustomerID: 7, InvoiceID: &inv.ID, Amount: d("60"), Method: "cash",
	})
	require.NoError(t, err)

	_, err = svc.RecordPayment(context.Background(), "key-a2", CreatePaymentInput{
		CustomerID: 7, InvoiceID: &inv.ID, Amount: d("60"), Method: "cash",
	})
	require.ErrorIs(t, err, shared.ErrConflict)

	got, err := svc.GetInvoice(context.Background(), inv.ID)
	require.NoError(t, err)
	require.True(t, got.PaidAmount.Equal(d("60")))
	require.Equal(t, StatusPending, got.Status)
}

func TestRecordPaymentSettlesInvoice(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo)
	inv, err := svc.CreateInvoice(context.Background(), CreateInvoiceInput{
		CustomerID: 7,
		Lines:      []CreateLineInput{{Description: "Install fee", Quantity: d("1"), UnitPrice: d("100")}},
	})
	require.NoError(t, err)

	_, err = svc.RecordPayment(context.Background(), "key-s1", CreatePaymentInput{
		CustomerID: 7, InvoiceID: &inv.ID, Amount: d("100"), Method: "bank", PaidAt: time.Now(),
	})
	require.NoError(t, err)

	got, err := svc.GetInvoice(context.Background(), inv.ID)
	require.NoError(t, err)
	require.Equal(t, StatusPaid, got.Status)
	require.True(t, got.Outstanding().IsZero())
}

func TestRecordAdjustmentRequiresReason(t *testing.T) {
	svc := newTestService(newMockRepo())
	_, err := svc.RecordAdjustment(context.Background(), "key-j1", CreateAdjustmentInput{
		CustomerID: 7, Type: AdjustmentCredit, Amount: d("50"),
	})
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestRecordAdjustmentDedupesByKey(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo)
	input := CreateAdjustmentInput{
		CustomerID: 7, Type: AdjustmentCredit, Amount: d("50"), Reason: "double-billed install", CreatedBy: 1,
	}

	_, err := svc.RecordAdjustment(context.Background(), "", input)
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.RecordAdjustment(context.Background(), "key-j2", input)
	require.NoError(t, err)

	_, err = svc.RecordAdjustment(context.Background(), "key-j2", input)
	require.ErrorIs(t, err, shared.ErrConflict)
	require.Len(t, repo.adjustments, 1)
}

func TestMoneyMovesDropCachedReports(t *testing.T) {
	repo := newMockRepo()
	inv := &mockInvalidator{}
	svc := NewService(repo, newMockIdempotency(), nil, inv)

	_, err := svc.RecordPayment(context.Background(), "key-r1", CreatePaymentInput{
		CustomerID: 7, Amount: d("100"), Method: "mpesa",
	})
	require.NoError(t, err)
	require.Equal(t, 1, inv.calls)

	_, err = svc.RecordAdjustment(context.Background(), "key-r2", CreateAdjustmentInput{
		CustomerID: 7, Type: AdjustmentDebit, Amount: d("20"), Reason: "router damage", CreatedBy: 1,
	})
	require.NoError(t, err)
	require.Equal(t, 2, inv.calls)
}

func TestUpdateBillingConfigValidatesDay(t *testing.T) {
	svc := newTestService(newMockRepo())
	_, err := svc.UpdateBillingConfig(context.Background(), BillingConfig{CustomerID: 7, BillingDay: 31})
	require.ErrorIs(t, err, shared.ErrValidation)

	cfg, err := svc.UpdateBillingConfig(context.Background(), BillingConfig{CustomerID: 7, BillingDay: 5, GraceDays: 3})
	require.NoError(t, err)
	require.Equal(t, "monthly", cfg.BillingCycle)
}
