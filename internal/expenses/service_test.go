package expenses

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/fiberdesk/fiberdesk/internal/shared"
	_ "github.com/fiberdesk/fiberdesk/testing"
)

type mockRepo struct {
	categories       []Category
	expenses         map[int64]*Expense
	supplierInvoices map[int64]*SupplierInvoice
	nextID           int64
}

func newMockRepo() *mockRepo {
	return &mockRepo{expenses: map[int64]*Expense{}, supplierInvoices: map[int64]*SupplierInvoice{}}
}

func (m *mockRepo) ListCategories(ctx context.Context) ([]Category, error) {
	return m.categories, nil
}

func (m *mockRepo) CreateCategory(ctx context.Context, name, description string) (*Category, error) {
	m.nextID++
	c := Category{ID: m.nextID, Name: name, Description: description}
	m.categories = append(m.categories, c)
	return &c, nil
}

func (m *mockRepo) CreateExpense(ctx context.Context, input CreateExpenseInput) (*Expense, error) {
	m.nextID++
	e := &Expense{
		ID: m.nextID, CategoryID: input.CategoryID, Vendor: input.Vendor,
		Description: input.Description, Amount: input.Amount, ExpenseDate: input.ExpenseDate,
		PaymentMethod: input.PaymentMethod, Status: input.Status, ReceiptNo: input.ReceiptNo,
	}
	m.expenses[e.ID] = e
	return e, nil
}

func (m *mockRepo) GetExpense(ctx context.Context, id int64) (*Expense, error) {
	e, ok := m.expenses[id]
	if !ok {
		return nil, ErrNotFound
	}
	return e, nil
}

func (m *mockRepo) ListExpenses(ctx context.Context, filter ExpenseFilter) ([]Expense, error) {
	out := make([]Expense, 0)
	for _, e := range m.expenses {
		if filter.CategoryID > 0 && e.CategoryID != filter.CategoryID {
			continue
		}
		if !filter.From.IsZero() && e.ExpenseDate.Before(filter.From) {
			continue
		}
		if !filter.To.IsZero() && e.ExpenseDate.After(filter.To) {
			continue
		}
		out = append(out, *e)
	}
	return out, nil
}

func (m *mockRepo) UpdateExpense(ctx context.Context, id int64, input UpdateExpenseInput) (*Expense, error) {
	e, ok := m.expenses[id]
	if !ok {
		return nil, ErrNotFound
	}
	if input.Amount != nil {
		e.Amount = *input.Amount
	}
	if input.Status != nil {
		e.Status = *input.Status
	}
	if input.Description != nil {
		e.Description = *input.Description
	}
	return e, nil
}

func (m *mockRepo) DeleteExpense(ctx context.Context, id int64) error {
	if _, ok := m.expenses[id]; !ok {
		return ErrNotFound
	}
	delete(m.expenses, id)
	return nil
}

func (m *mockRepo) CreateSupplierInvoice(ctx context.Context, input CreateSupplierInvoiceInput) (*SupplierInvoice, error) {
	m.nextID++
	si := &SupplierInvoice{
		ID: m.nextID, Number: input.Number, Vendor: input.Vendor, Amount: input.Amount,
		PaidAmount: decimal.Zero, Status: "pending", IssueDate: input.IssueDate, DueDate: input.DueDate,
	}
	m.supplierInvoices[si.ID] = si
	return si, nil
}

func (m *mockRepo) ListSupplierInvoices(ctx context.Context, unpaidOnly bool) ([]SupplierInvoice, error) {
	out := make([]SupplierInvoice, 0)
	for _, si := range m.supplierInvoices {
		if unpaidOnly && si.Status != "pending" {
			continue
		}
		out = append(out, *si)
	}
	return out, nil
}

func (m *mockRepo) PaySupplierInvoice(ctx context.Context, id int64, amount decimal.Decimal, method string, paidAt time.Time) (*SupplierInvoice, error) {
	si, ok := m.supplierInvoices[id]
	if !ok {
		return nil, ErrNotFound
	}
	si.PaidAmount = si.PaidAmount.Add(amount)
	if si.PaidAmount.GreaterThanOrEqual(si.Amount) {
		si.Status = "paid"
	}
	return si, nil
}

func (m *mockRepo) Payables(ctx context.Context, asOf time.Time) (*PayablesSummary, error) {
	invoices, _ := m.ListSupplierInvoices(ctx, true)
	summary := &PayablesSummary{TotalOutstanding: decimal.Zero, Invoices: invoices}
	for _, si := range invoices {
		summary.TotalOutstanding = summary.TotalOutstanding.Add(si.Outstanding())
		if si.DueDate.Before(asOf) {
			summary.OverdueCount++
		}
	}
	return summary, nil
}

func d(v string) decimal.Decimal { return decimal.RequireFromString(v) }

func TestCreateExpenseRequiresCategoryAmountDescription(t *testing.T) {
	svc := NewService(newMockRepo(), nil, nil)

	_, err := svc.CreateExpense(context.Background(), CreateExpenseInput{
		Description: "Fuel for generator", Amount: d("4000"),
	})
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.CreateExpense(context.Background(), CreateExpenseInput{
		CategoryID: 1, Amount: d("4000"),
	})
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.CreateExpense(context.Background(), CreateExpenseInput{
		CategoryID: 1, Description: "Fuel for generator",
	})
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestCreateExpenseDefaultsToPaid(t *testing.T) {
	svc := NewService(newMockRepo(), nil, nil)
	exp, err := svc.CreateExpense(context.Background(), CreateExpenseInput{
		CategoryID: 1, Description: "Backhaul lease March", Amount: d("120000"),
	})
	require.NoError(t, err)
	require.Equal(t, StatusPaid, exp.Status)
	require.Equal(t, "bank", exp.PaymentMethod)
	require.False(t, exp.ExpenseDate.IsZero())
}

func TestCreateExpenseAcceptsApprovedStatus(t *testing.T) {
	svc := NewService(newMockRepo(), nil, nil)
	exp, err := svc.CreateExpense(context.Background(), CreateExpenseInput{
		CategoryID: 1, Description: "ONT batch pending signoff", Amount: d("980"), Status: StatusApproved,
	})
	require.NoError(t, err)
	require.Equal(t, StatusApproved, exp.Status)

	approved := StatusApproved
	upd, err := svc.UpdateExpense(context.Background(), exp.ID, UpdateExpenseInput{Status: &approved})
	require.NoError(t, err)
	require.Equal(t, StatusApproved, upd.Status)

	_, err = svc.ListExpenses(context.Background(), ExpenseFilter{Status: StatusApproved})
	require.NoError(t, err)

	_, err = svc.CreateExpense(context.Background(), CreateExpenseInput{
		CategoryID: 1, Description: "Bad status", Amount: d("10"), Status: "draft",
	})
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestListExpensesValidatesRange(t *testing.T) {
	svc := NewService(newMockRepo(), nil, nil)
	_, err := svc.ListExpenses(context.Background(), ExpenseFilter{
		From: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
	})
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestListExpensesFiltersByCategoryAndRange(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo, nil, nil)
	jan := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)
	mar := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)

	_, err := svc.CreateExpense(context.Background(), CreateExpenseInput{
		CategoryID: 1, Description: "Bandwidth January", Amount: d("90000"), ExpenseDate: jan,
	})
	require.NoError(t, err)
	_, err = svc.CreateExpense(context.Background(), CreateExpenseInput{
		CategoryID: 2, Description: "Fleet fuel March", Amount: d("15000"), ExpenseDate: mar,
	})
	require.NoError(t, err)

	got, err := svc.ListExpenses(context.Background(), ExpenseFilter{
		CategoryID: 1,
		From:       time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		To:         time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "Bandwidth January", got[0].Description)
}

func TestDeleteMissingExpenseNotFound(t *testing.T) {
	svc := NewService(newMockRepo(), nil, nil)
	err := svc.DeleteExpense(context.Background(), 99)
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestPayablesRollsUpOutstanding(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo, nil, nil)

	si1, err := svc.CreateSupplierInvoice(context.Background(), CreateSupplierInvoiceInput{
		Number: "SUP-001", Vendor: "Upstream Carrier", Amount: d("200000"),
		DueDate: time.Now().AddDate(0, 0, -5),
	})
	require.NoError(t, err)
	_, err = svc.CreateSupplierInvoice(context.Background(), CreateSupplierInvoiceInput{
		Number: "SUP-002", Vendor: "Tower Co", Amount: d("50000"),
		DueDate: time.Now().AddDate(0, 0, 10),
	})
	require.NoError(t, err)

	_, err = svc.PaySupplierInvoice(context.Background(), si1.ID, d("150000"), "bank", time.Now())
	require.NoError(t, err)

	summary, err := svc.Payables(context.Background())
	require.NoError(t, err)
	require.True(t, summary.TotalOutstanding.Equal(d("100000")), "outstanding was %s", summary.TotalOutstanding)
	require.Equal(t, 1, summary.OverdueCount)
}

type mockInvalidator struct {
	calls int
}

func (m *mockInvalidator) Invalidate(ctx context.Context) error {
	m.calls++
	return nil
}

func TestExpenseWritesDropCachedReports(t *testing.T) {
	inv := &mockInvalidator{}
	svc := NewService(newMockRepo(), nil, inv)

	exp, err := svc.CreateExpense(context.Background(), CreateExpenseInput{
		CategoryID: 1, Description: "Splice kit restock", Amount: d("3200"),
	})
	require.NoError(t, err)
	require.Equal(t, 1, inv.calls)

	desc := "Splice kit restock, two trays"
	_, err = svc.UpdateExpense(context.Background(), exp.ID, UpdateExpenseInput{Description: &desc})
	require.NoError(t, err)
	require.Equal(t, 2, inv.calls)

	require.NoError(t, svc.DeleteExpense(context.Background(), exp.ID))
	require.Equal(t, 3, inv.calls)
}
