package tax

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
	records map[int64]*Record
	nextID  int64
}

func newMockRepo() *mockRepo { return &mockRepo{records: map[int64]*Record{}} }

func (m *mockRepo) deriveStatus(rec Record) Record {
	if rec.Status == StatusPending && rec.DueDate.Before(time.Now().Truncate(24*time.Hour)) {
		rec.Status = StatusOverdue
	}
	return rec
}

func (m *mockRepo) Create(ctx context.Context, input CreateRecordInput) (*Record, error) {
	m.nextID++
	rec := &Record{
		ID: m.nextID, TaxType: input.TaxType, Period: input.Period,
		AmountDue: input.AmountDue, Penalty: input.Penalty,
		DueDate: input.DueDate, Status: StatusPending,
	}
	m.records[rec.ID] = rec
	derived := m.deriveStatus(*rec)
	return &derived, nil
}

func (m *mockRepo) Get(ctx context.Context, id int64) (*Record, error) {
	rec, ok := m.records[id]
	if !ok {
		return nil, ErrNotFound
	}
	derived := m.deriveStatus(*rec)
	return &derived, nil
}

func (m *mockRepo) List(ctx context.Context, filter RecordFilter) ([]Record, error) {
	out := make([]Record, 0)
	for _, rec := range m.records {
		derived := m.deriveStatus(*rec)
		if filter.Status != "" && derived.Status != filter.Status {
			continue
		}
		if filter.TaxType != "" && derived.TaxType != filter.TaxType {
			continue
		}
		out = append(out, derived)
	}
	return out, nil
}

func (m *mockRepo) UpdateStatus(ctx context.Context, id int64, input UpdateStatusInput) (*Record, error) {
	rec, ok := m.records[id]
	if !ok {
		return nil, ErrNotFound
	}
	rec.Status = input.Status
	if input.FiledAt != nil {
		rec.FiledAt = input.FiledAt
	}
	if input.Penalty != nil {
		rec.Penalty = *input.Penalty
	}
	derived := m.deriveStatus(*rec)
	return &derived, nil
}

func (m *mockRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := m.records[id]; !ok {
		return ErrNotFound
	}
	delete(m.records, id)
	return nil
}

func (m *mockRepo) OpenObligations(ctx context.Context) ([]Record, error) {
	out := make([]Record, 0)
	for _, rec := range m.records {
		if rec.Status != StatusPending && rec.Status != StatusOverdue {
			continue
		}
		out = append(out, m.deriveStatus(*rec))
	}
	return out, nil
}

func (m *mockRepo) MarkOverdue(ctx context.Context) (int64, error) {
	var flagged int64
	today := time.Now().Truncate(24 * time.Hour)
	for _, rec := range m.records {
		if rec.Status == StatusPending && rec.DueDate.Before(today) {
			rec.Status = StatusOverdue
			flagged++
		}
	}
	return flagged, nil
}

func d(v string) decimal.Decimal { return decimal.RequireFromString(v) }

func future() time.Time { return time.Now().AddDate(0, 1, 0) }
func past() time.Time   { return time.Now().AddDate(0, -1, 0) }

func TestCreateRejectsUnknownTaxType(t *testing.T) {
	svc := NewService(newMockRepo(), nil)
	_, err := svc.Create(context.Background(), CreateRecordInput{
		TaxType: "tithe", Period: "2026-Q1", AmountDue: d("1000"), DueDate: future(),
	})
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestPendingPastDueReportsOverdue(t *testing.T) {
	svc := NewService(newMockRepo(), nil)
	rec, err := svc.Create(context.Background(), CreateRecordInput{
		TaxType: "vat", Period: "2026-01", AmountDue: d("54000"), DueDate: past(),
	})
	require.NoError(t, err)
	require.Equal(t, StatusOverdue, rec.Status)
}

func TestOverdueCannotBeSetDirectly(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo, nil)
	rec, err := svc.Create(context.Background(), CreateRecordInput{
		TaxType: "vat", Period: "2026-02", AmountDue: d("54000"), DueDate: future(),
	})
	require.NoError(t, err)

	_, err = svc.UpdateStatus(context.Background(), rec.ID, UpdateStatusInput{Status: StatusOverdue})
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestCreateAcceptsKnownTaxTypesOnly(t *testing.T) {
	svc := NewService(newMockRepo(), nil)
	for _, taxType := range []string{"vat", "corporate", "service_tax", "regulatory_fee", "paye"} {
		_, err := svc.Create(context.Background(), CreateRecordInput{
			TaxType: taxType, Period: "2026-03", AmountDue: d("100"), DueDate: future(),
		})
		require.NoError(t, err, "type %s must be accepted", taxType)
	}
	_, err := svc.Create(context.Background(), CreateRecordInput{
		TaxType: "payroll", Period: "2026-03", AmountDue: d("100"), DueDate: future(),
	})
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestFilingStampsTodayWhenUnset(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo, nil)
	rec, err := svc.Create(context.Background(), CreateRecordInput{
		TaxType: "service_tax", Period: "2026-02", AmountDue: d("12000"), DueDate: future(),
	})
	require.NoError(t, err)

	updated, err := svc.UpdateStatus(context.Background(), rec.ID, UpdateStatusInput{Status: StatusFiled})
	require.NoError(t, err)
	require.Equal(t, StatusFiled, updated.Status)
	require.NotNil(t, updated.FiledAt)
}

func TestPaidRecordCannotGoBackToFiled(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo, nil)
	rec, err := svc.Create(context.Background(), CreateRecordInput{
		TaxType: "regulatory_fee", Period: "2026-02", AmountDue: d("8000"), DueDate: future(),
	})
	require.NoError(t, err)

	_, err = svc.UpdateStatus(context.Background(), rec.ID, UpdateStatusInput{Status: StatusPaid})
	require.NoError(t, err)

	_, err = svc.UpdateStatus(context.Background(), rec.ID, UpdateStatusInput{Status: StatusFiled})
	require.ErrorIs(t, err, shared.ErrConflict)
}

func TestComplianceStatusRollsUp(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo, nil)

	c, err := svc.ComplianceStatus(context.Background())
	require.NoError(t, err)
	require.Equal(t, "compliant", c.Status)

	_, err = svc.Create(context.Background(), CreateRecordInput{
		TaxType: "vat", Period: "2026-03", AmountDue: d("54000"), DueDate: future(),
	})
	require.NoError(t, err)

	c, err = svc.ComplianceStatus(context.Background())
	require.NoError(t, err)
	require.Equal(t, "at_risk", c.Status)
	require.Equal(t, 1, c.PendingCount)

	_, err = svc.Create(context.Background(), CreateRecordInput{
		TaxType: "paye", Period: "2026-01", AmountDue: d("30000"), Penalty: d("1500"), DueDate: past(),
	})
	require.NoError(t, err)

	c, err = svc.ComplianceStatus(context.Background())
	require.NoError(t, err)
	require.Equal(t, "non_compliant", c.Status)
	require.Equal(t, 1, c.OverdueCount)
	require.True(t, c.TotalDue.Equal(d("85500")), "total due was %s", c.TotalDue)
}

func TestStoredOverdueStaysAnObligation(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo, nil)

	rec, err := svc.Create(context.Background(), CreateRecordInput{
		TaxType: "vat", Period: "2026-01", AmountDue: d("1990"), DueDate: past(),
	})
	require.NoError(t, err)

	flagged, err := repo.MarkOverdue(context.Background())
	require.NoError(t, err)
	require.EqualValues(t, 1, flagged)

	c, err := svc.ComplianceStatus(context.Background())
	require.NoError(t, err)
	require.Equal(t, "non_compliant", c.Status)
	require.Equal(t, 1, c.OverdueCount)
	require.Len(t, c.Obligations, 1)
	require.Equal(t, rec.ID, c.Obligations[0].ID)
	require.Equal(t, StatusOverdue, c.Obligations[0].Status)
}
