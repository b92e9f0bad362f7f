package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fiberdesk/fiberdesk/internal/ledger/reports"
	"github.com/fiberdesk/fiberdesk/internal/shared"
)

// RepositoryPort defines data access methods for the ledger.
type RepositoryPort interface {
	ListAccounts(ctx context.Context) ([]Account, error)
	CreateAccount(ctx context.Context, code, name, accType string) (*Account, error)
	AccountBalances(ctx context.Context, asOf time.Time) ([]AccountBalance, error)
	InsertPosting(ctx context.Context, input PostingInput) ([]Transaction, error)
	ListTransactions(ctx context.Context, accountID int64, from, to time.Time) ([]Transaction, error)
}

// Service handles ledger business logic.
type Service struct {
	repo  RepositoryPort
	audit *shared.AuditLogger
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, audit *shared.AuditLogger) *Service {
	return &Service{repo: repo, audit: audit}
}

var validAccountTypes = map[string]bool{
	TypeAsset: true, TypeLiability: true, TypeEquity: true,
	TypeRevenue: true, TypeExpense: true,
}

// ListAccounts returns the chart of accounts.
func (s *Service) ListAccounts(ctx context.Context) ([]Account, error) {
	return s.repo.ListAccounts(ctx)
}

// CreateAccount adds a chart-of-accounts entry.
func (s *Service) CreateAccount(ctx context.Context, code, name, accType string) (*Account, error) {
	if code == "" || name == "" {
		return nil, fmt.Errorf("%w: code and name required", shared.ErrValidation)
	}
	if !validAccountTypes[accType] {
		return nil, fmt.Errorf("%w: unknown account type %q", shared.ErrValidation, accType)
	}
	return s.repo.CreateAccount(ctx, code, name, accType)
}

// PostJournal validates and persists a balanced posting: at least two legs,
// each leg one-sided and positive, sum of debits equal to sum of credits.
func (s *Service) PostJournal(ctx context.Context, input PostingInput) ([]Transaction, error) {
	if len(input.Entries) < 2 {
		return nil, fmt.Errorf("%w: a posting needs at least two legs", shared.ErrValidation)
	}
	if input.OccurredOn.IsZero() {
		input.OccurredOn = time.Now().UTC().Truncate(24 * time.Hour)
	}

	debits := decimal.Zero
	credits := decimal.Zero
	for i, entry := range input.Entries {
		if entry.AccountID == 0 {
			return nil, fmt.Errorf("%w: leg %d missing account", shared.ErrValidation, i)
		}
		debitSet := entry.Debit.Sign() > 0
		creditSet := entry.Credit.Sign() > 0
		if entry.Debit.Sign() < 0 || entry.Credit.Sign() < 0 {
			return nil, fmt.Errorf("%w: leg %d has a negative amount", shared.ErrValidation, i)
		}
		if debitSet == creditSet {
			return nil, fmt.Errorf("%w: leg %d must set exactly one of debit or credit", shared.ErrValidation, i)
		}
		debits = debits.Add(entry.Debit)
		credits = credits.Add(entry.Credit)
	}
	if !debits.Equal(credits) {
		return nil, fmt.Errorf("%w: posting unbalanced, debits %s credits %s", shared.ErrValidation, debits, credits)
	}

	created, err := s.repo.InsertPosting(ctx, input)
	if err != nil {
		return nil, err
	}
	if s.audit != nil {
		actor := shared.ActorFromContext(ctx)
		_ = s.audit.Record(ctx, shared.AuditLog{
			ActorID:  actor.ID,
			Action:   shared.AuditCreate,
			Resource: "ledger",
			Entity:   "posting",
			EntityID: created[0].PostingID.String(),
			Details:  map[string]any{"legs": len(created), "total": debits.String()},
			IP:       actor.IP,
		})
	}
	return created, nil
}

// TrialBalance builds the trial balance report as of a date.
func (s *Service) TrialBalance(ctx context.Context, asOf time.Time) (reports.TrialBalance, error) {
	if asOf.IsZero() {
		asOf = time.Now().UTC()
	}
	balances, err := s.repo.AccountBalances(ctx, asOf)
	if err != nil {
		return reports.TrialBalance{}, err
	}
	return reports.BuildTrialBalance(balances), nil
}

// BalanceSheet builds the balance sheet snapshot as of a date.
func (s *Service) BalanceSheet(ctx context.Context, asOf time.Time) (reports.BalanceSheet, error) {
	if asOf.IsZero() {
		asOf = time.Now().UTC()
	}
	balances, err := s.repo.AccountBalances(ctx, asOf)
	if err != nil {
		return reports.BalanceSheet{}, err
	}
	return reports.BuildBalanceSheet(asOf, balances), nil
}

// AccountStatement lists one account's movements with running balances.
func (s *Service) AccountStatement(ctx context.Context, accountID int64, from, to time.Time) ([]Transaction, error) {
	if accountID == 0 {
		return nil, fmt.Errorf("%w: account required", shared.ErrValidation)
	}
	if to.IsZero() {
		to = time.Now().UTC()
	}
	if from.After(to) {
		return nil, fmt.Errorf("%w: from is after to", shared.ErrValidation)
	}
	return s.repo.ListTransactions(ctx, accountID, from, to)
}
