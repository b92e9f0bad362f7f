package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/fiberdesk/fiberdesk/internal/platform/db"
)

// Repository provides PostgreSQL backed persistence for the ledger.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ErrNotFound indicates resource not found.
var ErrNotFound = errors.New("ledger: not found")

// ListAccounts returns the chart of accounts ordered by code.
func (r *Repository) ListAccounts(ctx context.Context) ([]Account, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, code, name, type FROM ledger_accounts ORDER BY code`)
	if err != nil {
		return nil, fmt.Errorf("ledger: list accounts: %w", err)
	}
	defer rows.Close()

	accounts := make([]Account, 0)
	for rows.Next() {
		var acc Account
		if err := rows.Scan(&acc.ID, &acc.Code, &acc.Name, &acc.Type); err != nil {
			return nil, err
		}
		accounts = append(accounts, acc)
	}
	return accounts, rows.Err()
}

// CreateAccount inserts a chart-of-accounts entry.
func (r *Repository) CreateAccount(ctx context.Context, code, name, accType string) (*Account, error) {
	var acc Account
	err := r.pool.QueryRow(ctx,
		`INSERT INTO ledger_accounts (code, name, type) VALUES ($1, $2, $3) RETURNING id`,
		code, name, accType).Scan(&acc.ID)
	if err != nil {
		return nil, fmt.Errorf("ledger: create account: %w", err)
	}
	acc.Code = code
	acc.Name = name
	acc.Type = accType
	return &acc, nil
}

// AccountBalances aggregates debits and credits per account up to asOf.
// Accounts with no movement are included with zero balances so reports show
// the full chart.
func (r *Repository) AccountBalances(ctx context.Context, asOf time.Time) ([]AccountBalance, error) {
	const query = `
		SELECT a.code, a.name, a.type,
			COALESCE(SUM(t.debit), 0) AS debit,
			COALESCE(SUM(t.credit), 0) AS credit
		FROM ledger_accounts a
		LEFT JOIN ledger_transactions t ON t.account_id = a.id AND t.occurred_on <= $1
		GROUP BY a.code, a.name, a.type
		ORDER BY a.code`

	rows, err := r.pool.Query(ctx, query, asOf)
	if err != nil {
		return nil, fmt.Errorf("ledger: account balances: %w", err)
	}
	defer rows.Close()

	balances := make([]AccountBalance, 0)
	for rows.Next() {
		var bal AccountBalance
		if err := rows.Scan(&bal.Code, &bal.Name, &bal.Type, &bal.Debit, &bal.Credit); err != nil {
			return nil, err
		}
		balances = append(balances, bal)
	}
	return balances, rows.Err()
}

// InsertPosting writes all legs of a posting inside one transaction.
func (r *Repository) InsertPosting(ctx context.Context, input PostingInput) ([]Transaction, error) {
	created := make([]Transaction, 0, len(input.Entries))
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		postingID := newPostingID()
		for _, entry := range input.Entries {
			var tr Transaction
			err := tx.QueryRow(ctx,
				`INSERT INTO ledger_transactions (posting_id, occurred_on, account_id, customer_id, debit, credit, memo)
				 VALUES ($1, $2, $3, $4, $5, $6, $7)
				 RETURNING id`,
				postingID, input.OccurredOn, entry.AccountID, entry.CustomerID, entry.Debit, entry.Credit, entry.Memo,
			).Scan(&tr.ID)
			if err != nil {
				return fmt.Errorf("ledger: insert posting leg: %w", err)
			}
			tr.PostingID = postingID
			tr.OccurredOn = input.OccurredOn
			tr.AccountID = entry.AccountID
			tr.CustomerID = entry.CustomerID
			tr.Debit = entry.Debit
			tr.Credit = entry.Credit
			tr.Memo = entry.Memo
			created = append(created, tr)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// ListTransactions returns movements for one account in a date range with a
// running balance in the account's natural convention.
func (r *Repository) ListTransactions(ctx context.Context, accountID int64, from, to time.Time) ([]Transaction, error) {
	var accType string
	err := r.pool.QueryRow(ctx, `SELECT type FROM ledger_accounts WHERE id = $1`, accountID).Scan(&accType)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	// Opening balance carried from before the window.
	var openDebit, openCredit decimal.Decimal
	err = r.pool.QueryRow(ctx,
		`SELECT COALESCE(SUM(debit), 0), COALESCE(SUM(credit), 0)
		 FROM ledger_transactions WHERE account_id = $1 AND occurred_on < $2`,
		accountID, from).Scan(&openDebit, &openCredit)
	if err != nil {
		return nil, fmt.Errorf("ledger: opening balance: %w", err)
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, posting_id, occurred_on, customer_id, debit, credit, memo
		 FROM ledger_transactions
		 WHERE account_id = $1 AND occurred_on >= $2 AND occurred_on <= $3
		 ORDER BY occurred_on, id`,
		accountID, from, to)
	if err != nil {
		return nil, fmt.Errorf("ledger: list transactions: %w", err)
	}
	defer rows.Close()

	running := AccountBalance{Type: accType, Debit: openDebit, Credit: openCredit}.Closing()
	txs := make([]Transaction, 0)
	for rows.Next() {
		var tr Transaction
		if err := rows.Scan(&tr.ID, &tr.PostingID, &tr.OccurredOn, &tr.CustomerID, &tr.Debit, &tr.Credit, &tr.Memo); err != nil {
			return nil, err
		}
		tr.AccountID = accountID
		running = running.Add(signedMovement(accType, tr.Debit, tr.Credit))
		tr.Balance = running
		txs = append(txs, tr)
	}
	return txs, rows.Err()
}

func signedMovement(accType string, debit, credit decimal.Decimal) decimal.Decimal {
	switch accType {
	case TypeAsset, TypeExpense:
		return debit.Sub(credit)
	default:
		return credit.Sub(debit)
	}
}
