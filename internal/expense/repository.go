package expense

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/fkhayef/splitledger/internal/balance"
	"github.com/fkhayef/splitledger/internal/database"
	"github.com/fkhayef/splitledger/internal/expense/split"
)

const expenseColumns = `e.id, e.group_id, e.payer_id, e.description, e.amount, e.image_url, e.split_policy, e.created_at, u.username`

// Repository handles expense data persistence
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new expense repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanExpense(row scanner) (*Expense, error) {
	e := &Expense{}
	err := row.Scan(&e.ID, &e.GroupID, &e.PayerID, &e.Description, &e.Amount, &e.ImageURL, &e.Policy, &e.CreatedAt, &e.PayerUsername)
	if err != nil {
		return nil, err
	}
	return e, nil
}

// CreateWithShares inserts the expense and all of its shares in one
// transaction. Either every row is written or none is.
func (r *Repository) CreateWithShares(ctx context.Context, e *Expense, shares []split.Share) (*ExpenseWithShares, error) {
	userIDs := make([]int64, len(shares))
	amounts := make([]string, len(shares))
	for i, s := range shares {
		userIDs[i] = s.ParticipantID
		amounts[i] = s.Amount.String()
	}

	var created *Expense
	err := database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		var err error
		created, err = scanExpense(tx.QueryRowContext(ctx, `
			WITH e AS (
				INSERT INTO expenses (group_id, payer_id, description, amount, image_url, split_policy)
				VALUES ($1, $2, $3, $4, $5, $6)
				RETURNING id, group_id, payer_id, description, amount, image_url, split_policy, created_at
			)
			SELECT `+expenseColumns+`
			FROM e
			JOIN users u ON e.payer_id = u.id
		`, e.GroupID, e.PayerID, e.Description, e.Amount, e.ImageURL, string(e.Policy)))
		if err != nil {
			return fmt.Errorf("failed to create expense: %w", err)
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO expense_splits (expense_id, user_id, amount)
			SELECT $1, t.user_id, t.amount
			FROM unnest($2::bigint[], $3::numeric[]) WITH ORDINALITY AS t(user_id, amount, ord)
			ORDER BY t.ord
		`, created.ID, pq.Array(userIDs), pq.Array(amounts))
		if err != nil {
			return fmt.Errorf("failed to create expense splits: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	out := &ExpenseWithShares{Expense: created, Shares: make([]*Share, len(shares))}
	for i, s := range shares {
		out.Shares[i] = &Share{ExpenseID: created.ID, UserID: s.ParticipantID, Amount: s.Amount}
	}
	return out, nil
}

// GetExpenseByID retrieves an expense by its ID
func (r *Repository) GetExpenseByID(ctx context.Context, id int64) (*Expense, error) {
	query := `
		SELECT ` + expenseColumns + `
		FROM expenses e
		JOIN users u ON e.payer_id = u.id
		WHERE e.id = $1
	`

	e, err := scanExpense(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get expense: %w", err)
	}

	return e, nil
}

// GetSharesByExpenseIDs loads the shares of every listed expense with one
// query, keyed by expense id and kept in insertion order.
func (r *Repository) GetSharesByExpenseIDs(ctx context.Context, expenseIDs []int64) (map[int64][]*Share, error) {
	shares := make(map[int64][]*Share, len(expenseIDs))
	if len(expenseIDs) == 0 {
		return shares, nil
	}

	query := `
		SELECT s.expense_id, s.user_id, s.amount, u.username
		FROM expense_splits s
		JOIN users u ON s.user_id = u.id
		WHERE s.expense_id = ANY($1)
		ORDER BY s.expense_id, s.id
	`

	rows, err := r.db.QueryContext(ctx, query, pq.Array(expenseIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to get expense splits: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		s := &Share{}
		if err := rows.Scan(&s.ExpenseID, &s.UserID, &s.Amount, &s.Username); err != nil {
			return nil, fmt.Errorf("failed to scan expense split: %w", err)
		}
		shares[s.ExpenseID] = append(shares[s.ExpenseID], s)
	}

	return shares, rows.Err()
}

// ListExpensesByGroupID retrieves a page of a group's expenses, newest first
func (r *Repository) ListExpensesByGroupID(ctx context.Context, groupID int64, limit, offset int) ([]*Expense, int, error) {
	var total int
	countQuery := `SELECT COUNT(*) FROM expenses WHERE group_id = $1`
	if err := r.db.QueryRowContext(ctx, countQuery, groupID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count expenses: %w", err)
	}

	query := `
		SELECT ` + expenseColumns + `
		FROM expenses e
		JOIN users u ON e.payer_id = u.id
		WHERE e.group_id = $1
		ORDER BY e.created_at DESC, e.id DESC
		LIMIT $2 OFFSET $3
	`

	expenses, err := r.queryExpenses(ctx, query, groupID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list expenses: %w", err)
	}
	return expenses, total, nil
}

// ListForBalances loads a group's whole expense history, oldest first, with
// shares attached, in the shape the balance engine consumes. It runs two
// queries regardless of the number of expenses.
func (r *Repository) ListForBalances(ctx context.Context, groupID int64) ([]balance.Expense, error) {
	query := `
		SELECT ` + expenseColumns + `
		FROM expenses e
		JOIN users u ON e.payer_id = u.id
		WHERE e.group_id = $1
		ORDER BY e.created_at, e.id
	`

	expenses, err := r.queryExpenses(ctx, query, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to load expense history: %w", err)
	}

	ids := make([]int64, len(expenses))
	for i, e := range expenses {
		ids[i] = e.ID
	}
	shares, err := r.GetSharesByExpenseIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]balance.Expense, len(expenses))
	for i, e := range expenses {
		full := &ExpenseWithShares{Expense: e, Shares: shares[e.ID]}
		out[i] = full.ToBalance()
	}
	return out, nil
}

func (r *Repository) queryExpenses(ctx context.Context, query string, args ...any) ([]*Expense, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var expenses []*Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		expenses = append(expenses, e)
	}
	return expenses, rows.Err()
}

// DeleteExpense removes an expense; its shares go with it through the
// cascading foreign key.
func (r *Repository) DeleteExpense(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM expenses WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete expense: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrExpenseNotFound
	}
	return nil
}
