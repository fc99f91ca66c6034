package settlement

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fkhayef/splitledger/internal/balance"
)

const settlementColumns = `s.id, s.group_id, s.from_user_id, s.to_user_id, s.amount, s.note, s.status, s.created_at, s.updated_at, fu.username, tu.username`

const settlementJoins = `
	JOIN users fu ON s.from_user_id = fu.id
	JOIN users tu ON s.to_user_id = tu.id
`

// Repository handles settlement data persistence
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new settlement repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSettlement(row scanner) (*Settlement, error) {
	s := &Settlement{}
	err := row.Scan(&s.ID, &s.GroupID, &s.FromUserID, &s.ToUserID, &s.Amount, &s.Note, &s.Status,
		&s.CreatedAt, &s.UpdatedAt, &s.FromUsername, &s.ToUsername)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Create inserts a new settlement
func (r *Repository) Create(ctx context.Context, in *Settlement) (*Settlement, error) {
	query := `
		WITH s AS (
			INSERT INTO settlements (group_id, from_user_id, to_user_id, amount, note, status)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING *
		)
		SELECT ` + settlementColumns + `
		FROM s` + settlementJoins

	s, err := scanSettlement(r.db.QueryRowContext(ctx, query,
		in.GroupID, in.FromUserID, in.ToUserID, in.Amount, in.Note, string(in.Status)))
	if err != nil {
		return nil, fmt.Errorf("failed to create settlement: %w", err)
	}
	return s, nil
}

// GetByID retrieves a settlement by its ID
func (r *Repository) GetByID(ctx context.Context, id int64) (*Settlement, error) {
	query := `SELECT ` + settlementColumns + ` FROM settlements s` + settlementJoins + ` WHERE s.id = $1`

	s, err := scanSettlement(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get settlement: %w", err)
	}
	return s, nil
}

// ListByGroupID retrieves a page of a group's settlements, newest first
func (r *Repository) ListByGroupID(ctx context.Context, groupID int64, limit, offset int) ([]*Settlement, int, error) {
	var total int
	countQuery := `SELECT COUNT(*) FROM settlements WHERE group_id = $1`
	if err := r.db.QueryRowContext(ctx, countQuery, groupID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count settlements: %w", err)
	}

	query := `
		SELECT ` + settlementColumns + `
		FROM settlements s` + settlementJoins + `
		WHERE s.group_id = $1
		ORDER BY s.created_at DESC, s.id DESC
		LIMIT $2 OFFSET $3
	`

	settlements, err := r.query(ctx, query, groupID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list settlements: %w", err)
	}
	return settlements, total, nil
}

// ListConfirmedForBalances returns the group's confirmed settlements, oldest
// first, as balance engine payments.
func (r *Repository) ListConfirmedForBalances(ctx context.Context, groupID int64) ([]balance.Expense, error) {
	query := `
		SELECT ` + settlementColumns + `
		FROM settlements s` + settlementJoins + `
		WHERE s.group_id = $1 AND s.status = $2
		ORDER BY s.created_at, s.id
	`

	settlements, err := r.query(ctx, query, groupID, string(SettlementStatusConfirmed))
	if err != nil {
		return nil, fmt.Errorf("failed to load settlements: %w", err)
	}

	out := make([]balance.Expense, len(settlements))
	for i, s := range settlements {
		out[i] = s.ToBalance()
	}
	return out, nil
}

func (r *Repository) query(ctx context.Context, query string, args ...any) ([]*Settlement, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var settlements []*Settlement
	for rows.Next() {
		s, err := scanSettlement(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan settlement: %w", err)
		}
		settlements = append(settlements, s)
	}
	return settlements, rows.Err()
}

// Transition moves a settlement from one status to another. It returns nil
// when the settlement is no longer in the expected status.
func (r *Repository) Transition(ctx context.Context, id int64, from, to SettlementStatus) (*Settlement, error) {
	query := `
		WITH s AS (
			UPDATE settlements
			SET status = $3, updated_at = NOW()
			WHERE id = $1 AND status = $2
			RETURNING *
		)
		SELECT ` + settlementColumns + `
		FROM s` + settlementJoins

	s, err := scanSettlement(r.db.QueryRowContext(ctx, query, id, string(from), string(to)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to update settlement status: %w", err)
	}
	return s, nil
}
