package group

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/fkhayef/splitledger/internal/database"
)

const (
	groupColumns  = `g.id, g.name, g.description, g.is_temporary, g.created_at`
	memberColumns = `gm.id, gm.group_id, gm.user_id, gm.status, gm.role, gm.joined_at, u.username, u.email`

	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

// Repository handles group data persistence
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new group repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanGroup(row scanner) (*Group, error) {
	group := &Group{}
	if err := row.Scan(&group.ID, &group.Name, &group.Description, &group.IsTemporary, &group.CreatedAt); err != nil {
		return nil, err
	}
	return group, nil
}

func scanMember(row scanner) (*GroupMember, error) {
	m := &GroupMember{}
	if err := row.Scan(&m.ID, &m.GroupID, &m.UserID, &m.Status, &m.Role, &m.JoinedAt, &m.Username, &m.Email); err != nil {
		return nil, err
	}
	return m, nil
}

// CreateWithAdmin inserts the group and its creator as a JOINED admin in one
// transaction.
func (r *Repository) CreateWithAdmin(ctx context.Context, req *CreateGroupRequest, creatorID int64) (*Group, error) {
	var group *Group
	err := database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		var err error
		group, err = scanGroup(tx.QueryRowContext(ctx, `
			INSERT INTO groups AS g (name, description, is_temporary)
			VALUES ($1, $2, $3)
			RETURNING `+groupColumns,
			req.Name, req.Description, req.IsTemporary))
		if err != nil {
			return fmt.Errorf("failed to create group: %w", err)
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO group_members (group_id, user_id, status, role)
			VALUES ($1, $2, $3, $4)
		`, group.ID, creatorID, MemberStatusJoined, MemberRoleAdmin)
		if err != nil {
			return fmt.Errorf("failed to add group admin: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return group, nil
}

// GetByID retrieves a group by its ID
func (r *Repository) GetByID(ctx context.Context, id int64) (*Group, error) {
	query := `SELECT ` + groupColumns + ` FROM groups g WHERE g.id = $1`

	group, err := scanGroup(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get group: %w", err)
	}

	return group, nil
}

// ListByUserID retrieves all groups for a user
func (r *Repository) ListByUserID(ctx context.Context, userID int64, limit, offset int) ([]*Group, int, error) {
	var total int
	countQuery := `SELECT COUNT(*) FROM group_members WHERE user_id = $1`
	if err := r.db.QueryRowContext(ctx, countQuery, userID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count groups: %w", err)
	}

	query := `
		SELECT ` + groupColumns + `
		FROM groups g
		JOIN group_members gm ON g.id = gm.group_id
		WHERE gm.user_id = $1
		ORDER BY g.created_at DESC, g.id DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list groups: %w", err)
	}
	defer rows.Close()

	var groups []*Group
	for rows.Next() {
		group, err := scanGroup(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan group: %w", err)
		}
		groups = append(groups, group)
	}

	return groups, total, rows.Err()
}

// Update modifies an existing group
func (r *Repository) Update(ctx context.Context, id int64, req *UpdateGroupRequest) (*Group, error) {
	query := `
		UPDATE groups AS g
		SET name = COALESCE($2, g.name),
		    description = COALESCE($3, g.description)
		WHERE g.id = $1
		RETURNING ` + groupColumns

	group, err := scanGroup(r.db.QueryRowContext(ctx, query, id, req.Name, req.Description))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to update group: %w", err)
	}

	return group, nil
}

// Delete removes a group and, through cascading keys, its members, expenses
// and settlements.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM groups WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete group: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrGroupNotFound
	}

	return nil
}

// AddMember adds a user to a group with INVITED status
func (r *Repository) AddMember(ctx context.Context, groupID int64, req *AddMemberRequest) (*GroupMember, error) {
	role := req.Role
	if role == "" {
		role = MemberRoleMember
	}

	query := `
		WITH inserted AS (
			INSERT INTO group_members (group_id, user_id, status, role)
			VALUES ($1, $2, $3, $4)
			RETURNING id, group_id, user_id, status, role, joined_at
		)
		SELECT ` + memberColumns + `
		FROM inserted gm
		JOIN users u ON gm.user_id = u.id
	`

	member, err := scanMember(r.db.QueryRowContext(ctx, query, groupID, req.UserID, MemberStatusInvited, role))
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) {
			switch pqErr.Code {
			case uniqueViolation:
				return nil, ErrMemberAlreadyExists
			case foreignKeyViolation:
				return nil, ErrUserNotFound
			}
		}
		return nil, fmt.Errorf("failed to add member: %w", err)
	}

	return member, nil
}

// GetMembers retrieves all members of a group
func (r *Repository) GetMembers(ctx context.Context, groupID int64) ([]*GroupMember, error) {
	query := `
		SELECT ` + memberColumns + `
		FROM group_members gm
		JOIN users u ON gm.user_id = u.id
		WHERE gm.group_id = $1
		ORDER BY gm.joined_at, gm.id
	`

	rows, err := r.db.QueryContext(ctx, query, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to get members: %w", err)
	}
	defer rows.Close()

	var members []*GroupMember
	for rows.Next() {
		member, err := scanMember(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		members = append(members, member)
	}

	return members, rows.Err()
}

// GetMember retrieves a specific member from a group
func (r *Repository) GetMember(ctx context.Context, groupID, userID int64) (*GroupMember, error) {
	query := `
		SELECT ` + memberColumns + `
		FROM group_members gm
		JOIN users u ON gm.user_id = u.id
		WHERE gm.group_id = $1 AND gm.user_id = $2
	`

	member, err := scanMember(r.db.QueryRowContext(ctx, query, groupID, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get member: %w", err)
	}

	return member, nil
}

// CountMembers returns how many of userIDs belong to the group.
func (r *Repository) CountMembers(ctx context.Context, groupID int64, userIDs []int64) (int, error) {
	query := `
		SELECT COUNT(DISTINCT user_id)
		FROM group_members
		WHERE group_id = $1 AND user_id = ANY($2)
	`

	var n int
	if err := r.db.QueryRowContext(ctx, query, groupID, pq.Array(userIDs)).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count members: %w", err)
	}
	return n, nil
}

// UpdateMember updates a member's status or role
func (r *Repository) UpdateMember(ctx context.Context, groupID, userID int64, req *UpdateMemberRequest) (*GroupMember, error) {
	query := `
		WITH updated AS (
			UPDATE group_members
			SET status = COALESCE($3, status),
			    role = COALESCE($4, role)
			WHERE group_id = $1 AND user_id = $2
			RETURNING id, group_id, user_id, status, role, joined_at
		)
		SELECT ` + memberColumns + `
		FROM updated gm
		JOIN users u ON gm.user_id = u.id
	`

	member, err := scanMember(r.db.QueryRowContext(ctx, query, groupID, userID, req.Status, req.Role))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to update member: %w", err)
	}

	return member, nil
}

// RemoveMember removes a user from a group
func (r *Repository) RemoveMember(ctx context.Context, groupID, userID int64) error {
	query := `DELETE FROM group_members WHERE group_id = $1 AND user_id = $2`

	result, err := r.db.ExecContext(ctx, query, groupID, userID)
	if err != nil {
		return fmt.Errorf("failed to remove member: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrMemberNotFound
	}

	return nil
}
