package group

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

type Repository interface {
	Create(ctx context.Context, group *Group) error
	FindByName(ctx context.Context, name string) (*Group, error)
	FindAll(ctx context.Context) ([]Group, error)
	Delete(ctx context.Context, name string) error
	// AddMembers appends members after the existing ones. Members already present are skipped.
	AddMembers(ctx context.Context, name string, members []Member) error
	// RemoveMembers fails with ErrLastMember instead of leaving the group empty.
	RemoveMembers(ctx context.Context, name string, userIDs []string) error
}

type groupRepository struct {
	db *sql.DB
}

func NewGroupRepository(db *sql.DB) Repository {
	return &groupRepository{db: db}
}

// Create inserts the group and its members in order inside one transaction.
func (r *groupRepository) Create(ctx context.Context, group *Group) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}
	defer tx.Rollback()

	err = tx.QueryRowContext(ctx,
		`INSERT INTO user_groups (name, created_at) VALUES ($1, NOW()) RETURNING created_at`,
		group.Name,
	).Scan(&group.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrGroupExists
		}
		return fmt.Errorf("could not create group: %w", err)
	}

	for position, member := range group.Members {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO group_members (group_name, user_id, email, position) VALUES ($1, $2, $3, $4)`,
			group.Name, member.UserID, member.Email, position,
		)
		if err != nil {
			return fmt.Errorf("could not add group member %s: %w", member.Email, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("could not commit group: %w", err)
	}
	return nil
}

const groupMembersQuery = `
	SELECT g.name, g.created_at, m.user_id, m.email, COALESCE(u.username, '')
	FROM user_groups g
	JOIN group_members m ON m.group_name = g.name
	LEFT JOIN users u ON u.id = m.user_id
`

func (r *groupRepository) FindByName(ctx context.Context, name string) (*Group, error) {
	groups, err := r.query(ctx, groupMembersQuery+` WHERE g.name = $1 ORDER BY m.position`, name)
	if err != nil {
		return nil, err
	}
	if len(groups) == 0 {
		return nil, ErrGroupNotFound
	}
	return &groups[0], nil
}

func (r *groupRepository) FindAll(ctx context.Context) ([]Group, error) {
	return r.query(ctx, groupMembersQuery+` ORDER BY g.created_at, g.name, m.position`)
}

// query folds the joined rows back into groups, keeping the row order.
func (r *groupRepository) query(ctx context.Context, query string, args ...any) ([]Group, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("could not query groups: %w", err)
	}
	defer rows.Close()

	groups := []Group{}
	index := map[string]int{}
	for rows.Next() {
		var g Group
		var m Member
		if err := rows.Scan(&g.Name, &g.CreatedAt, &m.UserID, &m.Email, &m.Username); err != nil {
			return nil, fmt.Errorf("could not scan group: %w", err)
		}
		i, ok := index[g.Name]
		if !ok {
			i = len(groups)
			index[g.Name] = i
			g.Members = []Member{}
			groups = append(groups, g)
		}
		groups[i].Members = append(groups[i].Members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("could not iterate groups: %w", err)
	}
	return groups, nil
}

func (r *groupRepository) Delete(ctx context.Context, name string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM user_groups WHERE name = $1`, name)
	if err != nil {
		return fmt.Errorf("could not delete group: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("could not delete group: %w", err)
	}
	if affected == 0 {
		return ErrGroupNotFound
	}
	return nil
}

// lockGroup serialises membership changes of one group.
func lockGroup(ctx context.Context, tx *sql.Tx, name string) error {
	var locked string
	err := tx.QueryRowContext(ctx, `SELECT name FROM user_groups WHERE name = $1 FOR UPDATE`, name).Scan(&locked)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrGroupNotFound
		}
		return fmt.Errorf("could not lock group: %w", err)
	}
	return nil
}

func (r *groupRepository) AddMembers(ctx context.Context, name string, members []Member) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := lockGroup(ctx, tx, name); err != nil {
		return err
	}

	var next int
	err = tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(position) + 1, 0) FROM group_members WHERE group_name = $1`, name,
	).Scan(&next)
	if err != nil {
		return fmt.Errorf("could not read member positions: %w", err)
	}

	for i, member := range members {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO group_members (group_name, user_id, email, position) VALUES ($1, $2, $3, $4)
			ON CONFLICT (group_name, user_id) DO NOTHING`,
			name, member.UserID, member.Email, next+i,
		)
		if err != nil {
			return fmt.Errorf("could not add group member %s: %w", member.Email, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("could not commit group members: %w", err)
	}
	return nil
}

func (r *groupRepository) RemoveMembers(ctx context.Context, name string, userIDs []string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := lockGroup(ctx, tx, name); err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx,
		`DELETE FROM group_members WHERE group_name = $1 AND user_id = ANY($2)`, name, userIDs,
	)
	if err != nil {
		return fmt.Errorf("could not remove group members: %w", err)
	}

	var remaining int
	err = tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM group_members WHERE group_name = $1`, name).Scan(&remaining)
	if err != nil {
		return fmt.Errorf("could not count group members: %w", err)
	}
	if remaining == 0 {
		return ErrLastMember
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("could not commit group members: %w", err)
	}
	return nil
}
