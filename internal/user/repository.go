package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

var ErrUserNotFound = errors.New("User not found")

const uniqueViolation = "23505"

type Repository interface {
	Create(ctx context.Context, user *User) error
	ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByUsername(ctx context.Context, username string) (*User, error)
	FindByEmails(ctx context.Context, emails []string) ([]User, error)
	FindAll(ctx context.Context) ([]User, error)
	UpdateRefreshToken(ctx context.Context, userID, refreshToken string) error
	DeleteByID(ctx context.Context, userID string) (*DeletionResult, error)
}

type userRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) Repository {
	return &userRepository{
		db: db,
	}
}

const userColumns = `id, username, email, password_hash, role, refresh_token, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*User, error) {
	var u User
	var role string
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &role, &u.RefreshToken, &u.CreatedAt); err != nil {
		return nil, err
	}
	u.Role = Role(role)
	return &u, nil
}

func (r *userRepository) Create(ctx context.Context, user *User) error {
	query := `
		INSERT INTO users (id, username, email, password_hash, role, refresh_token, created_at)
		VALUES ($1, $2, $3, $4, $5, '', NOW())
		RETURNING created_at;
	`
	err := r.db.QueryRowContext(ctx, query, user.ID, user.Username, user.Email, user.PasswordHash, string(user.Role)).Scan(&user.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrAlreadyRegistered
		}
		return fmt.Errorf("could not create user: %w", err)
	}
	return nil
}

func (r *userRepository) ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM users WHERE username = $1 OR email = $2)`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, username, email).Scan(&exists); err != nil {
		return false, fmt.Errorf("could not check user existence: %w", err)
	}
	return exists, nil
}

func (r *userRepository) findOne(ctx context.Context, where string, arg string) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE ` + where + ` = $1`

	user, err := scanUser(r.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("could not find user: %w", err)
	}
	return user, nil
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	return r.findOne(ctx, "email", email)
}

func (r *userRepository) FindByUsername(ctx context.Context, username string) (*User, error) {
	return r.findOne(ctx, "username", username)
}

func (r *userRepository) FindByEmails(ctx context.Context, emails []string) ([]User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = ANY($1) ORDER BY created_at`
	return r.list(ctx, query, emails)
}

func (r *userRepository) FindAll(ctx context.Context) ([]User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at`
	return r.list(ctx, query)
}

func (r *userRepository) list(ctx context.Context, query string, args ...any) ([]User, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("could not list users: %w", err)
	}
	defer rows.Close()

	users := []User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("could not scan user: %w", err)
		}
		users = append(users, *user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("could not iterate users: %w", err)
	}
	return users, nil
}

func (r *userRepository) UpdateRefreshToken(ctx context.Context, userID, refreshToken string) error {
	query := `
		UPDATE users
		SET refresh_token = $2
		WHERE id = $1
	`
	result, err := r.db.ExecContext(ctx, query, userID, refreshToken)
	if err != nil {
		return fmt.Errorf("could not update refresh token: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("could not update refresh token: %w", err)
	}
	if affected == 0 {
		return ErrUserNotFound
	}
	return nil
}

// DeleteByID removes the user together with their transactions and group memberships.
// Groups left without members are removed as well.
func (r *userRepository) DeleteByID(ctx context.Context, userID string) (*DeletionResult, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("could not begin transaction: %w", err)
	}
	defer tx.Rollback()

	var username string
	err = tx.QueryRowContext(ctx, `SELECT username FROM users WHERE id = $1 FOR UPDATE`, userID).Scan(&username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("could not lock user: %w", err)
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM transactions WHERE username = $1`, username)
	if err != nil {
		return nil, fmt.Errorf("could not delete user transactions: %w", err)
	}
	deletedTransactions, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}

	result, err = tx.ExecContext(ctx, `DELETE FROM group_members WHERE user_id = $1`, userID)
	if err != nil {
		return nil, fmt.Errorf("could not remove group memberships: %w", err)
	}
	removedMemberships, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}

	if removedMemberships > 0 {
		_, err = tx.ExecContext(ctx, `
			DELETE FROM user_groups g
			WHERE NOT EXISTS (SELECT 1 FROM group_members m WHERE m.group_name = g.name)
		`)
		if err != nil {
			return nil, fmt.Errorf("could not delete empty groups: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, userID); err != nil {
		return nil, fmt.Errorf("could not delete user: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("could not commit user deletion: %w", err)
	}
	return &DeletionResult{
		DeletedTransactions: deletedTransactions,
		DeletedFromGroup:    removedMemberships > 0,
	}, nil
}
