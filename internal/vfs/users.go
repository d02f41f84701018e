package vfs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"ecorpus-go/internal/database"
	"ecorpus-go/internal/database/sqlc"
)

// User is an account. uid 0 is the anonymous principal and never a stored user.
type User struct {
	ID              int64
	Username        string
	Email           string
	IsAdministrator bool
}

// IsAnonymous reports whether u stands for an unauthenticated requester.
func (u *User) IsAnonymous() bool {
	return u == nil || u.ID == 0
}

type AddUserParams struct {
	Username        string
	Email           string
	Password        string // empty leaves the account without a password
	IsAdministrator bool
}

func userFromRow(row sqlc.User) User {
	return User{
		ID:              row.UserID,
		Username:        row.Username,
		Email:           row.Email.String,
		IsAdministrator: row.IsAdministrator,
	}
}

func hashPassword(password string) (sql.NullString, error) {
	if password == "" {
		return sql.NullString{}, nil
	}
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("hashing password: %w", err)
	}
	return sql.NullString{String: string(h), Valid: true}, nil
}

// AddUser creates an account with a random uid. The reserved uids 0 and 1 are
// never assigned.
func (v *VFS) AddUser(ctx context.Context, p AddUserParams) (User, error) {
	switch p.Username {
	case "":
		return User{}, ErrBadRequest.New("username is required")
	case "default", "any":
		return User{}, ErrBadRequest.New("username %q is reserved", p.Username)
	}

	password, err := hashPassword(p.Password)
	if err != nil {
		return User{}, err
	}
	email := sql.NullString{String: p.Email, Valid: p.Email != ""}

	for attempt := 0; attempt < maxIDAttempts; attempt++ {
		id := v.ids.New()
		if id == int64(PrincipalDefault) || id == int64(PrincipalAny) {
			continue
		}
		err := v.db.Queries().InsertUser(ctx, sqlc.InsertUserParams{
			UserID:          id,
			Username:        p.Username,
			Email:           email,
			Password:        password,
			IsAdministrator: p.IsAdministrator,
		})
		switch {
		case err == nil:
			v.logger.Info("user created", "username", p.Username, "uid", id)
			return User{ID: id, Username: p.Username, Email: p.Email, IsAdministrator: p.IsAdministrator}, nil
		case database.IsPrimaryKeyViolation(err):
			v.logger.Debug("user id collision", "uid", id, "attempt", attempt+1)
			continue
		case database.IsUniqueViolation(err):
			return User{}, ErrConflict.New("username or email of %q already in use", p.Username)
		default:
			return User{}, fmt.Errorf("inserting user %q: %w", p.Username, err)
		}
	}
	return User{}, ErrConflict.New("could not allocate a user id after %d attempts", maxIDAttempts)
}

func (v *VFS) getUserRow(ctx context.Context, q *sqlc.Queries, username string) (sqlc.User, error) {
	row, err := q.GetUserByName(ctx, username)
	if err != nil {
		if database.IsNotFound(err) {
			return sqlc.User{}, ErrNotFound.New("user %q", username)
		}
		return sqlc.User{}, fmt.Errorf("getting user %q: %w", username, err)
	}
	return row, nil
}

func (v *VFS) GetUserByName(ctx context.Context, username string) (User, error) {
	row, err := v.getUserRow(ctx, v.db.Queries(), username)
	if err != nil {
		return User{}, err
	}
	return userFromRow(row), nil
}

func (v *VFS) GetUserByID(ctx context.Context, uid int64) (User, error) {
	row, err := v.db.Queries().GetUserByID(ctx, uid)
	if err != nil {
		if database.IsNotFound(err) {
			return User{}, ErrNotFound.New("user %d", uid)
		}
		return User{}, fmt.Errorf("getting user %d: %w", uid, err)
	}
	return userFromRow(row), nil
}

// ListUsers returns every account ordered by username.
func (v *VFS) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := v.db.Queries().ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	users := make([]User, 0, len(rows))
	for _, row := range rows {
		users = append(users, userFromRow(row))
	}
	return users, nil
}

func (v *VFS) RemoveUser(ctx context.Context, username string) error {
	return v.db.BeginTransaction(ctx, func(ctx context.Context, tx *database.Tx) error {
		row, err := v.getUserRow(ctx, tx.Queries(), username)
		if err != nil {
			return err
		}
		if _, err := tx.Queries().DeleteUser(ctx, row.UserID); err != nil {
			return fmt.Errorf("deleting user %q: %w", username, err)
		}
		v.logger.Info("user removed", "username", username, "uid", row.UserID)
		return nil
	})
}

func (v *VFS) SetPassword(ctx context.Context, username, password string) error {
	hashed, err := hashPassword(password)
	if err != nil {
		return err
	}
	return v.db.BeginTransaction(ctx, func(ctx context.Context, tx *database.Tx) error {
		row, err := v.getUserRow(ctx, tx.Queries(), username)
		if err != nil {
			return err
		}
		if _, err := tx.Queries().UpdateUserPassword(ctx, sqlc.UpdateUserPasswordParams{Password: hashed, UserID: row.UserID}); err != nil {
			return fmt.Errorf("updating password of %q: %w", username, err)
		}
		return nil
	})
}

// VerifyPassword checks a login. Unknown users, accounts without a password
// and wrong passwords all fail with ErrUnauthorized.
func (v *VFS) VerifyPassword(ctx context.Context, username, password string) (User, error) {
	row, err := v.getUserRow(ctx, v.db.Queries(), username)
	if ErrNotFound.Has(err) {
		return User{}, ErrUnauthorized.New("invalid username or password")
	}
	if err != nil {
		return User{}, err
	}
	if !row.Password.Valid {
		return User{}, ErrUnauthorized.New("invalid username or password")
	}

	err = bcrypt.CompareHashAndPassword([]byte(row.Password.String), []byte(password))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return User{}, ErrUnauthorized.New("invalid username or password")
	}
	if err != nil {
		return User{}, fmt.Errorf("comparing password of %q: %w", username, err)
	}
	return userFromRow(row), nil
}

func (v *VFS) SetAdministrator(ctx context.Context, username string, admin bool) error {
	return v.db.BeginTransaction(ctx, func(ctx context.Context, tx *database.Tx) error {
		row, err := v.getUserRow(ctx, tx.Queries(), username)
		if err != nil {
			return err
		}
		if _, err := tx.Queries().UpdateUserAdministrator(ctx, sqlc.UpdateUserAdministratorParams{IsAdministrator: admin, UserID: row.UserID}); err != nil {
			return fmt.Errorf("updating administrator flag of %q: %w", username, err)
		}
		v.logger.Info("administrator flag set", "username", username, "admin", admin)
		return nil
	})
}
