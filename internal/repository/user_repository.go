package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/iliyamo/hr-auth-service/internal/model"
	"github.com/iliyamo/hr-auth-service/internal/utils"
)

// UserRepo reads and writes the `users` table.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userColumns = "id,email,username,password_hash,role,first_name,last_name,is_active,created_at,updated_at"

// Create inserts a user and returns its ID. The password is hashed here
// so callers never handle the digest themselves.
func (r *UserRepo) Create(ctx context.Context, email, username, password, role, firstName, lastName string, cost int) (uint64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	username = strings.TrimSpace(username)
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (email, username, password_hash, role, first_name, last_name) VALUES (?,?,?,?,?,?)",
		email, username, hash, role, firstName, lastName)
	if err != nil {
		// 1062 = MySQL duplicate-entry; unique keys cover email and username.
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return 0, ErrEmailExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByIdentifier fetches a user by login handle: the value is matched
// against both the username and the normalized email column, since the
// login form accepts either.
func (r *UserRepo) GetByIdentifier(ctx context.Context, identifier string) (model.User, error) {
	identifier = strings.TrimSpace(identifier)
	var u model.User
	err := r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE username=? OR email=? LIMIT 1",
		identifier, strings.ToLower(identifier)).
		Scan(&u.ID, &u.Email, &u.Username, &u.PasswordHash, &u.Role, &u.FirstName, &u.LastName, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	var u model.User
	err := r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1",
		email).
		Scan(&u.ID, &u.Email, &u.Username, &u.PasswordHash, &u.Role, &u.FirstName, &u.LastName, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	var u model.User
	err := r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1",
		id).
		Scan(&u.ID, &u.Email, &u.Username, &u.PasswordHash, &u.Role, &u.FirstName, &u.LastName, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}
