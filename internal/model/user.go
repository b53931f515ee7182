package model

import "time"

// User represents a row in the `users` table. The auth core only needs
// the identity, credential hash, role and active flag; the HR domain
// attaches its richer employee record elsewhere and references this
// table by ID.
//
// Fields:
//  ID           – primary key identifier of the user.
//  Email        – unique, lowercased email address.
//  Username     – unique login handle (either username or email may be
//                 presented at login).
//  PasswordHash – bcrypt hashed password.
//  Role         – role name (ADMIN, HR or EMPLOYEE).
//  FirstName    – given name, informational only.
//  LastName     – family name, informational only.
//  IsActive     – whether the account may authenticate.
//  CreatedAt    – timestamp of creation.
//  UpdatedAt    – timestamp of last update.
type User struct {
	ID           uint64    // users.id
	Email        string    // users.email
	Username     string    // users.username
	PasswordHash string    // users.password_hash
	Role         string    // users.role
	FirstName    string    // users.first_name
	LastName     string    // users.last_name
	IsActive     bool      // users.is_active
	CreatedAt    time.Time // users.created_at
	UpdatedAt    time.Time // users.updated_at
}

// Role names accepted by the service. ADMIN and HR gain access to the
// administrative HR endpoints served elsewhere in the backend; the auth
// core only embeds the role into access-token claims.
const (
	RoleAdmin    = "ADMIN"
	RoleHR       = "HR"
	RoleEmployee = "EMPLOYEE"
)
