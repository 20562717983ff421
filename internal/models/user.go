package models

import "time"

// User represents a row in the PostgreSQL users table.
type User struct {
	ID           string    `json:"id" db:"id"`
	Username     string    `json:"username" db:"username"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"` // never serialize
	Bio          *string   `json:"bio" db:"bio"`
	Image        *string   `json:"image" db:"image"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" db:"updated_at"`
}

// UserUpdate carries the optional fields of PUT /user. Nil means unchanged.
type UserUpdate struct {
	Email        *string
	Username     *string
	PasswordHash *string
	Bio          *string
	Image        *string
}

// Profile is the public view of a user relative to a viewer.
type Profile struct {
	Username  string  `json:"username"`
	Bio       *string `json:"bio"`
	Image     *string `json:"image"`
	Following bool    `json:"following"`
}

// RegisterRequest is the JSON body for POST /users.
type RegisterRequest struct {
	User *struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	} `json:"user"`
}

// LoginRequest is the JSON body for POST /users/login. The credentials may
// be wrapped in "user" or sent at the top level.
type LoginRequest struct {
	User *Credentials `json:"user"`
	Credentials
}

// Credentials is an email and password pair.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UpdateUserRequest is the JSON body for PUT /user.
type UpdateUserRequest struct {
	User *struct {
		Email    *string `json:"email"`
		Username *string `json:"username"`
		Password *string `json:"password"`
		Bio      *string `json:"bio"`
		Image    *string `json:"image"`
	} `json:"user"`
}
