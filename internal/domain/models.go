package domain

import "time"

// User is an internal firm user. Client reference tokens point at user ids.
type User struct {
	ID        int64     `db:"id" json:"id"`
	Email     string    `db:"email" json:"email"`
	FullName  string    `db:"full_name" json:"full_name"`
	Role      UserRole  `db:"role" json:"role"`
	IsActive  bool      `db:"is_active" json:"is_active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// ClientGroup groups related clients, e.g. companies of one conglomerate.
type ClientGroup struct {
	ID        int64     `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	CreatedBy int64     `db:"created_by" json:"created_by"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Client is a client organization belonging to exactly one group.
type Client struct {
	ID           int64     `db:"id" json:"id"`
	GroupID      int64     `db:"group_id" json:"group_id"`
	Name         string    `db:"name" json:"name"`
	Industry     string    `db:"industry" json:"industry"`
	Website      string    `db:"website" json:"website"`
	Address      string    `db:"address" json:"address"`
	Code         *string   `db:"code" json:"code"`
	Notes        string    `db:"notes" json:"notes"`
	ReferredByID *int64    `db:"referred_by_id" json:"referred_by_id"`
	CreatedBy    int64     `db:"created_by" json:"created_by"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// Contact is a person at a client.
type Contact struct {
	ID          int64     `db:"id" json:"id"`
	ClientID    int64     `db:"client_id" json:"client_id"`
	Name        string    `db:"name" json:"name"`
	Email       string    `db:"email" json:"email"`
	Phone       string    `db:"phone" json:"phone"`
	Designation string    `db:"designation" json:"designation"`
	IsPrimary   bool      `db:"is_primary" json:"is_primary"`
	Notes       string    `db:"notes" json:"notes"`
	LinkedIn    string    `db:"linkedin" json:"linkedin"`
	Twitter     string    `db:"twitter" json:"twitter"`
	CreatedBy   int64     `db:"created_by" json:"created_by"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// ContactEmail is the projection used for duplicate-by-email lookups.
type ContactEmail struct {
	ClientID int64  `db:"client_id" json:"client_id"`
	Email    string `db:"email" json:"email"`
}
