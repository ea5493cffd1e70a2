package model

import "time"

// Site is a provisioned WordPress installation. Domain is unique.
type Site struct {
	ID         string    `json:"id" db:"id"`
	Domain     string    `json:"domain" db:"domain"`
	WPVersion  string    `json:"wp_version" db:"wp_version"`
	DBName     string    `json:"db_name" db:"db_name"`
	DBUser     string    `json:"db_user" db:"db_user"`
	DBPassword string    `json:"-" db:"db_password"`
	Status     string    `json:"status" db:"status"`
	SSLEnabled bool      `json:"ssl_enabled" db:"ssl_enabled"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`
}
