package model

import "time"

// Account identifies a customer by login.
type Account struct {
	CreatedAt time.Time
	Login     string
	Email     string
	ID        int64
}
