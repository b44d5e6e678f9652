package models

import "time"

// User is an account of the service. The ID is the subject of the bearer
// token and is assigned outside this system.
//
// MisocaRefreshToken is the current refresh token of the invoicing service;
// empty means the account is not connected. Each refresh rotates it and the
// previous value must not be used again.
type User struct {
	ID                 string
	MisocaRefreshToken string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// NewUser returns a user that is not connected to Misoca yet.
func NewUser(id string, now time.Time) *User {
	return &User{ID: id, CreatedAt: now, UpdatedAt: now}
}

func (u *User) IsConnected() bool {
	return u.MisocaRefreshToken != ""
}

func (u *User) UpdateRefreshToken(token string, now time.Time) {
	u.MisocaRefreshToken = token
	u.UpdatedAt = now
}
