package models

import "time"

// User represents a registered account.
type User struct {
	ID           int64     `json:"id"`
	Phone        string    `json:"phone"`
	PasswordHash string    `json:"-"` // Never expose this to the client
	CreatedAt    time.Time `json:"-"`
}

// UserSummary is how other users appear in the recipient list.
type UserSummary struct {
	ID     int64  `json:"id"`
	Phone  string `json:"phone"`
	Masked string `json:"masked"`
}

// Summary projects u for the recipient list.
func (u User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Phone: u.Phone, Masked: MaskPhone(u.Phone)}
}

// MaskPhone redacts a phone number for display, keeping the first three and
// last two characters. Phones of five characters or fewer are returned as is.
func MaskPhone(phone string) string {
	r := []rune(phone)
	if len(r) <= 5 {
		return phone
	}
	return string(r[:3]) + "..." + string(r[len(r)-2:])
}
