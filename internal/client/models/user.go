package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

var ErrInvalidEmail = errors.New("invalid email")

// User is the profile owned by the remote API. The client keeps a cached
// copy next to the session token.
type User struct {
	ID        string    `json:"_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// UnmarshalJSON accepts both "_id" and "id" for the identifier; the API
// emits the former, some older payloads the latter.
func (u *User) UnmarshalJSON(b []byte) error {
	type alias User
	var raw struct {
		alias
		AltID string `json:"id"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*u = User(raw.alias)
	if u.ID == "" {
		u.ID = raw.AltID
	}
	return nil
}

// ProfileUpdate carries the fields a user may change on their profile.
// Nil fields are left out of the request.
type ProfileUpdate struct {
	Name  *string `json:"name,omitempty"`
	Email *string `json:"email,omitempty"`
}

// Empty reports whether the update changes nothing.
func (p ProfileUpdate) Empty() bool {
	return p.Name == nil && p.Email == nil
}

// ValidateEmail rejects addresses the API would refuse on register or
// profile update.
func ValidateEmail(email string) error {
	if err := validate.Var(email, "required,email"); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidEmail, email)
	}
	return nil
}
