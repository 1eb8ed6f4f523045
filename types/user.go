package types

import "fmt"

const (
	// KarmaFloor is the lowest karma any user can hold. Settlement clamps
	// every update to this floor.
	KarmaFloor = 0.1

	// InitialKarma is assumed for users with no stored record yet.
	InitialKarma = 1.0
)

// User is a per-community karma record. Karma is mutated only by karma
// settlement (forward or reversed); everything else reads it.
type User struct {
	ID    string  `json:"id"`
	Karma float64 `json:"karma"`
}

// NewUser creates a karma record at the initial score.
func NewUser(id string) *User {
	return &User{ID: id, Karma: InitialKarma}
}

func (u *User) String() string {
	return fmt.Sprintf("User{%s karma=%.2f}", u.ID, u.Karma)
}
