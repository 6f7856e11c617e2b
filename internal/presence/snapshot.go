// Package presence tracks which authenticated users currently hold an
// open lobby connection and pushes the online list to every viewer
// whenever it changes.
package presence

import (
	"sort"

	"github.com/google/uuid"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// User is the snapshot of a connected user carried on each connection.
type User struct {
	UserID     uuid.UUID `json:"userId"`
	Name       string    `json:"name"`
	EmployeeID string    `json:"identifier"`
	Role       string    `json:"role"`
}

// Message is the wire format pushed to every connection.
type Message struct {
	Type  string `json:"type"`
	Users []User `json:"users"`
}

// Display names are predominantly Chinese; plain byte ordering would
// shuffle them, so the list is collated for zh-Hans. Collators carry
// mutable iterator state: this one must only ever be touched from the
// hub's run goroutine (snapshot/broadcast), never from handlers.
var nameCollator = collate.New(language.MustParse("zh-Hans"))

// sortUsers orders the snapshot deterministically: locale-aware by name,
// user id as tiebreaker so equal names keep a stable order.
func sortUsers(users []User) {
	sort.Slice(users, func(i, j int) bool {
		if c := nameCollator.CompareString(users[i].Name, users[j].Name); c != 0 {
			return c < 0
		}
		return users[i].UserID.String() < users[j].UserID.String()
	})
}
