package model

// Record is one persisted entity instance as returned by the remote
// collection. The identifier is assigned by the remote side and never set
// client-side.
type Record interface {
	RecordID() string
}

// User is a record of the "user" collection.
type User struct {
	ID        string `json:"_id,omitempty"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

// RecordID implements Record.
func (u User) RecordID() string { return u.ID }

// Page is a record of the "page" collection.
type Page struct {
	ID      string `json:"_id,omitempty"`
	Title   string `json:"title"`
	Slug    string `json:"slug"`
	Content string `json:"content"`
}

// RecordID implements Record.
func (p Page) RecordID() string { return p.ID }

// Resource names of the remote collections.
const (
	ResourceUser = "user"
	ResourcePage = "page"
)
