// Package users implements the Users table: the record type, its table
// configuration, the add/edit draft, and the mapping from the remote source.
package users

import (
	"strings"

	"github.com/JaimeStill/console/pkg/form"
	"github.com/JaimeStill/console/pkg/table"
)

// Role grants console permissions. Only display is affected.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Roles lists the selectable roles in display order.
var Roles = []string{string(RoleUser), string(RoleAdmin)}

// User is one row of the Users table.
type User struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

// Kind configures the table engine for users. Search matches on name.
var Kind = &table.Kind[User]{
	Name:        "users",
	SearchField: "name",
	Columns: []table.Column[User]{
		{Field: "id", Header: "ID", Value: func(u User) any { return u.ID }},
		{Field: "name", Header: "Name", Value: func(u User) any { return u.Name }},
		{Field: "email", Header: "Email", Value: func(u User) any { return u.Email }},
		{Field: "role", Header: "Role", Value: func(u User) any { return string(u.Role) }},
	},
	ID: func(u User) int { return u.ID },
	WithID: func(u User, id int) User {
		u.ID = id
		return u
	},
}

// Draft holds the editable fields of the add/edit form.
type Draft struct {
	Name  string `form:"name" json:"name"`
	Email string `form:"email" json:"email"`
	Role  string `form:"role" json:"role"`
}

// DraftOf pre-fills a draft from an existing user.
func DraftOf(u User) Draft {
	return Draft{Name: u.Name, Email: u.Email, Role: string(u.Role)}
}

// Validate trims the draft and returns the user it describes, or the
// messages for each field that failed. A blank role selects RoleUser.
func (d Draft) Validate() (User, form.Errors) {
	d.Name = strings.TrimSpace(d.Name)
	d.Email = strings.TrimSpace(d.Email)
	d.Role = strings.TrimSpace(d.Role)
	if d.Role == "" {
		d.Role = string(RoleUser)
	}

	errs := form.Errors{}
	errs.Required("name", d.Name, "Name is required.")
	errs.Required("email", d.Email, "Email is required.")
	errs.Email("email", d.Email, "Enter a valid email address.")
	errs.OneOf("role", d.Role, Roles, "Choose user or admin.")
	if len(errs) > 0 {
		return User{}, errs
	}

	return User{Name: d.Name, Email: d.Email, Role: Role(d.Role)}, nil
}
