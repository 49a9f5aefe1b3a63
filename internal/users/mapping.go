package users

import (
	"context"
	"fmt"
	"strings"

	"github.com/JaimeStill/console/pkg/source"
	"github.com/JaimeStill/console/pkg/table"
)

// remoteUser is the placeholder API shape. Fields the table does not show
// are ignored.
type remoteUser struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

func fromRemote(r remoteUser) User {
	role := Role(strings.ToLower(r.Role))
	if role != RoleAdmin {
		role = RoleUser
	}
	return User{ID: r.ID, Name: r.Name, Email: r.Email, Role: role}
}

// Fetch loads every user from src.
func Fetch(ctx context.Context, src source.System) ([]User, error) {
	raw, err := src.Fetch(ctx, Kind.Name)
	if err != nil {
		return nil, err
	}
	return source.Decode(raw, fromRemote)
}

// Fetcher adapts Fetch to the table engine.
func Fetcher(src source.System) table.Fetcher[User] {
	return func(ctx context.Context) ([]User, error) {
		return Fetch(ctx, src)
	}
}

// Persister writes upserts through to src.
func Persister(src source.System) table.Persister[User] {
	return func(ctx context.Context, u User, created bool) error {
		return src.Save(ctx, Kind.Name, u.ID, u, created)
	}
}

// Directory looks users up by email against the remote source.
type Directory struct {
	src source.System
}

// NewDirectory creates a Directory over src.
func NewDirectory(src source.System) *Directory {
	return &Directory{src: src}
}

// FindByEmail returns the user whose email matches, ignoring case.
func (d *Directory) FindByEmail(ctx context.Context, email string) (User, error) {
	all, err := Fetch(ctx, d.src)
	if err != nil {
		return User{}, fmt.Errorf("lookup %s: %w", email, err)
	}

	email = strings.TrimSpace(email)
	for _, u := range all {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return User{}, ErrNotFound
}
