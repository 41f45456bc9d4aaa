package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/ports"
)

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanUser(s scanner) (core.User, error) {
	var (
		u         core.User
		created   string
		lastLogin sql.NullString
	)
	if err := s.Scan(&u.ID, &u.PublicID, &u.Name, &u.Email, &created, &lastLogin); err != nil {
		return core.User{}, err
	}
	var err error
	if u.CreatedAt, err = time.Parse(timeLayout, created); err != nil {
		return core.User{}, fmt.Errorf("parse user created_at: %w", err)
	}
	if lastLogin.Valid {
		at, err := time.Parse(timeLayout, lastLogin.String)
		if err != nil {
			return core.User{}, fmt.Errorf("parse user last_login: %w", err)
		}
		u.LastLogin = &at
	}
	return u, nil
}

func scanCategory(s scanner) (core.Category, error) {
	var (
		c       core.Category
		created string
	)
	if err := s.Scan(&c.ID, &c.OwnerID, &c.Name, &created); err != nil {
		return core.Category{}, err
	}
	var err error
	if c.CreatedAt, err = time.Parse(timeLayout, created); err != nil {
		return core.Category{}, fmt.Errorf("parse category created_at: %w", err)
	}
	return c, nil
}

func scanTransaction(s scanner) (core.Transaction, error) {
	var (
		t          core.Transaction
		categoryID sql.NullInt64
		cents      int64
		kind       string
		created    string
	)
	if err := s.Scan(&t.ID, &t.OwnerID, &categoryID, &cents, &kind, &t.Description, &created); err != nil {
		return core.Transaction{}, err
	}
	if categoryID.Valid {
		id := categoryID.Int64
		t.CategoryID = &id
	}
	t.Amount = core.FromCents(cents)
	t.Kind = core.Kind(kind)
	var err error
	if t.CreatedAt, err = time.Parse(timeLayout, created); err != nil {
		return core.Transaction{}, fmt.Errorf("parse transaction created_at: %w", err)
	}
	return t, nil
}

func nullableID(id *int64) any {
	if id == nil {
		return nil
	}
	return *id
}

func notFound(err error, what string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", what, ports.ErrNotFound)
	}
	return fmt.Errorf("load %s: %w", what, err)
}

func requireAffected(res sql.Result, what string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected for %s: %w", what, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", what, ports.ErrNotFound)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
