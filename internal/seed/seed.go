// Package seed loads sample ledgers from YAML and writes them through the
// ledger service.
package seed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"fintrack/internal/core"
	"fintrack/internal/input"
	"fintrack/internal/services"
)

type File struct {
	Users []User `yaml:"users"`
}

type User struct {
	Name         string        `yaml:"name"`
	Email        string        `yaml:"email"`
	Categories   []string      `yaml:"categories"`
	Transactions []Transaction `yaml:"transactions"`
}

// Transaction amounts and timestamps stay strings until Validate so that
// they go through the same parsing as interactive input.
type Transaction struct {
	Amount      string `yaml:"amount"`
	Kind        string `yaml:"kind"`
	Description string `yaml:"description"`
	Category    string `yaml:"category,omitempty"`
	CreatedAt   string `yaml:"created_at"`
}

// Result counts what Apply wrote.
type Result struct {
	Users        int
	Categories   int
	Transactions int
}

// Load reads and decodes the seed file at path.
func Load(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open seed file: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse rejects unknown keys.
func Parse(r io.Reader) (*File, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var file File
	if err := dec.Decode(&file); err != nil {
		if errors.Is(err, io.EOF) {
			return &file, nil
		}
		return nil, fmt.Errorf("decode seed file: %w", err)
	}
	return &file, nil
}

type parsedTransaction struct {
	src       Transaction
	amount    decimal.Decimal
	kind      core.Kind
	createdAt time.Time
}

// validate parses every user and transaction up front so a bad entry leaves
// the ledger untouched.
func (f *File) validate(loc *time.Location) ([][]parsedTransaction, error) {
	out := make([][]parsedTransaction, len(f.Users))
	for i, u := range f.Users {
		if _, err := input.Required("name", u.Name); err != nil {
			return nil, fmt.Errorf("user %d: %w", i+1, err)
		}
		if _, err := input.Email(u.Email); err != nil {
			return nil, fmt.Errorf("user %d: %w", i+1, err)
		}
		categories := make(map[string]bool, len(u.Categories))
		for _, c := range u.Categories {
			if _, err := input.Required("category", c); err != nil {
				return nil, fmt.Errorf("user %s: %w", u.Email, err)
			}
			categories[c] = true
		}

		for j, t := range u.Transactions {
			where := fmt.Sprintf("user %s transaction %d", u.Email, j+1)
			amount, err := input.Amount(t.Amount)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", where, err)
			}
			kind, err := input.Kind(t.Kind)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", where, err)
			}
			if _, err := input.Required("description", t.Description); err != nil {
				return nil, fmt.Errorf("%s: %w", where, err)
			}
			createdAt, err := input.ParseTimestamp("created_at", t.CreatedAt, loc)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", where, err)
			}
			if t.Category != "" && !categories[t.Category] {
				return nil, fmt.Errorf("%s: %w", where,
					&input.ValidationError{Field: "category", Value: t.Category, Err: errors.New("not declared for this user")})
			}
			out[i] = append(out[i], parsedTransaction{src: t, amount: amount, kind: kind, createdAt: createdAt})
		}
	}
	return out, nil
}

// Apply validates f and writes it through svc. Transactions keep the
// timestamps given in the file.
func Apply(ctx context.Context, svc *services.LedgerService, f *File, loc *time.Location) (Result, error) {
	var res Result
	parsed, err := f.validate(loc)
	if err != nil {
		return res, err
	}

	for i, u := range f.Users {
		user, err := svc.CreateAccount(ctx, u.Name, u.Email)
		if err != nil {
			return res, fmt.Errorf("seed user %s: %w", u.Email, err)
		}
		res.Users++

		for _, name := range u.Categories {
			if _, err := svc.CreateCategory(ctx, user.ID, name); err != nil {
				return res, fmt.Errorf("seed category %q: %w", name, err)
			}
			res.Categories++
		}

		for _, t := range parsed[i] {
			_, err := svc.CreateTransaction(ctx, services.NewTransaction{
				OwnerID:     user.ID,
				Amount:      t.amount,
				Kind:        t.kind,
				Description: t.src.Description,
				Category:    t.src.Category,
				CreatedAt:   t.createdAt,
			})
			if err != nil {
				return res, fmt.Errorf("seed transaction %q: %w", t.src.Description, err)
			}
			res.Transactions++
		}
	}
	return res, nil
}
