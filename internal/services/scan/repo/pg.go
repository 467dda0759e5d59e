package repo

import (
	"context"
	"errors"
	"strings"

	"shelfscan/internal/modkit/repokit"
	perr "shelfscan/internal/platform/errors"
	"shelfscan/internal/platform/store"
	"shelfscan/internal/services/scan/domain"

	"github.com/jackc/pgx/v5"
)

// Storage is the Postgres registry surface
type Storage interface {
	domain.RegistryStore
	EnsureSchema(ctx context.Context) error
}

type pg struct {
	q   repokit.Queryer
	key string
}

// NewPG returns a binder for the Postgres registry store
// all registry state lives in one row of scan_registry keyed by key
func NewPG(key string) repokit.Binder[Storage] {
	if strings.TrimSpace(key) == "" {
		key = DefaultKey
	}
	return func(q repokit.Queryer) Storage { return &pg{q: q, key: key} }
}

// EnsureSchema creates the registry table when missing
func (s *pg) EnsureSchema(ctx context.Context) error {
	const sql = `
		CREATE TABLE IF NOT EXISTS scan_registry (
			key        text        PRIMARY KEY,
			doc        jsonb       NOT NULL,
			updated_at timestamptz NOT NULL DEFAULT now()
		)
	`
	if _, err := store.Exec(ctx, s.q, sql); err != nil {
		return perr.FromPostgres(err, "ensure scan_registry")
	}
	return nil
}

// Load implements domain.RegistryStore
func (s *pg) Load(ctx context.Context) (domain.RegistrySnapshot, error) {
	const sql = `SELECT doc FROM scan_registry WHERE key = $1`

	raw, err := store.Scalar[[]byte](ctx, s.q, sql, s.key)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.RegistrySnapshot{}, nil
		}
		return domain.RegistrySnapshot{}, perr.FromPostgres(err, "load scan_registry")
	}
	return decode(raw)
}

// Save implements domain.RegistryStore
func (s *pg) Save(ctx context.Context, snap domain.RegistrySnapshot) error {
	raw, err := encode(snap)
	if err != nil {
		return err
	}
	const sql = `
		INSERT INTO scan_registry (key, doc, updated_at)
		VALUES ($1, $2::jsonb, now())
		ON CONFLICT (key) DO UPDATE
		SET doc        = EXCLUDED.doc,
		    updated_at = EXCLUDED.updated_at
	`
	if err := store.ExecOne(ctx, s.q, sql, s.key, string(raw)); err != nil {
		return perr.FromPostgres(err, "save scan_registry")
	}
	return nil
}
