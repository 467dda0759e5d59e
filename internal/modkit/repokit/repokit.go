// Package repokit is the seam between SQL repositories and the platform store
package repokit

import (
	"context"
	"fmt"

	"shelfscan/internal/platform/store"
)

type (
	// Queryer is a pool or a transaction
	Queryer  = store.RowQuerier
	TxRunner = store.TxRunner
)

// Binder builds a repository over a Queryer, so the same repo runs on the pool or inside a Tx
type Binder[T any] func(Queryer) T

// MustBind binds b to q; a nil q is a wiring bug and panics
func MustBind[T any](b Binder[T], q Queryer) T {
	if q == nil {
		panic("repokit: bind on nil Queryer")
	}
	return b(q)
}

// InTx runs fn with a repository bound to a transaction of tx
func InTx[T any](ctx context.Context, tx TxRunner, b Binder[T], fn func(T) error) error {
	return tx.Tx(ctx, func(q store.RowQuerier) error { return fn(b(q)) })
}

// MustGuard fails startup when a configured backend does not answer
func MustGuard(ctx context.Context, st interface{ Guard(context.Context) error }) {
	if err := st.Guard(ctx); err != nil {
		panic(fmt.Errorf("dependency guard failed: %w", err))
	}
}
