package store

import (
	"context"
	"errors"
	"strings"
	"testing"
)

// plainTx is a TxRunner without Ping
type plainTx struct{}

func (plainTx) Tx(context.Context, func(RowQuerier) error) error { return nil }
func (plainTx) Exec(context.Context, string, ...any) (CommandTag, error) {
	return nil, nil
}
func (plainTx) Query(context.Context, string, ...any) (Rows, error) { return nil, nil }
func (plainTx) QueryRow(context.Context, string, ...any) Row        { return nil }

type pingTx struct {
	plainTx
	err error
}

func (p pingTx) Ping(context.Context) error { return p.err }

func TestGuard(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		store *Store
		want  []string
	}{
		{name: "nil store", store: nil, want: []string{"nil store"}},
		{name: "empty", store: &Store{}},
		{name: "pg without ping is skipped", store: &Store{PG: plainTx{}}},
		{name: "pg ok", store: &Store{PG: pingTx{}}},
		{name: "pg down", store: &Store{PG: pingTx{err: errors.New("boom")}}, want: []string{"pg: boom"}},
		{name: "ch down", store: &Store{CH: newCHAdapter(&fakeCH{pingErr: errors.New("down")})}, want: []string{"ch: down"}},
		{
			name: "joined",
			store: &Store{
				PG: pingTx{err: errors.New("pg down")},
				CH: newCHAdapter(&fakeCH{pingErr: errors.New("ch down")}),
			},
			want: []string{"pg: pg down", "ch: ch down"},
		},
	}
	for _, tc := range cases {
		err := tc.store.Guard(context.Background())
		if len(tc.want) == 0 {
			if err != nil {
				t.Fatalf("%s: unexpected %v", tc.name, err)
			}
			continue
		}
		if err == nil {
			t.Fatalf("%s: expected error", tc.name)
		}
		for _, w := range tc.want {
			if !strings.Contains(err.Error(), w) {
				t.Fatalf("%s: %q missing %q", tc.name, err.Error(), w)
			}
		}
	}
}
