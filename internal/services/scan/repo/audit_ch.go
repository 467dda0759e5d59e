package repo

import (
	"context"
	"strings"

	"shelfscan/internal/platform/store"
	"shelfscan/internal/services/scan/domain"
)

// DefaultAuditTable is the ClickHouse table audit rows land in
//
//	CREATE TABLE scan_outcomes (
//	  at DateTime64(3), session_id String, stage LowCardinality(String),
//	  verdict LowCardinality(String), code String, count UInt32, reason String
//	) ENGINE = MergeTree ORDER BY (stage, at)
const DefaultAuditTable = "scan_outcomes"

// AuditCH writes audit rows to ClickHouse
type AuditCH struct {
	ch    store.Clickhouse
	table string
}

// NewAuditCH returns an audit sink over the clickhouse seam
func NewAuditCH(ch store.Clickhouse, table string) *AuditCH {
	if strings.TrimSpace(table) == "" {
		table = DefaultAuditTable
	}
	return &AuditCH{ch: ch, table: table}
}

// Record implements domain.AuditSink
func (a *AuditCH) Record(ctx context.Context, rows []domain.AuditRow) error {
	if len(rows) == 0 {
		return nil
	}
	data := make([][]any, 0, len(rows))
	for _, r := range rows {
		count := r.Count
		if count < 0 {
			count = 0
		}
		data = append(data, []any{
			r.At.UTC(), r.SessionID, r.Stage, r.Verdict, r.Code, uint32(count), r.Reason,
		})
	}
	return a.ch.Insert(ctx, a.table, data)
}
