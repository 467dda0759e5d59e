package domain

import "context"

// RegistryStore persists the known-code registry as one document
type RegistryStore interface {
	Load(ctx context.Context) (RegistrySnapshot, error)
	Save(ctx context.Context, snap RegistrySnapshot) error
}

// ProductLookup resolves a canonical code to products
type ProductLookup interface {
	LookupByCode(ctx context.Context, code string) (LookupResult, error)
}

// EventSink receives UI events
type EventSink interface {
	Publish(ctx context.Context, ev Event) error
}

// EventSource lets transports follow the UI event stream
type EventSource interface {
	Subscribe(ctx context.Context) (<-chan Event, error)
}

// AuditSink stores evaluation and resolution rows
type AuditSink interface {
	Record(ctx context.Context, rows []AuditRow) error
}

// ServicePort is the session controller surface used by HTTP and capture adapters
type ServicePort interface {
	StartSession(ctx context.Context) (SessionInfo, error)
	StopSession(ctx context.Context) error
	ResetSession(ctx context.Context) error
	Snapshot(ctx context.Context) (SessionInfo, error)
	Ingest(dets []RawDetection) IngestResult
	Confirmed() []ConfirmedCode
}
