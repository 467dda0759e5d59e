package nq

import (
	"testing"
	"time"
)

func TestOpen_EmptyURL(t *testing.T) {
	t.Parallel()

	if _, err := Open(Config{}); err == nil {
		t.Fatalf("expected error for empty url")
	}
}

func TestOpen_RetriesInBackground(t *testing.T) {
	t.Parallel()

	// with RetryOnFailedConnect the connect call returns a reconnecting conn
	nc, err := Open(Config{URL: "nats://127.0.0.1:1", Name: "test", MaxReconnects: 1, ReconnectWait: 10 * time.Millisecond})
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	defer nc.Close()

	if err := Ping(nc); err == nil {
		t.Fatalf("ping should fail while not connected")
	}
}

func TestPing_Nil(t *testing.T) {
	t.Parallel()

	if err := Ping(nil); err == nil {
		t.Fatalf("expected error for nil conn")
	}
}
