package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shelfscan/internal/core/barcode"
	perr "shelfscan/internal/platform/errors"
	"shelfscan/internal/services/scan/domain"
	"shelfscan/internal/services/scan/repo"
)

func TestScenario_PromoteAndConfirm(t *testing.T) {
	h := newHarness(t)
	h.lookup.found("0012345678905", domain.ProductRef{ID: "p1", Name: "Notebook"})
	h.start()

	h.scan("012345678905", 6)
	info := h.snap()
	require.Equal(t, domain.StateAccumulating, info.State)
	require.Equal(t, 6, info.Tallied)

	h.clock.Advance(3 * time.Second)
	ev := h.waitFor(domain.EventConfirmed)
	assert.Equal(t, "0012345678905", ev.Code)

	h.waitState(domain.StateIdle)
	assert.True(t, h.svc.Registry().IsConfirmed("0012345678905"))
	assert.Equal(t, []string{"0012345678905"}, h.lookup.called())
	assert.Len(t, h.events.of(domain.EventConfirmed), 1)
	assert.Equal(t, 0, h.snap().Tallied)

	listed := h.svc.Confirmed()
	require.Len(t, listed, 1)
	require.Len(t, listed[0].Products, 1)
	assert.Equal(t, "Notebook", listed[0].Products[0].Name)

	mem := h.store.(*repo.Memory)
	require.Eventually(t, func() bool { return mem.Saves() >= 1 }, 2*time.Second, 5*time.Millisecond)
	snap, err := mem.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"0012345678905"}, snap.Confirmed)
}

func TestScenario_InsufficientEvidence(t *testing.T) {
	h := newHarness(t)
	h.start()

	h.scan("4006381333931", 2)
	h.snap()
	h.clock.Advance(3 * time.Second)

	ev := h.waitFor(domain.EventInsufficient)
	assert.Equal(t, "4006381333931", ev.Code)
	assert.Equal(t, 2, ev.Count)
	h.waitState(domain.StateIdle)
	assert.Zero(t, h.lookup.callCount())
	assert.False(t, h.svc.Registry().Known("4006381333931"))
}

func TestQuietPeriodRestartsOnActivity(t *testing.T) {
	h := newHarness(t)
	h.start()

	h.scan("12345670", 3)
	h.snap()
	h.clock.Advance(2 * time.Second)
	h.scan("12345670", 3)
	h.snap()
	h.clock.Advance(2 * time.Second)

	info := h.snap()
	assert.Equal(t, domain.StateAccumulating, info.State)
	assert.Equal(t, 6, info.Tallied)
	assert.Zero(t, h.lookup.callCount())

	h.clock.Advance(time.Second)
	h.waitFor(domain.EventInvalid)
	assert.Equal(t, []string{"12345670"}, h.lookup.called())
}

func TestInvalidCodeIsNotRetallied(t *testing.T) {
	h := newHarness(t)
	h.lookup.fail("12345670", perr.NotFoundf("product not found"))
	h.start()

	h.scan("12345670", 5)
	h.snap()
	h.clock.Advance(3 * time.Second)

	ev := h.waitFor(domain.EventInvalid)
	assert.Equal(t, "12345670", ev.Code)
	assert.Equal(t, "not found", ev.Message)
	h.waitState(domain.StateIdle)
	assert.True(t, h.svc.Registry().IsInvalid("12345670"))

	h.scan("12345670", 5)
	info := h.snap()
	assert.Equal(t, domain.StateIdle, info.State)
	assert.Zero(t, info.Tallied)
	assert.Equal(t, 1, info.Invalid)
}

func TestTransientFailureLeavesCodeEligible(t *testing.T) {
	h := newHarness(t)
	h.lookup.fail("12345670", perr.Unavailablef("lookup unavailable (status 503)"))
	h.start()

	h.scan("12345670", 5)
	h.snap()
	h.clock.Advance(3 * time.Second)

	h.waitFor(domain.EventRetry)
	h.waitState(domain.StateIdle)
	assert.False(t, h.svc.Registry().Known("12345670"))

	h.scan("12345670", 1)
	info := h.snap()
	assert.Equal(t, domain.StateAccumulating, info.State)
	assert.Equal(t, 1, info.Tallied)
}

func TestResetCancelsInFlightLookup(t *testing.T) {
	h := newHarness(t)
	h.lookup.gate = make(chan struct{})
	h.lookup.found("12345670", domain.ProductRef{ID: "p"})
	h.start()

	h.scan("12345670", 5)
	h.snap()
	h.clock.Advance(3 * time.Second)
	h.waitState(domain.StateAwaitingResolution)
	assert.Equal(t, "12345670", h.snap().Pending)

	require.NoError(t, h.svc.ResetSession(h.ctx))
	info := h.snap()
	assert.Equal(t, domain.StateIdle, info.State)
	assert.True(t, info.Active)
	assert.Empty(t, info.Pending)

	assert.Never(t, func() bool {
		return h.events.has(domain.EventRetry) || h.events.has(domain.EventConfirmed)
	}, 150*time.Millisecond, 10*time.Millisecond)
	assert.False(t, h.svc.Registry().Known("12345670"))
}

func TestDetectionsDroppedWhileAwaitingResolution(t *testing.T) {
	h := newHarness(t)
	h.lookup.gate = make(chan struct{})
	h.lookup.found("12345670", domain.ProductRef{ID: "p"})
	h.start()

	h.scan("12345670", 5)
	h.snap()
	h.clock.Advance(3 * time.Second)
	h.waitState(domain.StateAwaitingResolution)

	h.scan("87654321", 4)
	assert.Zero(t, h.snap().Tallied)

	close(h.lookup.gate)
	h.waitFor(domain.EventConfirmed)
	h.waitState(domain.StateIdle)
	assert.Zero(t, h.clock.Pending())
}

func TestDetectionsDroppedWithoutSession(t *testing.T) {
	h := newHarness(t)
	h.scan("12345670", 10)
	info := h.snap()
	assert.False(t, info.Active)
	assert.Equal(t, domain.StateIdle, info.State)
	assert.Zero(t, info.Tallied)
	assert.Zero(t, h.clock.Pending())
}

func TestSessionLifecycle(t *testing.T) {
	h := newHarness(t)

	first := h.start()
	require.True(t, first.Active)
	require.NotEmpty(t, first.ID)
	assert.True(t, epoch0.Equal(first.StartedAt))
	assert.Equal(t, 5, first.Threshold)
	assert.Equal(t, int64(3000), first.QuietMs)

	again := h.start()
	assert.Equal(t, first.ID, again.ID)

	h.scan("12345670", 2)
	require.NoError(t, h.svc.StopSession(h.ctx))
	info := h.snap()
	assert.False(t, info.Active)
	assert.Empty(t, info.ID)
	assert.Zero(t, info.Tallied)
	assert.Zero(t, h.clock.Pending())

	next := h.start()
	assert.NotEqual(t, first.ID, next.ID)

	notices := h.events.of(domain.EventSession)
	require.Len(t, notices, 3)
	assert.Equal(t, "started", notices[0].Message)
	assert.Equal(t, "stopped", notices[1].Message)
	assert.Equal(t, first.ID, notices[1].SessionID)
}

func TestHydratedRegistryFiltersDetections(t *testing.T) {
	store := repo.NewMemory(domain.RegistrySnapshot{Confirmed: []string{"12345670"}, Invalid: []string{"87654321"}})
	h := newHarness(t, withStore(store))
	h.start()

	h.scan("12345670", 5)
	h.scan("87654321", 5)
	info := h.snap()
	assert.Zero(t, info.Tallied)
	assert.Equal(t, 1, info.Confirmed)
	assert.Equal(t, 1, info.Invalid)

	listed := h.svc.Confirmed()
	require.Len(t, listed, 1)
	assert.Equal(t, "12345670", listed[0].Code)
	assert.Empty(t, listed[0].Products)
}

func TestLoadFailureWarnsAndStartsEmpty(t *testing.T) {
	h := newHarness(t, withStore(brokenStore{loadErr: errBoom}))
	h.start()
	ev := h.waitFor(domain.EventWarning)
	assert.Contains(t, ev.Message, "boom")
	assert.Zero(t, h.snap().Confirmed)
}

func TestSaveFailureWarnsAndKeepsMemoryState(t *testing.T) {
	h := newHarness(t, withStore(brokenStore{saveErr: errBoom}))
	h.lookup.found("12345670", domain.ProductRef{ID: "p"})
	h.start()

	h.scan("12345670", 5)
	h.snap()
	h.clock.Advance(3 * time.Second)
	h.waitFor(domain.EventConfirmed)

	ev := h.waitFor(domain.EventWarning)
	assert.Contains(t, ev.Message, "registry save failed")
	assert.True(t, h.svc.Registry().IsConfirmed("12345670"))
}

func TestIngestRejectsMalformed(t *testing.T) {
	s := New(Config{InboxSize: 1}, Ports{Store: repo.NewMemory(domain.RegistrySnapshot{}), Lookup: newFakeLookup()})

	res := s.Ingest([]domain.RawDetection{
		{Value: ""},
		{Value: " \r\n"},
		{Value: "12A45670", Kind: barcode.KindEAN8},
		{Value: "12345670", Kind: barcode.KindEAN8},
		{Value: "https://example.test/x", Kind: barcode.KindQR},
	})
	assert.Equal(t, domain.IngestResult{Queued: 2, Rejected: 3}, res)

	res = s.Ingest([]domain.RawDetection{{Value: "12345670"}})
	assert.Equal(t, domain.IngestResult{Dropped: 1}, res)
	assert.Equal(t, int64(1), s.Dropped())
}

func TestRunTwiceConflicts(t *testing.T) {
	h := newHarness(t)
	h.snap()
	err := h.svc.Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, perr.ErrorCodeConflict, perr.CodeOf(err))
}

func TestCallsAfterShutdownFail(t *testing.T) {
	s := New(Config{}, Ports{Store: repo.NewMemory(domain.RegistrySnapshot{}), Lookup: newFakeLookup()})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	_, err := s.StartSession(context.Background())
	require.NoError(t, err)
	cancel()
	require.ErrorIs(t, <-done, context.Canceled)

	_, err = s.Snapshot(context.Background())
	require.Error(t, err)
	assert.Equal(t, perr.ErrorCodeUnavailable, perr.CodeOf(err))
}
