package http

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	stdhttp "net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shelfscan/internal/core/barcode"
	perr "shelfscan/internal/platform/errors"
	phttp "shelfscan/internal/platform/net/http"
	"shelfscan/internal/services/scan/domain"
)

type fakeSvc struct {
	mu      sync.Mutex
	info    domain.SessionInfo
	got     []domain.RawDetection
	calls   []string
	stopErr error
}

func (f *fakeSvc) record(op string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, op)
}

func (f *fakeSvc) StartSession(context.Context) (domain.SessionInfo, error) {
	f.record("start")
	f.info.Active = true
	f.info.ID = "s-1"
	return f.info, nil
}

func (f *fakeSvc) StopSession(context.Context) error {
	f.record("stop")
	return f.stopErr
}

func (f *fakeSvc) ResetSession(context.Context) error {
	f.record("reset")
	return nil
}

func (f *fakeSvc) Snapshot(context.Context) (domain.SessionInfo, error) {
	f.record("snapshot")
	return f.info, nil
}

func (f *fakeSvc) Ingest(dets []domain.RawDetection) domain.IngestResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.got = append(f.got, dets...)
	return domain.IngestResult{Queued: len(dets)}
}

func (f *fakeSvc) Confirmed() []domain.ConfirmedCode {
	return []domain.ConfirmedCode{{Code: "12345670", Products: []domain.ProductRef{{ID: "1", Name: "Tea"}}}}
}

type chanSource struct {
	ch  chan domain.Event
	err error
}

func (c *chanSource) Subscribe(ctx context.Context) (<-chan domain.Event, error) {
	if c.err != nil {
		return nil, c.err
	}
	return c.ch, nil
}

func newRouter(s *fakeSvc, src domain.EventSource) stdhttp.Handler {
	m := chi.NewRouter()
	r := phttp.AdaptChi(m)
	r.Route("/scan", func(r phttp.Router) { Register(r, s, src) })
	return m
}

type envelope struct {
	StatusCode int             `json:"status_code"`
	Data       json.RawMessage `json:"data"`
	Error      string          `json:"error"`
}

func do(t *testing.T, h stdhttp.Handler, method, path, body string) (int, envelope) {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return rec.Code, env
}

func TestSessionRoutes(t *testing.T) {
	s := &fakeSvc{}
	h := newRouter(s, nil)

	code, env := do(t, h, stdhttp.MethodPost, "/scan/session/start", "")
	require.Equal(t, stdhttp.StatusOK, code)
	var info domain.SessionInfo
	require.NoError(t, json.Unmarshal(env.Data, &info))
	assert.Equal(t, "s-1", info.ID)

	code, _ = do(t, h, stdhttp.MethodPost, "/scan/session/reset", "")
	require.Equal(t, stdhttp.StatusOK, code)
	code, _ = do(t, h, stdhttp.MethodPost, "/scan/session/stop", "")
	require.Equal(t, stdhttp.StatusOK, code)
	code, _ = do(t, h, stdhttp.MethodGet, "/scan/session", "")
	require.Equal(t, stdhttp.StatusOK, code)

	assert.Equal(t, []string{"start", "reset", "snapshot", "stop", "snapshot", "snapshot"}, s.calls)
}

func TestStopErrorMapsToEnvelope(t *testing.T) {
	s := &fakeSvc{stopErr: perr.Unavailablef("scan controller stopped")}
	code, env := do(t, newRouter(s, nil), stdhttp.MethodPost, "/scan/session/stop", "")
	assert.Equal(t, perr.HTTPStatusCode(perr.ErrorCodeUnavailable), code)
	assert.Contains(t, env.Error, "stopped")
}

func TestDetections_FiltersNonStringValues(t *testing.T) {
	s := &fakeSvc{}
	body := `{"detections":[
		{"value":"012345678905","kind":"org.gs1.UPC-A"},
		{"value":42},
		{"value":null},
		{"value":"https://x.test","kind":"qr"}
	]}`
	code, env := do(t, newRouter(s, nil), stdhttp.MethodPost, "/scan/detections", body)
	require.Equal(t, stdhttp.StatusOK, code)

	var res domain.IngestResult
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.Equal(t, domain.IngestResult{Queued: 2, Rejected: 2}, res)

	require.Len(t, s.got, 2)
	assert.Equal(t, barcode.KindUPCA, s.got[0].Kind)
	assert.Equal(t, barcode.KindQR, s.got[1].Kind)
}

func TestDetections_ValidationFails(t *testing.T) {
	s := &fakeSvc{}
	long := strings.Repeat("k", 65)
	code, _ := do(t, newRouter(s, nil), stdhttp.MethodPost, "/scan/detections", `{"detections":[{"value":"1","kind":"`+long+`"}]}`)
	assert.Equal(t, stdhttp.StatusBadRequest, code)
	assert.Empty(t, s.got)
}

func TestConfirmedRoute(t *testing.T) {
	code, env := do(t, newRouter(&fakeSvc{}, nil), stdhttp.MethodGet, "/scan/confirmed", "")
	require.Equal(t, stdhttp.StatusOK, code)
	var list domain.ConfirmedList
	require.NoError(t, json.Unmarshal(env.Data, &list))
	require.Len(t, list.Items, 1)
	assert.Equal(t, "Tea", list.Items[0].Products[0].Name)
}

func TestEventsNotMountedWithoutSource(t *testing.T) {
	req := httptest.NewRequest(stdhttp.MethodGet, "/scan/events", nil)
	rec := httptest.NewRecorder()
	newRouter(&fakeSvc{}, nil).ServeHTTP(rec, req)
	assert.Equal(t, stdhttp.StatusNotFound, rec.Code)
}

func TestEventsSubscribeError(t *testing.T) {
	src := &chanSource{err: perr.Unavailablef("event bus closed")}
	req := httptest.NewRequest(stdhttp.MethodGet, "/scan/events", nil)
	rec := httptest.NewRecorder()
	newRouter(&fakeSvc{}, src).ServeHTTP(rec, req)
	assert.Equal(t, perr.HTTPStatusCode(perr.ErrorCodeUnavailable), rec.Code)
}

func TestEventsStream(t *testing.T) {
	src := &chanSource{ch: make(chan domain.Event, 2)}
	srv := httptest.NewServer(newRouter(&fakeSvc{}, src))
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := stdhttp.NewRequestWithContext(ctx, stdhttp.MethodGet, srv.URL+"/scan/events", nil)
	require.NoError(t, err)
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	require.Equal(t, stdhttp.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	src.ch <- domain.Event{Kind: domain.EventInsufficient, Code: "12345670", Count: 2}

	sc := bufio.NewScanner(resp.Body)
	var event, data string
	for sc.Scan() {
		line := sc.Text()
		switch {
		case strings.HasPrefix(line, "event: "):
			event = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			data = strings.TrimPrefix(line, "data: ")
		}
		if data != "" {
			break
		}
	}
	assert.Equal(t, "insufficient", event)
	var ev domain.Event
	require.NoError(t, json.Unmarshal([]byte(data), &ev))
	assert.Equal(t, 2, ev.Count)

	close(src.ch)
}
