// Package http provides http transport for scan sessions
package http

import (
	stdhttp "net/http"
	"time"

	"shelfscan/internal/core/barcode"
	"shelfscan/internal/modkit/httpkit"
	"shelfscan/internal/platform/net/middleware"
	"shelfscan/internal/services/scan/domain"
	svc "shelfscan/internal/services/scan/service"
)

// RequestTimeout bounds every non streaming scan route
const RequestTimeout = 30 * time.Second

// Register mounts the router
// src may be nil, in which case /events is not mounted
func Register(r httpkit.Router, s svc.Service, src domain.EventSource) {
	h := &handlers{svc: s, src: src, ping: defaultPing}

	r.Group(func(r httpkit.Router) {
		r.Use(middleware.Timeout(RequestTimeout))
		httpkit.Post(r, "/session/start", h.start)
		httpkit.Post(r, "/session/stop", h.stop)
		httpkit.Post(r, "/session/reset", h.reset)
		httpkit.Get(r, "/session", h.session)
		r.Group(func(r httpkit.Router) {
			r.Use(middleware.AllowContentType("application/json"))
			httpkit.PostBound[domain.DetectionBatch](r, "/detections", h.detections)
		})
		httpkit.Get(r, "/confirmed", h.confirmed)
	})
	if src != nil {
		r.Get("/events", h.events)
	}
}

type handlers struct {
	svc  svc.Service
	src  domain.EventSource
	ping time.Duration
}

func (h *handlers) start(r *stdhttp.Request) (any, error) {
	return h.svc.StartSession(r.Context())
}

func (h *handlers) stop(r *stdhttp.Request) (any, error) {
	if err := h.svc.StopSession(r.Context()); err != nil {
		return nil, err
	}
	return h.svc.Snapshot(r.Context())
}

func (h *handlers) reset(r *stdhttp.Request) (any, error) {
	if err := h.svc.ResetSession(r.Context()); err != nil {
		return nil, err
	}
	return h.svc.Snapshot(r.Context())
}

func (h *handlers) session(r *stdhttp.Request) (any, error) {
	return h.svc.Snapshot(r.Context())
}

func (h *handlers) detections(_ *stdhttp.Request, in domain.DetectionBatch) (any, error) {
	dets, rejected := toRaw(in.Detections)
	res := h.svc.Ingest(dets)
	res.Rejected += rejected
	return res, nil
}

func (h *handlers) confirmed(_ *stdhttp.Request) (any, error) {
	return domain.ConfirmedList{Items: h.svc.Confirmed()}, nil
}

// toRaw keeps string values and counts the rest as rejected
func toRaw(in []domain.DetectionInput) ([]domain.RawDetection, int) {
	out := make([]domain.RawDetection, 0, len(in))
	rejected := 0
	for _, d := range in {
		v, ok := d.Value.(string)
		if !ok {
			rejected++
			continue
		}
		out = append(out, domain.RawDetection{
			Value:      v,
			Kind:       barcode.ParseKind(d.Kind),
			ObservedAt: d.ObservedAt,
		})
	}
	return out, rejected
}
