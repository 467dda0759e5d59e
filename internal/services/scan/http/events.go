package http

import (
	"encoding/json"
	"fmt"
	stdhttp "net/http"
	"time"

	"shelfscan/internal/modkit/httpkit"
	perr "shelfscan/internal/platform/errors"
	"shelfscan/internal/platform/logger"
)

const defaultPing = 15 * time.Second

func (h *handlers) events(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	log := logger.C(r.Context())
	rc := stdhttp.NewResponseController(w)

	ch, err := h.src.Subscribe(r.Context())
	if err != nil {
		httpkit.WriteError(w, r, err)
		return
	}

	hdr := w.Header()
	hdr.Set("Content-Type", "text/event-stream")
	hdr.Set("Cache-Control", "no-cache")
	hdr.Set("Connection", "keep-alive")
	hdr.Set("X-Accel-Buffering", "no")
	w.WriteHeader(stdhttp.StatusOK)

	if _, err := fmt.Fprint(w, "retry: 3000\n: connected\n\n"); err != nil {
		return
	}
	if err := rc.Flush(); err != nil {
		log.Warn().Err(err).Msg("sse flush unsupported")
		return
	}

	ping := time.NewTicker(h.ping)
	defer ping.Stop()

	var seq uint64
	for {
		select {
		case <-r.Context().Done():
			return
		case <-ping.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
		case ev, ok := <-ch:
			if !ok {
				return
			}
			raw, err := json.Marshal(ev)
			if err != nil {
				log.Error().Err(perr.Wrapf(err, perr.ErrorCodeJSON, "encode event")).Msg("sse encode failed")
				continue
			}
			seq++
			if _, err := fmt.Fprintf(w, "id: %d\nevent: %s\ndata: %s\n\n", seq, ev.Kind, raw); err != nil {
				return
			}
		}
		if err := rc.Flush(); err != nil {
			return
		}
	}
}
