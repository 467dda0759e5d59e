// Package linefeed accepts detections from fixed scanners over a plain TCP line protocol
//
// Each line is either "kind,value" or a bare "value". Lines equal to NO_READ are
// ignored, as are blank lines. A leading field that is not a known symbology is
// treated as part of the value, so QR payloads containing commas survive.
package linefeed

import (
	"bufio"
	"context"
	"errors"
	"io"
	"net"
	"strings"
	"sync"
	"time"

	"shelfscan/internal/core/barcode"
	perr "shelfscan/internal/platform/errors"
	"shelfscan/internal/platform/logger"
	"shelfscan/internal/services/scan/domain"
)

// NoRead is what fixed scanners emit when a trigger produced no decode
const NoRead = "NO_READ"

// MaxLine caps a single line; a longer frame is discarded up to its newline
// and the connection keeps reading
const MaxLine = 4096

// Ingester is the part of the session controller a capture source feeds
type Ingester interface {
	Ingest(dets []domain.RawDetection) domain.IngestResult
}

// Listener serves the line protocol on one TCP address
type Listener struct {
	addr string
	sink Ingester
	log  logger.Logger
	now  func() time.Time

	mu    sync.Mutex
	ln    net.Listener
	conns map[net.Conn]struct{}
	wg    sync.WaitGroup
}

// New builds a listener, call Serve to start accepting
func New(addr string, sink Ingester) *Listener {
	return &Listener{
		addr:  addr,
		sink:  sink,
		log:   *logger.Named("linefeed"),
		now:   time.Now,
		conns: map[net.Conn]struct{}{},
	}
}

// Listen binds the address, Serve must follow
func (l *Listener) Listen() error {
	ln, err := net.Listen("tcp", l.addr)
	if err != nil {
		return perr.Wrapf(err, perr.ErrorCodeUnavailable, "linefeed listen %s", l.addr)
	}
	l.mu.Lock()
	l.ln = ln
	l.mu.Unlock()
	return nil
}

// Addr returns the bound address, nil before Listen
func (l *Listener) Addr() net.Addr {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.ln == nil {
		return nil
	}
	return l.ln.Addr()
}

// Serve accepts connections until ctx is done, then closes every open connection
func (l *Listener) Serve(ctx context.Context) error {
	if l.Addr() == nil {
		if err := l.Listen(); err != nil {
			return err
		}
	}
	l.mu.Lock()
	ln := l.ln
	l.mu.Unlock()

	l.log.Info().Str("addr", ln.Addr().String()).Msg("linefeed listening")

	stop := context.AfterFunc(ctx, func() {
		_ = ln.Close()
		l.mu.Lock()
		for c := range l.conns {
			_ = c.Close()
		}
		l.mu.Unlock()
	})
	defer stop()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				l.wg.Wait()
				return nil
			}
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				continue
			}
			l.wg.Wait()
			return perr.Wrapf(err, perr.ErrorCodeUnavailable, "linefeed accept")
		}

		l.mu.Lock()
		l.conns[conn] = struct{}{}
		l.mu.Unlock()
		if ctx.Err() != nil {
			_ = conn.Close()
		}

		l.wg.Add(1)
		go func() {
			defer l.wg.Done()
			l.handle(conn)
		}()
	}
}

func (l *Listener) handle(conn net.Conn) {
	remote := conn.RemoteAddr().String()
	defer func() {
		l.mu.Lock()
		delete(l.conns, conn)
		l.mu.Unlock()
		_ = conn.Close()
		l.log.Debug().Str("remote", remote).Msg("linefeed client gone")
	}()
	l.log.Info().Str("remote", remote).Msg("linefeed client connected")

	rd := bufio.NewReaderSize(conn, MaxLine)
	for {
		line, err := readLine(rd)
		if errors.Is(err, bufio.ErrBufferFull) {
			l.log.Warn().Str("remote", remote).Int("max", MaxLine).Msg("linefeed line too long, dropped")
			continue
		}
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed) {
				l.log.Warn().Err(err).Str("remote", remote).Msg("linefeed read failed")
			}
			return
		}
		det, ok := ParseLine(line)
		if !ok {
			continue
		}
		det.ObservedAt = l.now()
		if res := l.sink.Ingest([]domain.RawDetection{det}); res.Dropped > 0 {
			l.log.Debug().Str("remote", remote).Int("dropped", res.Dropped).Msg("linefeed detection dropped")
		}
	}
}

// readLine returns the next line with its terminator; ParseLine trims it. A line that does not
// fit the reader is consumed through its newline and reported as ErrBufferFull.
// A final line without a newline is still returned before io.EOF.
func readLine(rd *bufio.Reader) (string, error) {
	b, err := rd.ReadSlice('\n')
	if errors.Is(err, bufio.ErrBufferFull) {
		for errors.Is(err, bufio.ErrBufferFull) {
			_, err = rd.ReadSlice('\n')
		}
		if err != nil {
			return "", err
		}
		return "", bufio.ErrBufferFull
	}
	if err != nil && (len(b) == 0 || !errors.Is(err, io.EOF)) {
		return "", err
	}
	return string(b), nil
}

// ParseLine turns one protocol line into a detection, ok is false for lines to skip
func ParseLine(line string) (domain.RawDetection, bool) {
	line = strings.TrimSpace(line)
	if line == "" || strings.EqualFold(line, NoRead) {
		return domain.RawDetection{}, false
	}
	if head, rest, found := strings.Cut(line, ","); found {
		if k := barcode.ParseKind(head); k != barcode.KindUnknown {
			rest = strings.TrimSpace(rest)
			if rest == "" || strings.EqualFold(rest, NoRead) {
				return domain.RawDetection{}, false
			}
			return domain.RawDetection{Value: rest, Kind: k}, true
		}
	}
	return domain.RawDetection{Value: line, Kind: barcode.KindUnknown}, true
}
