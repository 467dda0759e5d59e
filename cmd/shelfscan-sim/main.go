// Command shelfscan-sim plays a noisy fixed scanner against the capture line feed
package main

import (
	"bufio"
	"context"
	"flag"
	"math/rand/v2"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"shelfscan/internal/platform/logger"
)

func main() {
	var (
		fAddr     = flag.String("addr", "localhost:7070", "capture line feed address")
		fCodes    = flag.String("codes", "012345678905,4006381333931,12345670", "comma-separated codes to walk past")
		fKind     = flag.String("kind", "", "symbology tag sent before each code, empty sends bare values")
		fReads    = flag.Int("reads", 8, "reads per shelf item")
		fInterval = flag.Duration("interval", 120*time.Millisecond, "time between reads inside a burst")
		fGap      = flag.Duration("gap", 4*time.Second, "pause between items, keep it above the quiet period")
		fNoRead   = flag.Int("noread", 15, "percentage of NO_READ triggers")
		fMisread  = flag.Int("misread", 10, "percentage of single digit misreads")
		fSeed     = flag.Uint64("seed", 0, "random seed, 0 picks one from the clock")
		fLoops    = flag.Int("loops", 0, "passes over the code list, 0 runs until interrupted")
	)
	flag.Parse()

	log := logger.Named("sim")

	codes := strings.Split(*fCodes, ",")
	for i := range codes {
		codes[i] = strings.TrimSpace(codes[i])
	}

	seed := *fSeed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	rng := rand.New(rand.NewPCG(seed, seed>>1))
	nz := noise{NoRead: *fNoRead, Misread: *fMisread}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn, err := dial(ctx, *fAddr)
	if err != nil {
		log.Fatal().Err(err).Str("addr", *fAddr).Msg("connect failed")
	}
	defer func() { _ = conn.Close() }()
	log.Info().Str("addr", *fAddr).Uint64("seed", seed).Msg("connected")

	w := bufio.NewWriter(conn)
	sent := 0
	for loop := 0; *fLoops == 0 || loop < *fLoops; loop++ {
		for _, code := range codes {
			if code == "" {
				continue
			}
			for _, l := range burst(rng, *fKind, code, *fReads, nz) {
				_, err := w.WriteString(l + "\r\n")
				if err == nil {
					err = w.Flush()
				}
				if err != nil {
					log.Warn().Err(err).Msg("write failed, reconnecting")
					_ = conn.Close()
					if conn, err = dial(ctx, *fAddr); err != nil {
						log.Error().Err(err).Msg("reconnect failed")
						return
					}
					w.Reset(conn)
					continue
				}
				sent++
				log.Debug().Int("n", sent).Str("line", l).Msg("sent")
				if !sleep(ctx, *fInterval) {
					return
				}
			}
			log.Info().Str("code", code).Int("reads", *fReads).Msg("item passed")
			if !sleep(ctx, *fGap) {
				return
			}
		}
	}
	log.Info().Int("sent", sent).Msg("done")
}

// dial retries with a doubling delay until ctx ends
func dial(ctx context.Context, addr string) (net.Conn, error) {
	var d net.Dialer
	wait := 250 * time.Millisecond
	for {
		conn, err := d.DialContext(ctx, "tcp", addr)
		if err == nil {
			return conn, nil
		}
		logger.Named("sim").Warn().Err(err).Dur("retry_in", wait).Msg("dial failed")
		if !sleep(ctx, wait) {
			return nil, ctx.Err()
		}
		wait = min(wait*2, 5*time.Second)
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
