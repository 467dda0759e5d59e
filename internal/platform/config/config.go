// Package config reads typed settings from prefixed environment variables
package config

import (
	"strconv"
	"strings"
	"time"

	"shelfscan/internal/platform/config/raw"
	"shelfscan/internal/platform/logger"
)

// Conf is a prefix scoped view such as cfg.Prefix("SCAN_")
// May* accessors fall back to def when unset; unparsable values also fall back, with a warning
type Conf struct{ env raw.Conf }

func New() Conf                     { return Conf{env: raw.New()} }
func (c Conf) Prefix(p string) Conf { return Conf{env: c.env.Prefix(p)} }

func (c Conf) MayString(key, def string) string { return c.env.Get(key, def) }

func (c Conf) MayInt(key string, def int) int { return parsed(c, key, def, strconv.Atoi) }

func (c Conf) MayBool(key string, def bool) bool { return parsed(c, key, def, strconv.ParseBool) }

func (c Conf) MayDuration(key string, def time.Duration) time.Duration {
	return parsed(c, key, def, time.ParseDuration)
}

func parsed[T any](c Conf, key string, def T, parse func(string) (T, error)) T {
	s, ok := c.env.Lookup(key)
	if !ok {
		return def
	}
	v, err := parse(s)
	if err != nil {
		logger.Get().Warn().
			Str("key", c.env.Name(key)).
			Str("value", s).
			Interface("default", def).
			Msg("unparsable setting, using default")
		return def
	}
	return v
}

// MayCSV splits a comma list, dropping blanks; an effectively empty list is def
func (c Conf) MayCSV(key string, def []string) []string {
	s, ok := c.env.Lookup(key)
	if !ok {
		return def
	}
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}

// MayEnum returns the allowed spelling matching the value case-insensitively
// a value outside allowed is a deployment error and panics
func (c Conf) MayEnum(key, def string, allowed ...string) string {
	v := c.MayString(key, def)
	if v == "" {
		return ""
	}
	for _, a := range allowed {
		if strings.EqualFold(v, a) {
			return a
		}
	}
	logger.Get().Panic().
		Str("key", c.env.Name(key)).
		Str("value", v).
		Strs("allowed", allowed).
		Msg("setting not in allowed set")
	return ""
}
