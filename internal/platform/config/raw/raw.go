// Package raw reads environment variables during bootstrap
// it must not import the logger, which configures itself through it
package raw

import (
	"os"
	"strconv"
	"strings"
)

// Conf reads variables under a name prefix such as "LOG_"
type Conf struct{ prefix string }

func New() Conf                       { return Conf{} }
func (c Conf) Prefix(p string) Conf   { return Conf{prefix: c.prefix + p} }
func (c Conf) Name(key string) string { return c.prefix + key }

// Lookup returns the trimmed value and whether it is non-empty
func (c Conf) Lookup(key string) (string, bool) {
	v := strings.TrimSpace(os.Getenv(c.Name(key)))
	return v, v != ""
}

func (c Conf) Get(key, def string) string {
	if v, ok := c.Lookup(key); ok {
		return v
	}
	return def
}

// GetBool treats 1, true and yes as true; any other set value is false
func (c Conf) GetBool(key string, def bool) bool {
	v, ok := c.Lookup(key)
	if !ok {
		return def
	}
	switch strings.ToLower(v) {
	case "1", "true", "yes":
		return true
	}
	return false
}

// GetInt accepts non-negative decimals only
func (c Conf) GetInt(key string, def int) int {
	v, ok := c.Lookup(key)
	if !ok {
		return def
	}
	n, err := strconv.ParseUint(v, 10, 31)
	if err != nil {
		return def
	}
	return int(n)
}
