package ch

import (
	"os"
	"runtime/debug"
	"strings"

	"github.com/ClickHouse/clickhouse-go/v2"
)

// BuildClientInfo tags queries so system.query_log shows which shelfscan
// process (role "api", "sim") and build issued them
func BuildClientInfo(role, tag string) clickhouse.ClientInfo {
	info := clickhouse.ClientInfo{}
	add := func(name, v string) {
		if v = strings.TrimSpace(v); v != "" {
			info.Products = append(info.Products, struct{ Name, Version string }{name, v})
		}
	}
	add("shelfscan", tag)
	add("role", role)
	if host, err := os.Hostname(); err == nil {
		add("host", host)
	}
	if bi, ok := debug.ReadBuildInfo(); ok {
		add("go", bi.GoVersion)
		for _, s := range bi.Settings {
			if s.Key == "vcs.revision" {
				add("commit", s.Value[:min(7, len(s.Value))])
			}
		}
	}
	return info
}
