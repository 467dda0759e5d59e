package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	kit "shelfscan/internal/platform/testkit"
)

func TestScalars(t *testing.T) {
	t.Setenv("SCAN_LOOKUP_URL", " http://lookup.local ")
	t.Setenv("SCAN_THRESHOLD", " 5 ")
	t.Setenv("SCAN_AUDIT", "true")
	t.Setenv("SCAN_QUIET_PERIOD", "3s")
	scan := New().Prefix("SCAN_")

	assert.Equal(t, "http://lookup.local", scan.MayString("LOOKUP_URL", ""))
	assert.Equal(t, 5, scan.MayInt("THRESHOLD", 3))
	assert.True(t, scan.MayBool("AUDIT", false))
	assert.Equal(t, 3*time.Second, scan.MayDuration("QUIET_PERIOD", time.Second))

	assert.Equal(t, "memory", scan.MayString("UNSET", "memory"))
	assert.Equal(t, 64, scan.MayInt("UNSET", 64))
	assert.Equal(t, 2*time.Second, scan.MayDuration("UNSET", 2*time.Second))
}

func TestUnparsableFallsBack(t *testing.T) {
	t.Setenv("SCAN_THRESHOLD", "five")
	t.Setenv("SCAN_AUDIT", "sometimes")
	t.Setenv("SCAN_QUIET_PERIOD", "3")
	scan := New().Prefix("SCAN_")

	assert.Equal(t, 3, scan.MayInt("THRESHOLD", 3))
	assert.False(t, scan.MayBool("AUDIT", false))
	assert.Equal(t, time.Second, scan.MayDuration("QUIET_PERIOD", time.Second))
}

func TestMayCSV(t *testing.T) {
	t.Setenv("CORE_API_CORS_ORIGINS", " http://a.local, ,http://b.local ,, ")
	t.Setenv("CORE_API_BLANK", " , ,")
	api := New().Prefix("CORE_").Prefix("API_")

	assert.Equal(t, []string{"http://a.local", "http://b.local"}, api.MayCSV("CORS_ORIGINS", nil))
	assert.Equal(t, []string{"*"}, api.MayCSV("BLANK", []string{"*"}))
	assert.Equal(t, []string{"*"}, api.MayCSV("UNSET", []string{"*"}))
}

func TestMayEnum(t *testing.T) {
	t.Setenv("SCAN_REGISTRY_BACKEND", "Redis")
	t.Setenv("SCAN_BAD", "etcd")
	scan := New().Prefix("SCAN_")
	backends := []string{"memory", "redis", "pg"}

	assert.Equal(t, "redis", scan.MayEnum("REGISTRY_BACKEND", "memory", backends...))
	assert.Equal(t, "memory", scan.MayEnum("UNSET", "memory", backends...))
	assert.Equal(t, "", scan.MayEnum("UNSET", "", backends...))
	kit.MustPanic(t, func() { scan.MayEnum("BAD", "memory", backends...) })
}
