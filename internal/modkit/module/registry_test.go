package module

import (
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	phttp "shelfscan/internal/platform/net/http"
)

type sessionPort interface{ State() string }

type idle struct{}

func (idle) State() string { return "idle" }

type fakeModule struct {
	name    string
	ports   any
	mounted bool
}

func (m *fakeModule) Name() string               { return m.name }
func (m *fakeModule) Ports() any                 { return m.ports }
func (m *fakeModule) MountRoutes(_ phttp.Router) { m.mounted = true }

func TestRegistry(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	mods := []Module{
		&fakeModule{name: "scan", ports: sessionPort(idle{})},
		&fakeModule{name: "meta", ports: struct{ Threshold int }{5}},
	}
	r := phttp.AdaptChi(chi.NewRouter())
	for _, m := range mods {
		Register(m.Name(), m.Ports())
		m.MountRoutes(r)
	}

	p, ok := PortsAs[sessionPort]("scan")
	require.True(t, ok)
	assert.Equal(t, "idle", p.State())
	assert.True(t, mods[0].(*fakeModule).mounted)

	_, ok = PortsAs[sessionPort]("meta")
	assert.False(t, ok, "wrong type must not match")

	missing, ok := PortsAs[sessionPort]("lookup")
	assert.False(t, ok)
	assert.Nil(t, missing)

	Reset()
	_, ok = PortsAs[sessionPort]("scan")
	assert.False(t, ok)
}

func TestRegistry_Concurrent(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	var wg sync.WaitGroup
	for i := range 16 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			Register("scan", i)
		}()
		go func() {
			defer wg.Done()
			_, _ = PortsAs[int]("scan")
		}()
	}
	wg.Wait()

	_, ok := PortsAs[int]("scan")
	assert.True(t, ok)
}
