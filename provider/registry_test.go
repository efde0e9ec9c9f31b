package provider

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProvider struct {
	name string
}

func (s *stubProvider) Name() string {
	return s.name
}

func (s *stubProvider) Call(ctx context.Context, req *Request) (*Response, error) {
	return &Response{Content: `{"ok":true}`, FinishReason: FinishReasonStop}, nil
}

// resetRegistry empties the global registry and restores it afterwards.
func resetRegistry(t *testing.T) {
	t.Helper()
	mu.Lock()
	saved := registry
	registry = make(map[string]Factory)
	mu.Unlock()
	t.Cleanup(func() {
		mu.Lock()
		registry = saved
		mu.Unlock()
	})
}

func TestRegisterAndGet(t *testing.T) {
	resetRegistry(t)

	Register("stub", func() (Provider, error) {
		return &stubProvider{name: "stub"}, nil
	})

	require.True(t, IsRegistered("stub"))

	p, err := Get("stub")
	require.NoError(t, err)
	assert.Equal(t, "stub", p.Name())
}

func TestRegister_LastFactoryWins(t *testing.T) {
	resetRegistry(t)

	Register("dup", func() (Provider, error) { return &stubProvider{name: "first"}, nil })
	Register("dup", func() (Provider, error) { return &stubProvider{name: "second"}, nil })

	p, err := Get("dup")
	require.NoError(t, err)
	assert.Equal(t, "second", p.Name())
}

func TestGet_UnknownListsAvailable(t *testing.T) {
	resetRegistry(t)

	Register("alpha", func() (Provider, error) { return &stubProvider{name: "alpha"}, nil })
	Register("beta", func() (Provider, error) { return &stubProvider{name: "beta"}, nil })

	_, err := Get("gamma")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gamma")
	assert.Contains(t, err.Error(), "alpha")
	assert.Contains(t, err.Error(), "beta")
}

func TestGet_FactoryRunsPerCall(t *testing.T) {
	resetRegistry(t)

	calls := 0
	Register("counted", func() (Provider, error) {
		calls++
		return &stubProvider{name: "counted"}, nil
	})

	_, err := Get("counted")
	require.NoError(t, err)
	_, err = Get("counted")
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestGet_FactoryFailure(t *testing.T) {
	resetRegistry(t)

	boom := errors.New("missing API key")
	Register("broken", func() (Provider, error) { return nil, boom })

	_, err := Get("broken")
	assert.ErrorIs(t, err, boom)
}

func TestAvailable_Sorted(t *testing.T) {
	resetRegistry(t)

	assert.Empty(t, Available())

	Register("beta", func() (Provider, error) { return &stubProvider{name: "beta"}, nil })
	Register("alpha", func() (Provider, error) { return &stubProvider{name: "alpha"}, nil })

	assert.Equal(t, []string{"alpha", "beta"}, Available())
}

func TestIsRegistered(t *testing.T) {
	resetRegistry(t)

	assert.False(t, IsRegistered("stub"))
	Register("stub", func() (Provider, error) { return &stubProvider{name: "stub"}, nil })
	assert.True(t, IsRegistered("stub"))
}

func TestRegistry_ConcurrentAccess(t *testing.T) {
	resetRegistry(t)

	Register("shared", func() (Provider, error) {
		return &stubProvider{name: "shared"}, nil
	})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, _ = Get("shared")
			_ = Available()
			_ = IsRegistered("shared")
		}()
		go func() {
			defer wg.Done()
			Register("shared", func() (Provider, error) {
				return &stubProvider{name: "shared"}, nil
			})
		}()
	}
	wg.Wait()

	assert.True(t, IsRegistered("shared"))
}
