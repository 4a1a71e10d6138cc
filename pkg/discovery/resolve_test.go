package discovery

import (
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBrowser struct {
	targets []Target
}

func (f fakeBrowser) Browse(ctx context.Context) (<-chan Target, error) {
	out := make(chan Target)
	go func() {
		defer close(out)
		for _, t := range f.targets {
			select {
			case out <- t:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

func TestIsIPv4(t *testing.T) {
	tests := map[string]bool{
		"10.0.1.102":  true,
		"192.168.1.1": true,
		"::1":         false,
		"10.0.1":      false,
		"host":        false,
		"":            false,
		"300.0.0.1":   false,
	}
	for in, want := range tests {
		if got := IsIPv4(in); got != want {
			t.Errorf("IsIPv4(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestResolveOverride(t *testing.T) {
	b := fakeBrowser{targets: []Target{
		{Instance: "other", IPv4: []net.IP{net.ParseIP("10.0.0.9")}},
		{Instance: "crate1", IPv4: nil},
		{Instance: "crate1", IPv4: []net.IP{net.ParseIP("10.0.1.102")}},
	}}
	ctx := context.Background()

	ip, err := ResolveOverride(ctx, b, "")
	require.NoError(t, err)
	assert.Empty(t, ip)

	ip, err = ResolveOverride(ctx, b, "10.1.1.1")
	require.NoError(t, err)
	assert.Equal(t, "10.1.1.1", ip)

	ip, err = ResolveOverride(ctx, b, "mdns:crate1")
	require.NoError(t, err)
	assert.Equal(t, "10.0.1.102", ip)

	_, err = ResolveOverride(ctx, b, "mdns:missing")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = ResolveOverride(ctx, b, "not-an-ip")
	assert.ErrorIs(t, err, ErrInvalidOverride)

	_, err = ResolveOverride(ctx, nil, "mdns:crate1")
	assert.ErrorIs(t, err, ErrInvalidOverride)
}

func TestLookupCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	blocking := blockingBrowser{}
	_, err := Lookup(ctx, blocking, "x")
	assert.ErrorIs(t, err, ErrNotFound)
}

type blockingBrowser struct{}

func (blockingBrowser) Browse(ctx context.Context) (<-chan Target, error) {
	return make(chan Target), nil
}

func TestNewMDNSBrowserDefaults(t *testing.T) {
	b := NewMDNSBrowser(BrowserConfig{})
	assert.Equal(t, ServiceType, b.config.Service)
	assert.Nil(t, b.options())

	b = NewMDNSBrowser(BrowserConfig{Interface: "does-not-exist0"})
	assert.Nil(t, b.options())
}
