package discovery

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
)

// MDNSScheme prefixes overrides resolved with multicast DNS.
const MDNSScheme = "mdns:"

// Errors.
var (
	ErrNotFound        = errors.New("target not found")
	ErrInvalidOverride = errors.New("invalid address override")
)

// Lookup returns the first announced target named instance that has an
// IPv4 address.
func Lookup(ctx context.Context, b Browser, instance string) (Target, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	targets, err := b.Browse(ctx)
	if err != nil {
		return Target{}, fmt.Errorf("browse: %w", err)
	}
	for {
		select {
		case t, ok := <-targets:
			if !ok {
				return Target{}, fmt.Errorf("%w: %s", ErrNotFound, instance)
			}
			if t.Instance == instance && len(t.IPv4) > 0 {
				return t, nil
			}
		case <-ctx.Done():
			return Target{}, fmt.Errorf("%w: %s: %v", ErrNotFound, instance, ctx.Err())
		}
	}
}

// IsIPv4 reports whether s is a dotted-quad IPv4 address.
func IsIPv4(s string) bool {
	ip := net.ParseIP(s)
	return ip != nil && ip.To4() != nil && strings.Count(s, ".") == 3
}

// ResolveOverride turns an address override into an IPv4 address. An empty
// override yields "" and no error. b may be nil when no mDNS override is
// expected.
func ResolveOverride(ctx context.Context, b Browser, override string) (string, error) {
	switch {
	case override == "":
		return "", nil
	case IsIPv4(override):
		return override, nil
	case strings.HasPrefix(override, MDNSScheme):
		instance := strings.TrimPrefix(override, MDNSScheme)
		if instance == "" || b == nil {
			return "", fmt.Errorf("%w: %q", ErrInvalidOverride, override)
		}
		ctx, cancel := context.WithTimeout(ctx, DefaultTimeout)
		defer cancel()
		t, err := Lookup(ctx, b, instance)
		if err != nil {
			return "", err
		}
		return t.IPv4[0].String(), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidOverride, override)
	}
}
