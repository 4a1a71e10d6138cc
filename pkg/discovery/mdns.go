package discovery

import (
	"context"
	"net"
	"time"

	"github.com/enbility/zeroconf/v3"
)

// Service constants.
const (
	ServiceType = "_cpsw._udp"
	Domain      = "local."

	DefaultTimeout = 3 * time.Second
)

// Target is a discovered register-access endpoint.
type Target struct {
	Instance string
	HostName string
	Port     int
	IPv4     []net.IP
	Text     []string
}

// Browser announces targets on a channel until ctx is done.
type Browser interface {
	Browse(ctx context.Context) (<-chan Target, error)
}

// BrowserConfig configures an MDNSBrowser.
type BrowserConfig struct {
	// Service overrides ServiceType.
	Service string

	// Interface restricts browsing to one network interface.
	Interface string
}

// MDNSBrowser browses with zeroconf.
type MDNSBrowser struct {
	config BrowserConfig
}

// NewMDNSBrowser creates a browser.
func NewMDNSBrowser(config BrowserConfig) *MDNSBrowser {
	if config.Service == "" {
		config.Service = ServiceType
	}
	return &MDNSBrowser{config: config}
}

func (b *MDNSBrowser) options() []zeroconf.ClientOption {
	if b.config.Interface == "" {
		return nil
	}
	iface, err := net.InterfaceByName(b.config.Interface)
	if err != nil {
		return nil
	}
	return []zeroconf.ClientOption{zeroconf.SelectIfaces([]net.Interface{*iface})}
}

// Browse implements Browser.
func (b *MDNSBrowser) Browse(ctx context.Context) (<-chan Target, error) {
	out := make(chan Target)
	entries := make(chan *zeroconf.ServiceEntry)
	removed := make(chan *zeroconf.ServiceEntry)

	go func() {
		defer close(out)
		for {
			select {
			case entry, ok := <-entries:
				if !ok {
					return
				}
				select {
				case out <- entryToTarget(entry):
				case <-ctx.Done():
					return
				}
			case <-removed:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		_ = zeroconf.Browse(ctx, b.config.Service, Domain, entries, removed, b.options()...)
	}()

	return out, nil
}

func entryToTarget(e *zeroconf.ServiceEntry) Target {
	return Target{
		Instance: e.Instance,
		HostName: e.HostName,
		Port:     e.Port,
		IPv4:     append([]net.IP(nil), e.AddrIPv4...),
		Text:     append([]string(nil), e.Text...),
	}
}

var _ Browser = (*MDNSBrowser)(nil)
