package turnstile

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"os"
	"strings"

	"github.com/labstack/echo/v4"

	"blog-backend/internal/config"
)

// TrustedProxies is the set of edge proxy ranges whose forwarded client IP
// header is believed
type TrustedProxies struct {
	prefixes []netip.Prefix
}

// NewTrustedProxies parses CIDR ranges, IPv4 and IPv6 alike
func NewTrustedProxies(cidrs ...string) (*TrustedProxies, error) {
	tp := &TrustedProxies{}
	for _, cidr := range cidrs {
		if err := tp.add(cidr); err != nil {
			return nil, err
		}
	}
	return tp, nil
}

// LoadTrustedProxies builds the trusted set from inline lists and files
func LoadTrustedProxies(cfg config.Turnstile) (*TrustedProxies, error) {
	tp, err := NewTrustedProxies(append(append([]string{}, cfg.TrustedIPv4...), cfg.TrustedIPv6...)...)
	if err != nil {
		return nil, err
	}
	for _, path := range []string{cfg.TrustedIPv4File, cfg.TrustedIPv6File} {
		if path == "" {
			continue
		}
		if err := tp.LoadFile(path); err != nil {
			return nil, err
		}
	}
	return tp, nil
}

// LoadFile adds the ranges listed in path, one per line. Blank lines and
// lines starting with # are skipped.
func (tp *TrustedProxies) LoadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open trusted proxy list: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if err := tp.add(line); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
	}
	return scanner.Err()
}

func (tp *TrustedProxies) add(cidr string) error {
	prefix, err := netip.ParsePrefix(strings.TrimSpace(cidr))
	if err != nil {
		return fmt.Errorf("invalid trusted proxy range %q: %w", cidr, err)
	}
	tp.prefixes = append(tp.prefixes, prefix.Masked())
	return nil
}

// Len returns the number of configured ranges
func (tp *TrustedProxies) Len() int {
	if tp == nil {
		return 0
	}
	return len(tp.prefixes)
}

// Contains reports whether addr falls inside a trusted range
func (tp *TrustedProxies) Contains(addr netip.Addr) bool {
	if tp == nil {
		return false
	}
	addr = addr.Unmap()
	for _, p := range tp.prefixes {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

// ClientIPExtractor returns an echo.IPExtractor. The forwarded header is
// honoured only when the TCP peer is a trusted proxy and the header holds a
// valid IP; otherwise the peer address is used.
func ClientIPExtractor(trusted *TrustedProxies, header string) echo.IPExtractor {
	return func(req *http.Request) string {
		peer := peerAddr(req.RemoteAddr)
		addr, err := netip.ParseAddr(peer)
		if err != nil || header == "" || !trusted.Contains(addr) {
			return peer
		}

		forwarded := strings.TrimSpace(req.Header.Get(header))
		if fwd, err := netip.ParseAddr(forwarded); err == nil {
			return fwd.Unmap().String()
		}
		return peer
	}
}

func peerAddr(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return remoteAddr
	}
	return host
}
