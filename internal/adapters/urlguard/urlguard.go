// Package urlguard validates outbound URLs and dial targets against SSRF.
package urlguard

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/GabrielNunesIT/openapi-tryit/internal/domain"
)

// metadataHosts are cloud instance metadata endpoints. They stay blocked
// even when private networks are allowed.
var metadataHosts = []string{
	"169.254.169.254",
	"metadata.google.internal",
	"fd00:ec2::254",
	"100.100.100.200",
}

var privateRanges = []netip.Prefix{
	netip.MustParsePrefix("10.0.0.0/8"),
	netip.MustParsePrefix("172.16.0.0/12"),
	netip.MustParsePrefix("192.168.0.0/16"),
	netip.MustParsePrefix("127.0.0.0/8"),
	netip.MustParsePrefix("::1/128"),
	netip.MustParsePrefix("169.254.0.0/16"),
	netip.MustParsePrefix("fc00::/7"),
	netip.MustParsePrefix("fe80::/10"),
	netip.MustParsePrefix("100.64.0.0/10"),
	netip.MustParsePrefix("198.51.100.0/24"),
	netip.MustParsePrefix("203.0.113.0/24"),
}

var dangerousPorts = []int{22, 23, 25, 110, 143, 3306, 5432, 6379, 27017}

// Policy decides which outbound destinations are allowed.
type Policy struct {
	// AllowPrivate permits loopback, private and link-local addresses.
	AllowPrivate bool
}

// Check parses raw and rejects URLs that must not be dialed.
func (p Policy) Check(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, &domain.RequestError{Op: "validate", URL: raw, Reason: "invalid URL", Kind: domain.ErrInvalidRequest, Cause: err}
	}

	if err := p.CheckURL(u); err != nil {
		return nil, err
	}

	return u, nil
}

// CheckURL validates an already parsed URL.
func (p Policy) CheckURL(u *url.URL) error {
	blocked := func(format string, args ...any) error {
		return &domain.RequestError{Op: "validate", URL: u.String(), Reason: fmt.Sprintf(format, args...), Kind: domain.ErrBlockedURL}
	}

	switch u.Scheme {
	case "http", "https":
	default:
		return blocked("disallowed scheme %q, only http and https are permitted", u.Scheme)
	}

	host := u.Hostname()
	if host == "" {
		return &domain.RequestError{Op: "validate", URL: u.String(), Reason: "URL has no host", Kind: domain.ErrInvalidRequest}
	}

	if isMetadataHost(host) {
		return blocked("host %s is a cloud metadata endpoint", host)
	}

	if ip, err := netip.ParseAddr(host); err == nil {
		if err := p.CheckIP(ip); err != nil {
			return blocked("%v", err)
		}
	}

	if port := u.Port(); port != "" {
		n, err := strconv.Atoi(port)
		if err != nil {
			return &domain.RequestError{Op: "validate", URL: u.String(), Reason: "invalid port", Kind: domain.ErrInvalidRequest, Cause: err}
		}
		if slices.Contains(dangerousPorts, n) {
			return blocked("port %d is not allowed for outbound requests", n)
		}
	}

	return nil
}

// CheckIP reports an error when ip is a metadata or (unless allowed) internal address.
func (p Policy) CheckIP(ip netip.Addr) error {
	ip = ip.Unmap()

	if isMetadataHost(ip.String()) {
		return fmt.Errorf("IP %s is a cloud metadata endpoint", ip)
	}

	if p.AllowPrivate {
		return nil
	}

	if ip.IsUnspecified() {
		return fmt.Errorf("IP %s is unspecified", ip)
	}

	for _, r := range privateRanges {
		if r.Contains(ip) {
			return fmt.Errorf("IP %s is in private range %s", ip, r)
		}
	}

	return nil
}

func isMetadataHost(host string) bool {
	host = strings.TrimSuffix(strings.ToLower(host), ".")
	return slices.Contains(metadataHosts, host)
}

// DialContext wraps dialer so every resolved address is checked before
// connecting, which also covers hostnames that resolve to internal IPs.
func (p Policy) DialContext(dialer *net.Dialer) func(ctx context.Context, network, addr string) (net.Conn, error) {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		host, port, err := net.SplitHostPort(addr)
		if err != nil {
			return nil, err
		}

		ips, err := net.DefaultResolver.LookupNetIP(ctx, "ip", host)
		if err != nil {
			return nil, err
		}
		if len(ips) == 0 {
			return nil, fmt.Errorf("no IP addresses found for host: %s", host)
		}

		for _, ip := range ips {
			if err := p.CheckIP(ip); err != nil {
				return nil, &domain.RequestError{Op: "dial", URL: addr, Reason: err.Error(), Kind: domain.ErrBlockedURL}
			}
		}

		return dialer.DialContext(ctx, network, net.JoinHostPort(ips[0].Unmap().String(), port))
	}
}

// CheckRedirect returns an http.Client redirect policy that stops after max
// hops and re-validates every redirect target.
func (p Policy) CheckRedirect(max int) func(req *http.Request, via []*http.Request) error {
	return func(req *http.Request, via []*http.Request) error {
		if len(via) >= max {
			return fmt.Errorf("stopped after %d redirects", max)
		}
		return p.CheckURL(req.URL)
	}
}
