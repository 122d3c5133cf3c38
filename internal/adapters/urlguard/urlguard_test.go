package urlguard

import (
	"context"
	"net"
	"net/http"
	"net/netip"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GabrielNunesIT/openapi-tryit/internal/domain"
)

func TestPolicy_Check(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		private bool
		kind    error
	}{
		{name: "public https", url: "https://api.example.com/v1"},
		{name: "public ip", url: "http://8.8.8.8/"},
		{name: "ftp scheme", url: "ftp://example.com/file", kind: domain.ErrBlockedURL},
		{name: "file scheme", url: "file:///etc/passwd", kind: domain.ErrBlockedURL},
		{name: "no host", url: "http:///path", kind: domain.ErrInvalidRequest},
		{name: "unparseable", url: "http://[::1", kind: domain.ErrInvalidRequest},
		{name: "aws metadata", url: "http://169.254.169.254/latest/meta-data", kind: domain.ErrBlockedURL},
		{name: "gcp metadata", url: "http://Metadata.Google.Internal/computeMetadata", kind: domain.ErrBlockedURL},
		{name: "aws ipv6 metadata", url: "http://[fd00:ec2::254]/", kind: domain.ErrBlockedURL},
		{name: "metadata even when private allowed", url: "http://100.100.100.200/", private: true, kind: domain.ErrBlockedURL},
		{name: "loopback", url: "http://127.0.0.1:8080/", kind: domain.ErrBlockedURL},
		{name: "ipv6 loopback", url: "http://[::1]/", kind: domain.ErrBlockedURL},
		{name: "private 10", url: "http://10.1.2.3/", kind: domain.ErrBlockedURL},
		{name: "private 172", url: "http://172.20.0.1/", kind: domain.ErrBlockedURL},
		{name: "172 outside private range", url: "http://172.32.0.1/"},
		{name: "private 192", url: "http://192.168.1.1/", kind: domain.ErrBlockedURL},
		{name: "cgnat", url: "http://100.64.0.1/", kind: domain.ErrBlockedURL},
		{name: "test net", url: "http://203.0.113.9/", kind: domain.ErrBlockedURL},
		{name: "ula", url: "http://[fd12::1]/", kind: domain.ErrBlockedURL},
		{name: "mapped loopback", url: "http://[::ffff:127.0.0.1]/", kind: domain.ErrBlockedURL},
		{name: "unspecified", url: "http://0.0.0.0/", kind: domain.ErrBlockedURL},
		{name: "loopback allowed", url: "http://127.0.0.1:8080/", private: true},
		{name: "ssh port", url: "http://example.com:22/", kind: domain.ErrBlockedURL},
		{name: "redis port even when private allowed", url: "http://127.0.0.1:6379/", private: true, kind: domain.ErrBlockedURL},
		{name: "custom port", url: "https://example.com:8443/"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := Policy{AllowPrivate: tt.private}.Check(tt.url)

			if tt.kind == nil {
				require.NoError(t, err)
				assert.NotNil(t, u)
				return
			}

			require.Error(t, err)
			assert.ErrorIs(t, err, tt.kind)
			var reqErr *domain.RequestError
			assert.ErrorAs(t, err, &reqErr)
			assert.Equal(t, "validate", reqErr.Op)
		})
	}
}

func TestPolicy_CheckIP(t *testing.T) {
	strict := Policy{}

	assert.NoError(t, strict.CheckIP(netip.MustParseAddr("1.1.1.1")))
	assert.NoError(t, strict.CheckIP(netip.MustParseAddr("2606:4700::1111")))
	assert.EqualError(t, strict.CheckIP(netip.MustParseAddr("192.168.0.10")), "IP 192.168.0.10 is in private range 192.168.0.0/16")
	assert.Error(t, strict.CheckIP(netip.MustParseAddr("fe80::1")))
	assert.Error(t, Policy{AllowPrivate: true}.CheckIP(netip.MustParseAddr("169.254.169.254")))
}

func TestPolicy_CheckRedirect(t *testing.T) {
	check := Policy{}.CheckRedirect(2)

	target := func(raw string) *http.Request {
		u, err := url.Parse(raw)
		require.NoError(t, err)
		return &http.Request{URL: u}
	}

	assert.NoError(t, check(target("https://example.com/next"), []*http.Request{{}}))
	assert.ErrorIs(t, check(target("http://10.0.0.1/"), nil), domain.ErrBlockedURL)
	assert.EqualError(t, check(target("https://example.com/"), []*http.Request{{}, {}}), "stopped after 2 redirects")
}

func TestPolicy_DialContext(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	go func() {
		conn, err := ln.Accept()
		if err == nil {
			conn.Close()
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	dialer := &net.Dialer{Timeout: time.Second}

	_, err = Policy{}.DialContext(dialer)(ctx, "tcp", ln.Addr().String())
	assert.ErrorIs(t, err, domain.ErrBlockedURL)

	conn, err := Policy{AllowPrivate: true}.DialContext(dialer)(ctx, "tcp", ln.Addr().String())
	require.NoError(t, err)
	conn.Close()
}
