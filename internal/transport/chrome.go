// Package transport builds outbound HTTP transports for store integrations.
package transport

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	utls "github.com/refraction-networking/utls"
	"golang.org/x/net/http2"
)

var errHTTP2NotNegotiated = errors.New("peer did not negotiate h2")

// NewChromeTransport returns a RoundTripper that handshakes with a Chrome TLS
// fingerprint. HTTP/2 is tried first and HTTP/1.1 is used when the peer refuses it.
// Some hosted WooCommerce stores sit behind CDNs that throttle Go's default ClientHello.
func NewChromeTransport(dialTimeout time.Duration) http.RoundTripper {
	dialer := &net.Dialer{Timeout: dialTimeout, KeepAlive: 30 * time.Second}

	return &chromeTransport{
		h2: &http2.Transport{
			DialTLSContext: func(ctx context.Context, network, addr string, _ *tls.Config) (net.Conn, error) {
				conn, err := dialChromeTLS(ctx, dialer, network, addr)
				if err != nil {
					return nil, &setupError{err: err}
				}
				if conn.ConnectionState().NegotiatedProtocol != http2.NextProtoTLS {
					conn.Close()
					return nil, &setupError{err: errHTTP2NotNegotiated}
				}
				return conn, nil
			},
			ReadIdleTimeout: 30 * time.Second,
		},
		h1: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialTLSContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
				return dialChromeTLS(ctx, dialer, network, addr)
			},
			MaxIdleConnsPerHost: 8,
			IdleConnTimeout:     90 * time.Second,
		},
	}
}

// setupError marks failures that happened before any request bytes were written.
type setupError struct {
	err error
}

func (e *setupError) Error() string { return e.err.Error() }

func (e *setupError) Unwrap() error { return e.err }

type chromeTransport struct {
	h2 http.RoundTripper
	h1 http.RoundTripper
}

func (t *chromeTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.URL.Scheme != "https" {
		return t.h1.RoundTrip(req)
	}
	resp, err := t.h2.RoundTrip(req)
	if err == nil {
		return resp, nil
	}
	if !canFallback(req, err) {
		return nil, err
	}
	if req.Body != nil && req.Body != http.NoBody && req.GetBody == nil {
		return nil, err
	}
	retry := req
	if req.GetBody != nil {
		body, bodyErr := req.GetBody()
		if bodyErr != nil {
			return nil, err
		}
		retry = req.Clone(req.Context())
		retry.Body = body
	}
	return t.h1.RoundTrip(retry)
}

// canFallback reports whether req may be sent again over HTTP/1.1 after the HTTP/2
// attempt failed with err. Requests that may have reached the store are only resent
// when their method is safe.
func canFallback(req *http.Request, err error) bool {
	var setup *setupError
	if errors.As(err, &setup) {
		return true
	}
	switch req.Method {
	case "", http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	default:
		return false
	}
}

func dialChromeTLS(ctx context.Context, dialer *net.Dialer, network, addr string) (*utls.UConn, error) {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		host = addr
	}

	conn, err := dialer.DialContext(ctx, network, addr)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}

	tlsConn := utls.UClient(conn, &utls.Config{ServerName: host}, utls.HelloChrome_Auto)
	if err := tlsConn.HandshakeContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("tls handshake with %s: %w", host, err)
	}

	return tlsConn, nil
}
