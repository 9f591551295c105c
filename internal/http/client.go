// Package http builds the HTTP client used by every upload backend.
package http

import (
	"crypto/tls"
	nethttp "net/http"
	"os"
	"slices"
	"strings"

	ntlmssp "github.com/Azure/go-ntlmssp"
	"golang.org/x/net/http2"

	"github.com/chromedevtools/releng/internal/config"
)

// CreateUploadClient creates an HTTP client for artifact uploads with proxy support.
//
// Key features:
//   - Proxy support (uses ConfigureHTTPClient as base)
//   - HTTP/2 when talking directly to the endpoint (DISABLE_HTTP2=true forces HTTP/1.1)
//   - HTTP/1.1 through proxies unless FORCE_HTTP2=true
//   - Disabled compression (archives are already compressed)
//   - No overall timeout; each upload sets its own through its context
//
// The same client is handed to the form, S3 and Azure backends so all of them
// honour the proxy configuration.
func CreateUploadClient(cfg config.ProxyConfig) (*nethttp.Client, error) {
	client, err := ConfigureHTTPClient(cfg)
	if err != nil {
		return nil, err
	}

	tr, ok := client.Transport.(*nethttp.Transport)
	if !ok {
		// NTLM mode wraps the transport in ntlmssp.Negotiator; use it as-is.
		return client, nil
	}

	tr.DisableCompression = true
	tr.ForceAttemptHTTP2 = true
	_ = http2.ConfigureTransport(tr)

	if os.Getenv("DISABLE_HTTP2") == "true" || (proxyActive(cfg) && os.Getenv("FORCE_HTTP2") != "true") {
		disableHTTP2(tr)
	}

	client.Transport = tr
	return client, nil
}

// proxyActive reports whether requests may go through a proxy.
// Proxies often break HTTP/2 multiplexing mid-transfer.
func proxyActive(cfg config.ProxyConfig) bool {
	switch strings.ToLower(cfg.Mode) {
	case "no-proxy":
		return false
	case "system", "":
		return os.Getenv("HTTP_PROXY") != "" || os.Getenv("HTTPS_PROXY") != "" ||
			os.Getenv("http_proxy") != "" || os.Getenv("https_proxy") != ""
	default:
		return true
	}
}

func disableHTTP2(tr *nethttp.Transport) {
	tr.ForceAttemptHTTP2 = false
	tr.TLSNextProto = make(map[string]func(string, *tls.Conn) nethttp.RoundTripper)
	// A server must not pick h2 for a connection that cannot speak it.
	if tr.TLSClientConfig != nil {
		tr.TLSClientConfig.NextProtos = slices.DeleteFunc(tr.TLSClientConfig.NextProtos, func(p string) bool {
			return p == http2.NextProtoTLS
		})
	}
}

// http2Disabled reports whether disableHTTP2 was applied to tr.
func http2Disabled(tr *nethttp.Transport) bool {
	return tr.TLSNextProto != nil && len(tr.TLSNextProto) == 0
}

// BaseTransport returns the *nethttp.Transport that carries client's
// connection settings and whether it is wrapped in NTLM negotiation.
// It returns nil for clients built on other round trippers.
func BaseTransport(client *nethttp.Client) (*nethttp.Transport, bool) {
	if client == nil {
		return nil, false
	}
	switch rt := client.Transport.(type) {
	case *nethttp.Transport:
		return rt, false
	case ntlmssp.Negotiator:
		tr, ok := rt.RoundTripper.(*nethttp.Transport)
		if !ok {
			return nil, true
		}
		return tr, true
	default:
		return nil, false
	}
}

// CopyTransport applies the proxy, dial, TLS and pooling settings of src to
// dst, a transport built by an SDK. The TLS config is cloned so the SDK can
// add root CAs without touching src.
func CopyTransport(dst, src *nethttp.Transport) {
	dst.Proxy = src.Proxy
	dst.DialContext = src.DialContext
	if src.TLSClientConfig != nil {
		dst.TLSClientConfig = src.TLSClientConfig.Clone()
	}
	dst.MaxIdleConns = src.MaxIdleConns
	dst.MaxIdleConnsPerHost = src.MaxIdleConnsPerHost
	dst.IdleConnTimeout = src.IdleConnTimeout
	dst.TLSHandshakeTimeout = src.TLSHandshakeTimeout
	dst.ExpectContinueTimeout = src.ExpectContinueTimeout
	dst.DisableCompression = src.DisableCompression

	if http2Disabled(src) {
		disableHTTP2(dst)
		return
	}
	dst.ForceAttemptHTTP2 = src.ForceAttemptHTTP2
	if dst.TLSClientConfig != nil {
		// h2 support of src is bound to src; dst negotiates its own.
		dst.TLSClientConfig.NextProtos = nil
	}
}

// WrapNTLM returns a client that negotiates NTLM with the proxy over tr.
func WrapNTLM(tr *nethttp.Transport) *nethttp.Client {
	return &nethttp.Client{Transport: ntlmssp.Negotiator{RoundTripper: tr}}
}
