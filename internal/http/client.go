package http

import (
	"crypto/tls"
	nethttp "net/http"
	"os"

	"golang.org/x/net/http2"

	"github.com/remex-io/remex/internal/config"
	"github.com/remex-io/remex/internal/constants"
)

// CreateStreamingClient creates the HTTP client used for transfer bodies:
// multipart uploads, raw downloads and zip streams. It shares the proxy
// configuration with the API client but drops the overall timeout (transfers
// run for as long as the context allows) and disables compression, since
// zip streams and most uploaded payloads are already compressed.
func CreateStreamingClient(cfg *config.Config) (*nethttp.Client, error) {
	baseClient, err := ConfigureHTTPClient(cfg)
	if err != nil {
		return nil, err
	}

	tr, ok := baseClient.Transport.(*nethttp.Transport)
	if !ok {
		// NTLM mode wraps the transport in a Negotiator; transfer tuning is
		// skipped but the long-transfer timeout still has to go.
		baseClient.Timeout = 0
		return baseClient, nil
	}

	tr.MaxIdleConns = 512
	tr.MaxIdleConnsPerHost = 100
	tr.MaxConnsPerHost = 100
	tr.IdleConnTimeout = constants.HTTPIdleConnTimeout
	tr.TLSHandshakeTimeout = constants.HTTPTLSHandshakeTimeout
	tr.ExpectContinueTimeout = constants.HTTPExpectContinueTimeout
	tr.DisableCompression = true
	tr.ForceAttemptHTTP2 = true

	_ = http2.ConfigureTransport(tr)

	// Runtime toggle, useful when an agent sits behind middleboxes that
	// mishandle HTTP/2.
	if os.Getenv("DISABLE_HTTP2") == "true" {
		tr.ForceAttemptHTTP2 = false
		tr.TLSNextProto = make(map[string]func(string, *tls.Conn) nethttp.RoundTripper)
	}

	// Proxies often break HTTP/2 multiplexing mid-stream; prefer HTTP/1.1
	// whenever a proxy is in play unless FORCE_HTTP2=true.
	var proxyActive bool
	switch cfg.Proxy.Mode {
	case "no-proxy", "":
		proxyActive = false
	case "system":
		proxyActive = os.Getenv("HTTP_PROXY") != "" || os.Getenv("HTTPS_PROXY") != "" ||
			os.Getenv("http_proxy") != "" || os.Getenv("https_proxy") != ""
	default:
		proxyActive = true
	}

	if proxyActive && os.Getenv("FORCE_HTTP2") != "true" {
		tr.ForceAttemptHTTP2 = false
		tr.TLSNextProto = make(map[string]func(string, *tls.Conn) nethttp.RoundTripper)
	}

	baseClient.Transport = tr
	baseClient.Timeout = 0

	return baseClient, nil
}
