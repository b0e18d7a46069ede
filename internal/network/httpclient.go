// File: internal/network/httpclient.go

// Package network provides the plain HTTP client the suite uses outside the
// browser, mainly for the preflight reachability check before a run.
package network

import (
	"crypto/tls"
	"net"
	"net/http"
	"time"

	"golang.org/x/net/http2"
)

// Default timeouts for portal-facing requests. The portal fronts its app
// servers with a CDN; header responses past a few seconds mean trouble.
const (
	DefaultDialTimeout           = 5 * time.Second
	DefaultKeepAliveInterval     = 15 * time.Second
	DefaultTLSHandshakeTimeout   = 5 * time.Second
	DefaultResponseHeaderTimeout = 10 * time.Second
	DefaultRequestTimeout        = 30 * time.Second

	DefaultMaxIdleConns    = 10
	DefaultIdleConnTimeout = 30 * time.Second
)

// ClientConfig holds the configuration for the HTTP client and transport layers.
type ClientConfig struct {
	IgnoreTLSErrors bool
	TLSConfig       *tls.Config

	RequestTimeout        time.Duration
	TLSHandshakeTimeout   time.Duration
	ResponseHeaderTimeout time.Duration

	ForceHTTP2 bool
}

func (c *ClientConfig) withDefaults() ClientConfig {
	out := ClientConfig{}
	if c != nil {
		out = *c
	}
	if out.RequestTimeout <= 0 {
		out.RequestTimeout = DefaultRequestTimeout
	}
	if out.TLSHandshakeTimeout <= 0 {
		out.TLSHandshakeTimeout = DefaultTLSHandshakeTimeout
	}
	if out.ResponseHeaderTimeout <= 0 {
		out.ResponseHeaderTimeout = DefaultResponseHeaderTimeout
	}
	return out
}

// NewClient builds an *http.Client with sane timeouts at every layer. A nil
// config gets the defaults.
func NewClient(cfg *ClientConfig) (*http.Client, error) {
	c := cfg.withDefaults()

	tlsConfig := c.TLSConfig
	if tlsConfig == nil {
		tlsConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	if c.IgnoreTLSErrors {
		tlsConfig = tlsConfig.Clone()
		tlsConfig.InsecureSkipVerify = true
	}

	dialer := &net.Dialer{
		Timeout:   DefaultDialTimeout,
		KeepAlive: DefaultKeepAliveInterval,
	}

	transport := &http.Transport{
		DialContext:           dialer.DialContext,
		TLSClientConfig:       tlsConfig,
		TLSHandshakeTimeout:   c.TLSHandshakeTimeout,
		ResponseHeaderTimeout: c.ResponseHeaderTimeout,
		MaxIdleConns:          DefaultMaxIdleConns,
		IdleConnTimeout:       DefaultIdleConnTimeout,
		ForceAttemptHTTP2:     true,
	}
	if c.ForceHTTP2 {
		if err := http2.ConfigureTransport(transport); err != nil {
			return nil, err
		}
	}

	return &http.Client{
		Transport: transport,
		Timeout:   c.RequestTimeout,
	}, nil
}
