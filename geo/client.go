// Copyright 2025 The Tuyende Authors
// SPDX-License-Identifier: Apache-2.0

package geo

import (
	"io"
	"net/http"
	"os"
	"time"

	"github.com/nakale/tuyende/utils/httputils"
)

// ClientOptions configures the outbound HTTP clients shared by the
// providers. Timeouts live here; the pipeline itself never retries.
type ClientOptions struct {
	// UserAgent is the User-Agent header to use in HTTP requests
	UserAgent string

	// Enables light tracing of HTTP requests and responses
	EnableHTTPTrace bool

	// Enables full HTTP body tracing
	EnableHTTPBodyTrace bool

	// Timeout per outbound call; zero means the default
	Timeout time.Duration
}

const defaultProviderTimeout = 10 * time.Second

// newProviderClient builds the HTTP client used against a provider.
func newProviderClient(options *ClientOptions) *http.Client {
	if options == nil {
		options = &ClientOptions{}
	}

	var httpLogWriter io.Writer
	if options.EnableHTTPTrace {
		httpLogWriter = os.Stderr
	}

	transport := &http.Transport{
		MaxIdleConns:          10,
		MaxIdleConnsPerHost:   4,
		MaxConnsPerHost:       4,
		IdleConnTimeout:       30 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
		DisableKeepAlives:     false,
		DisableCompression:    false,
	}

	loggingTransport := &httputils.LoggingRoundTripper{
		Writer:    httpLogWriter,
		DumpBody:  options.EnableHTTPBodyTrace,
		Transport: transport,
	}

	userAgent := "tuyende/unknown"
	if options.UserAgent != "" {
		userAgent = options.UserAgent
	}

	headerTransport := &httputils.AppendRequestHeadersRoundTripper{
		Headers: map[string]string{
			"User-Agent": userAgent,
			"Accept":     "application/json",
		},
		Transport: loggingTransport,
	}

	timeout := options.Timeout
	if timeout == 0 {
		timeout = defaultProviderTimeout
	}

	return &http.Client{
		Timeout:   timeout,
		Transport: headerTransport,
	}
}
