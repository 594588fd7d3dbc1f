package gateways

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ochairo/preflight/internal/domain/entities"
)

// HTTPHealthProber checks companion-service health endpoints over HTTP
type HTTPHealthProber struct {
	httpClient *http.Client
}

// NewHTTPHealthProber creates a new health prober
func NewHTTPHealthProber() *HTTPHealthProber {
	return &HTTPHealthProber{
		httpClient: &http.Client{},
	}
}

// Probe issues a single GET to url. Any 2xx answer within timeout is healthy;
// everything else, including transport errors, is unhealthy.
func (p *HTTPHealthProber) Probe(ctx context.Context, url string, timeout time.Duration) entities.EndpointStatus {
	status := entities.EndpointStatus{URL: url}
	start := time.Now()

	probeCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(probeCtx, http.MethodGet, url, nil)
	if err != nil {
		status.Error = fmt.Errorf("failed to create request: %w", err)
		return status
	}

	resp, err := p.httpClient.Do(req)
	status.Latency = time.Since(start)
	if err != nil {
		status.Error = err
		return status
	}
	//nolint:errcheck // Defer close
	defer resp.Body.Close()

	// Drain a little so the connection can be reused; the body is not inspected
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	status.StatusCode = resp.StatusCode
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		status.Error = fmt.Errorf("health endpoint returned status %d", resp.StatusCode)
		return status
	}

	status.Healthy = true
	return status
}
