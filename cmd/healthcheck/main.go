// Command healthcheck probes the local streamhub health endpoint and exits
// non-zero unless it answers {"status":"ok"}. It is meant for container
// HEALTHCHECK instructions where no shell or curl is available.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/ericfisherdev/streamhub/internal/config"
)

const (
	defaultAddr  = "127.0.0.1:8080"
	probeTimeout = 2 * time.Second
)

func main() {
	os.Exit(check(normalizeAddr(os.Getenv(config.EnvListenAddr))))
}

func check(addr string) int {
	ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("http://%s/api/v1/health", addr), nil)
	if err != nil {
		return 1
	}

	resp, err := (&http.Client{Timeout: probeTimeout}).Do(req)
	if err != nil {
		return 1
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 1
	}

	var body struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil || body.Status != "ok" {
		return 1
	}
	return 0
}

// normalizeAddr ensures the probe connects to loopback rather than the
// bind-all address the server may listen on.
func normalizeAddr(raw string) string {
	if raw == "" {
		return defaultAddr
	}

	host, port, err := net.SplitHostPort(raw)
	if err != nil {
		return defaultAddr
	}

	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "127.0.0.1"
	}

	return net.JoinHostPort(host, port)
}
