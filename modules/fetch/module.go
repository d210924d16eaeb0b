// Package fetch provides "fetch", an HTTP GET whose response body is charged
// as download.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/vk/amnis/internal/catalogue"
	"github.com/vk/amnis/internal/ctxlog"
	"github.com/vk/amnis/internal/gas"
	"github.com/vk/amnis/internal/variable"
)

// DefaultTimeout bounds a single request when the module sets none.
const DefaultTimeout = 30 * time.Second

// Module implements the catalogue.Module interface for this package.
type Module struct {
	Timeout time.Duration
	// Client replaces the client built from Timeout when set.
	Client *http.Client
}

// NewClient builds the client shared by every fetch of a catalogue.
func NewClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
	}
}

// Fetch GETs the URL given in the body. The response body is the payload
// and is bound, together with the status code, to the outputs.
func Fetch(client *http.Client) func(context.Context, *catalogue.Call) (*catalogue.Result, error) {
	return func(ctx context.Context, call *catalogue.Call) (*catalogue.Result, error) {
		target := strings.TrimSpace(string(call.Body))
		if target == "" {
			return nil, fmt.Errorf("fetch needs a URL in its body")
		}
		logger := ctxlog.FromContext(ctx).With("function", "fetch", "url", target)
		logger.Debug("Making HTTP request.")

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		resp, err := client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("failed to execute request: %w", err)
		}
		defer resp.Body.Close()

		logger.Debug("Received HTTP response.", "status", resp.Status)

		bodyBytes, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to read response body: %w", err)
		}
		if resp.StatusCode >= http.StatusBadRequest {
			return nil, fmt.Errorf("GET %s: %s", target, resp.Status)
		}

		usage := gas.Zero()
		usage.Download = int64(len(bodyBytes))
		return &catalogue.Result{
			Frame: call.Frame(bodyBytes),
			Values: []variable.Variable{
				variable.Bytes(bodyBytes),
				variable.I64(int64(resp.StatusCode)),
			},
			Usage: usage,
		}, nil
	}
}

// Register registers the "fetch" function.
func (m *Module) Register(r *catalogue.Registry) {
	client := m.Client
	if client == nil {
		client = NewClient(m.Timeout)
	}
	r.RegisterFunction(&catalogue.Func{FnName: "fetch", Binary: true, Fn: Fetch(client)})
}
