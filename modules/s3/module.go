// Package s3 uploads statement bodies to pre-signed object storage URLs.
package s3

import (
	"bytes"
	"context"
	"fmt"
	"mime"
	"net/http"
	"net/url"
	"path"

	"github.com/vk/amnis/internal/catalogue"
	"github.com/vk/amnis/internal/ctxlog"
	"github.com/vk/amnis/internal/gas"
	"github.com/vk/amnis/internal/variable"
)

// Module implements the catalogue.Module interface for this package.
type Module struct {
	// Client defaults to http.DefaultClient.
	Client *http.Client
}

// contentType guesses the object type from the extension of the URL path.
func contentType(u *url.URL) string {
	if ct := mime.TypeByExtension(path.Ext(u.Path)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

// Put uploads the body to the pre-signed URL held by the first input. The
// body is charged as upload.
func Put(client *http.Client) func(context.Context, *catalogue.Call) (*catalogue.Result, error) {
	return func(ctx context.Context, call *catalogue.Call) (*catalogue.Result, error) {
		if len(call.Inputs) != 1 {
			return nil, fmt.Errorf("put takes the upload URL as its only input, got %d inputs", len(call.Inputs))
		}
		target, ok := call.Inputs[0].AsStr()
		if !ok {
			return nil, fmt.Errorf("upload URL must be a string, got %s", call.Inputs[0].Kind())
		}
		u, err := url.Parse(target)
		if err != nil {
			return nil, fmt.Errorf("failed to parse upload URL: %w", err)
		}
		logger := ctxlog.FromContext(ctx).With("function", "put", "host", u.Host)

		req, err := http.NewRequestWithContext(ctx, http.MethodPut, u.String(), bytes.NewReader(call.Body))
		if err != nil {
			return nil, fmt.Errorf("failed to create S3 upload request: %w", err)
		}
		ct := contentType(u)
		req.Header.Set("Content-Type", ct)
		req.ContentLength = int64(len(call.Body))

		logger.Info("Uploading body to S3.", "size", len(call.Body), "contentType", ct)

		resp, err := client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("failed to execute S3 upload request: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("S3 upload failed with status: %s", resp.Status)
		}
		logger.Debug("Successfully uploaded body.", "status", resp.Status)

		usage := gas.Zero()
		usage.Upload = int64(len(call.Body))
		return &catalogue.Result{
			Frame:  call.Frame([]byte(resp.Status)),
			Values: []variable.Variable{variable.Str(resp.Status)},
			Usage:  usage,
		}, nil
	}
}

// Register registers the "put" function.
func (m *Module) Register(r *catalogue.Registry) {
	client := m.Client
	if client == nil {
		client = http.DefaultClient
	}
	r.RegisterFunction(&catalogue.Func{FnName: "put", Binary: true, Fn: Put(client)})
}
