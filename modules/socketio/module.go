// Package socketio provides "emit", which sends a statement body to a
// Socket.IO server and optionally waits for a reply event.
package socketio

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net/url"
	"sync/atomic"
	"time"

	"github.com/vk/amnis/internal/catalogue"
	"github.com/vk/amnis/internal/ctxlog"
	"github.com/vk/amnis/internal/gas"
	"github.com/vk/amnis/internal/variable"
	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"
)

// DefaultTimeout bounds connecting, emitting and waiting for a reply.
const DefaultTimeout = 10 * time.Second

// Module implements the catalogue.Module interface for this package.
type Module struct {
	Timeout            time.Duration
	InsecureSkipVerify bool
}

// request is what one emit statement asks for.
type request struct {
	baseURL   string
	path      string
	namespace string
	event     string
	reply     string
	data      any
}

// parseRequest reads the inputs (url, event and an optional reply event)
// and the body. The Socket.IO namespace is taken from the URL fragment and
// defaults to "/".
func parseRequest(call *catalogue.Call) (*request, error) {
	if n := len(call.Inputs); n < 2 || n > 3 {
		return nil, fmt.Errorf("emit takes url, event and an optional reply event, got %d inputs", n)
	}
	words := make([]string, len(call.Inputs))
	for i, in := range call.Inputs {
		s, ok := in.AsStr()
		if !ok {
			return nil, fmt.Errorf("emit input %d must be a string, got %s", i+1, in.Kind())
		}
		words[i] = s
	}

	parsedURL, err := url.Parse(words[0])
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}
	if parsedURL.Scheme == "" || parsedURL.Host == "" {
		return nil, fmt.Errorf("URL %q needs a scheme and a host", words[0])
	}
	req := &request{
		baseURL:   fmt.Sprintf("%s://%s", parsedURL.Scheme, parsedURL.Host),
		path:      parsedURL.Path,
		namespace: parsedURL.Fragment,
		event:     words[1],
		data:      decodeBody(call.Body),
	}
	if req.namespace == "" {
		req.namespace = "/"
	}
	if len(words) == 3 {
		req.reply = words[2]
	}
	return req, nil
}

// decodeBody sends JSON bodies as structured data and anything else as a
// plain string.
func decodeBody(body []byte) any {
	var v any
	if json.Valid(body) && json.Unmarshal(body, &v) == nil {
		return v
	}
	return string(body)
}

// opResult is a private struct to safely pass results through the done channel.
type opResult struct {
	payload []byte
	err     error
}

// OnRunEmit connects, emits the body and, when a reply event is named,
// returns the first reply as JSON. The body is charged as upload and the
// reply as download.
func (m *Module) OnRunEmit(ctx context.Context, call *catalogue.Call) (*catalogue.Result, error) {
	req, err := parseRequest(call)
	if err != nil {
		return nil, err
	}
	logger := ctxlog.FromContext(ctx).With("function", "emit", "url", req.baseURL, "event", req.event)
	logger.Debug("Handler started.")
	defer logger.Debug("Handler finished.")

	timeout := m.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	opCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	opts := socket.DefaultOptions()
	opts.SetPath(req.path)
	if m.InsecureSkipVerify {
		logger.Warn("Skipping TLS certificate verification.")
		opts.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}
	opts.SetTransports(types.NewSet(transports.WebSocket))

	manager := socket.NewManager(req.baseURL, opts)
	io := manager.Socket(req.namespace, opts)
	defer func() {
		logger.Debug("Disconnecting socket client.")
		io.Disconnect()
	}()

	var isConnected atomic.Bool
	done := make(chan opResult, 1)
	finish := func(r opResult) {
		select {
		case done <- r:
		default:
		}
	}

	if req.reply != "" {
		io.Once(types.EventName(req.reply), func(data ...any) {
			var reply any
			if len(data) > 0 {
				reply = data[0]
			}
			payload, err := json.Marshal(reply)
			finish(opResult{payload: payload, err: err})
		})
	}
	io.Once(types.EventName("connect"), func(...any) {
		isConnected.Store(true)
		logger.Debug("Connected, emitting.", "sid", io.Id(), "namespace", req.namespace)
		io.Emit(req.event, req.data)
		if req.reply == "" {
			finish(opResult{})
		}
	})
	io.On(types.EventName("connect_error"), func(errs ...any) {
		err := fmt.Errorf("socket.io connection failed")
		if len(errs) > 0 {
			if e, ok := errs[0].(error); ok {
				err = fmt.Errorf("socket.io connection failed: %w", e)
			}
		}
		finish(opResult{err: err})
	})

	io.Connect()

	var res opResult
	select {
	case <-opCtx.Done():
		if isConnected.Load() {
			return nil, fmt.Errorf("timed out after %v waiting for event %q", timeout, req.reply)
		}
		return nil, fmt.Errorf("timed out after %v waiting for initial connection", timeout)
	case res = <-done:
	}
	if res.err != nil {
		return nil, res.err
	}

	usage := gas.Zero()
	usage.Upload = int64(len(call.Body))
	usage.Download = int64(len(res.payload))
	out := &catalogue.Result{Frame: call.Frame(res.payload), Usage: usage}
	if req.reply != "" {
		out.Values = []variable.Variable{variable.Str(string(res.payload))}
	}
	return out, nil
}

// Register registers the "emit" function.
func (m *Module) Register(r *catalogue.Registry) {
	r.RegisterFunction(&catalogue.Func{FnName: "emit", Binary: true, Fn: m.OnRunEmit})
}
