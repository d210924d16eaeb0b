package hclconfig

import (
	"context"
	"fmt"
	"time"

	"github.com/vk/amnis/internal/config"
	"github.com/vk/amnis/internal/ctxlog"
	"github.com/vk/amnis/internal/gas"
	"github.com/vk/amnis/internal/variable"
)

// translate converts the decoded blocks of one file into a partial model.
func (l *Loader) translate(ctx context.Context, root *fileRoot) (*config.Model, error) {
	m := &config.Model{}

	if s := root.Session; s != nil {
		if s.QueueSize != nil {
			if *s.QueueSize < 1 {
				return nil, fmt.Errorf("session queue_size must be positive, got %d", *s.QueueSize)
			}
			m.Session.QueueSize = *s.QueueSize
		}
		if s.DefaultChannel != nil {
			if *s.DefaultChannel == "" {
				return nil, fmt.Errorf("session default_channel must not be empty")
			}
			m.Session.DefaultChannel = *s.DefaultChannel
		}
		m.Session.Channels = append(m.Session.Channels, s.Channels...)
	}

	if g := root.Gas; g != nil {
		m.Gas = config.Gas{
			All: g.All,
			Limits: gas.Limits{
				Time:     g.Time,
				Compute:  g.Compute,
				Memory:   g.Memory,
				Index:    g.Index,
				Blob:     g.Blob,
				Upload:   g.Upload,
				Download: g.Download,
			},
		}
	}

	for _, vb := range root.Variables {
		v, err := translateVariable(ctx, vb)
		if err != nil {
			return nil, err
		}
		m.Variables = append(m.Variables, v)
	}

	if f := root.Fetch; f != nil && f.Timeout != nil {
		d, err := parseTimeout("fetch", *f.Timeout)
		if err != nil {
			return nil, err
		}
		m.Fetch.Timeout = d
	}
	if s := root.SocketIO; s != nil {
		if s.Timeout != nil {
			d, err := parseTimeout("socketio", *s.Timeout)
			if err != nil {
				return nil, err
			}
			m.SocketIO.Timeout = d
		}
		if s.InsecureSkipVerify != nil {
			m.SocketIO.InsecureSkipVerify = *s.InsecureSkipVerify
		}
	}
	return m, nil
}

func parseTimeout(block, s string) (time.Duration, error) {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%s timeout: %w", block, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s timeout must be positive, got %s", block, s)
	}
	return d, nil
}

// translateVariable resolves the declared or implied kind of a variable
// block and converts its value.
func translateVariable(ctx context.Context, vb *VariableBlock) (*config.Variable, error) {
	logger := ctxlog.FromContext(ctx).With("variable", vb.Name)

	var (
		kind variable.Kind
		err  error
	)
	if isExprDefined(ctx, vb.Type, "type") {
		kind, err = typeExprToKind(ctx, vb.Type)
		if err != nil {
			return nil, fmt.Errorf("variable %q: %w", vb.Name, err)
		}
	} else {
		kind, err = variable.ImpliedKind(vb.Value)
		if err != nil {
			return nil, fmt.Errorf("variable %q: %w", vb.Name, err)
		}
		logger.Debug("Implied variable type.", "kind", kind)
	}

	v, err := variable.FromCty(vb.Value, kind)
	if err != nil {
		return nil, fmt.Errorf("variable %q: %w", vb.Name, err)
	}
	return &config.Variable{Name: vb.Name, Value: v}, nil
}
