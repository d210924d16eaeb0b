// Package env exposes the process environment to statements.
package env

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/vk/amnis/internal/catalogue"
	"github.com/vk/amnis/internal/variable"
)

// Module implements the catalogue.Module interface for this package.
type Module struct {
	// Lookup replaces os.LookupEnv when set.
	Lookup func(key string) (string, bool)
	// Environ replaces os.Environ when set.
	Environ func() []string
}

func (m *Module) lookup(key string) (string, bool) {
	if m.Lookup != nil {
		return m.Lookup(key)
	}
	return os.LookupEnv(key)
}

func (m *Module) environ() map[string]string {
	all := os.Environ
	if m.Environ != nil {
		all = m.Environ
	}
	envMap := make(map[string]string)
	for _, e := range all() {
		pair := strings.SplitN(e, "=", 2)
		if len(pair) == 2 {
			envMap[pair[0]] = pair[1]
		}
	}
	return envMap
}

// OnRunEnv reads the variables named by the body, one per whitespace
// separated word, and binds their values in order. An empty body lists the
// whole environment as sorted KEY=VALUE lines bound as one string array.
func (m *Module) OnRunEnv(_ context.Context, call *catalogue.Call) (*catalogue.Result, error) {
	keys := strings.Fields(string(call.Body))
	if len(keys) == 0 {
		envMap := m.environ()
		lines := make([]string, 0, len(envMap))
		for k, v := range envMap {
			lines = append(lines, k+"="+v)
		}
		sort.Strings(lines)
		return &catalogue.Result{
			Frame:  call.Frame([]byte(strings.Join(lines, "\n"))),
			Values: []variable.Variable{variable.StrArray(lines)},
		}, nil
	}

	values := make([]variable.Variable, len(keys))
	texts := make([]string, len(keys))
	for i, k := range keys {
		v, ok := m.lookup(k)
		if !ok {
			return nil, fmt.Errorf("environment variable %q is not set", k)
		}
		values[i] = variable.Str(v)
		texts[i] = v
	}
	return &catalogue.Result{
		Frame:  call.Frame([]byte(strings.Join(texts, " "))),
		Values: values,
	}, nil
}

// Register registers the "env" function.
func (m *Module) Register(r *catalogue.Registry) {
	r.RegisterFunction(&catalogue.Func{FnName: "env", Binary: true, Fn: m.OnRunEnv})
}
