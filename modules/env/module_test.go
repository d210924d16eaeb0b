package env

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/amnis/internal/catalogue"
	"github.com/vk/amnis/internal/variable"
)

func fakeModule() *Module {
	env := map[string]string{"HOME": "/home/x", "SHELL": "/bin/sh"}
	return &Module{
		Lookup: func(k string) (string, bool) {
			v, ok := env[k]
			return v, ok
		},
		Environ: func() []string { return []string{"SHELL=/bin/sh", "HOME=/home/x", "BROKEN"} },
	}
}

func TestOnRunEnv(t *testing.T) {
	m := fakeModule()

	testCases := []struct {
		name    string
		body    string
		payload string
		values  []variable.Variable
		wantErr bool
	}{
		{
			name:    "single key",
			body:    "HOME",
			payload: "/home/x",
			values:  []variable.Variable{variable.Str("/home/x")},
		},
		{
			name:    "several keys",
			body:    " SHELL  HOME ",
			payload: "/bin/sh /home/x",
			values:  []variable.Variable{variable.Str("/bin/sh"), variable.Str("/home/x")},
		},
		{
			name:    "whole environment",
			body:    "",
			payload: "HOME=/home/x\nSHELL=/bin/sh",
			values:  []variable.Variable{variable.StrArray([]string{"HOME=/home/x", "SHELL=/bin/sh"})},
		},
		{
			name:    "missing key",
			body:    "NOPE",
			wantErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			call := &catalogue.Call{Channel: 1, Line: 1, Body: []byte(tc.body)}
			res, err := m.OnRunEnv(context.Background(), call)
			if tc.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "NOPE")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.payload, string(res.Frame.Payload))
			assert.Equal(t, tc.values, res.Values)
		})
	}
}

func TestRegister(t *testing.T) {
	r := catalogue.NewWithModules(&Module{})
	id, err := r.Resolve("env")
	require.NoError(t, err)
	assert.True(t, r.HasBinaryPayload(id))
}
