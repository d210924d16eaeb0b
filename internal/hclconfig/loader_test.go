package hclconfig

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"github.com/vk/amnis/internal/errs"
	"github.com/vk/amnis/internal/gas"
	"github.com/vk/amnis/internal/testutil"
	"github.com/vk/amnis/internal/variable"
)

func TestLoader_Load(t *testing.T) {
	dir := testutil.WriteFiles(t, map[string]string{
		"a_session.hcl": `
session {
  queue_size      = 8
  default_channel = "main"
  channels        = ["side"]
}

gas {
  all     = 1000
  compute = 50
}

fetch {
  timeout = "5s"
}
`,
		"b_vars.hcl": `
variable "greeting" {
  value = "hello"
}

variable "port" {
  type  = i32
  value = "8080"
}

variable "ratios" {
  type  = list(f64)
  value = [0.5, 1]
}

variable "count" {
  value = 3
}

socketio {
  timeout              = "2s"
  insecure_skip_verify = true
}
`,
		"ignored.txt": `not hcl`,
	})

	m, err := NewLoader().Load(context.Background(), dir)
	require.NoError(t, err)

	require.Equal(t, 8, m.Session.QueueSize)
	require.Equal(t, "main", m.Session.DefaultChannel)
	require.Equal(t, []string{"side"}, m.Session.Channels)

	require.NotNil(t, m.Gas.All)
	require.EqualValues(t, 1000, *m.Gas.All)
	require.NotNil(t, m.Gas.Limits.Compute)
	require.EqualValues(t, 50, *m.Gas.Limits.Compute)
	require.Nil(t, m.Gas.Limits.Time)

	require.Equal(t, 5*time.Second, m.Fetch.Timeout)
	require.Equal(t, 2*time.Second, m.SocketIO.Timeout)
	require.True(t, m.SocketIO.InsecureSkipVerify)

	got := map[string]variable.Variable{}
	for _, v := range m.Variables {
		got[v.Name] = v.Value
	}
	want := map[string]variable.Variable{
		"greeting": variable.Str("hello"),
		"port":     variable.I32(8080),
		"ratios":   variable.F64Array([]float64{0.5, 1}),
		"count":    variable.I64(3),
	}
	if diff := cmp.Diff(want, got, cmp.Comparer(func(a, b variable.Variable) bool {
		return a.Kind() == b.Kind() && a.String() == b.String()
	})); diff != "" {
		t.Errorf("variables mismatch (-want +got):\n%s", diff)
	}
}

func TestLoader_LaterFileWins(t *testing.T) {
	dir := testutil.WriteFiles(t, map[string]string{
		"1.hcl": "session {\n  queue_size = 4\n}\ngas {\n  all = 10\n}\n",
		"2.hcl": "session {\n  queue_size = 16\n}\n",
	})

	m, err := NewLoader().Load(context.Background(), filepath.Join(dir, "1.hcl"), filepath.Join(dir, "2.hcl"))
	require.NoError(t, err)
	require.Equal(t, 16, m.Session.QueueSize)
	require.EqualValues(t, 10, *m.Gas.All)

	plan, err := m.Gas.Plan()
	require.NoError(t, err)
	limit, err := plan.Cap()
	require.NoError(t, err)
	require.EqualValues(t, 10, limit)
}

func TestLoader_EmptyGasIsUnrestricted(t *testing.T) {
	dir := testutil.WriteFiles(t, map[string]string{"main.hcl": "session {}\n"})

	m, err := NewLoader().Load(context.Background(), dir)
	require.NoError(t, err)
	require.False(t, m.Gas.IsSet())

	plan, err := m.Gas.Plan()
	require.NoError(t, err)
	require.Equal(t, gas.Unrestricted(), plan)
}

func TestLoader_Errors(t *testing.T) {
	testCases := []struct {
		name    string
		files   map[string]string
		wantErr string
	}{
		{
			name:    "syntax error",
			files:   map[string]string{"main.hcl": "session {"},
			wantErr: "failed to parse HCL file",
		},
		{
			name:    "unknown block",
			files:   map[string]string{"main.hcl": "runner \"x\" {}\n"},
			wantErr: "unsupported block",
		},
		{
			name:    "unknown attribute",
			files:   map[string]string{"main.hcl": "colour = \"red\"\n"},
			wantErr: "unsupported top-level attribute \"colour\"",
		},
		{
			name:    "bad timeout",
			files:   map[string]string{"main.hcl": "fetch {\n  timeout = \"soon\"\n}\n"},
			wantErr: "fetch timeout",
		},
		{
			name:    "negative queue size",
			files:   map[string]string{"main.hcl": "session {\n  queue_size = 0\n}\n"},
			wantErr: "queue_size must be positive",
		},
		{
			name:    "unknown type keyword",
			files:   map[string]string{"main.hcl": "variable \"x\" {\n  type  = u8\n  value = 1\n}\n"},
			wantErr: "unknown variable type \"u8\"",
		},
		{
			name:    "nested list",
			files:   map[string]string{"main.hcl": "variable \"x\" {\n  type  = list(list(i32))\n  value = []\n}\n"},
			wantErr: "lists cannot be nested",
		},
		{
			name:    "unconvertible value",
			files:   map[string]string{"main.hcl": "variable \"x\" {\n  type  = i64\n  value = \"many\"\n}\n"},
			wantErr: "variable \"x\"",
		},
		{
			name: "duplicate variable",
			files: map[string]string{
				"a.hcl": "variable \"x\" {\n  value = 1\n}\n",
				"b.hcl": "variable \"x\" {\n  value = 2\n}\n",
			},
			wantErr: "declared in both",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			dir := testutil.WriteFiles(t, tc.files)
			_, err := NewLoader().Load(context.Background(), dir)
			require.Error(t, err)
			require.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestLoader_UncappedPlan(t *testing.T) {
	dir := testutil.WriteFiles(t, map[string]string{"main.hcl": "gas {\n  time = 5\n}\n"})

	m, err := NewLoader().Load(context.Background(), dir)
	require.NoError(t, err)
	require.True(t, m.Gas.IsSet())

	_, err = m.Gas.Plan()
	require.ErrorIs(t, err, errs.ErrInfGasPlan)
}

func TestLoader_MissingPath(t *testing.T) {
	_, err := NewLoader().Load(context.Background(), filepath.Join(t.TempDir(), "absent"))
	require.Error(t, err)
}
