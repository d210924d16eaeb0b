package socketio

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/amnis/internal/catalogue"
	"github.com/vk/amnis/internal/variable"
)

func strs(s ...string) []variable.Variable {
	out := make([]variable.Variable, len(s))
	for i, v := range s {
		out[i] = variable.Str(v)
	}
	return out
}

func TestParseRequest(t *testing.T) {
	testCases := []struct {
		name     string
		inputs   []variable.Variable
		body     string
		expected *request
		wantErr  bool
	}{
		{
			name:   "fire and forget",
			inputs: strs("http://localhost:3000/socket.io/", "ping"),
			body:   `{"n":1}`,
			expected: &request{
				baseURL:   "http://localhost:3000",
				path:      "/socket.io/",
				namespace: "/",
				event:     "ping",
				data:      map[string]any{"n": float64(1)},
			},
		},
		{
			name:   "reply and namespace",
			inputs: strs("https://example.com/ws#/admin", "ask", "answer"),
			body:   "plain text",
			expected: &request{
				baseURL:   "https://example.com",
				path:      "/ws",
				namespace: "/admin",
				event:     "ask",
				reply:     "answer",
				data:      "plain text",
			},
		},
		{name: "too few inputs", inputs: strs("http://x"), wantErr: true},
		{name: "too many inputs", inputs: strs("http://x", "a", "b", "c"), wantErr: true},
		{name: "not a string", inputs: []variable.Variable{variable.I64(1), variable.Str("e")}, wantErr: true},
		{name: "relative url", inputs: strs("/just/a/path", "e"), wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req, err := parseRequest(&catalogue.Call{Inputs: tc.inputs, Body: []byte(tc.body)})
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, req)
		})
	}
}

func TestDecodeBody(t *testing.T) {
	assert.Equal(t, []any{"a", float64(2)}, decodeBody([]byte(`["a", 2]`)))
	assert.Equal(t, "not json {", decodeBody([]byte("not json {")))
	assert.Equal(t, "", decodeBody(nil))
}

func TestOnRunEmit_UnreachableServer(t *testing.T) {
	m := &Module{Timeout: 2 * time.Second}
	call := &catalogue.Call{Inputs: strs("http://127.0.0.1:1/socket.io/", "ping"), Body: []byte("x")}

	start := time.Now()
	_, err := m.OnRunEmit(context.Background(), call)
	require.Error(t, err)
	assert.Less(t, time.Since(start), 10*time.Second)
}
