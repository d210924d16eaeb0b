package s3

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/amnis/internal/catalogue"
	"github.com/vk/amnis/internal/variable"
)

func TestPut(t *testing.T) {
	var gotBody, gotType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/denied.txt" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		assert.Equal(t, http.MethodPut, r.Method)
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		gotType = r.Header.Get("Content-Type")
	}))
	defer srv.Close()

	put := Put(srv.Client())

	call := &catalogue.Call{
		Channel: 1,
		Line:    1,
		Inputs:  []variable.Variable{variable.Str(srv.URL + "/bucket/object.json?X-Amz-Signature=abc")},
		Body:    []byte(`{"k":1}`),
	}
	res, err := put(context.Background(), call)
	require.NoError(t, err)
	assert.Equal(t, `{"k":1}`, gotBody)
	assert.Equal(t, "application/json", gotType)
	assert.Equal(t, int64(7), res.Usage.Upload)
	assert.Equal(t, "200 OK", string(res.Frame.Payload))

	call.Inputs = []variable.Variable{variable.Str(srv.URL + "/denied.txt")}
	_, err = put(context.Background(), call)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
}

func TestPut_BadInputs(t *testing.T) {
	put := Put(http.DefaultClient)

	testCases := []struct {
		name   string
		inputs []variable.Variable
	}{
		{name: "no inputs"},
		{name: "not a string", inputs: []variable.Variable{variable.I64(1)}},
		{name: "too many", inputs: []variable.Variable{variable.Str("a"), variable.Str("b")}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := put(context.Background(), &catalogue.Call{Inputs: tc.inputs})
			require.Error(t, err)
		})
	}
}

func TestContentType(t *testing.T) {
	u, err := url.Parse("https://example.com/a/b.unknownext")
	require.NoError(t, err)
	assert.Equal(t, "application/octet-stream", contentType(u))
}
