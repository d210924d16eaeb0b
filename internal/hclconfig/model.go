package hclconfig

import (
	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
)

// SessionBlock is the `session` block.
type SessionBlock struct {
	QueueSize      *int     `hcl:"queue_size,optional"`
	DefaultChannel *string  `hcl:"default_channel,optional"`
	Channels       []string `hcl:"channels,optional"`
}

// GasBlock is the `gas` block. Every attribute is an optional cap.
type GasBlock struct {
	All      *int64 `hcl:"all,optional"`
	Time     *int64 `hcl:"time,optional"`
	Compute  *int64 `hcl:"compute,optional"`
	Memory   *int64 `hcl:"memory,optional"`
	Index    *int64 `hcl:"index,optional"`
	Blob     *int64 `hcl:"blob,optional"`
	Upload   *int64 `hcl:"upload,optional"`
	Download *int64 `hcl:"download,optional"`
}

// VariableBlock is a `variable "<name>"` block. Type is a type expression
// such as `i32` or `list(string)`; when omitted it is implied by the value.
type VariableBlock struct {
	Name  string         `hcl:"name,label"`
	Type  hcl.Expression `hcl:"type,optional"`
	Value cty.Value      `hcl:"value"`
}

// FetchBlock is the `fetch` block.
type FetchBlock struct {
	Timeout *string `hcl:"timeout,optional"`
}

// SocketIOBlock is the `socketio` block.
type SocketIOBlock struct {
	Timeout            *string `hcl:"timeout,optional"`
	InsecureSkipVerify *bool   `hcl:"insecure_skip_verify,optional"`
}
