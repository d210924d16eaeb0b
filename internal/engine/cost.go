package engine

import (
	"time"

	"github.com/vk/amnis/internal/catalogue"
	"github.com/vk/amnis/internal/gas"
	"github.com/vk/amnis/internal/statement"
	"github.com/vk/amnis/internal/variable"
)

// Usage describes one finished invocation to a CostFunc.
type Usage struct {
	Statement *statement.Statement
	Inputs    []variable.Variable
	// Result is nil when the invocation failed.
	Result  *catalogue.Result
	Err     error
	Elapsed time.Duration
}

// CostFunc prices an invocation. The gas a function reports itself in
// Result.Usage is added on top.
type CostFunc func(u Usage) gas.Gas

// DefaultCost charges one compute unit per statement, elapsed wall time in
// milliseconds, the size of the values bound (memory), one index entry per
// output, the result payload as blob storage and the statement body as
// upload.
func DefaultCost(u Usage) gas.Gas {
	g := gas.Zero()
	g.Compute = 1
	g.Time = u.Elapsed.Milliseconds()
	if u.Statement != nil {
		g.Index = int64(len(u.Statement.Outputs))
		g.Upload = int64(len(u.Statement.Body))
	}
	if u.Result != nil {
		for _, v := range u.Result.Values {
			g.Memory += v.Size()
		}
		g.Blob = int64(len(u.Result.Frame.Payload))
	}
	return g
}
