package gas

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/vk/amnis/internal/errs"
)

// Dimension names one metered resource.
type Dimension int

const (
	// Time is wall-clock execution time.
	Time Dimension = iota
	// Compute is computation spent by functions.
	Compute
	// Memory is working memory held by bound variables.
	Memory
	// Index is data kept in the name index.
	Index
	// Blob is data kept in payload storage.
	Blob
	// Upload is outbound traffic.
	Upload
	// Download is inbound traffic.
	Download

	numDimensions
)

var dimensionNames = [numDimensions]string{"time", "compute", "memory", "index", "blob", "upload", "download"}

// Dimensions lists every dimension in declaration order.
func Dimensions() []Dimension {
	ds := make([]Dimension, 0, numDimensions)
	for d := Time; d < numDimensions; d++ {
		ds = append(ds, d)
	}
	return ds
}

func (d Dimension) String() string {
	if d < 0 || d >= numDimensions {
		return fmt.Sprintf("dimension(%d)", int(d))
	}
	return dimensionNames[d]
}

// Gas is a usage ledger: one running total per dimension.
type Gas struct {
	Time     int64
	Compute  int64
	Memory   int64
	Index    int64
	Blob     int64
	Upload   int64
	Download int64
}

// Zero returns a ledger with every counter at zero.
func Zero() Gas {
	return Gas{}
}

// Get returns the counter for one dimension.
func (g Gas) Get(d Dimension) int64 {
	switch d {
	case Time:
		return g.Time
	case Compute:
		return g.Compute
	case Memory:
		return g.Memory
	case Index:
		return g.Index
	case Blob:
		return g.Blob
	case Upload:
		return g.Upload
	case Download:
		return g.Download
	}
	return 0
}

func (g *Gas) set(d Dimension, v int64) {
	switch d {
	case Time:
		g.Time = v
	case Compute:
		g.Compute = v
	case Memory:
		g.Memory = v
	case Index:
		g.Index = v
	case Blob:
		g.Blob = v
	case Upload:
		g.Upload = v
	case Download:
		g.Download = v
	}
}

// Add returns the dimension-wise sum of two ledgers. It fails with
// ErrGasPlanOverflow instead of wrapping.
func (g Gas) Add(o Gas) (Gas, error) {
	var out Gas
	for _, d := range Dimensions() {
		v, ok := addInt64(g.Get(d), o.Get(d))
		if !ok {
			return g, fmt.Errorf("adding %s usage: %w", d, errs.ErrGasPlanOverflow)
		}
		out.set(d, v)
	}
	return out, nil
}

// Sum returns the total across all dimensions.
func (g Gas) Sum() (int64, error) {
	var total int64
	for _, d := range Dimensions() {
		v, ok := addInt64(total, g.Get(d))
		if !ok {
			return 0, errs.ErrGasPlanOverflow
		}
		total = v
	}
	return total, nil
}

// LogValue renders the ledger as a group of its non-zero counters.
func (g Gas) LogValue() slog.Value {
	var attrs []slog.Attr
	for _, d := range Dimensions() {
		if v := g.Get(d); v != 0 {
			attrs = append(attrs, slog.Int64(d.String(), v))
		}
	}
	return slog.GroupValue(attrs...)
}

// addInt64 adds two signed integers and reports whether the result fits.
func addInt64(a, b int64) (int64, bool) {
	if (b > 0 && a > math.MaxInt64-b) || (b < 0 && a < math.MinInt64-b) {
		return 0, false
	}
	return a + b, true
}
