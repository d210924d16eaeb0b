package gas

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/amnis/internal/errs"
)

func rigorous(v int64) Limits {
	return Limits{
		Time: Int(v), Compute: Int(v), Memory: Int(v), Index: Int(v),
		Blob: Int(v), Upload: Int(v), Download: Int(v),
	}
}

func TestNewPlan(t *testing.T) {
	partial := rigorous(1)
	partial.Download = nil

	testCases := []struct {
		name      string
		all       *int64
		limits    Limits
		expectErr error
	}{
		{name: "all only", all: Int(100)},
		{name: "rigorous without all", limits: rigorous(10)},
		{name: "rigorous with all", all: Int(5), limits: rigorous(10)},
		{name: "all with partial limits", all: Int(5), limits: partial},
		{name: "error - nothing set", expectErr: errs.ErrInfGasPlan},
		{name: "error - partial limits without all", limits: partial, expectErr: errs.ErrInfGasPlan},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			plan, err := NewPlan(tc.all, tc.limits)
			if tc.expectErr != nil {
				require.ErrorIs(t, err, tc.expectErr)
				assert.Nil(t, plan)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, plan)
		})
	}
}

func TestPlan_Cap(t *testing.T) {
	partial := rigorous(1)
	partial.Time = nil

	testCases := []struct {
		name     string
		all      *int64
		limits   Limits
		expected int64
	}{
		{name: "sum of dimensions", limits: rigorous(10), expected: 70},
		{name: "all below sum", all: Int(30), limits: rigorous(10), expected: 30},
		{name: "all above sum", all: Int(1000), limits: rigorous(10), expected: 70},
		{name: "all only", all: Int(42), expected: 42},
		{name: "partial limits fall back to all", all: Int(9), limits: partial, expected: 9},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			plan, err := NewPlan(tc.all, tc.limits)
			require.NoError(t, err)
			got, err := plan.Cap()
			require.NoError(t, err)
			assert.Equal(t, tc.expected, got)
		})
	}
}

func TestPlan_CapOverflow(t *testing.T) {
	limits := rigorous(math.MaxInt64 / 4)

	plan, err := NewPlan(nil, limits)
	require.NoError(t, err, "overflow is only detected when the cap is computed")

	_, err = plan.Cap()
	require.ErrorIs(t, err, errs.ErrGasPlanOverflow)

	// A smaller overall cap does not hide the overflow: the sum is still computed.
	plan, err = NewPlan(Int(10), limits)
	require.NoError(t, err)
	_, err = plan.Cap()
	require.ErrorIs(t, err, errs.ErrGasPlanOverflow)
}

func TestPlan_NegativeSumDoesNotWrap(t *testing.T) {
	limits := rigorous(math.MinInt64 / 4)
	plan, err := NewPlan(nil, limits)
	require.NoError(t, err)

	_, err = plan.Cap()
	require.ErrorIs(t, err, errs.ErrGasPlanOverflow)
}

func TestUnrestricted(t *testing.T) {
	plan := Unrestricted()

	got, err := plan.Cap()
	require.NoError(t, err)
	assert.Equal(t, int64(math.MaxInt64), got)

	all, ok := plan.All()
	assert.True(t, ok)
	assert.Equal(t, int64(math.MaxInt64), all)
	assert.False(t, plan.Limits().Rigorous())
}

func TestPlan_IsIsolatedFromCallerPointers(t *testing.T) {
	all := int64(10)
	limits := rigorous(5)

	plan, err := NewPlan(&all, limits)
	require.NoError(t, err)

	all = 1
	*limits.Compute = 0

	got, err := plan.Cap()
	require.NoError(t, err)
	assert.Equal(t, int64(10), got)
	assert.Equal(t, int64(5), *plan.Limits().Compute)
}

func TestPlan_Check(t *testing.T) {
	limits := rigorous(10)

	plan, err := NewPlan(Int(50), limits)
	require.NoError(t, err)

	require.NoError(t, plan.Check(Zero()))
	require.NoError(t, plan.Check(Gas{Compute: 10, Memory: 10, Upload: 10, Download: 10, Time: 10}))

	err = plan.Check(Gas{Compute: 10, Memory: 10, Upload: 10, Download: 10, Time: 10, Index: 1})
	require.ErrorIs(t, err, errs.ErrGasExhausted, "total above the overall cap")

	err = plan.Check(Gas{Compute: 11})
	require.ErrorIs(t, err, errs.ErrGasExhausted, "single dimension above its cap")
	assert.Contains(t, err.Error(), "compute")
}

func TestLimits_GetSet(t *testing.T) {
	var l Limits
	for i, d := range Dimensions() {
		require.Nil(t, l.Get(d), "dimension %s", d)

		v := int64(i + 1)
		l.Set(d, &v)
		v = 100 // Set keeps its own copy.
		require.NotNil(t, l.Get(d))
		require.Equal(t, int64(i+1), *l.Get(d))
	}
	require.True(t, l.Rigorous())

	l.Set(Blob, nil)
	require.Nil(t, l.Blob)
	require.False(t, l.Rigorous())
}
