package formula

import (
	"testing"

	"github.com/huangsam/tally/core/measure"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func functionComplexity() *AverageFormula {
	return NewAverage(measure.FunctionComplexityKey, measure.ComplexityInFunctionsKey, measure.FunctionsKey).
		WithFallback(measure.ComplexityKey)
}

func TestAverage_File(t *testing.T) {
	f := newFixture(t)
	f.seed(t, refF1, measure.ComplexityInFunctionsKey, measure.NewInt(12))
	f.seed(t, refF1, measure.FunctionsKey, measure.NewInt(4))
	f.run(t, functionComplexity())

	m, ok := f.get(t, refF1, measure.FunctionComplexityKey)
	require.True(t, ok)
	assert.Equal(t, 3.0, m.Value.Double())
}

func TestAverage_FileUsesFallback(t *testing.T) {
	f := newFixture(t)
	f.seed(t, refF1, measure.ComplexityKey, measure.NewInt(10))
	f.seed(t, refF1, measure.FunctionsKey, measure.NewInt(4))
	f.run(t, functionComplexity())

	m, ok := f.get(t, refF1, measure.FunctionComplexityKey)
	require.True(t, ok)
	assert.Equal(t, 2.5, m.Value.Double())
}

func TestAverage_FileWithoutPositiveDenominator(t *testing.T) {
	f := newFixture(t)
	f.seed(t, refF1, measure.ComplexityInFunctionsKey, measure.NewInt(12))
	f.seed(t, refF1, measure.FunctionsKey, measure.NewInt(0))
	f.seed(t, refF2, measure.ComplexityInFunctionsKey, measure.NewInt(12))
	f.run(t, functionComplexity())

	_, ok := f.get(t, refF1, measure.FunctionComplexityKey)
	assert.False(t, ok)
	_, ok = f.get(t, refF2, measure.FunctionComplexityKey)
	assert.False(t, ok)
	_, ok = f.get(t, refD1, measure.FunctionComplexityKey)
	assert.False(t, ok, "no child qualifies")
}

func TestAverage_ExistingMeasureReturnedUnchanged(t *testing.T) {
	f := newFixture(t)
	f.seed(t, refF1, measure.FunctionComplexityKey, measure.NewDouble(42))
	f.seed(t, refF1, measure.ComplexityInFunctionsKey, measure.NewInt(12))
	f.seed(t, refF1, measure.FunctionsKey, measure.NewInt(4))

	file, _ := f.tree.ByRef(refF1)
	ctx := &Context{Component: file, Tree: f.tree, Metrics: f.metrics, Measures: f.measures}
	avg := functionComplexity()
	m, ok := avg.Compute(ctx, avg.NewCounter())
	require.True(t, ok)
	assert.Equal(t, 42.0, m.Value.Double())

	f.run(t, avg)
	m, _ = f.get(t, refF1, measure.FunctionComplexityKey)
	assert.Equal(t, 42.0, m.Value.Double())
}

func TestAverage_NonFileSumsQualifyingChildren(t *testing.T) {
	f := newFixture(t)
	// F1 qualifies, F2 has a zero denominator, so D1 = 12 / 4.
	f.seed(t, refF1, measure.ComplexityInFunctionsKey, measure.NewInt(12))
	f.seed(t, refF1, measure.FunctionsKey, measure.NewInt(4))
	f.seed(t, refF2, measure.ComplexityInFunctionsKey, measure.NewInt(100))
	f.seed(t, refF2, measure.FunctionsKey, measure.NewInt(0))
	// F3 is missing the denominator and is skipped entirely.
	f.seed(t, refF3, measure.ComplexityInFunctionsKey, measure.NewInt(7))

	f.run(t,
		NewSum(measure.ComplexityInFunctionsKey),
		NewSum(measure.FunctionsKey),
		functionComplexity(),
	)

	m, ok := f.get(t, refD1, measure.FunctionComplexityKey)
	require.True(t, ok)
	assert.Equal(t, 3.0, m.Value.Double())

	_, ok = f.get(t, refD2, measure.FunctionComplexityKey)
	assert.False(t, ok)

	// D1 sums to complexity 112 over 4 functions; D2 has no functions.
	m, ok = f.get(t, refP1, measure.FunctionComplexityKey)
	require.True(t, ok)
	assert.Equal(t, 28.0, m.Value.Double())
}

func TestDefaultFormulas_EndToEnd(t *testing.T) {
	f := newFixture(t)
	for ref, v := range map[int][3]int32{refF1: {10, 4, 1}, refF2: {6, 2, 1}, refF3: {3, 1, 1}} {
		f.seed(t, ref, measure.ComplexityKey, measure.NewInt(v[0]))
		f.seed(t, ref, measure.FunctionsKey, measure.NewInt(v[1]))
		f.seed(t, ref, measure.FilesKey, measure.NewInt(v[2]))
	}
	f.run(t, DefaultFormulas()...)

	m, ok := f.get(t, refP1, measure.ComplexityKey)
	require.True(t, ok)
	assert.Equal(t, int32(19), m.Value.Int())

	m, ok = f.get(t, refP1, measure.FileComplexityKey)
	require.True(t, ok)
	assert.InDelta(t, 19.0/3.0, m.Value.Double(), 1e-9)

	m, ok = f.get(t, refD1, measure.FunctionComplexityKey)
	require.True(t, ok)
	assert.InDelta(t, 16.0/6.0, m.Value.Double(), 1e-9)

	_, ok = f.get(t, refP1, measure.ClassComplexityKey)
	assert.False(t, ok, "no classes reported anywhere")
}
