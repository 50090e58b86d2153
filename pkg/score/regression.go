package score

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/wildfunctions/typed_gp/pkg/prg"
)

var (
	ErrNonFinite     = errors.New("program produced a non-finite value")
	ErrEmptyData     = errors.New("dataset has no rows")
	ErrRowShape      = errors.New("dataset rows do not line up")
	ErrUnknownTarget = errors.New("unknown target")
)

// Dataset is a table of input rows and the ideal output for each row.
type Dataset struct {
	Inputs [][]float64
	Ideal  []float64
}

// NewDataset checks that every row has the same width and an ideal value.
func NewDataset(inputs [][]float64, ideal []float64) (Dataset, error) {
	if len(inputs) == 0 {
		return Dataset{}, ErrEmptyData
	}
	if len(inputs) != len(ideal) {
		return Dataset{}, fmt.Errorf("%w: %d rows, %d ideals", ErrRowShape, len(inputs), len(ideal))
	}
	width := len(inputs[0])
	for i, row := range inputs {
		if len(row) != width {
			return Dataset{}, fmt.Errorf("%w: row %d has %d columns, want %d", ErrRowShape, i, len(row), width)
		}
	}
	return Dataset{Inputs: inputs, Ideal: ideal}, nil
}

// Sample evaluates f on n evenly spaced points in [lo, hi].
func Sample(f func(float64) float64, lo, hi float64, n int) Dataset {
	d := Dataset{Inputs: make([][]float64, n), Ideal: make([]float64, n)}
	for i := 0; i < n; i++ {
		x := lo
		if n > 1 {
			x = lo + (hi-lo)*float64(i)/float64(n-1)
		}
		d.Inputs[i] = []float64{x}
		d.Ideal[i] = f(x)
	}
	return d
}

func (d Dataset) Len() int { return len(d.Ideal) }

// Regression scores a program by its mean squared error over a dataset.
// Lower is better.
type Regression struct {
	Data Dataset
}

func (r Regression) Score(p *prg.Program) (float64, error) {
	if r.Data.Len() == 0 {
		return 0, ErrEmptyData
	}
	var sum float64
	for i, row := range r.Data.Inputs {
		out, err := p.Compute(row)
		if err != nil {
			return 0, fmt.Errorf("row %d: %w", i, err)
		}
		if math.IsNaN(out) || math.IsInf(out, 0) {
			return 0, fmt.Errorf("row %d: %w", i, ErrNonFinite)
		}
		d := out - r.Data.Ideal[i]
		sum += d * d
	}
	mse := sum / float64(r.Data.Len())
	if math.IsInf(mse, 0) {
		return 0, ErrNonFinite
	}
	return mse, nil
}

func (Regression) ShouldMinimize() bool { return true }

// Parsimony adds a complexity penalty to another scorer, pushing the search
// toward smaller programs.
type Parsimony struct {
	Inner  Scorer
	Weight float64
}

func (s Parsimony) Score(p *prg.Program) (float64, error) {
	raw, err := s.Inner.Score(p)
	if err != nil {
		return 0, err
	}
	penalty := s.Weight * p.WeightedComplexity()
	if s.Inner.ShouldMinimize() {
		return raw + penalty, nil
	}
	return raw - penalty, nil
}

func (s Parsimony) ShouldMinimize() bool { return s.Inner.ShouldMinimize() }

// Target is a named function the search tries to rediscover.
type Target struct {
	Name   string
	Fn     func(float64) float64
	Lo, Hi float64
}

var targets = map[string]Target{
	"quadratic": {Name: "quadratic", Fn: func(x float64) float64 { return x*x + x + 1 }, Lo: -2, Hi: 2},
	"cubic":     {Name: "cubic", Fn: func(x float64) float64 { return x*x*x - 2*x }, Lo: -2, Hi: 2},
	"sine":      {Name: "sine", Fn: math.Sin, Lo: -math.Pi, Hi: math.Pi},
	"gaussian":  {Name: "gaussian", Fn: func(x float64) float64 { return math.Exp(-x * x) }, Lo: -3, Hi: 3},
}

// GetTarget returns a built-in target by name.
func GetTarget(name string) (Target, error) {
	t, ok := targets[name]
	if !ok {
		return Target{}, fmt.Errorf("%w: %s (available: %v)", ErrUnknownTarget, name, TargetNames())
	}
	return t, nil
}

// TargetNames returns the sorted built-in target names.
func TargetNames() []string {
	names := make([]string, 0, len(targets))
	for k := range targets {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

var (
	_ Scorer = Regression{}
	_ Scorer = Parsimony{}
)
