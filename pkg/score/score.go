// Package score holds the scoring functions the search ranks programs by.
package score

import (
	"math"

	"github.com/wildfunctions/typed_gp/pkg/expr"
	"github.com/wildfunctions/typed_gp/pkg/prg"
)

// Scorer assigns a comparable value to a program. Scorers must not change
// the program's structure. An evaluation failure is returned as an error
// rather than folded into a sentinel score; the caller decides what a
// failing program is worth.
type Scorer interface {
	Score(p *prg.Program) (float64, error)
	ShouldMinimize() bool
}

// Zero scores every program 0. It is a placeholder for runs that only need
// legal programs.
type Zero struct{}

func (Zero) Score(*prg.Program) (float64, error) { return 0, nil }

func (Zero) ShouldMinimize() bool { return true }

// ZeroEval sets every defined variable to the zero value of its type and runs
// the program once. It scores 0 when evaluation succeeds, so its only signal
// is the error: it validates by execution.
type ZeroEval struct{}

func (ZeroEval) Score(p *prg.Program) (float64, error) {
	for _, v := range p.Context().Variables() {
		if err := p.SetVariable(v.Name, expr.Zero(v.Type)); err != nil {
			return 0, err
		}
	}
	if _, err := p.Evaluate(); err != nil {
		return 0, err
	}
	return 0, nil
}

func (ZeroEval) ShouldMinimize() bool { return true }

// Better reports whether score a beats score b. NaN never wins.
func Better(a, b float64, minimize bool) bool {
	if math.IsNaN(a) {
		return false
	}
	if math.IsNaN(b) {
		return true
	}
	if minimize {
		return a < b
	}
	return a > b
}

// Worst is the score assigned to programs that fail to evaluate.
func Worst(minimize bool) float64 {
	if minimize {
		return math.Inf(1)
	}
	return math.Inf(-1)
}

var (
	_ Scorer = Zero{}
	_ Scorer = ZeroEval{}
)
