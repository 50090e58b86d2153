package engine

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/wildfunctions/typed_gp/pkg/score"
)

// Score is a score as reported. Non-finite scores encode as JSON null.
type Score float64

func (s Score) MarshalJSON() ([]byte, error) {
	f := float64(s)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatFloat(f, 'g', -1, 64)), nil
}

// GenerationReport summarizes one generation.
type GenerationReport struct {
	Generation  int    `json:"generation"`
	BestScore   Score  `json:"best_score"`
	BestProgram string `json:"best_program"`
	BestInfix   string `json:"best_infix"`
	AvgScore    Score  `json:"avg_score"` // over programs that scored without error
	Failures    int    `json:"failures"`
}

// AttemptResult summarizes one restart attempt.
type AttemptResult struct {
	Attempt        int       `json:"attempt"`
	Generations    int       `json:"generations"`
	BestFoundAtGen int       `json:"best_found_at_gen"`
	BestID         string    `json:"best_id"`
	BestProgram    string    `json:"best_program"`
	BestInfix      string    `json:"best_infix"`
	BestLaTeX      string    `json:"best_latex"`
	BestScore      Score     `json:"best_score"`
	BestSize       int       `json:"best_size"`
	Timestamp      time.Time `json:"timestamp"`
}

// FinalReport summarizes the entire run.
type FinalReport struct {
	RunID       string             `json:"run_id"`
	Config      Config             `json:"config"`
	Generations []GenerationReport `json:"generations,omitempty"`
	BestProgram string             `json:"best_program"`
	BestInfix   string             `json:"best_infix"`
	BestLaTeX   string             `json:"best_latex"`
	BestScore   Score              `json:"best_score"`
	Evaluations int                `json:"evaluations"`
	Stopped     string             `json:"stopped"` // "budget", "target" or "cancelled"
	Minimize    bool               `json:"minimize"`
	Attempts    []AttemptResult    `json:"attempts,omitempty"`
}

// WriteTextReport writes a generation report in human-readable format.
func WriteTextReport(w io.Writer, r GenerationReport) {
	fmt.Fprintf(w, "Gen %4d | Best: %.6g | Avg: %.6g | Failed: %d | %s\n",
		r.Generation, float64(r.BestScore), float64(r.AvgScore), r.Failures, r.BestInfix)
}

// WriteAttemptSummary writes a single attempt result.
func WriteAttemptSummary(w io.Writer, a AttemptResult) {
	fmt.Fprintf(w, "Attempt %d: %d generations, score %.6g | %s\n",
		a.Attempt, a.Generations, float64(a.BestScore), a.BestInfix)
}

// sortByScore returns a copy of attempts sorted best first.
func sortByScore(attempts []AttemptResult, minimize bool) []AttemptResult {
	sorted := make([]AttemptResult, len(attempts))
	copy(sorted, attempts)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].BestScore != sorted[j].BestScore {
			return score.Better(float64(sorted[i].BestScore), float64(sorted[j].BestScore), minimize)
		}
		return sorted[i].BestSize < sorted[j].BestSize
	})
	return sorted
}

// WriteHallOfFame writes the hall of fame across attempts, best first in
// the run's optimization direction.
func WriteHallOfFame(w io.Writer, attempts []AttemptResult, minimize bool) {
	sorted := sortByScore(attempts, minimize)
	fmt.Fprintln(w, "\n--- Hall of Fame ---")
	for i, a := range sorted {
		fmt.Fprintf(w, "  #%d: [attempt %d, gen %d] %.6g | %s\n",
			i+1, a.Attempt, a.BestFoundAtGen, float64(a.BestScore), a.BestInfix)
	}
}

// WriteTextFinal writes the final report in human-readable format.
func WriteTextFinal(w io.Writer, r FinalReport) {
	if len(r.Attempts) > 0 {
		WriteHallOfFame(w, r.Attempts, r.Minimize)
	}
	fmt.Fprintln(w, "\n========== FINAL RESULT ==========")
	fmt.Fprintf(w, "Run:       %s\n", r.RunID)
	fmt.Fprintf(w, "Target:    %s\n", r.Config.Target)
	fmt.Fprintf(w, "Strategy:  %s\n", r.Config.Strategy)
	fmt.Fprintf(w, "Pool:      %s\n", r.Config.Pool)
	fmt.Fprintf(w, "Best:      %s\n", r.BestProgram)
	fmt.Fprintf(w, "Infix:     %s\n", r.BestInfix)
	fmt.Fprintf(w, "LaTeX:     %s\n", r.BestLaTeX)
	fmt.Fprintf(w, "Score:     %.6g\n", float64(r.BestScore))
	fmt.Fprintf(w, "Evals:     %d\n", r.Evaluations)
	fmt.Fprintf(w, "Stopped:   %s\n", r.Stopped)
	fmt.Fprintln(w, "==================================")
}

// WriteJSONFinal writes the final report as JSON.
func WriteJSONFinal(w io.Writer, r FinalReport) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// latexEscape escapes underscores for LaTeX text mode.
func latexEscape(s string) string {
	return strings.ReplaceAll(s, "_", `\_`)
}

// verb wraps s in \verb with a delimiter s does not contain.
func verb(s string) string {
	for _, d := range []string{"|", "!", "+", "@", ";", ":"} {
		if !strings.Contains(s, d) {
			return `\verb` + d + s + d
		}
	}
	return `\texttt{` + latexEscape(s) + `}`
}

// WriteHallOfFameLatex writes a compilable LaTeX document of the hall of fame.
func WriteHallOfFameLatex(w io.Writer, attempts []AttemptResult, cfg Config, minimize bool) {
	sorted := sortByScore(attempts, minimize)

	genBudget := "unlimited"
	if cfg.Generations > 0 {
		genBudget = fmt.Sprintf("%d", cfg.Generations)
	}

	fmt.Fprintln(w, `\documentclass{article}`)
	fmt.Fprintln(w, `\usepackage{amsmath}`)
	fmt.Fprintln(w, `\usepackage{geometry}`)
	fmt.Fprintln(w, `\geometry{margin=1in}`)
	fmt.Fprintf(w, "\\title{Hall of Fame --- Target: \\texttt{%s}}\n", latexEscape(cfg.Target))
	fmt.Fprintln(w, `\date{\today}`)
	fmt.Fprintln(w, `\begin{document}`)
	fmt.Fprintln(w, `\maketitle`)
	fmt.Fprintln(w)
	fmt.Fprintf(w, "\\noindent Target: \\texttt{%s}, Pool: \\texttt{%s}, Strategy: \\texttt{%s}\\\\\n",
		latexEscape(cfg.Target), latexEscape(cfg.Pool), latexEscape(cfg.Strategy))
	fmt.Fprintf(w, "Population: %d, Gen budget: %s, Stagnation: %d, Workers: %d, Seed: %d\n\n",
		cfg.Population, genBudget, cfg.StagnationLimit, cfg.Workers, cfg.Seed)

	for i, a := range sorted {
		fmt.Fprintf(w, "\\subsection*{\\#%d --- score %.6g (attempt %d, gen %d, %s)}\n",
			i+1, float64(a.BestScore), a.Attempt, a.BestFoundAtGen,
			a.Timestamp.Format("2006-01-02 15:04:05 UTC"))
		fmt.Fprintln(w, `\[`)
		fmt.Fprintf(w, "  f(x) = %s\n", a.BestLaTeX)
		fmt.Fprintln(w, `\]`)
		fmt.Fprintf(w, "\\noindent Program: %s, size %d\n\n", verb(a.BestProgram), a.BestSize)
	}

	fmt.Fprintln(w, `\end{document}`)
}
