package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/wildfunctions/typed_gp/pkg/engine"
	"github.com/wildfunctions/typed_gp/pkg/expr"
	"github.com/wildfunctions/typed_gp/pkg/pool"
	"github.com/wildfunctions/typed_gp/pkg/prg"
	"github.com/wildfunctions/typed_gp/pkg/store"
)

var errIllegal = errors.New("program is not legal")

var (
	toolPool    string
	evalX       float64
	checkDepth  int
	checkSize   int
	storeKind   string
	storeDBPath string

	evalCmd = &cobra.Command{
		Use:   "eval PROGRAM",
		Short: "Evaluate a program at one input",
		Example: `  typed_gp eval "(+ (* x x) 1)" --x 3
  typed_gp eval "x * x + 1" --x 3
  typed_gp eval "(sin x)" --pool kitchensink --x 1.5`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := parseProgram(toolPool, args[0])
			if err != nil {
				return err
			}
			if err := p.SetVariable(engine.InputName, expr.FloatValue(evalX)); err != nil {
				return err
			}
			v, err := p.Evaluate()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s = %s (%s)\n", p.Infix(), v, v.Type())
			return nil
		},
	}

	checkCmd = &cobra.Command{
		Use:   "check PROGRAM",
		Short: "Report whether a program is legal and how large it is",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := parseProgram(toolPool, args[0])
			if err != nil {
				return err
			}
			return writeCheck(cmd.OutOrStdout(), p, prg.Checker{MaxDepth: checkDepth, MaxSize: checkSize})
		},
	}

	programsCmd = &cobra.Command{
		Use:   "programs RUN_ID",
		Short: "List the programs a run saved",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := store.NewStore(storeKind, storeDBPath)
			if err != nil {
				return err
			}
			if err := s.Init(cmd.Context()); err != nil {
				return err
			}
			defer s.Close()

			records, err := s.ListPrograms(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tGEN\tSIZE\tSCORE\tPROGRAM")
			for _, r := range records {
				sc := "-"
				if r.Score != nil {
					sc = strconv.FormatFloat(*r.Score, 'g', 6, 64)
				}
				fmt.Fprintf(tw, "%s\t%d\t%d\t%s\t%s\n", r.ID, r.Generation, r.Size, sc, r.Text)
			}
			return tw.Flush()
		},
	}
)

func init() {
	for _, c := range []*cobra.Command{evalCmd, checkCmd} {
		c.Flags().StringVar(&toolPool, "pool", "kitchensink", "pool whose templates the program may use")
	}
	evalCmd.Flags().Float64Var(&evalX, "x", 0, "value of the input variable")
	checkCmd.Flags().IntVar(&checkDepth, "depthcap", 0, "max program depth (0 = none)")
	checkCmd.Flags().IntVar(&checkSize, "sizecap", 0, "max program size (0 = none)")
	programsCmd.Flags().StringVar(&storeKind, "store", "sqlite", "program store backend")
	programsCmd.Flags().StringVar(&storeDBPath, "store-path", "typed_gp.db", "sqlite database path")
}

// parseProgram accepts the prefix form, e.g. "(+ (* x x) 1)", or
// conventional notation, e.g. "x * x + 1".
func parseProgram(poolName, text string) (*prg.Program, error) {
	p, err := pool.Get(poolName)
	if err != nil {
		return nil, err
	}
	ctx := engine.ProgramContext(p)
	prog, prefixErr := prg.Parse(ctx, text)
	if prefixErr == nil {
		return prog, nil
	}
	prog, infixErr := prg.ParseInfix(ctx, text)
	if infixErr == nil {
		return prog, nil
	}
	return nil, fmt.Errorf("as prefix: %w; as infix: %w", prefixErr, infixErr)
}

func writeCheck(w io.Writer, p *prg.Program, c prg.Checker) error {
	typ := "none"
	if t, ok := p.NodeType(p.Root()); ok {
		typ = t.String()
	}
	valid := c.IsValid(p)
	fmt.Fprintf(w, "program: %s\ninfix:   %s\nsize:    %d\ndepth:   %d\ntype:    %s\nlegal:   %t\n",
		p, p.Infix(), p.Size(), p.Depth(), typ, valid)
	if !valid {
		return errIllegal
	}
	return nil
}

// parseWeights converts --operators values to weights.
func parseWeights(raw map[string]string) (map[string]float64, error) {
	out := make(map[string]float64, len(raw))
	for name, v := range raw {
		w, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("operator %s: bad weight %q: %w", name, v, err)
		}
		out[name] = w
	}
	return out, nil
}
