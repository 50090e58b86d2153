// Package codec converts between the representation the search evolves
// (genotype) and the one an evaluator executes (phenotype).
package codec

import (
	"errors"
	"fmt"

	"github.com/wildfunctions/typed_gp/pkg/prg"
)

var ErrNilGenome = errors.New("nil genome")

// Codec is a pair of conversions. Implementations must round trip the
// structure they care about; lossy codecs document what they drop.
type Codec[G, P any] interface {
	Decode(genome G) (P, error)
	Encode(phenotype P) (G, error)
}

// Identity is the codec for directly executable genomes. Both directions
// return the very same value, so it is lossless.
type Identity[G any] struct{}

func (Identity[G]) Decode(genome G) (G, error) { return genome, nil }

func (Identity[G]) Encode(phenotype G) (G, error) { return phenotype, nil }

// Text maps programs to their S-expression form and back. Tree shape,
// templates and constants survive the trip; the program ID, scores and
// variable values do not.
type Text struct {
	Context *prg.Context
}

func (c Text) Decode(p *prg.Program) (string, error) {
	if p == nil {
		return "", ErrNilGenome
	}
	return p.String(), nil
}

func (c Text) Encode(text string) (*prg.Program, error) {
	p, err := prg.Parse(c.Context, text)
	if err != nil {
		return nil, fmt.Errorf("encode program: %w", err)
	}
	return p, nil
}

var (
	_ Codec[*prg.Program, *prg.Program] = Identity[*prg.Program]{}
	_ Codec[*prg.Program, string]       = Text{}
)
