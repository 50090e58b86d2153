// Package store persists evolved programs in their text form so a run's best
// results can be reloaded, re-scored or inspected later.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/wildfunctions/typed_gp/pkg/codec"
	"github.com/wildfunctions/typed_gp/pkg/prg"
)

const CurrentSchemaVersion = 1

var (
	ErrVersionMismatch = errors.New("record version mismatch")
	ErrNotInitialized  = errors.New("store is not initialized")
	ErrNoPath          = errors.New("sqlite path is required")
	ErrUnknownBackend  = errors.New("unsupported store backend")
)

// Record is one saved program.
type Record struct {
	SchemaVersion int       `json:"schema_version"`
	ID            string    `json:"id"`
	RunID         string    `json:"run_id"`
	Text          string    `json:"text"`
	ReturnType    string    `json:"return_type"`
	Score         *float64  `json:"score,omitempty"` // nil when the score was not finite
	Generation    int       `json:"generation"`
	Size          int       `json:"size"`
	SavedAt       time.Time `json:"saved_at"`
}

// Store defines persistence operations for programs. Records are listed per
// run in the order they were first saved.
type Store interface {
	Init(ctx context.Context) error
	SaveProgram(ctx context.Context, rec Record) error
	GetProgram(ctx context.Context, id string) (Record, bool, error)
	ListPrograms(ctx context.Context, runID string) ([]Record, error)
	Close() error
}

// NewRecord captures p under runID.
func NewRecord(p *prg.Program, runID string) (Record, error) {
	text, err := codec.Text{Context: p.Context()}.Decode(p)
	if err != nil {
		return Record{}, err
	}
	rec := Record{
		SchemaVersion: CurrentSchemaVersion,
		ID:            p.ID,
		RunID:         runID,
		Text:          text,
		ReturnType:    p.ReturnType.String(),
		Generation:    p.BirthGeneration,
		Size:          p.Size(),
		SavedAt:       time.Now().UTC(),
	}
	if !math.IsNaN(p.Score) && !math.IsInf(p.Score, 0) {
		s := p.Score
		rec.Score = &s
	}
	return rec, nil
}

// Program parses the record back into a program of ctx. The ID, score and
// birth generation are restored.
func (r Record) Program(ctx *prg.Context) (*prg.Program, error) {
	p, err := codec.Text{Context: ctx}.Encode(r.Text)
	if err != nil {
		return nil, fmt.Errorf("record %s: %w", r.ID, err)
	}
	p.ID = r.ID
	p.BirthGeneration = r.Generation
	if r.Score != nil {
		p.Score = *r.Score
	}
	return p, nil
}

func encodeRecord(r Record) ([]byte, error) {
	return json.Marshal(r)
}

func decodeRecord(data []byte) (Record, error) {
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return Record{}, err
	}
	if rec.SchemaVersion != CurrentSchemaVersion {
		return Record{}, fmt.Errorf("%w: schema=%d", ErrVersionMismatch, rec.SchemaVersion)
	}
	return rec, nil
}
