// Package pointio loads weighted point batches from JSON, YAML and CSV
// documents, optionally LZ4 frame compressed.
package pointio

import (
	"errors"
	"fmt"

	"github.com/Sumatoshi-tech/typical/pkg/sample"
)

// Sentinel errors.
var (
	// ErrUnknownFormat indicates an unsupported or undetectable input format.
	ErrUnknownFormat = errors.New("unknown input format")
	// ErrNoPoints indicates a document without points.
	ErrNoPoints = errors.New("document has no points")
	// ErrRaggedPoints indicates points of different lengths.
	ErrRaggedPoints = errors.New("points have different lengths")
	// ErrTooManyPoints indicates a batch above the configured limit.
	ErrTooManyPoints = errors.New("too many points")
	// ErrSchema indicates a JSON document that does not match the batch schema.
	ErrSchema = errors.New("document does not match the batch schema")
	// ErrInvalidCSV indicates a malformed CSV document.
	ErrInvalidCSV = errors.New("invalid csv")
	// ErrWeightCount indicates a weight list that does not match the points.
	ErrWeightCount = errors.New("weights do not match points")
)

// defaultWeight applies to points that omit a weight.
const defaultWeight = 1

// Document is the JSON and YAML shape of a batch.
type Document struct {
	Dimensions int     `json:"dimensions,omitempty" yaml:"dimensions,omitempty"`
	Points     []Point `json:"points"               yaml:"points"`
}

// Point is one document entry. A missing weight means 1.
type Point struct {
	Values []float32 `json:"values"           yaml:"values"`
	Weight *float32  `json:"weight,omitempty" yaml:"weight,omitempty"`
}

// Batch holds the coordinates of all points back to back in one store.
type Batch struct {
	Dimensions int
	Store      []float32
	Weights    []float32
}

// Len returns the number of points.
func (b *Batch) Len() int { return len(b.Weights) }

// Vectors returns the batch as owned-shape points sharing the store.
func (b *Batch) Vectors() []sample.Weighted[sample.Vector] {
	out := make([]sample.Weighted[sample.Vector], b.Len())

	for i := range out {
		start := i * b.Dimensions
		out[i] = sample.Weighted[sample.Vector]{
			Point:  b.Store[start : start+b.Dimensions : start+b.Dimensions],
			Weight: b.Weights[i],
		}
	}

	return out
}

// Views returns the batch as borrowed views into the store.
func (b *Batch) Views() ([]sample.Weighted[sample.View], error) {
	out := make([]sample.Weighted[sample.View], b.Len())

	for i := range out {
		view, err := sample.NewView(b.Store, i*b.Dimensions, b.Dimensions)
		if err != nil {
			return nil, err
		}

		out[i] = sample.Weighted[sample.View]{Point: view, Weight: b.Weights[i]}
	}

	return out, nil
}

// batchBuilder flattens points while enforcing a common length and the limit.
type batchBuilder struct {
	batch *Batch
	limit int
}

func newBatchBuilder(dimensions, limit int) *batchBuilder {
	return &batchBuilder{batch: &Batch{Dimensions: dimensions}, limit: limit}
}

func (bb *batchBuilder) add(values []float32, weight float32) error {
	n := bb.batch.Len()

	if bb.limit > 0 && n >= bb.limit {
		return fmt.Errorf("%w: limit is %d", ErrTooManyPoints, bb.limit)
	}

	if bb.batch.Dimensions == 0 {
		bb.batch.Dimensions = len(values)
	}

	if len(values) != bb.batch.Dimensions {
		return fmt.Errorf("%w: point %d has %d values, want %d", ErrRaggedPoints, n, len(values), bb.batch.Dimensions)
	}

	bb.batch.Store = append(bb.batch.Store, values...)
	bb.batch.Weights = append(bb.batch.Weights, weight)

	return nil
}

func (bb *batchBuilder) finish() (*Batch, error) {
	if bb.batch.Len() == 0 {
		return nil, ErrNoPoints
	}

	return bb.batch, nil
}

// fromDocument converts a decoded JSON or YAML document into a Batch.
func fromDocument(doc *Document, limit int) (*Batch, error) {
	bb := newBatchBuilder(doc.Dimensions, limit)

	for _, p := range doc.Points {
		weight := float32(defaultWeight)
		if p.Weight != nil {
			weight = *p.Weight
		}

		err := bb.add(p.Values, weight)
		if err != nil {
			return nil, err
		}
	}

	return bb.finish()
}

// FromRows builds a Batch from in-memory rows. Weights may be empty, in which
// case every point weighs 1; otherwise there must be one weight per row.
func FromRows(rows [][]float32, weights []float32, limit int) (*Batch, error) {
	if len(weights) > 0 && len(weights) != len(rows) {
		return nil, fmt.Errorf("%w: %d weights for %d points", ErrWeightCount, len(weights), len(rows))
	}

	bb := newBatchBuilder(0, limit)

	for i, row := range rows {
		weight := float32(defaultWeight)
		if len(weights) > 0 {
			weight = weights[i]
		}

		err := bb.add(row, weight)
		if err != nil {
			return nil, err
		}
	}

	return bb.finish()
}
