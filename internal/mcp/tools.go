package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Sumatoshi-tech/typical/internal/config"
	"github.com/Sumatoshi-tech/typical/internal/pointio"
	"github.com/Sumatoshi-tech/typical/internal/runner"
	"github.com/Sumatoshi-tech/typical/pkg/summary"
)

// ToolNameSummarize is the name of the summarization tool.
const ToolNameSummarize = "typical_summarize"

// Default input limits.
const (
	DefaultMaxPoints     = 100_000
	DefaultMaxDimensions = 1024
)

// Sentinel errors for tool input validation.
var (
	// ErrTooManyDimensions indicates points longer than the dimension limit.
	ErrTooManyDimensions = errors.New("points have too many dimensions")
	// ErrInvalidShrinkage indicates a shrinkage outside [0, 1].
	ErrInvalidShrinkage = errors.New("shrinkage must be within [0, 1]")
	// ErrInvalidRepresentatives indicates a negative representative count.
	ErrInvalidRepresentatives = errors.New("representatives must not be negative")
)

// Limits bound the size of tool inputs.
type Limits struct {
	MaxPoints     int
	MaxDimensions int
}

func (l Limits) withDefaults() Limits {
	if l.MaxPoints <= 0 {
		l.MaxPoints = DefaultMaxPoints
	}

	if l.MaxDimensions <= 0 {
		l.MaxDimensions = DefaultMaxDimensions
	}

	return l
}

// SummarizeInput is the input schema for the typical_summarize tool.
type SummarizeInput struct {
	Points          [][]float32 `json:"points"                    jsonschema:"points to summarize; every point must have the same length"`
	Weights         []float32   `json:"weights,omitempty"         jsonschema:"optional non-negative weight per point (default: 1 each)"`
	MaxNumber       *int        `json:"max_number,omitempty"      jsonschema:"maximum number of typical points; 0 disables clustering (default: 10)"`
	Distance        string      `json:"distance,omitempty"        jsonschema:"distance between points: l1, l2 or linf (default: l2)"`
	Representatives int         `json:"representatives,omitempty" jsonschema:"representatives per cluster; above 1 uses multi-representative clustering (default: 1)"`
	Shrinkage       *float32    `json:"shrinkage,omitempty"       jsonschema:"pull of representatives toward their centroid in [0, 1] (default: 0.5)"`
	Parallel        bool        `json:"parallel,omitempty"        jsonschema:"allow parallel assignment of points to clusters"`
}

// ToolOutput is a generic wrapper for tool results.
type ToolOutput struct {
	Data any `json:"data"`
}

// SummarizeResult is the payload of a successful typical_summarize call.
type SummarizeResult struct {
	Entry      string                 `json:"entry"`
	Points     int                    `json:"points"`
	DurationMS int64                  `json:"duration_ms"`
	Summary    *summary.SampleSummary `json:"summary"`
}

func (s *Server) handleSummarize(
	ctx context.Context, _ *mcpsdk.CallToolRequest, input SummarizeInput,
) (*mcpsdk.CallToolResult, ToolOutput, error) {
	req, err := s.request(input)
	if err != nil {
		return errorResult(err)
	}

	result, err := s.runner.Run(ctx, req)
	if err != nil {
		return errorResult(err)
	}

	return jsonResult(SummarizeResult{
		Entry:      result.Entry,
		Points:     req.Batch.Len(),
		DurationMS: result.Duration.Milliseconds(),
		Summary:    result.Summary,
	})
}

// request validates tool input and turns it into a runner request.
func (s *Server) request(input SummarizeInput) (runner.Request, error) {
	if len(input.Points) > 0 && len(input.Points[0]) > s.limits.MaxDimensions {
		return runner.Request{}, fmt.Errorf("%w: %d (max %d)", ErrTooManyDimensions, len(input.Points[0]), s.limits.MaxDimensions)
	}

	batch, err := pointio.FromRows(input.Points, input.Weights, s.limits.MaxPoints)
	if err != nil {
		return runner.Request{}, err
	}

	if input.Representatives < 0 {
		return runner.Request{}, fmt.Errorf("%w: %d", ErrInvalidRepresentatives, input.Representatives)
	}

	req := runner.Request{
		Batch:           batch,
		Distance:        input.Distance,
		MaxNumber:       config.DefaultMaxNumber,
		Representatives: max(input.Representatives, config.DefaultRepresentatives),
		Shrinkage:       config.DefaultShrinkage,
		Parallel:        input.Parallel,
	}

	if input.MaxNumber != nil {
		req.MaxNumber = *input.MaxNumber
	}

	if input.Shrinkage != nil {
		if *input.Shrinkage < 0 || *input.Shrinkage > 1 {
			return runner.Request{}, fmt.Errorf("%w: %g", ErrInvalidShrinkage, *input.Shrinkage)
		}

		req.Shrinkage = *input.Shrinkage
	}

	return req, nil
}

// errorResult builds a CallToolResult with isError set.
func errorResult(err error) (*mcpsdk.CallToolResult, ToolOutput, error) {
	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{
			&mcpsdk.TextContent{Text: err.Error()},
		},
		IsError: true,
	}, ToolOutput{}, nil
}

// jsonResult builds a CallToolResult with JSON-encoded content.
func jsonResult(value any) (*mcpsdk.CallToolResult, ToolOutput, error) {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return errorResult(fmt.Errorf("encode result: %w", err))
	}

	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{
			&mcpsdk.TextContent{Text: string(data)},
		},
	}, ToolOutput{Data: value}, nil
}

const summarizeToolDescription = "Summarize a batch of weighted points: per-dimension mean, " +
	"deviation, median, 10th and 90th weighted percentiles, and up to max_number " +
	"typical points found by clustering, heaviest first with relative weights."
