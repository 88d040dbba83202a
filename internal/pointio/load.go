package pointio

import (
	"bufio"
	_ "embed"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/pierrec/lz4/v4"
	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

// Input formats.
const (
	FormatAuto = "auto"
	FormatJSON = "json"
	FormatYAML = "yaml"
	FormatCSV  = "csv"
)

// StdinPath reads the batch from standard input.
const StdinPath = "-"

const (
	lz4Extension = ".lz4"
	weightColumn = "weight"
)

//go:embed batch-schema.json
var batchSchema []byte

var compiledSchema = sync.OnceValues(func() (*gojsonschema.Schema, error) {
	return gojsonschema.NewSchema(gojsonschema.NewBytesLoader(batchSchema))
})

// Options control decoding.
type Options struct {
	// Format is one of the Format constants. FormatAuto picks by file extension.
	Format string

	// SchemaValidation checks JSON documents against the embedded batch schema.
	SchemaValidation bool

	// MaxPoints rejects batches with more points. Zero means unlimited.
	MaxPoints int
}

// Load reads a batch from path, or from stdin when path is StdinPath.
// A ".lz4" suffix selects LZ4 frame decompression; format detection then
// uses the extension underneath it.
func Load(path string, opts Options) (*Batch, error) {
	if path == StdinPath {
		return Read(os.Stdin, opts)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	var reader io.Reader = file

	name := path
	if strings.EqualFold(filepath.Ext(name), lz4Extension) {
		reader = lz4.NewReader(file)
		name = strings.TrimSuffix(name, filepath.Ext(name))
	}

	if opts.Format == "" || opts.Format == FormatAuto {
		opts.Format, err = DetectFormat(name)
		if err != nil {
			return nil, err
		}
	}

	batch, err := Read(reader, opts)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}

	return batch, nil
}

// DetectFormat maps a file extension to a format.
func DetectFormat(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".csv":
		return FormatCSV, nil
	default:
		return "", fmt.Errorf("%w: cannot detect from %q", ErrUnknownFormat, path)
	}
}

// Read decodes a batch from r. FormatAuto is treated as JSON.
func Read(r io.Reader, opts Options) (*Batch, error) {
	switch opts.Format {
	case FormatJSON, FormatAuto, "":
		return readJSON(r, opts)
	case FormatYAML:
		return readYAML(r, opts)
	case FormatCSV:
		return readCSV(r, opts)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, opts.Format)
	}
}

func readJSON(r io.Reader, opts Options) (*Batch, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read json: %w", err)
	}

	if opts.SchemaValidation {
		err = ValidateJSON(data)
		if err != nil {
			return nil, err
		}
	}

	var doc Document

	err = json.Unmarshal(data, &doc)
	if err != nil {
		return nil, fmt.Errorf("decode json: %w", err)
	}

	return fromDocument(&doc, opts.MaxPoints)
}

// ValidateJSON checks data against the embedded batch schema. All schema
// violations are reported in the error message.
func ValidateJSON(data []byte) error {
	schema, err := compiledSchema()
	if err != nil {
		return fmt.Errorf("compile batch schema: %w", err)
	}

	result, err := schema.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSchema, err)
	}

	if result.Valid() {
		return nil
	}

	details := make([]string, 0, len(result.Errors()))
	for _, verr := range result.Errors() {
		details = append(details, verr.Field()+": "+verr.Description())
	}

	return fmt.Errorf("%w: %s", ErrSchema, strings.Join(details, "; "))
}

func readYAML(r io.Reader, opts Options) (*Batch, error) {
	var doc Document

	err := yaml.NewDecoder(r).Decode(&doc)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}

	return fromDocument(&doc, opts.MaxPoints)
}

// readCSV accepts one point per record. A first record that does not parse
// as numbers is a header; a header column named "weight" holds the weights.
func readCSV(r io.Reader, opts Options) (*Batch, error) {
	reader := csv.NewReader(bufio.NewReader(r))
	reader.TrimLeadingSpace = true
	reader.Comment = '#'
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCSV, err)
	}

	if len(records) == 0 {
		return nil, ErrNoPoints
	}

	weightAt := -1

	if _, headerErr := parseRecord(records[0]); headerErr != nil {
		for i, name := range records[0] {
			if strings.EqualFold(strings.TrimSpace(name), weightColumn) {
				weightAt = i
			}
		}

		records = records[1:]
	}

	bb := newBatchBuilder(0, opts.MaxPoints)

	for n, record := range records {
		values, parseErr := parseRecord(record)
		if parseErr != nil {
			return nil, fmt.Errorf("%w: record %d: %w", ErrInvalidCSV, n+1, parseErr)
		}

		weight := float32(defaultWeight)

		if weightAt >= 0 {
			if weightAt >= len(values) {
				return nil, fmt.Errorf("%w: record %d has no weight column", ErrInvalidCSV, n+1)
			}

			weight = values[weightAt]
			values = append(values[:weightAt:weightAt], values[weightAt+1:]...)
		}

		err = bb.add(values, weight)
		if err != nil {
			return nil, err
		}
	}

	return bb.finish()
}

func parseRecord(record []string) ([]float32, error) {
	values := make([]float32, len(record))

	for i, field := range record {
		v, err := strconv.ParseFloat(strings.TrimSpace(field), 32)
		if err != nil {
			return nil, fmt.Errorf("field %d: %w", i+1, err)
		}

		values[i] = float32(v)
	}

	return values, nil
}
