package catalog

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"

	"github.com/tulen-chik/reshalka/internal/journal"
)

//go:embed schema.cue
var schemaCUE string

//go:embed default.yaml
var defaultYAML []byte

// BuiltinSource is the Source of the embedded default catalog.
const BuiltinSource = "builtin"

// Format selects the catalog parser.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatCUE  Format = "cue"
)

// FormatFor picks the format from a file extension. Anything that is not
// .cue is read as YAML.
func FormatFor(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".cue") {
		return FormatCUE
	}
	return FormatYAML
}

// Default returns the embedded catalog with the four standard categories.
func Default() *Catalog {
	c, err := Parse(defaultYAML, FormatYAML, BuiltinSource)
	if err != nil {
		panic(fmt.Sprintf("catalog: builtin catalog invalid: %v", err))
	}
	return c
}

// Load reads a catalog file. An empty path returns the builtin catalog.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return Parse(data, FormatFor(path), path)
}

// Parse decodes, validates and compiles catalog bytes.
func Parse(data []byte, format Format, source string) (*Catalog, error) {
	var (
		f   File
		err error
	)
	switch format {
	case FormatCUE:
		f, err = decodeCUE(data, source)
	case FormatYAML:
		f, err = decodeYAML(data)
	default:
		return nil, fmt.Errorf("unknown catalog format %q", format)
	}
	if err != nil {
		return nil, err
	}

	cats, err := Compile(f)
	if err != nil {
		return nil, err
	}
	return &Catalog{
		Source:      source,
		Fingerprint: journal.Fingerprint(data),
		Categories:  cats,
	}, nil
}

func decodeYAML(data []byte) (File, error) {
	var f File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return File{}, nil
		}
		return File{}, ValidationErrors{{Code: ErrSchema, Message: fmt.Sprintf("parse YAML: %v", err)}}
	}
	return f, nil
}

func decodeCUE(data []byte, source string) (File, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue")).LookupPath(cue.ParsePath("#Catalog"))
	if err := schema.Err(); err != nil {
		return File{}, fmt.Errorf("catalog schema: %w", err)
	}

	v := ctx.CompileBytes(data, cue.Filename(source))
	if err := v.Err(); err != nil {
		return File{}, ValidationErrors{{Code: ErrSchema, Message: fmt.Sprintf("compile CUE: %v", err)}}
	}

	unified := schema.Unify(v)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return File{}, ValidationErrors{{Code: ErrSchema, Message: err.Error()}}
	}

	var f File
	if err := unified.Decode(&f); err != nil {
		return File{}, ValidationErrors{{Code: ErrSchema, Message: fmt.Sprintf("decode CUE: %v", err)}}
	}
	return f, nil
}
