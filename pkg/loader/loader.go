// Package loader reads item collections from JSON, NDJSON, YAML
// (single or multi-document) and TOML input.
package loader

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// ErrEmptyInput is returned for blank input.
var ErrEmptyInput = errors.New("empty input")

// Format is a detected input format.
type Format string

const (
	FormatJSON   Format = "json"
	FormatNDJSON Format = "ndjson"
	FormatYAML   Format = "yaml"
	FormatTOML   Format = "toml"
)

var (
	// CR alone separates lines too (progress output, old Mac files).
	newlines = strings.NewReplacer("\r\n", "\n", "\r", "\n")

	// [section], [[array]], ["quoted"], [a.b]; not JSON arrays like [1, 2].
	tomlSection = regexp.MustCompile(`^\s*\[{1,2}(?:[a-zA-Z_][a-zA-Z0-9_-]*|"[^"]+"|'[^']+')+(?:\.(?:[a-zA-Z_][a-zA-Z0-9_-]*|"[^"]+"|'[^']+'))*\]{1,2}\s*$`)
	// key = value, as opposed to YAML's key: value.
	tomlKeyValue = regexp.MustCompile(`^\s*(?:[a-zA-Z_][a-zA-Z0-9_-]*|"[^"]+"|'[^']+')+(?:\.(?:[a-zA-Z_][a-zA-Z0-9_-]*|"[^"]+"|'[^']+'))*\s*=\s*.+$`)
)

// Detect guesses the format of input.
func Detect(input string) Format {
	input = strings.TrimSpace(input)
	switch {
	case strings.HasPrefix(input, "---") || strings.Contains(input, "\n---"):
		return FormatYAML
	case (strings.HasPrefix(input, "{") || strings.HasPrefix(input, "[")) && json.Valid([]byte(input)):
		return FormatJSON
	case isLikelyNDJSON(strings.Split(input, "\n")):
		return FormatNDJSON
	// TOML section headers look like JSON arrays, so check them first.
	case isLikelyTOML(input):
		return FormatTOML
	case strings.HasPrefix(input, "{") || strings.HasPrefix(input, "["):
		return FormatJSON
	default:
		return FormatYAML
	}
}

// ParseFormat accepts json|ndjson|yaml|yml|toml; empty or "auto" means
// detect.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return "", nil
	case "json":
		return FormatJSON, nil
	case "ndjson", "jsonl":
		return FormatNDJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "toml":
		return FormatTOML, nil
	default:
		return "", fmt.Errorf("unknown input format %q (want json|ndjson|yaml|toml)", s)
	}
}

// LoadDocuments parses input into its documents. Multi-document YAML and
// NDJSON yield one element per document; everything else yields one.
// An empty format means detect.
func LoadDocuments(input string, format Format) ([]any, error) {
	input = strings.TrimSpace(newlines.Replace(input))
	if input == "" {
		return nil, ErrEmptyInput
	}
	if format == "" {
		format = Detect(input)
	}
	switch format {
	case FormatNDJSON:
		return loadNDJSON(input)
	case FormatTOML:
		return loadTOML(input)
	case FormatJSON:
		docs, err := loadJSON(input)
		if err != nil {
			// {invalid} is still a YAML flow mapping.
			return loadYAML(input)
		}
		return docs, nil
	default:
		return loadYAML(input)
	}
}

// Options select the collection inside the parsed input.
type Options struct {
	// Format forces the input format; empty detects it.
	Format Format
	// Path is a dotted path (items.0.children) to the collection inside a
	// single document. Empty means the document itself.
	Path string
}

// LoadCollection parses input and returns its items.
//
// A single document that is a list yields its elements. A single mapping
// with exactly one list-valued field (a TOML [[items]] table, a wrapper
// object) yields that list. Any other single document is a one-item
// collection. Multi-document input yields one item per document.
func LoadCollection(input string, opts Options) ([]any, error) {
	docs, err := LoadDocuments(input, opts.Format)
	if err != nil {
		return nil, err
	}
	if opts.Path != "" {
		if len(docs) != 1 {
			return nil, fmt.Errorf("path %q needs a single document, got %d", opts.Path, len(docs))
		}
		node, err := Extract(docs[0], opts.Path)
		if err != nil {
			return nil, err
		}
		docs = []any{node}
	}
	if len(docs) != 1 {
		return docs, nil
	}
	return unwrap(docs[0]), nil
}

// LoadReader reads all of r and loads it as a collection.
func LoadReader(r io.Reader, opts Options) ([]any, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	return LoadCollection(string(data), opts)
}

// LoadFile reads path and loads it as a collection. The extension picks
// the format unless opts.Format is set.
func LoadFile(path string, opts Options) ([]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	guessed := opts.Format == ""
	if guessed {
		opts.Format = formatFromExt(path)
	}
	items, err := LoadCollection(string(data), opts)
	if err != nil && guessed && opts.Format != "" {
		// The extension lied; fall back to detection.
		opts.Format = ""
		items, err = LoadCollection(string(data), opts)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return items, nil
}

func formatFromExt(path string) Format {
	i := strings.LastIndexByte(path, '.')
	if i < 0 {
		return ""
	}
	f, err := ParseFormat(path[i+1:])
	if err != nil {
		return ""
	}
	return f
}

func unwrap(doc any) []any {
	switch v := doc.(type) {
	case nil:
		return []any{}
	case []any:
		return v
	case map[string]any:
		var lists []string
		for k, val := range v {
			if _, ok := val.([]any); ok {
				lists = append(lists, k)
			}
		}
		if len(lists) == 1 {
			return v[lists[0]].([]any)
		}
	}
	return []any{doc}
}

// Extract walks a dotted path through maps and lists. Numeric segments
// index lists.
func Extract(root any, path string) (any, error) {
	node := root
	for _, seg := range strings.Split(path, ".") {
		if seg == "" {
			continue
		}
		switch v := node.(type) {
		case map[string]any:
			next, ok := v[seg]
			if !ok {
				return nil, fmt.Errorf("path %q: no field %q (have %s)", path, seg, strings.Join(keys(v), ", "))
			}
			node = next
		case []any:
			i, err := strconv.Atoi(seg)
			if err != nil || i < 0 || i >= len(v) {
				return nil, fmt.Errorf("path %q: bad index %q for list of %d", path, seg, len(v))
			}
			node = v[i]
		default:
			return nil, fmt.Errorf("path %q: cannot descend into %T at %q", path, node, seg)
		}
	}
	return node, nil
}

func keys(m map[string]any) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func loadJSON(input string) ([]any, error) {
	var data any
	if err := json.Unmarshal([]byte(input), &data); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	return []any{data}, nil
}

// loadYAML handles both single and multi-document YAML.
func loadYAML(input string) ([]any, error) {
	var docs []any
	dec := yaml.NewDecoder(strings.NewReader(input))
	for {
		var doc any
		if err := dec.Decode(&doc); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("invalid YAML: %w", err)
		}
		if doc != nil {
			docs = append(docs, doc)
		}
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("no documents found in YAML input")
	}
	return docs, nil
}

// loadNDJSON parses one JSON value per line. Lines that are not JSON are
// kept as plain strings.
func loadNDJSON(input string) ([]any, error) {
	lines := strings.Split(input, "\n")
	out := make([]any, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		var v any
		if err := json.Unmarshal([]byte(line), &v); err != nil {
			out = append(out, line)
			continue
		}
		out = append(out, v)
	}
	if len(out) == 0 {
		return nil, ErrEmptyInput
	}
	return out, nil
}

func loadTOML(input string) ([]any, error) {
	var data map[string]any
	if err := toml.Unmarshal([]byte(input), &data); err != nil {
		return nil, fmt.Errorf("invalid TOML: %w", err)
	}
	return []any{data}, nil
}

// isLikelyNDJSON requires several non-empty lines, most of which start a
// JSON object or array.
func isLikelyNDJSON(lines []string) bool {
	jsonCount, nonEmpty := 0, 0
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		nonEmpty++
		if strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[") {
			jsonCount++
		}
	}
	return nonEmpty > 1 && jsonCount > nonEmpty/2
}

// isLikelyTOML looks for section headers or a majority of key = value
// lines.
func isLikelyTOML(input string) bool {
	sections, pairs, nonEmpty := 0, 0, 0
	for _, line := range strings.Split(input, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		nonEmpty++
		if tomlSection.MatchString(line) {
			sections++
		}
		if tomlKeyValue.MatchString(line) {
			pairs++
		}
	}
	return sections > 0 || (nonEmpty > 0 && pairs > nonEmpty/2)
}
