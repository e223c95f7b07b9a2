package metadata

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	toml "github.com/pelletier/go-toml"
	yaml "gopkg.in/yaml.v3"

	"periphgen/internal/common"
)

// Format identifies a descriptor serialization.
type Format int

const (
	FormatUnknown Format = iota
	FormatYAML
	FormatTOML
)

// String returns the canonical format name.
func (f Format) String() string {
	switch f {
	case FormatYAML:
		return "yaml"
	case FormatTOML:
		return "toml"
	default:
		return common.UnknownStr
	}
}

// Load reads, parses and schema-validates a peripheral descriptor document.
// It is a pure loader: no caches, no writes.
func Load(path string) (*Descriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading descriptor %s: %w", path, err)
	}

	return Parse(data, DetectFormat(path, data), path)
}

// DetectFormat picks the serialization by extension, falling back to content
// sniffing when the extension is not conclusive.
func DetectFormat(path string, data []byte) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	case ".toml":
		return FormatTOML
	}

	return sniffFormat(data)
}

var tomlLineRe = regexp.MustCompile(`^\s*(\[[^\]]+\]\s*$|[A-Za-z0-9_.'"-]+\s*=)`)

// sniffFormat guesses the serialization from content. The first line that is
// neither blank nor a comment decides: a TOML table header or key assignment
// means TOML, anything else means YAML (the more permissive of the two).
func sniffFormat(data []byte) Format {
	for _, line := range strings.Split(string(data), "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}

		// YAML mappings use "key:"; a bare "key =" only appears in TOML.
		if tomlLineRe.MatchString(line) && !strings.Contains(trimmed, ": ") && !strings.HasSuffix(trimmed, ":") {
			return FormatTOML
		}

		return FormatYAML
	}

	return FormatYAML
}

// Parse parses and schema-validates descriptor data in the given format.
// The path is used for error context only.
func Parse(data []byte, format Format, path string) (*Descriptor, error) {
	var (
		raw     rawDescriptor
		present map[string]any
	)

	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &present); err != nil {
			line, col := yamlErrorPosition(err)
			return nil, syntaxErr(path, err.Error(), line, col)
		}

		if err := yaml.Unmarshal(data, &raw); err != nil {
			line, col := yamlErrorPosition(err)
			return nil, syntaxErr(path, err.Error(), line, col)
		}

	case FormatTOML:
		tree, err := toml.LoadBytes(data)
		if err != nil {
			line, col := tomlErrorPosition(err)
			return nil, syntaxErr(path, err.Error(), line, col)
		}

		present = tree.ToMap()

		if err := tree.Unmarshal(&raw); err != nil {
			return nil, syntaxErr(path, err.Error(), 0, 0)
		}

	default:
		return nil, syntaxErr(path, "unrecognized descriptor serialization", 0, 0)
	}

	if err := checkSchema(present, path); err != nil {
		return nil, err
	}

	desc := raw.normalize(path)

	if err := checkDescriptor(desc, path); err != nil {
		return nil, err
	}

	return desc, nil
}

var (
	yamlPosRe = regexp.MustCompile(`line (\d+)`)
	tomlPosRe = regexp.MustCompile(`^\((\d+), (\d+)\)`)
)

// yamlErrorPosition extracts "line N" from yaml.v3 error text. yaml.v3 does
// not report columns.
func yamlErrorPosition(err error) (line, col int) {
	m := yamlPosRe.FindStringSubmatch(err.Error())
	if m == nil {
		return 0, 0
	}

	line, _ = strconv.Atoi(m[1])

	return line, 0
}

// tomlErrorPosition extracts the "(line, col)" prefix go-toml uses.
func tomlErrorPosition(err error) (line, col int) {
	m := tomlPosRe.FindStringSubmatch(err.Error())
	if m == nil {
		return 0, 0
	}

	line, _ = strconv.Atoi(m[1])
	col, _ = strconv.Atoi(m[2])

	return line, col
}
