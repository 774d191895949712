package format

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
	"gopkg.in/yaml.v3"

	"github.com/sambeau/harvest/pkg/harvest/ast"
)

// Format names accepted by Encode.
const (
	FormatTree = "tree"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// JSON encodes statements as an indented JSON array of nodes.
func JSON(stmts []ast.Statement) ([]byte, error) {
	data, err := json.MarshalIndent(Build(stmts), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding ast as json: %w", err)
	}
	return append(data, '\n'), nil
}

// YAML encodes statements as a YAML sequence of nodes.
func YAML(stmts []ast.Statement) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(Build(stmts)); err != nil {
		return nil, fmt.Errorf("encoding ast as yaml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encoding ast as yaml: %w", err)
	}
	return buf.Bytes(), nil
}

// Encode renders statements in the named format.
func Encode(stmts []ast.Statement, format string) ([]byte, error) {
	switch strings.ToLower(format) {
	case "", FormatTree:
		return []byte(Tree(stmts)), nil
	case FormatJSON:
		return JSON(stmts)
	case FormatYAML, "yml":
		return YAML(stmts)
	}
	return nil, fmt.Errorf("unknown format %q (want tree, json or yaml)", format)
}

// WriteFile writes data to path, gzip-compressing it when path ends in ".gz".
func WriteFile(path string, data []byte) error {
	if !strings.HasSuffix(path, ".gz") {
		return os.WriteFile(path, data, 0o644)
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	zw, err := gzip.NewWriterLevel(f, gzip.BestCompression)
	if err != nil {
		f.Close()
		return err
	}
	if _, err := zw.Write(data); err != nil {
		zw.Close()
		f.Close()
		return fmt.Errorf("compressing %s: %w", path, err)
	}
	if err := zw.Close(); err != nil {
		f.Close()
		return fmt.Errorf("compressing %s: %w", path, err)
	}
	return f.Close()
}
