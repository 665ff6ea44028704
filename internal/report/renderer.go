package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"styleaudit/internal/model"
)

// Renderer turns a run into report bytes. Implementations only format;
// counts come from the run as aggregated.
type Renderer interface {
	Render(run model.AuditRun) ([]byte, error)
}

type JSONRenderer struct{}

func (JSONRenderer) Render(run model.AuditRun) ([]byte, error) {
	return json.MarshalIndent(run, "", "  ")
}

type YAMLRenderer struct{}

func (YAMLRenderer) Render(run model.AuditRun) ([]byte, error) {
	return yaml.Marshal(run)
}

// NewRenderer returns the renderer for a format name.
func NewRenderer(format string) (Renderer, error) {
	switch strings.ToLower(format) {
	case "", "markdown", "md":
		return MarkdownRenderer{}, nil
	case "json":
		return JSONRenderer{}, nil
	case "yaml", "yml":
		return YAMLRenderer{}, nil
	case "text", "txt":
		return TextRenderer{}, nil
	}
	return nil, fmt.Errorf("unsupported report format %q", format)
}

// WriteFile renders run and writes it to path, creating parent directories.
func WriteFile(run model.AuditRun, path string, r Renderer) error {
	data, err := r.Render(run)
	if err != nil {
		return fmt.Errorf("render report: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0o644)
}
