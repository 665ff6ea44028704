package config

import (
	"fmt"
	"os"
	"path"
	"strings"

	"gopkg.in/yaml.v3"

	"styleaudit/internal/rules"
)

// Page is one page to audit.
type Page struct {
	Path string `yaml:"path"`
	Name string `yaml:"name"`
	// Ready is a selector that must appear before styles are read, or one of
	// the signals "load" and "idle".
	Ready string `yaml:"ready"`
	// Toggle, when set, is clicked after the page is ready to switch theme.
	// It is a CSS selector or the visible text of the control.
	Toggle string `yaml:"toggle"`
	Root   string `yaml:"root"`
	Filter string `yaml:"filter"`
}

// AuditFile is the YAML document listing pages and token overrides.
type AuditFile struct {
	BaseURL string            `yaml:"base_url"`
	Pages   []Page            `yaml:"pages"`
	Tokens  *rules.TokenTable `yaml:"tokens"`
}

// LoadAuditFile reads a pages file.
func LoadAuditFile(p string) (*AuditFile, error) {
	data, err := os.ReadFile(p)
	if err != nil {
		return nil, err
	}

	var f AuditFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse %s: %w", p, err)
	}
	if len(f.Pages) == 0 {
		return nil, fmt.Errorf("%w: %s lists no pages", ErrInvalidConfig, p)
	}

	f.applyDefaults()
	return &f, nil
}

// LoadTokens reads a token table file. The result holds only what the file
// sets; callers merge it onto a base table.
func LoadTokens(p string) (rules.TokenTable, error) {
	data, err := os.ReadFile(p)
	if err != nil {
		return rules.TokenTable{}, err
	}
	var t rules.TokenTable
	if err := yaml.Unmarshal(data, &t); err != nil {
		return rules.TokenTable{}, fmt.Errorf("parse %s: %w", p, err)
	}
	return t, nil
}

func (f *AuditFile) applyDefaults() {
	for i := range f.Pages {
		f.Pages[i].applyDefaults()
	}
}

func (p *Page) applyDefaults() {
	if p.Path == "" {
		p.Path = "/"
	}
	if p.Name == "" {
		p.Name = nameFromPath(p.Path)
	}
	if p.Ready == "" {
		p.Ready = "load"
	}
}

// ParsePageFlag reads the "path" or "path=Name" form of --page.
func ParsePageFlag(s string) Page {
	p := Page{Path: s}
	if i := strings.Index(s, "="); i >= 0 {
		p.Path, p.Name = strings.TrimSpace(s[:i]), strings.TrimSpace(s[i+1:])
	}
	p.applyDefaults()
	return p
}

func nameFromPath(p string) string {
	base := path.Base(strings.TrimSuffix(p, "/"))
	if base == "." || base == "/" || base == "" {
		return "Home"
	}
	return base
}
