package render

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/shopops/pickticket/internal/common"
)

// DefaultTemplateID names the built-in pick ticket layout.
const DefaultTemplateID = "pick_ticket"

//go:embed templates/pick_ticket.html.tmpl
var builtinTemplates embed.FS

// Store resolves a template ID to template content.
type Store interface {
	Resolve(templateID string) ([]byte, error)
}

// EmbeddedStore serves the templates compiled into the binary.
type EmbeddedStore struct{}

func NewEmbeddedStore() *EmbeddedStore {
	return &EmbeddedStore{}
}

func (s *EmbeddedStore) Resolve(templateID string) ([]byte, error) {
	if templateID != DefaultTemplateID {
		return nil, fmt.Errorf("%w: %q", common.ErrTemplateNotFound, templateID)
	}
	return builtinTemplates.ReadFile("templates/pick_ticket.html.tmpl")
}

// FSStore resolves templates from a directory described by a
// templates.yaml manifest mapping template IDs to file names.
type FSStore struct {
	dir      string
	manifest map[string]string
}

type manifestFile struct {
	Templates map[string]string `yaml:"templates"`
}

func NewFSStore(dir string) (*FSStore, error) {
	raw, err := os.ReadFile(filepath.Join(dir, "templates.yaml"))
	if err != nil {
		return nil, fmt.Errorf("read template manifest: %w", err)
	}
	var mf manifestFile
	if err := yaml.Unmarshal(raw, &mf); err != nil {
		return nil, fmt.Errorf("parse template manifest: %w", err)
	}
	if len(mf.Templates) == 0 {
		return nil, fmt.Errorf("template manifest is empty")
	}
	return &FSStore{dir: dir, manifest: mf.Templates}, nil
}

func (s *FSStore) Resolve(templateID string) ([]byte, error) {
	name, ok := s.manifest[templateID]
	if !ok {
		return nil, fmt.Errorf("%w: %q", common.ErrTemplateNotFound, templateID)
	}
	content, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %q -> %s", common.ErrTemplateNotFound, templateID, name)
		}
		return nil, fmt.Errorf("read template %q: %w", templateID, err)
	}
	return content, nil
}
