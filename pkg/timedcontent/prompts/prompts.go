// Package prompts loads the generation prompts shipped with the binary.
//
// Each prompt is a TOML file under files/ keyed by its file name without the
// extension. Files are parsed once on first use; files that fail to parse
// are logged and skipped.
package prompts

import (
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/tendant/timed-content/pkg/timedcontent"
)

//go:embed files/*.toml
var embedded embed.FS

// Config describes how to generate content for a prompt
type Config struct {
	Name          string `toml:"name"`
	Description   string `toml:"description"`
	Model         string `toml:"model"`
	SystemContext string `toml:"system_context"`
	Prompt        Text   `toml:"prompt"`
}

// Text is the user message of a prompt
type Text struct {
	Text string `toml:"text"`
}

// Registry holds prompts by name
type Registry struct {
	prompts map[string]Config
}

// Load parses every *.toml file at the root of fsys
func Load(fsys fs.FS, logger *slog.Logger) (*Registry, error) {
	if logger == nil {
		logger = slog.Default()
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("failed to read prompt directory: %w", err)
	}

	r := &Registry{prompts: make(map[string]Config)}
	for _, entry := range entries {
		if entry.IsDir() || path.Ext(entry.Name()) != ".toml" {
			continue
		}

		data, err := fs.ReadFile(fsys, entry.Name())
		if err != nil {
			logger.Error("Failed to read prompt file", "file", entry.Name(), "err", err)
			continue
		}

		var cfg Config
		if err := toml.Unmarshal(data, &cfg); err != nil {
			logger.Error("Failed to parse prompt file", "file", entry.Name(), "err", err)
			continue
		}

		r.prompts[strings.TrimSuffix(entry.Name(), ".toml")] = cfg
	}

	return r, nil
}

var (
	defaultOnce     sync.Once
	defaultRegistry *Registry
)

// Default returns the registry of embedded prompts, loading it on first use
func Default() *Registry {
	defaultOnce.Do(func() {
		sub, err := fs.Sub(embedded, "files")
		if err == nil {
			defaultRegistry, err = Load(sub, nil)
		}
		if err != nil {
			slog.Error("Failed to load embedded prompts", "err", err)
			defaultRegistry = &Registry{prompts: map[string]Config{}}
		}
	})
	return defaultRegistry
}

// Get returns the named prompt or an ErrConfiguration error
func (r *Registry) Get(name string) (Config, error) {
	cfg, ok := r.prompts[name]
	if !ok {
		return Config{}, fmt.Errorf("%w: prompt %q not found", timedcontent.ErrConfiguration, name)
	}
	return cfg, nil
}

// ForCategory returns the prompt used to generate category content
func (r *Registry) ForCategory(category timedcontent.Category) (Config, error) {
	name := category.PromptName()
	if name == "" {
		return Config{}, fmt.Errorf("%w: no prompt for category %q", timedcontent.ErrConfiguration, category)
	}
	return r.Get(name)
}

// Names lists the loaded prompt names in sorted order
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.prompts))
	for name := range r.prompts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
