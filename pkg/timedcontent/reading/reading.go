// Package reading serves reading comprehension stories through the timed
// content cache.
//
// A request first asks the cache for a story from the current hour. On a
// miss the service generates a new story, stores it and returns it to the
// caller. When a column store is configured every generated story also gets
// a generation record keyed by its object key.
package reading

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/tendant/timed-content/pkg/timedcontent"
	"github.com/tendant/timed-content/pkg/timedcontent/generator"
	"github.com/tendant/timed-content/pkg/timedcontent/prompts"
)

// Contents is a reading comprehension exercise
type Contents struct {
	Title     string   `json:"title"`
	Story     string   `json:"story"`
	Questions []string `json:"questions"`
}

// Generation record column names
const (
	ColumnModel       = "model"
	ColumnPrompt      = "prompt"
	ColumnGeneratedAt = "generated_at"
)

// Generation describes how a stored story was produced
type Generation struct {
	Key         string    `json:"key"`
	Model       string    `json:"model,omitempty"`
	Prompt      string    `json:"prompt,omitempty"`
	GeneratedAt time.Time `json:"generated_at,omitempty"`
}

// Service returns reading contents, generating new ones while the current
// bucket is below capacity
type Service struct {
	cache     *timedcontent.Cache[Contents]
	prompts   *prompts.Registry
	completer generator.Completer
	records   timedcontent.ColumnStore
	model     string
	now       func() time.Time
	logger    *slog.Logger
}

// Option represents a functional option for configuring the service
type Option func(*Service)

// WithColumnStore records generation metadata in store
func WithColumnStore(store timedcontent.ColumnStore) Option {
	return func(s *Service) {
		s.records = store
	}
}

// WithPrompts sets the prompt registry. Defaults to prompts.Default().
func WithPrompts(registry *prompts.Registry) Option {
	return func(s *Service) {
		s.prompts = registry
	}
}

// WithModel records model as the generating model instead of the prompt's
func WithModel(model string) Option {
	return func(s *Service) {
		s.model = model
	}
}

// WithLogger sets the logger for the service
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithClock overrides the time recorded in generation records
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// New creates a reading service
func New(cache *timedcontent.Cache[Contents], completer generator.Completer, opts ...Option) (*Service, error) {
	if cache == nil {
		return nil, errors.New("cache is required")
	}
	if completer == nil {
		return nil, errors.New("completer is required")
	}

	s := &Service{
		cache:     cache,
		completer: completer,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.prompts == nil {
		s.prompts = prompts.Default()
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}

	return s, nil
}

// Get returns a cached story from the current bucket, or generates and
// stores a new one while the bucket is below capacity
func (s *Service) Get(ctx context.Context) (Contents, error) {
	category := timedcontent.CategoryReading

	contents, found, err := s.cache.Lookup(ctx, category)
	if err != nil {
		return Contents{}, err
	}
	if found {
		return contents, nil
	}

	prompt, err := s.prompts.ForCategory(category)
	if err != nil {
		return Contents{}, err
	}

	contents, err = generator.Generate[Contents](ctx, s.completer, prompt)
	if err != nil {
		return Contents{}, err
	}

	key, err := s.cache.Store(ctx, contents, category)
	if err != nil {
		return Contents{}, err
	}

	s.record(ctx, key, prompt)
	return contents, nil
}

// record writes the generation record for key. Failures are logged only.
func (s *Service) record(ctx context.Context, key string, prompt prompts.Config) {
	if s.records == nil {
		return
	}

	model := s.model
	if model == "" {
		model = prompt.Model
	}

	columns := []timedcontent.Column{
		timedcontent.NewColumn(ColumnModel, []byte(model)),
		timedcontent.NewColumn(ColumnPrompt, []byte(prompt.Name)),
		timedcontent.NewColumn(ColumnGeneratedAt, []byte(s.now().UTC().Format(time.RFC3339))),
	}
	if err := s.records.Put(ctx, key, columns); err != nil {
		s.logger.Warn("Failed to record generation", "key", key, "err", err)
	}
}

// Generation reads the generation record of a stored story. It returns
// ErrNotFound when no record exists for key.
func (s *Service) Generation(ctx context.Context, key string) (Generation, error) {
	if s.records == nil {
		return Generation{}, fmt.Errorf("%w: generation records are disabled", timedcontent.ErrNotFound)
	}

	columns, err := s.records.Get(ctx, key, []string{ColumnModel, ColumnPrompt, ColumnGeneratedAt})
	if err != nil {
		return Generation{}, err
	}
	if len(columns) == 0 {
		return Generation{}, fmt.Errorf("%w: no generation record for %s", timedcontent.ErrNotFound, key)
	}

	gen := Generation{Key: key}
	for _, column := range columns {
		switch column.Name {
		case ColumnModel:
			gen.Model = string(column.Value)
		case ColumnPrompt:
			gen.Prompt = string(column.Value)
		case ColumnGeneratedAt:
			t, err := time.Parse(time.RFC3339, string(column.Value))
			if err != nil {
				return Generation{}, &timedcontent.SerializationError{Key: key, Err: err}
			}
			gen.GeneratedAt = t
		}
	}
	return gen, nil
}
