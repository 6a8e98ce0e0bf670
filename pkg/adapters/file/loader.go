package file

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/aretw0/vsm/internal/dto"
	"github.com/aretw0/vsm/internal/logging"
	"github.com/aretw0/vsm/pkg/domain"
	"github.com/aretw0/vsm/pkg/dsl"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// Loader implements ports.GraphLoader and ports.Watchable over a single
// YAML or JSON definition file.
type Loader struct {
	path     string
	logger   *slog.Logger
	debounce time.Duration
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithLogger sets the logger used by Watch.
func WithLogger(logger *slog.Logger) LoaderOption {
	return func(l *Loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithDebounce sets how long Watch waits for a burst of writes to settle.
func WithDebounce(d time.Duration) LoaderOption {
	return func(l *Loader) {
		l.debounce = d
	}
}

// NewLoader creates a loader for the definition file at path.
// The format is chosen by extension: .yaml, .yml or .json.
func NewLoader(path string, opts ...LoaderOption) *Loader {
	l := &Loader{
		path:     path,
		logger:   logging.NewNop(),
		debounce: 100 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Path returns the definition file path.
func (l *Loader) Path() string { return l.path }

// LoadDefinition reads and decodes the definition file.
func (l *Loader) LoadDefinition(ctx context.Context) (*dto.Definition, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(l.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read definition: %w", err)
	}
	def, err := Decode(data, filepath.Ext(l.path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", l.path, err)
	}
	if def.Name == "" {
		def.Name = strings.TrimSuffix(filepath.Base(l.path), filepath.Ext(l.path))
	}
	return def, nil
}

// LoadGraph reads the definition file and builds a fresh graph.
func (l *Loader) LoadGraph(ctx context.Context) (*domain.Graph, error) {
	def, err := l.LoadDefinition(ctx)
	if err != nil {
		return nil, err
	}
	g, err := Build(def)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", l.path, err)
	}
	return g, nil
}

// Decode parses a definition document. ext selects the syntax (".json" or
// YAML for anything else).
func Decode(data []byte, ext string) (*dto.Definition, error) {
	var raw map[string]any
	switch strings.ToLower(ext) {
	case ".json":
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("failed to parse json: %w", err)
		}
	default:
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("failed to parse yaml: %w", err)
		}
	}

	var def dto.Definition
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			durationHook,
			stateShorthandHook,
			mapstructure.TextUnmarshallerHookFunc(),
		),
		ErrorUnused: true,
		Result:      &def,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create decoder: %w", err)
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, fmt.Errorf("failed to decode definition: %w", err)
	}
	return &def, nil
}

// durationHook accepts "1.5s" style strings or a plain number of seconds.
func durationHook(from reflect.Type, to reflect.Type, data any) (any, error) {
	if to != reflect.TypeOf(time.Duration(0)) {
		return data, nil
	}
	switch v := data.(type) {
	case string:
		return time.ParseDuration(v)
	case int:
		return time.Duration(v) * time.Second, nil
	case int64:
		return time.Duration(v) * time.Second, nil
	case uint64:
		return time.Duration(v) * time.Second, nil
	case float64:
		return time.Duration(v * float64(time.Second)), nil
	}
	return data, nil
}

// stateShorthandHook lets a state be written as its bare ID.
func stateShorthandHook(from reflect.Type, to reflect.Type, data any) (any, error) {
	if to != reflect.TypeOf(dto.State{}) {
		return data, nil
	}
	if id, ok := data.(string); ok {
		return map[string]any{"id": id}, nil
	}
	return data, nil
}

// Build turns a decoded definition into a graph. Nested short-form
// transitions come first, in state order and sorted by label, followed by
// the long-form list.
func Build(def *dto.Definition) (*domain.Graph, error) {
	entry := def.Entry
	if entry == "" && len(def.States) > 0 {
		entry = def.States[0].ID
	}

	b := dsl.New(entry)
	for _, s := range def.States {
		b.State(s.ID)
	}
	if def.AnyState != "" {
		b.AnyState(def.AnyState)
	}

	for _, s := range def.States {
		labels := make([]string, 0, len(s.On))
		for label := range s.On {
			labels = append(labels, label)
		}
		sort.Strings(labels)
		for _, label := range labels {
			b.State(s.ID).On(label, s.On[label])
		}
	}

	taken := make(map[string]bool)
	for _, s := range def.States {
		for label := range s.On {
			taken[s.ID+":"+label] = true
		}
	}
	for _, t := range def.Transitions {
		if t.ID != "" {
			taken[t.ID] = true
		}
	}

	for i, t := range def.Transitions {
		id := t.ID
		if id == "" {
			id = implicitID(t, i, taken)
			taken[id] = true
		}
		tb := b.AddTransition(id).From(t.From).To(t.To).Label(t.Label).Duration(t.Duration)
		if t.TimeMode == domain.TimeModeUnscaled {
			tb.Unscaled()
		}
	}

	return b.Build()
}

// implicitID names a long-form transition declared without an ID.
// It is "<from>-><to>", then "<from>-><to>:<label>", then suffixed with the
// list index, whichever is free first. Explicit IDs always win.
func implicitID(t dto.Transition, index int, taken map[string]bool) string {
	id := t.From + "->" + t.To
	if !taken[id] {
		return id
	}
	if t.Label != "" {
		id += ":" + t.Label
		if !taken[id] {
			return id
		}
	}
	return fmt.Sprintf("%s#%d", id, index)
}
