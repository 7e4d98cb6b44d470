package config

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/MrWong99/broodcaster/pkg/provider/llm"
	"github.com/MrWong99/broodcaster/pkg/provider/tts"
	"github.com/MrWong99/broodcaster/pkg/stats"
)

// ErrProviderNotRegistered is returned by the Create methods when no factory
// exists under the requested name.
var ErrProviderNotRegistered = errors.New("config: provider not registered")

// Registry maps provider names to constructors. It is safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	llm   map[string]func(ProviderEntry) (llm.Provider, error)
	tts   map[string]func(TTSEntry) (tts.Synthesizer, error)
	stats map[string]func(StatsConfig) (stats.Source, error)
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		llm:   make(map[string]func(ProviderEntry) (llm.Provider, error)),
		tts:   make(map[string]func(TTSEntry) (tts.Synthesizer, error)),
		stats: make(map[string]func(StatsConfig) (stats.Source, error)),
	}
}

// RegisterLLM registers a chat-completion provider factory under name,
// replacing any earlier registration.
func (r *Registry) RegisterLLM(name string, factory func(ProviderEntry) (llm.Provider, error)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.llm[name] = factory
}

// RegisterTTS registers a speech synthesiser factory under name.
func (r *Registry) RegisterTTS(name string, factory func(TTSEntry) (tts.Synthesizer, error)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tts[name] = factory
}

// RegisterStats registers a statistics source factory under name.
func (r *Registry) RegisterStats(name string, factory func(StatsConfig) (stats.Source, error)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stats[name] = factory
}

// CreateLLM builds the provider registered under entry.Name.
func (r *Registry) CreateLLM(entry ProviderEntry) (llm.Provider, error) {
	r.mu.RLock()
	factory, ok := r.llm[entry.Name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: llm/%q", ErrProviderNotRegistered, entry.Name)
	}
	return factory(entry)
}

// CreateTTS builds the synthesiser registered under entry.Name.
func (r *Registry) CreateTTS(entry TTSEntry) (tts.Synthesizer, error) {
	r.mu.RLock()
	factory, ok := r.tts[entry.Name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: tts/%q", ErrProviderNotRegistered, entry.Name)
	}
	return factory(entry)
}

// CreateStats builds the source registered under cfg.Provider.
func (r *Registry) CreateStats(cfg StatsConfig) (stats.Source, error) {
	r.mu.RLock()
	factory, ok := r.stats[cfg.Provider]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: stats/%q", ErrProviderNotRegistered, cfg.Provider)
	}
	return factory(cfg)
}

// Names returns the sorted registered names for kind ("llm", "tts" or
// "stats").
func (r *Registry) Names(kind string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	switch kind {
	case "llm":
		return slices.Sorted(maps.Keys(r.llm))
	case "tts":
		return slices.Sorted(maps.Keys(r.tts))
	case "stats":
		return slices.Sorted(maps.Keys(r.stats))
	}
	return nil
}
