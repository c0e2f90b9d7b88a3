package llm

// Registry maps a provider name to one engine instance. Last registration
// wins, which is how a dummy engine is swapped for a real one (or vice versa)
// from configuration without touching callers.
type Registry struct {
	engines map[string]Engine
}

// NewRegistry creates an empty engine registry
func NewRegistry() *Registry {
	return &Registry{engines: make(map[string]Engine)}
}

// Register binds an engine under its provider name, overwriting any prior
// binding for that name.
func (r *Registry) Register(e Engine) {
	r.engines[e.ProviderName()] = e
}

// Get returns the engine for a provider, or nil if none is registered
func (r *Registry) Get(provider string) Engine {
	return r.engines[provider]
}

// Alias binds an existing engine under an additional provider name.
// No-op if the alias is already bound or the source is missing.
func (r *Registry) Alias(name, source string) {
	if _, ok := r.engines[name]; ok {
		return
	}
	if e, ok := r.engines[source]; ok {
		r.engines[name] = e
	}
}
