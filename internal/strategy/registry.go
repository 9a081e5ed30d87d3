package strategy

import "sync"

// Registry holds the built-in activation strategies plus any
// host-registered custom ones. The built-in set is
// registered once at construction; custom strategies are expected to be
// added before the client starts polling.
type Registry struct {
	mu     sync.RWMutex
	byName map[string]Compiler
}

// NewRegistry returns a Registry pre-loaded with the built-in
// strategies.
func NewRegistry() *Registry {
	r := &Registry{byName: make(map[string]Compiler)}
	r.Register("default", compileDefault)
	r.Register("userWithId", compileUserWithID)
	r.Register("applicationHostname", compileApplicationHostname)
	r.Register("gradualRolloutUserId", compileGradualRolloutUserID)
	r.Register("gradualRolloutSessionId", compileGradualRolloutSessionID)
	r.Register("gradualRolloutRandom", compileGradualRolloutRandom)
	r.Register("flexibleRollout", compileFlexibleRollout)
	r.Register("remoteAddress", compileRemoteAddress)
	return r
}

// Register adds or replaces a strategy compiler under name. Unknown
// strategy names are skipped by the feature compiler when a catalogue is
// compiled, never by Register itself.
func (r *Registry) Register(name string, compiler Compiler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byName[name] = compiler
}

func (r *Registry) lookup(name string) (Compiler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.byName[name]
	return c, ok
}

// Names lists every registered strategy name; used for the registration
// announcement.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.byName))
	for name := range r.byName {
		names = append(names, name)
	}
	return names
}
