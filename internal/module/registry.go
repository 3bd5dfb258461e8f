package module

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/mint-lang/mint/internal/config"
	"github.com/mint-lang/mint/internal/gc"
)

// Registry resolves canonical dot-separated module names (foo.bar.baz)
// to loaded Modules, caching each by name and searching a configured
// set of directories the first time a name is seen.
type Registry struct {
	mu     sync.Mutex
	loaded map[string]*Module
	search []string
}

// NewRegistry builds a Registry that searches dir and any directories
// named in the MINT_MODULE_PATH environment variable, in that order.
func NewRegistry(dir string) *Registry {
	r := &Registry{loaded: make(map[string]*Module), search: []string{dir}}
	if extra := os.Getenv(config.ModuleSearchPathEnv); extra != "" {
		r.search = append(r.search, filepath.SplitList(extra)...)
	}
	return r
}

// Resolve returns the Module named name, loading and caching it from
// disk on first use. name's dots are translated to path separators and
// the precompiled <path>.mnb bytecode file is tried in each search
// directory in order; source extensions are not consulted.
func (r *Registry) Resolve(name string) (*Module, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if m, ok := r.loaded[name]; ok {
		return m, nil
	}

	relPath := strings.ReplaceAll(name, ".", string(filepath.Separator))
	var lastErr error
	for _, dir := range r.search {
		path := filepath.Join(dir, relPath+".mnb")
		data, err := os.ReadFile(path)
		if err != nil {
			lastErr = err
			continue
		}
		m, err := Deserialize(data)
		if err != nil {
			return nil, err
		}
		m.Name = name
		r.loaded[name] = m
		return m, nil
	}
	return nil, &NotFoundError{Name: name, Cause: lastErr}
}

// Register makes an already-compiled or already-loaded Module
// resolvable under name without touching disk, used for the main
// script's own module and for modules built directly by the compiler
// in the same process.
func (r *Registry) Register(name string, m *Module) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loaded[name] = m
}

// Loaded returns every module currently cached, used by the garbage
// collector to enumerate root sets.
func (r *Registry) Loaded() []*Module {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Module, 0, len(r.loaded))
	for _, m := range r.loaded {
		out = append(out, m)
	}
	return out
}

// GCRoots delegates to every loaded module's own GCRoots, so a single
// heap.AddRoot(registry) at VM construction covers every module ever
// resolved, including ones loaded after that call.
func (r *Registry) GCRoots(visit func(*gc.Cell)) {
	r.mu.Lock()
	mods := make([]*Module, 0, len(r.loaded))
	for _, m := range r.loaded {
		mods = append(mods, m)
	}
	r.mu.Unlock()
	for _, m := range mods {
		m.GCRoots(visit)
	}
}

type NotFoundError struct {
	Name  string
	Cause error
}

func (e *NotFoundError) Error() string {
	return "module not found: " + e.Name
}

func (e *NotFoundError) Unwrap() error { return e.Cause }
