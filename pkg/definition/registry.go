package definition

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/aretw0/arbor/pkg/bt"
	"github.com/aretw0/arbor/pkg/domain"
)

// Spec is everything a Factory needs to build one node.
type Spec struct {
	Definition *Definition
	// Children holds the built children of a composite, or the single child
	// of a decorator. It is empty for leaves.
	Children []*bt.Node
	// Options carries id, name, description and properties from the definition.
	// Factories pass them on to the bt constructor.
	Options []bt.NodeOption
}

// Child returns the single built child, or nil.
func (s Spec) Child() *bt.Node {
	if len(s.Children) == 0 {
		return nil
	}
	return s.Children[0]
}

// Factory builds a node from its definition.
type Factory func(spec Spec) (*bt.Node, error)

type entry struct {
	category domain.Category
	factory  Factory
}

// Registry maps type tags to node factories.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]entry
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]entry)}
}

// NewDefaultRegistry creates a registry holding the built-in composites and decorators.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	RegisterBuiltins(r)
	return r
}

// Register adds a factory. An existing entry with the same type is overwritten.
func (r *Registry) Register(typ string, category domain.Category, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[typ] = entry{category: category, factory: f}
}

// RegisterTask registers a synchronous leaf type.
func (r *Registry) RegisterTask(typ string, fn bt.TaskFunc) {
	r.Register(typ, domain.CategoryTask, func(spec Spec) (*bt.Node, error) {
		opts := append([]bt.NodeOption{bt.WithType(typ)}, spec.Options...)
		return bt.NewTask(typ, fn, opts...), nil
	})
}

// RegisterAsyncTask registers an async leaf type. A "timeout" property
// on the definition overrides the given default timeout.
func (r *Registry) RegisterAsyncTask(typ string, fn bt.AsyncFunc, timeout time.Duration) {
	r.Register(typ, domain.CategoryTask, func(spec Spec) (*bt.Node, error) {
		props := AsyncProperties{Timeout: timeout}
		if err := DecodeProperties(spec.Definition.Properties, &props); err != nil {
			return nil, err
		}
		opts := append([]bt.NodeOption{bt.WithType(typ)}, spec.Options...)
		return bt.NewAsyncTask(typ, fn, props.Timeout, opts...), nil
	})
}

// Lookup returns the factory and category registered for typ.
func (r *Registry) Lookup(typ string) (Factory, domain.Category, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[typ]
	return e.factory, e.category, ok
}

// Types returns the registered type tags, sorted.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.entries))
	for typ := range r.entries {
		out = append(out, typ)
	}
	sort.Strings(out)
	return out
}

// Merge copies every entry of other into r, overwriting duplicates.
func (r *Registry) Merge(other *Registry) {
	if other == nil || other == r {
		return
	}
	other.mu.RLock()
	defer other.mu.RUnlock()
	r.mu.Lock()
	defer r.mu.Unlock()
	for typ, e := range other.entries {
		r.entries[typ] = e
	}
}

// RegisterBuiltins registers the composites and decorators of package bt.
func RegisterBuiltins(r *Registry) {
	r.Register(bt.TypeSequence, domain.CategoryComposite, func(spec Spec) (*bt.Node, error) {
		return bt.NewSequence(spec.Children, spec.Options...), nil
	})
	r.Register(bt.TypePriority, domain.CategoryComposite, func(spec Spec) (*bt.Node, error) {
		return bt.NewPriority(spec.Children, spec.Options...), nil
	})
	r.Register(bt.TypeInverter, domain.CategoryDecorator, func(spec Spec) (*bt.Node, error) {
		return bt.NewInverter(spec.Child(), spec.Options...), nil
	})
	r.Register(bt.TypeRewindWhenFailure, domain.CategoryDecorator, func(spec Spec) (*bt.Node, error) {
		return bt.NewRewindWhenFailure(spec.Child(), spec.Options...), nil
	})
	r.Register(bt.TypeRewindWhenRunning, domain.CategoryDecorator, func(spec Spec) (*bt.Node, error) {
		return bt.NewRewindWhenRunning(spec.Child(), spec.Options...), nil
	})
	r.Register(bt.TypeRepeater, domain.CategoryDecorator, loopFactory(bt.NewRepeater))
	r.Register(bt.TypeUntilSuccess, domain.CategoryDecorator, loopFactory(bt.NewUntilSuccess))
	r.Register(bt.TypeUntilFailure, domain.CategoryDecorator, loopFactory(bt.NewUntilFailure))
}

func loopFactory(build func(int, *bt.Node, ...bt.NodeOption) *bt.Node) Factory {
	return func(spec Spec) (*bt.Node, error) {
		props := LoopProperties{MaxLoop: -1}
		if err := DecodeProperties(spec.Definition.Properties, &props); err != nil {
			return nil, fmt.Errorf("%s: %w", spec.Definition.Type, err)
		}
		return build(props.MaxLoop, spec.Child(), spec.Options...), nil
	}
}
