package definition

import (
	"fmt"

	"github.com/aretw0/arbor/pkg/domain"
)

// Validate checks def against the registry and reports every problem found.
// The returned error is an *AggregateError wrapping domain.ErrInvalidDefinition
// and, for unregistered types, domain.ErrUnknownNodeType.
func Validate(def *TreeDefinition, reg *Registry) error {
	if def == nil || def.Root == nil {
		return &AggregateError{Errors: []error{
			fmt.Errorf("%w: %w", domain.ErrInvalidDefinition, &ValidationError{Path: "root", Reason: "required"}),
		}}
	}

	var errs []error
	fail := func(sentinel error, path, reason string, value any) {
		errs = append(errs, fmt.Errorf("%w: %w", sentinel, &ValidationError{Path: path, Reason: reason, Value: value}))
	}

	ids := make(map[string]string)
	def.Root.Walk("root", func(path string, d *Definition) {
		if d.ID != "" {
			if prev, dup := ids[d.ID]; dup {
				fail(domain.ErrInvalidDefinition, path, "duplicate id, first used at "+prev, d.ID)
			} else {
				ids[d.ID] = path
			}
		}

		if d.Type == "" {
			fail(domain.ErrInvalidDefinition, path, "type is required", nil)
			return
		}
		_, category, ok := reg.Lookup(d.Type)
		if !ok {
			fail(domain.ErrUnknownNodeType, path, "unknown node type", d.Type)
			return
		}

		switch category {
		case domain.CategoryComposite:
			if d.Child != nil {
				fail(domain.ErrInvalidDefinition, path, "composite uses children, not child", d.Type)
			}
		case domain.CategoryDecorator:
			if len(d.Children) > 0 {
				fail(domain.ErrInvalidDefinition, path, "decorator takes a single child", len(d.Children))
			}
			if d.Child == nil {
				fail(domain.ErrInvalidDefinition, path, "decorator has no child", d.Type)
			}
		case domain.CategoryTask:
			if len(d.Children) > 0 || d.Child != nil {
				fail(domain.ErrInvalidDefinition, path, "leaf cannot have children", d.Type)
			}
		}

		if _, has := d.Properties["maxLoop"]; has {
			var props LoopProperties
			if err := DecodeProperties(d.Properties, &props); err != nil {
				fail(domain.ErrInvalidDefinition, path, "maxLoop must be an integer", d.Properties["maxLoop"])
			}
		}
		if _, has := d.Properties["timeout"]; has {
			var props AsyncProperties
			if err := DecodeProperties(d.Properties, &props); err != nil || props.Timeout < 0 {
				fail(domain.ErrInvalidDefinition, path, "timeout must be a non-negative duration", d.Properties["timeout"])
			}
		}
	})

	if len(errs) == 0 {
		return nil
	}
	return &AggregateError{Errors: errs}
}
