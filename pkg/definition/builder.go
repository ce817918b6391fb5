package definition

import (
	"fmt"

	"github.com/aretw0/arbor/pkg/bt"
	"github.com/google/uuid"
)

// Build validates def against reg and returns the wired tree.
// Extra tree options are applied after the ones derived from the definition.
func Build(def *TreeDefinition, reg *Registry, opts ...bt.Option) (*bt.BehaviorTree, error) {
	if err := Validate(def, reg); err != nil {
		return nil, err
	}

	treeID := def.ID
	if treeID == "" {
		treeID = uuid.NewString()
	}
	root, err := BuildNode(treeID, def.Root, reg)
	if err != nil {
		return nil, err
	}

	base := []bt.Option{bt.WithTreeID(treeID)}
	if def.Name != "" {
		base = append(base, bt.WithTreeName(def.Name))
	}
	if def.Description != "" {
		base = append(base, bt.WithTreeDescription(def.Description))
	}
	if len(def.Properties) > 0 {
		base = append(base, bt.WithTreeProperties(def.Properties))
	}
	return bt.New(root, append(base, opts...)...), nil
}

// BuildNode builds the subtree rooted at def. Nodes without an explicit id get
// one derived from treeID and their path, so rebuilding the same definition
// yields the same ids and persisted node boards stay addressable.
func BuildNode(treeID string, def *Definition, reg *Registry) (*bt.Node, error) {
	return buildNode(treeID, "root", def, reg)
}

func buildNode(treeID, path string, def *Definition, reg *Registry) (*bt.Node, error) {
	factory, _, ok := reg.Lookup(def.Type)
	if !ok {
		return nil, fmt.Errorf("%s: unknown node type %q", path, def.Type)
	}

	var children []*bt.Node
	for i, c := range def.Children {
		child, err := buildNode(treeID, fmt.Sprintf("%s.children[%d]", path, i), c, reg)
		if err != nil {
			return nil, err
		}
		children = append(children, child)
	}
	if def.Child != nil {
		child, err := buildNode(treeID, path+".child", def.Child, reg)
		if err != nil {
			return nil, err
		}
		children = append(children, child)
	}

	id := def.ID
	if id == "" {
		id = uuid.NewSHA1(uuid.NameSpaceURL, []byte(treeID+"/"+path)).String()
	}
	opts := []bt.NodeOption{bt.WithID(id)}
	if def.Name != "" {
		opts = append(opts, bt.WithName(def.Name))
	}
	if def.Description != "" {
		opts = append(opts, bt.WithDescription(def.Description))
	}
	if len(def.Properties) > 0 {
		opts = append(opts, bt.WithProperties(def.Properties))
	}

	node, err := factory(Spec{Definition: def, Children: children, Options: opts})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return node, nil
}
