package definition_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aretw0/arbor/pkg/bt"
	"github.com/aretw0/arbor/pkg/definition"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const patrolYAML = `
id: patrol
name: Patrol
description: walks the perimeter
properties:
  zone: north
root:
  type: Sequence
  name: main
  children:
    - type: Ok
    - id: loop
      type: Repeater
      properties:
        maxLoop: "2"
      child:
        type: Ok
`

func testRegistry() *definition.Registry {
	reg := definition.NewDefaultRegistry()
	reg.RegisterTask("Ok", func(*bt.ExecutionContext) domain.Status { return domain.StatusSuccess })
	reg.RegisterTask("Nope", func(*bt.ExecutionContext) domain.Status { return domain.StatusFailure })
	reg.RegisterAsyncTask("Later", func(context.Context, *bt.ExecutionContext) (domain.Status, error) {
		return domain.StatusSuccess, nil
	}, time.Second)
	return reg
}

func TestParse_YAMLAndJSON(t *testing.T) {
	def, err := definition.Parse([]byte(patrolYAML), definition.FormatYAML)
	require.NoError(t, err)
	assert.Equal(t, "patrol", def.ID)
	assert.Equal(t, "Sequence", def.Root.Type)
	require.Len(t, def.Root.Children, 2)
	assert.Equal(t, "Repeater", def.Root.Children[1].Type)
	assert.Equal(t, "Ok", def.Root.Children[1].Child.Type)

	raw, err := definition.Marshal(def, definition.FormatJSON)
	require.NoError(t, err)
	again, err := definition.Parse(raw, definition.FormatJSON)
	require.NoError(t, err)
	assert.Equal(t, def.Root.Children[1].ID, again.Root.Children[1].ID)

	_, err = definition.Parse([]byte("root: [unclosed"), definition.FormatYAML)
	assert.Error(t, err)
}

func TestLoad_PicksFormatFromExtension(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tree.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"id":"j","root":{"type":"Ok"}}`), 0o644))

	def, err := definition.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "j", def.ID)
	assert.Equal(t, definition.FormatYAML, definition.FormatFromPath("x.yml"))

	_, err = definition.Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestBuild(t *testing.T) {
	def, err := definition.Parse([]byte(patrolYAML), definition.FormatYAML)
	require.NoError(t, err)

	tree, err := definition.Build(def, testRegistry())
	require.NoError(t, err)
	assert.Equal(t, "patrol", tree.ID())
	assert.Equal(t, "Patrol", tree.Name())
	assert.Equal(t, "walks the perimeter", tree.Description())
	assert.Equal(t, "north", tree.Properties()["zone"])

	root := tree.Root()
	assert.Equal(t, "main", root.Name())
	loop, ok := tree.Find("loop")
	require.True(t, ok)
	assert.Equal(t, bt.TypeRepeater, loop.Type())

	assert.Equal(t, domain.StatusSuccess, tree.Tick(context.Background(), nil))
	assert.NoError(t, tree.Validate())
}

func TestBuild_StableNodeIDs(t *testing.T) {
	def, err := definition.Parse([]byte(patrolYAML), definition.FormatYAML)
	require.NoError(t, err)

	a, err := definition.Build(def, testRegistry())
	require.NoError(t, err)
	b, err := definition.Build(def, testRegistry())
	require.NoError(t, err)

	assert.Equal(t, a.Root().ID(), b.Root().ID())
	assert.Equal(t, a.Root().Children()[0].ID(), b.Root().Children()[0].ID())
	assert.NotEqual(t, a.Root().ID(), a.Root().Children()[0].ID())
}

func TestBuild_AsyncTimeoutProperty(t *testing.T) {
	def := &definition.TreeDefinition{Root: &definition.Definition{
		Type:       "Later",
		Properties: map[string]any{"timeout": "250ms"},
	}}
	tree, err := definition.Build(def, testRegistry())
	require.NoError(t, err)
	assert.Equal(t, bt.TypeAsyncTask, tree.Root().Type())
	v, _ := tree.Root().Property("timeout")
	assert.Equal(t, "250ms", v)
}

func TestValidate_AggregatesProblems(t *testing.T) {
	def := &definition.TreeDefinition{Root: &definition.Definition{
		Type: "Sequence",
		Children: []*definition.Definition{
			{Type: "Ghost"},
			{Type: "Inverter"},
			{Type: "Ok", Child: &definition.Definition{Type: "Ok"}},
			{ID: "x", Type: "Repeater", Properties: map[string]any{"maxLoop": "lots"}, Child: &definition.Definition{ID: "x", Type: "Ok"}},
			{},
		},
	}}

	err := definition.Validate(def, testRegistry())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUnknownNodeType)
	assert.ErrorIs(t, err, domain.ErrInvalidDefinition)

	problems := definition.ValidationErrors(err)
	require.Len(t, problems, 6)

	var ve *definition.ValidationError
	require.True(t, errors.As(problems[0], &ve))
	assert.Equal(t, "root.children[0]", ve.Path)
	assert.Equal(t, "Ghost", ve.Value)
	assert.Contains(t, err.Error(), "6 validation errors")

	_, err = definition.Build(def, testRegistry())
	assert.Error(t, err)
}

func TestValidate_MissingRoot(t *testing.T) {
	err := definition.Validate(&definition.TreeDefinition{}, testRegistry())
	assert.ErrorIs(t, err, domain.ErrInvalidDefinition)
	assert.Equal(t, "invalid tree definition: root: required", err.Error())
}

func TestRegistry(t *testing.T) {
	reg := definition.NewRegistry()
	assert.Empty(t, reg.Types())

	reg.Merge(testRegistry())
	assert.Contains(t, reg.Types(), bt.TypeSequence)
	assert.Contains(t, reg.Types(), "Ok")

	_, category, ok := reg.Lookup("Later")
	assert.True(t, ok)
	assert.Equal(t, domain.CategoryTask, category)
}

func TestDecodeProperties(t *testing.T) {
	var loop definition.LoopProperties
	require.NoError(t, definition.DecodeProperties(map[string]any{"maxLoop": float64(4)}, &loop))
	assert.Equal(t, 4, loop.MaxLoop)

	var async definition.AsyncProperties
	require.NoError(t, definition.DecodeProperties(map[string]any{"timeout": "1s"}, &async))
	assert.Equal(t, time.Second, async.Timeout)
}
