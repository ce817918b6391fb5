package tasks_test

import (
	"testing"
	"time"

	"github.com/aretw0/arbor/pkg/definition"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/tasks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func build(t *testing.T, src string) *definitionTree {
	t.Helper()
	def, err := definition.Parse([]byte(src), definition.FormatYAML)
	require.NoError(t, err)
	tree, err := definition.Build(def, tasks.NewRegistry())
	require.NoError(t, err)
	return &definitionTree{tree}
}

func TestConstantLeaves(t *testing.T) {
	for typ, want := range map[string]domain.Status{
		tasks.TypeSucceed: domain.StatusSuccess,
		tasks.TypeFail:    domain.StatusFailure,
		tasks.TypeError:   domain.StatusError,
	} {
		tree := build(t, "root: {type: "+typ+"}")
		assert.Equal(t, want, tree.tick(), typ)
	}
}

func TestRunning(t *testing.T) {
	tree := build(t, `
root:
  type: Running
  properties: {ticks: 2, result: FAILURE}
`)
	assert.Equal(t, []domain.Status{
		domain.StatusRunning, domain.StatusRunning, domain.StatusFailure, domain.StatusRunning,
	}, tree.ticks(4))
}

func TestRunning_InvalidResult(t *testing.T) {
	def, err := definition.Parse([]byte(`root: {type: Running, properties: {result: RUNNING}}`), definition.FormatYAML)
	require.NoError(t, err)
	_, err = definition.Build(def, tasks.NewRegistry())
	assert.Error(t, err)
}

func TestWait(t *testing.T) {
	tree := build(t, `
root:
  type: Wait
  properties: {duration: 20ms}
`)
	assert.Equal(t, domain.StatusRunning, tree.tick())
	assert.Equal(t, "Wait 20ms", tree.Root().Name())
	require.Eventually(t, func() bool {
		return tree.tick() == domain.StatusSuccess
	}, time.Second, 5*time.Millisecond)
}

func TestWait_Timeout(t *testing.T) {
	tree := build(t, `
root:
  type: Wait
  properties: {duration: 1h, timeout: 10ms}
`)
	assert.Equal(t, domain.StatusRunning, tree.tick())
	require.Eventually(t, func() bool {
		return tree.tick() == domain.StatusFailure
	}, time.Second, 5*time.Millisecond)
}

func TestSharedLeaves(t *testing.T) {
	tree := build(t, `
root:
  type: Sequence
  children:
    - type: SetShared
      properties: {key: door, value: 3}
    - type: CheckShared
      properties: {key: door, equals: 3.0}
    - type: Inverter
      child:
        type: CheckShared
        properties: {key: window}
    - type: Log
      properties: {message: done, level: notice}
`)
	assert.Equal(t, domain.StatusSuccess, tree.tick())
	assert.Equal(t, 3, tree.Blackboard().Shared().Get("door"))
}

func TestSharedLeaves_RequireKey(t *testing.T) {
	def, err := definition.Parse([]byte(`root: {type: SetShared}`), definition.FormatYAML)
	require.NoError(t, err)
	_, err = definition.Build(def, tasks.NewRegistry())
	assert.Error(t, err)
}

func TestLog_InvalidLevel(t *testing.T) {
	def, err := definition.Parse([]byte(`root: {type: Log, properties: {level: loud}}`), definition.FormatYAML)
	require.NoError(t, err)
	_, err = definition.Build(def, tasks.NewRegistry())
	assert.Error(t, err)
}

func TestNewRegistry_HasEverything(t *testing.T) {
	types := tasks.NewRegistry().Types()
	for _, typ := range []string{"Sequence", "Repeater", tasks.TypeWait, tasks.TypeLog} {
		assert.Contains(t, types, typ)
	}
}
