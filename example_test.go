package arbor_test

import (
	"context"
	"fmt"
	"log"

	"github.com/aretw0/arbor"
	"github.com/aretw0/arbor/pkg/bt"
	"github.com/aretw0/arbor/pkg/definition"
	"github.com/aretw0/arbor/pkg/domain"
)

// ExampleEngine loads a declarative tree, registers a custom leaf and ticks it
// until it settles.
func ExampleEngine() {
	eng := arbor.New()

	// 1. Custom leaves are plain functions registered under a type tag
	eng.Registry().RegisterTask("Knock", func(ec *bt.ExecutionContext) domain.Status {
		knocks := ec.Target().(*int)
		*knocks++
		if *knocks < 3 {
			return domain.StatusRunning
		}
		return domain.StatusSuccess
	})

	// 2. Describe the tree
	def := &definition.TreeDefinition{
		ID:   "door",
		Name: "Door",
		Root: &definition.Definition{
			Type: "Sequence",
			Children: []*definition.Definition{
				{Type: "Knock"},
				{Type: "SetShared", Properties: map[string]any{"key": "answered", "value": true}},
			},
		},
	}

	ctx := context.Background()
	if _, err := eng.Load(ctx, def); err != nil {
		log.Fatal(err)
	}

	// 3. Tick with a target until the tree leaves RUNNING
	knocks := 0
	for {
		status, err := eng.Tick(ctx, "door", &knocks)
		if err != nil {
			log.Fatal(err)
		}
		fmt.Println(status)
		if status != domain.StatusRunning {
			break
		}
	}
	fmt.Println("answered:", eng.Blackboard().Shared().Get("answered"))

	// Output:
	// RUNNING
	// RUNNING
	// SUCCESS
	// answered: true
}

// ExampleEngine_Validate shows the aggregated report for a broken definition.
func ExampleEngine_Validate() {
	eng := arbor.New()
	def := &definition.TreeDefinition{
		ID: "broken",
		Root: &definition.Definition{
			Type:     "Sequence",
			Children: []*definition.Definition{{Type: "Teleport"}},
		},
	}

	err := eng.Validate(def)
	fmt.Println(len(definition.ValidationErrors(err)) > 0)

	// Output:
	// true
}
