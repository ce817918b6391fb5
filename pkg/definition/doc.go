// Package definition turns declarative tree descriptions into wired behavior trees.
//
// A definition is a YAML or JSON document:
//
//	id: patrol
//	name: Patrol
//	root:
//	  type: Sequence
//	  children:
//	    - type: Succeed
//	    - type: Repeater
//	      properties: {maxLoop: 3}
//	      child: {type: Wait, properties: {duration: 250ms}}
//
// A Registry maps type tags to node factories; Build validates the definition
// against it and returns a bt.BehaviorTree.
package definition
