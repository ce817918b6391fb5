// Package tasks is a small library of leaf behaviors usable from definitions.
package tasks

import (
	"context"
	"fmt"
	"reflect"
	"time"

	"github.com/aretw0/arbor/pkg/blackboard"
	"github.com/aretw0/arbor/pkg/bt"
	"github.com/aretw0/arbor/pkg/definition"
	"github.com/aretw0/arbor/pkg/domain"
)

// Type tags registered by Register.
const (
	TypeSucceed     = "Succeed"
	TypeFail        = "Fail"
	TypeError       = "Error"
	TypeRunning     = "Running"
	TypeWait        = "Wait"
	TypeSetShared   = "SetShared"
	TypeCheckShared = "CheckShared"
	TypeLog         = "Log"
)

// keyElapsed counts ticks spent by a Running leaf in its current activation.
const keyElapsed = "elapsed"

// RunningProperties configures a Running leaf.
type RunningProperties struct {
	Ticks  int    `mapstructure:"ticks"`
	Result string `mapstructure:"result"`
}

// WaitProperties configures a Wait leaf.
type WaitProperties struct {
	Duration time.Duration `mapstructure:"duration"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// SharedProperties configures SetShared and CheckShared.
type SharedProperties struct {
	Key    string `mapstructure:"key"`
	Value  any    `mapstructure:"value"`
	Equals any    `mapstructure:"equals"`
}

// LogProperties configures a Log leaf.
type LogProperties struct {
	Message string `mapstructure:"message"`
	Level   string `mapstructure:"level"`
}

// Register adds every leaf of this package to reg.
func Register(reg *definition.Registry) {
	reg.Register(TypeSucceed, domain.CategoryTask, constant(TypeSucceed, domain.StatusSuccess))
	reg.Register(TypeFail, domain.CategoryTask, constant(TypeFail, domain.StatusFailure))
	reg.Register(TypeError, domain.CategoryTask, constant(TypeError, domain.StatusError))
	reg.Register(TypeRunning, domain.CategoryTask, running)
	reg.Register(TypeWait, domain.CategoryTask, wait)
	reg.Register(TypeSetShared, domain.CategoryTask, setShared)
	reg.Register(TypeCheckShared, domain.CategoryTask, checkShared)
	reg.Register(TypeLog, domain.CategoryTask, logLeaf)
}

// NewRegistry returns the built-in composites and decorators plus every leaf of this package.
func NewRegistry() *definition.Registry {
	reg := definition.NewDefaultRegistry()
	Register(reg)
	return reg
}

func options(typ string, spec definition.Spec) []bt.NodeOption {
	return append([]bt.NodeOption{bt.WithType(typ)}, spec.Options...)
}

func constant(typ string, status domain.Status) definition.Factory {
	return func(spec definition.Spec) (*bt.Node, error) {
		return bt.NewTask(typ, func(*bt.ExecutionContext) domain.Status {
			return status
		}, options(typ, spec)...), nil
	}
}

// running returns Running for the configured number of ticks, then its result.
func running(spec definition.Spec) (*bt.Node, error) {
	props := RunningProperties{Ticks: 1, Result: string(domain.StatusSuccess)}
	if err := definition.DecodeProperties(spec.Definition.Properties, &props); err != nil {
		return nil, err
	}
	result, ok := domain.ParseStatus(props.Result)
	if !ok || result == domain.StatusRunning {
		return nil, fmt.Errorf("invalid result %q", props.Result)
	}
	return bt.NewStatefulTask(TypeRunning, func(_ *bt.ExecutionContext, board *blackboard.NodeBoard) domain.Status {
		elapsed, _ := blackboard.Int(board.Get(keyElapsed))
		if elapsed < props.Ticks {
			board.Set(keyElapsed, elapsed+1)
			return domain.StatusRunning
		}
		board.Unset(keyElapsed)
		return result
	}, options(TypeRunning, spec)...), nil
}

// wait succeeds once the duration has elapsed in the background.
func wait(spec definition.Spec) (*bt.Node, error) {
	var props WaitProperties
	if err := definition.DecodeProperties(spec.Definition.Properties, &props); err != nil {
		return nil, err
	}
	fn := func(ctx context.Context, _ *bt.ExecutionContext) (domain.Status, error) {
		timer := time.NewTimer(props.Duration)
		defer timer.Stop()
		select {
		case <-timer.C:
			return domain.StatusSuccess, nil
		case <-ctx.Done():
			return domain.StatusFailure, nil
		}
	}
	opts := append(options(TypeWait, spec), bt.WithName(fmt.Sprintf("Wait %s", props.Duration)))
	if spec.Definition.Name != "" {
		opts = append(opts, bt.WithName(spec.Definition.Name))
	}
	return bt.NewAsyncTask(TypeWait, fn, props.Timeout, opts...), nil
}

func setShared(spec definition.Spec) (*bt.Node, error) {
	var props SharedProperties
	if err := definition.DecodeProperties(spec.Definition.Properties, &props); err != nil {
		return nil, err
	}
	if props.Key == "" {
		return nil, fmt.Errorf("%s requires a key", TypeSetShared)
	}
	return bt.NewTask(TypeSetShared, func(ec *bt.ExecutionContext) domain.Status {
		ec.Shared().Set(props.Key, props.Value)
		return domain.StatusSuccess
	}, options(TypeSetShared, spec)...), nil
}

// checkShared succeeds when the key is present and, if "equals" is set, holds that value.
func checkShared(spec definition.Spec) (*bt.Node, error) {
	var props SharedProperties
	if err := definition.DecodeProperties(spec.Definition.Properties, &props); err != nil {
		return nil, err
	}
	if props.Key == "" {
		return nil, fmt.Errorf("%s requires a key", TypeCheckShared)
	}
	return bt.NewTask(TypeCheckShared, func(ec *bt.ExecutionContext) domain.Status {
		v, ok := ec.Shared().Lookup(props.Key)
		if !ok {
			return domain.StatusFailure
		}
		if props.Equals != nil && !equal(v, props.Equals) {
			return domain.StatusFailure
		}
		return domain.StatusSuccess
	}, options(TypeCheckShared, spec)...), nil
}

// equal compares loosely so YAML ints match JSON floats.
func equal(a, b any) bool {
	if reflect.DeepEqual(a, b) {
		return true
	}
	ai, aok := blackboard.Int(a)
	bi, bok := blackboard.Int(b)
	if aok && bok {
		return ai == bi
	}
	return fmt.Sprint(a) == fmt.Sprint(b)
}

func logLeaf(spec definition.Spec) (*bt.Node, error) {
	props := LogProperties{Level: domain.SeverityInfo.String()}
	if err := definition.DecodeProperties(spec.Definition.Properties, &props); err != nil {
		return nil, err
	}
	level, err := domain.ParseSeverity(props.Level)
	if err != nil {
		return nil, err
	}
	return bt.NewTask(TypeLog, func(ec *bt.ExecutionContext) domain.Status {
		ec.Log(level, props.Message)
		return domain.StatusSuccess
	}, options(TypeLog, spec)...), nil
}
