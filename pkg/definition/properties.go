package definition

import (
	"fmt"
	"time"

	"github.com/mitchellh/mapstructure"
)

// LoopProperties configures Repeater, UntilSuccess and UntilFailure.
type LoopProperties struct {
	MaxLoop int `mapstructure:"maxLoop"`
}

// AsyncProperties configures async leaves.
type AsyncProperties struct {
	Timeout time.Duration `mapstructure:"timeout"`
}

// DecodeProperties decodes a node's property map into out.
// Input is weakly typed: YAML ints, JSON numbers and numeric strings all
// decode into ints, and strings such as "250ms" decode into time.Duration.
func DecodeProperties(props map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
		Result:           out,
	})
	if err != nil {
		return fmt.Errorf("failed to create property decoder: %w", err)
	}
	if err := dec.Decode(props); err != nil {
		return fmt.Errorf("invalid properties: %w", err)
	}
	return nil
}
