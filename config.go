package httpaction

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// Config holds the properties an ActionFactory is built from.  The
// mapstructure names are the property keys accepted by NewActionFactory
// and NewHTTPActionFactory.
type Config struct {
	// ActionPathCaseSensitive defaults to true.  When false, action paths
	// are lowercased both when they are registered and when they are
	// invoked through HTTPActionFactory.
	ActionPathCaseSensitive bool `mapstructure:"actionPathCaseSensitive" yaml:"actionPathCaseSensitive"`

	// DefaultInterceptorStack names the stack applied to actions that
	// declare neither interceptors nor a stack of their own.
	DefaultInterceptorStack string `mapstructure:"defaultInterceptorStack" yaml:"defaultInterceptorStack"`

	// DefaultResultType is used for results declared without a type.
	DefaultResultType string `mapstructure:"defaultResultType" yaml:"defaultResultType"`
}

// DefaultConfig returns the configuration used when no properties are
// given.
func DefaultConfig() Config {
	return Config{
		ActionPathCaseSensitive: true,
	}
}

// Properties renders the configuration as a properties map suitable for
// NewActionFactory.
func (c Config) Properties() map[string]any {
	return map[string]any{
		"actionPathCaseSensitive": c.ActionPathCaseSensitive,
		"defaultInterceptorStack": c.DefaultInterceptorStack,
		"defaultResultType":       c.DefaultResultType,
	}
}

// decodeConfig overlays properties onto the defaults.  Values may be
// given loosely typed ("false" works for a bool) and unknown keys are
// ignored since the same properties map is often shared with other
// components.
func decodeConfig(properties map[string]any) (Config, error) {
	cfg := DefaultConfig()
	if len(properties) == 0 {
		return cfg, nil
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &cfg,
	})
	if err != nil {
		return cfg, err
	}
	if err := dec.Decode(properties); err != nil {
		return cfg, fmt.Errorf("decode properties: %w", err)
	}
	return cfg, nil
}
