// Package cliopts loads command options from a yaml file, environment
// variables, and command line flags.
package cliopts

import (
	"fmt"
	"os"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v2"
)

type Options struct {
	Filename string
	Flags    *pflag.FlagSet
}

// Load configuration into target. To set default values, apply them to
// target before calling Load. Values are loaded in order: the yaml file
// identified by opts.Filename first, then any changed command line flags.
//
// Values are matched to fields in target by convention; use the 'config'
// struct field tag to override the name.
func Load(target interface{}, opts Options) error {
	if opts.Filename != "" {
		if err := loadFromFile(target, opts.Filename); err != nil {
			return err
		}
	}
	if opts.Flags != nil {
		if err := loadFromFlags(target, opts.Flags); err != nil {
			return err
		}
	}
	return nil
}

func loadFromFile(target interface{}, filename string) error {
	fh, err := os.Open(filename)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer fh.Close()

	var raw map[string]interface{}
	if err := yaml.NewDecoder(fh).Decode(&raw); err != nil {
		return fmt.Errorf("failed to decode yaml from %s: %w", filename, err)
	}

	decoder, err := mapstructure.NewDecoder(decodeConfig(target))
	if err != nil {
		return err
	}
	if err := decoder.Decode(raw); err != nil {
		return fmt.Errorf("failed to decode from %s: %w", filename, err)
	}
	return nil
}

func loadFromFlags(target interface{}, flags *pflag.FlagSet) error {
	raw := make(map[string]interface{})
	flags.VisitAll(func(flag *pflag.Flag) {
		if !flag.Changed {
			return
		}
		raw[strings.ReplaceAll(flag.Name, "-", "")] = flag.Value.String()
	})

	decoder, err := mapstructure.NewDecoder(decodeConfig(target))
	if err != nil {
		return err
	}
	if err := decoder.Decode(raw); err != nil {
		return fmt.Errorf("failed to decode from flags: %w", err)
	}
	return nil
}

func decodeConfig(target interface{}) *mapstructure.DecoderConfig {
	return &mapstructure.DecoderConfig{
		Squash:           true,
		Result:           target,
		TagName:          "config",
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	}
}

// DefaultsFromEnv looks for an environment variable for any unset flags and,
// when found, sets the flag value from it. The variable name for a flag is
// the prefix plus the flag name with dashes replaced by underscores, all
// upper case (--log-level becomes PREFIX_LOG_LEVEL).
//
// DefaultsFromEnv should be called after FlagSet.Parse, but before any flags
// are used.
func DefaultsFromEnv(prefix string, flags *pflag.FlagSet) error {
	replacer := strings.NewReplacer("-", "_")
	prefix = prefix + "_"

	var errs []error
	flags.VisitAll(func(flag *pflag.Flag) {
		if flag.Changed {
			return
		}

		key := strings.ToUpper(prefix + replacer.Replace(flag.Name))
		v, exists := os.LookupEnv(key)
		if !exists {
			return
		}
		if err := flag.Value.Set(v); err != nil {
			errs = append(errs, fmt.Errorf("failed to set %v from environment variable: %w", flag.Name, err))
		}
	})

	if len(errs) > 0 {
		return MultiError(errs)
	}
	return nil
}

type MultiError []error

func (e MultiError) Error() string {
	errs := ([]error)(e)
	switch len(errs) {
	case 1:
		return errs[0].Error()
	default:
		var sb strings.Builder
		sb.WriteString("multiple errors:")
		for _, err := range errs {
			sb.WriteString("\n    " + err.Error())
		}
		sb.WriteString("\n")
		return sb.String()
	}
}
