package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/goccy/go-yaml"

	"github.com/ardnew/brace/log"
)

// resolve returns a [kong.ConfigurationLoader] that reads YAML
// configuration files.
//
// It can be used with [kong.Configuration] like this:
//
//	kong.Configuration(resolve(ctx), "/path/to/config.yaml")
//
// The YAML document is converted as follows:
//   - Each top-level key names a flag, with hyphens or underscores
//     (e.g., "log-level" or "log_level")
//   - Nested mappings join their keys with a hyphen, so a "log" mapping
//     holding "level" sets --log-level
//   - Sequences set repeatable flags
//   - Numbers are passed to kong as strings
//
// Example config file:
//
//	log:
//	  level: debug
//	  pretty: false
//	max-depth: 32
//
// Command-line flags override config file values. A document that cannot be
// decoded is logged and ignored.
func resolve(ctx context.Context) func(r io.Reader) (kong.Resolver, error) {
	return func(r io.Reader) (kong.Resolver, error) {
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, err
		}

		var doc yaml.MapSlice

		err = yaml.UnmarshalWithOptions(data, &doc, yaml.UseOrderedMap())
		if err != nil {
			log.WarnContext(ctx, "ignoring invalid configuration",
				slog.Any("error", err))

			return config{}, nil
		}

		cfg := make(config)
		cfg.flatten("", doc)

		return cfg, nil
	}
}

// config implements [kong.Resolver] for YAML configs. Keys are flag names
// with underscores replaced by hyphens.
type config map[string]any

// flatten adds the items of m to c, prefixing each key with prefix.
func (c config) flatten(prefix string, m yaml.MapSlice) {
	for _, item := range m {
		key := normalize(fmt.Sprint(item.Key))
		if prefix != "" {
			key = prefix + "-" + key
		}

		if sub, ok := item.Value.(yaml.MapSlice); ok {
			c.flatten(key, sub)

			continue
		}

		c[key] = scalar(item.Value)
	}
}

// Validate implements [kong.Resolver].
func (c config) Validate(*kong.Application) error { return nil }

// Resolve implements [kong.Resolver].
func (c config) Resolve(
	_ *kong.Context,
	_ *kong.Path,
	flag *kong.Flag,
) (any, error) {
	// Not found returns nil to let Kong use defaults.
	return c[normalize(flag.Name)], nil
}

func normalize(name string) string {
	return strings.ReplaceAll(strings.TrimSpace(name), "_", "-")
}

// scalar converts a decoded YAML value to a form kong can parse. Kong
// requires numbers as strings.
func scalar(v any) any {
	switch v := v.(type) {
	case int64:
		return strconv.FormatInt(v, 10)
	case uint64:
		return strconv.FormatUint(v, 10)
	case int:
		return strconv.Itoa(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case []any:
		items := make([]any, len(v))
		for i, item := range v {
			items[i] = scalar(item)
		}

		return items
	}

	return v
}
