package config

import (
	"fmt"
	"maps"
	"os"
	"slices"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/km-arc/go-bootstrap/framework/appcontext"
)

// ReadFile parses a YAML file and flattens it into dot-separated keys:
//
//	server:
//	  port: 8080      → "server.port": 8080
//	  tags: [a, b]    → "server.tags": []any{"a", "b"}
func ReadFile(path string) (map[string]any, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}
	var doc map[string]any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	out := make(map[string]any)
	flatten("", doc, out)
	return out, nil
}

// LoadFile puts every key of the YAML file at path into ctx and returns the
// keys written, sorted. Nothing is written if the file cannot be parsed.
func LoadFile(ctx *appcontext.Context, path string) ([]string, error) {
	values, err := ReadFile(path)
	if err != nil {
		return nil, err
	}
	ctx.PutAll(values)
	return slices.Sorted(maps.Keys(values)), nil
}

func flatten(prefix string, in map[string]any, out map[string]any) {
	for k, v := range in {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		switch child := v.(type) {
		case map[string]any:
			flatten(key, child, out)
		case map[any]any:
			converted := make(map[string]any, len(child))
			for ck, cv := range child {
				converted[stringKey(ck)] = cv
			}
			flatten(key, converted, out)
		default:
			out[key] = v
		}
	}
}

func stringKey(k any) string {
	switch t := k.(type) {
	case string:
		return t
	case int:
		return strconv.Itoa(t)
	default:
		return fmt.Sprint(t)
	}
}

// Export mirrors the typed configuration into ctx under the "app.", "log.",
// "admin." and "context." prefixes.
func Export(cfg *Config, ctx *appcontext.Context) {
	ctx.PutAll(map[string]any{
		"app.name":      cfg.App.Name,
		"app.env":       cfg.App.Env,
		"app.debug":     cfg.App.Debug,
		"app.version":   cfg.App.Version,
		"app.addr":      cfg.App.Addr,
		"log.level":     cfg.Log.Level,
		"log.format":    cfg.Log.Format,
		"admin.enabled": cfg.Admin.Enabled,
		"admin.addr":    cfg.Admin.Addr,
		"context.file":  cfg.Context.File,
		"context.watch": cfg.Context.Watch,
	})
}
