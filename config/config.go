// Package config loads the optional kappa.yaml manifest a project can
// drop next to its source to control compiler behavior without CLI
// flags. It is intentionally small: the struct tags follow the same
// yaml-tag convention the rest of the retrieved corpus uses for its own
// annotated structs (see analyzer/linage.Annotations), and loading goes
// through gopkg.in/yaml.v3 rather than a hand-rolled parser.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Options controls one compilation run.
type Options struct {
	// AutoPause enables the auto-pause pass (package autopause), which
	// inserts an opportunistic rt.maybe_pause() check before every call
	// site rather than relying solely on explicit rt.pause() calls.
	AutoPause bool `yaml:"autoPause"`

	// IgnoreIncantation overrides the docstring marker identify_ignore
	// looks for (package ignore) to exempt a function or class from
	// transformation. Empty means use the default ("kappa:ignore").
	IgnoreIncantation string `yaml:"ignoreIncantation"`

	// ExtraBuiltins names additional identifiers to treat as already in
	// scope, on top of the language's ordinary builtins. Load reads the
	// list, but kappac does not pass it on to the compiler, so the
	// global-name gatherer (package scope) never sees it and it has no
	// effect on compilation.
	ExtraBuiltins []string `yaml:"extraBuiltins"`
}

// Default returns the options a bare invocation with no kappa.yaml uses.
func Default() Options {
	return Options{}
}

// Load reads and parses a kappa.yaml manifest at path. A missing file
// is not an error: Load returns Default() unchanged, since the manifest
// is opt-in.
func Load(path string) (Options, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return Options{}, fmt.Errorf("config: reading %s: %w", path, err)
	}

	opts := Default()
	if err := yaml.Unmarshal(data, &opts); err != nil {
		return Options{}, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	return opts, nil
}
