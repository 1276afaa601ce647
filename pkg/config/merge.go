package config

import "dario.cat/mergo"

// mergeOptions overlays override onto base, base fields winning only where
// override leaves its field at the zero value. Matches the teacher's
// built-in/user merge convention (pkg/config/merge.go) of "user overrides
// built-in" — here "override" is whatever YAML/env layer was loaded last.
func mergeOptions(base, override Options) (Options, error) {
	if err := mergo.Merge(&base, override, mergo.WithOverride()); err != nil {
		return Options{}, err
	}
	return base, nil
}
