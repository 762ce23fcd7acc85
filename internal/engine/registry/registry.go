/*
SPDX-FileCopyrightText: The Corral Authors

SPDX-License-Identifier: Apache-2.0
*/

// Package registry implements the (type, version) factory lookup shared
// by the profile and policy plugin frameworks.  Registries are populated
// once at startup and read-only afterwards.
package registry

import (
	"strings"

	"github.com/coreos/go-semver/semver"

	"github.com/corral-cloud/corral/internal/typederrors"
)

// Registry maps (type, version) pairs to factories of type F.
type Registry[F any] struct {
	what      string
	factories map[string]map[string]F
}

// New returns an empty registry.  The what label names the plugin family
// in error messages ("policy", "profile").
func New[F any](what string) *Registry[F] {
	return &Registry[F]{what: what, factories: map[string]map[string]F{}}
}

// Register adds a factory for the given type and version.
func (r *Registry[F]) Register(kind, version string, factory F) {
	versions, ok := r.factories[kind]
	if !ok {
		versions = map[string]F{}
		r.factories[kind] = versions
	}
	versions[version] = factory
}

// Lookup resolves the factory for the requested type and version.  An
// exact version match wins; otherwise the highest registered version with
// the same major version is chosen.  Unknown types and incompatible
// versions surface as validation errors.
func (r *Registry[F]) Lookup(kind, version string) (F, error) {
	var zero F
	versions, ok := r.factories[kind]
	if !ok {
		return zero, typederrors.NewValidationError(nil, "unknown %s type '%s'", r.what, kind)
	}
	if factory, ok := versions[version]; ok {
		return factory, nil
	}

	wanted, err := ParseVersion(version)
	if err != nil {
		return zero, typederrors.NewValidationError(err, "invalid %s version '%s'", r.what, version)
	}
	var best *semver.Version
	var bestFactory F
	found := false
	for candidate, factory := range versions {
		parsed, err := ParseVersion(candidate)
		if err != nil {
			continue
		}
		if parsed.Major != wanted.Major {
			continue
		}
		if best == nil || best.LessThan(*parsed) {
			best = parsed
			bestFactory = factory
			found = true
		}
	}
	if !found {
		return zero, typederrors.NewValidationError(nil,
			"no registered version of %s type '%s' is compatible with '%s'", r.what, kind, version)
	}
	return bestFactory, nil
}

// ParseVersion parses a plugin version, tolerating the two-component form
// ("1.0") used by stored specs.
func ParseVersion(version string) (*semver.Version, error) {
	if strings.Count(version, ".") == 1 {
		version += ".0"
	}
	return semver.NewVersion(version)
}
