/*
SPDX-FileCopyrightText: The Corral Authors

SPDX-License-Identifier: Apache-2.0
*/

// Package policy implements the pluggable checker framework: policy kinds
// registered by (type, version), and the engine that runs their hooks at
// the BEFORE/AFTER checkpoints of cluster actions.
package policy

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/corral-cloud/corral/internal/driver"
	"github.com/corral-cloud/corral/internal/engine/registry"
	"github.com/corral-cloud/corral/internal/models"
	"github.com/corral-cloud/corral/internal/storage"
	"github.com/corral-cloud/corral/internal/typederrors"
)

// Checkpoint phases.
const (
	PhaseBefore = "BEFORE"
	PhaseAfter  = "AFTER"
)

// Target names one checkpoint a policy kind subscribes to.
type Target struct {
	Phase  string
	Action string
}

// Kind is the capability set a concrete policy implements.  Hooks read
// action inputs and record decisions in action.Data under the keys
// defined in the models package; a veto is expressed by setting the
// status key to CHECK_ERROR.  Kinds implement only what they need and
// inherit no-op behavior from Base for the rest.
type Kind interface {
	Targets() []Target
	Validate() error

	// Attach seeds the binding's private data; Detach tears it down.
	Attach(ctx context.Context, cluster *models.Cluster) (map[string]any, error)
	Detach(ctx context.Context, cluster *models.Cluster) error

	PreOp(ctx context.Context, clusterID uuid.UUID, action *models.Action) error
	PostOp(ctx context.Context, clusterID uuid.UUID, action *models.Action) error
}

// Services carries the dependencies a policy kind may use.  AuthURL is
// the identity endpoint used when the request context does not carry one.
type Services struct {
	Store    storage.Store
	Provider driver.Provider
	AuthURL  string
	Logger   *slog.Logger
}

// Base provides the default no-op capability set.
type Base struct{}

func (Base) Targets() []Target { return nil }
func (Base) Validate() error   { return nil }

func (Base) Attach(context.Context, *models.Cluster) (map[string]any, error) { return nil, nil }
func (Base) Detach(context.Context, *models.Cluster) error                   { return nil }

func (Base) PreOp(context.Context, uuid.UUID, *models.Action) error  { return nil }
func (Base) PostOp(context.Context, uuid.UUID, *models.Action) error { return nil }

// Factory builds a kind from its stored policy record.
type Factory func(policy *models.Policy, services Services) (Kind, error)

// Registry resolves policy kinds by (type, version).
type Registry struct {
	inner *registry.Registry[Factory]
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{inner: registry.New[Factory]("policy")}
}

// DefaultRegistry returns a registry populated with the built-in kinds.
func DefaultRegistry() *Registry {
	registry := NewRegistry()
	registry.Register(TypeDeletion, "1.0", NewDeletionPolicy)
	registry.Register(TypeScaling, "1.0", NewScalingPolicy)
	registry.Register(TypeLBMember, "1.0", NewLBMemberPolicy)
	return registry
}

// Register adds a factory for the given type and version.
func (r *Registry) Register(kind, version string, factory Factory) {
	r.inner.Register(kind, version, factory)
}

// New instantiates the kind matching the policy record.
func (r *Registry) New(policy *models.Policy, services Services) (Kind, error) {
	factory, err := r.inner.Lookup(policy.Type, policy.Version)
	if err != nil {
		return nil, err
	}
	return factory(policy, services)
}

// subscribed reports whether the kind declares the (phase, action) pair.
func subscribed(kind Kind, phase, actionName string) bool {
	for _, target := range kind.Targets() {
		if target.Phase == phase && target.Action == actionName {
			return true
		}
	}
	return false
}

// specString reads a required string property from a policy spec.
func specString(spec map[string]any, key string) (string, error) {
	value, ok := spec[key].(string)
	if !ok || value == "" {
		return "", typederrors.NewValidationError(nil, "policy property '%s' is required", key)
	}
	return value, nil
}

// specInt reads an integer property, falling back to a default.
func specInt(spec map[string]any, key string, fallback int) int {
	switch n := spec[key].(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	default:
		return fallback
	}
}

// specBool reads a boolean property, falling back to a default.
func specBool(spec map[string]any, key string, fallback bool) bool {
	if b, ok := spec[key].(bool); ok {
		return b
	}
	return fallback
}

// specSection reads a nested map property.
func specSection(spec map[string]any, key string) map[string]any {
	if m, ok := spec[key].(map[string]any); ok {
		return m
	}
	return nil
}

// outputIDs reads a list of object ids from an action output value.
func outputIDs(outputs map[string]any, key string) []uuid.UUID {
	raw, ok := outputs[key].([]any)
	if !ok {
		return nil
	}
	ids := make([]uuid.UUID, 0, len(raw))
	for _, item := range raw {
		s, ok := item.(string)
		if !ok {
			continue
		}
		id, err := uuid.Parse(s)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

func vetoed(action *models.Action) (string, bool) {
	status, ok := action.Data[models.DataKeyStatus].(string)
	if !ok || status != models.CheckError {
		return "", false
	}
	reason, _ := action.Data[models.DataKeyReason].(string)
	if reason == "" {
		reason = fmt.Sprintf("Policy check failed for action '%s'", action.Action)
	}
	return reason, true
}
