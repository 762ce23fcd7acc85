/*
SPDX-FileCopyrightText: The Corral Authors

SPDX-License-Identifier: Apache-2.0
*/

// Package profile implements the node templating framework: profile kinds
// registered by (type, version) that know how to drive the infrastructure
// for one flavor of node.
package profile

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/corral-cloud/corral/internal/driver"
	"github.com/corral-cloud/corral/internal/engine/registry"
	"github.com/corral-cloud/corral/internal/engine/session"
	"github.com/corral-cloud/corral/internal/models"
	"github.com/corral-cloud/corral/internal/storage"
	"github.com/corral-cloud/corral/internal/typederrors"
)

// Kind is the capability set a concrete profile implements.  Operations a
// kind does not support inherit "not applicable" behavior from Base.
type Kind interface {
	Validate() error

	// DoCreate provisions the physical resource and returns its id.
	DoCreate(ctx context.Context, node *models.Node) (string, error)
	// DoDelete tears the physical resource down.  A missing resource is
	// not an error.
	DoDelete(ctx context.Context, node *models.Node) error
	// DoUpdate reconciles the physical resource with a new profile.
	DoUpdate(ctx context.Context, node *models.Node, newProfile *models.Profile) error
	// DoGetDetails reads live details of the physical resource.
	DoGetDetails(ctx context.Context, node *models.Node) (map[string]any, error)
	// DoJoin/DoLeave record cluster membership on the physical resource.
	DoJoin(ctx context.Context, node *models.Node, clusterID uuid.UUID) error
	DoLeave(ctx context.Context, node *models.Node) error
	// DoCheck reports whether the physical resource is healthy.
	DoCheck(ctx context.Context, node *models.Node) (bool, error)
}

// Services carries the dependencies a profile kind may use.  AuthURL is
// the identity endpoint used when the request context does not carry one.
type Services struct {
	Store    storage.Store
	Provider driver.Provider
	AuthURL  string
	Logger   *slog.Logger
}

// Base rejects every operation; kinds override what they support.
type Base struct{}

func (Base) Validate() error { return nil }

func (Base) DoCreate(context.Context, *models.Node) (string, error) {
	return "", typederrors.NewValidationError(nil, "operation not supported by this profile type")
}

func (Base) DoDelete(context.Context, *models.Node) error {
	return typederrors.NewValidationError(nil, "operation not supported by this profile type")
}

func (Base) DoUpdate(context.Context, *models.Node, *models.Profile) error {
	return typederrors.NewValidationError(nil, "operation not supported by this profile type")
}

func (Base) DoGetDetails(context.Context, *models.Node) (map[string]any, error) {
	return nil, typederrors.NewValidationError(nil, "operation not supported by this profile type")
}

func (Base) DoJoin(context.Context, *models.Node, uuid.UUID) error { return nil }
func (Base) DoLeave(context.Context, *models.Node) error           { return nil }

func (Base) DoCheck(context.Context, *models.Node) (bool, error) { return true, nil }

// Factory builds a kind from its stored profile record.
type Factory func(profile *models.Profile, services Services) (Kind, error)

// Registry resolves profile kinds by (type, version).
type Registry struct {
	inner *registry.Registry[Factory]
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{inner: registry.New[Factory]("profile")}
}

// DefaultRegistry returns a registry populated with the built-in kinds.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(TypeNovaServer, "1.0", NewNovaServerProfile)
	r.Register(TypeHeatStack, "1.0", NewHeatStackProfile)
	return r
}

// Register adds a factory for the given type and version.
func (r *Registry) Register(kind, version string, factory Factory) {
	r.inner.Register(kind, version, factory)
}

// New instantiates the kind matching the profile record.
func (r *Registry) New(profile *models.Profile, services Services) (Kind, error) {
	factory, err := r.inner.Lookup(profile.Type, profile.Version)
	if err != nil {
		return nil, err
	}
	return factory(profile, services)
}

// sessionFor opens a tenant-scoped driver session for the node's owner.
func sessionFor(ctx context.Context, services Services, user, project string) (driver.Session, error) {
	params, err := session.Params(ctx, services.Store, services.AuthURL, user, project)
	if err != nil {
		return nil, err
	}
	return services.Provider.Session(ctx, params)
}
