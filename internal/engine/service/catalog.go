/*
SPDX-FileCopyrightText: The Corral Authors

SPDX-License-Identifier: Apache-2.0
*/

package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/corral-cloud/corral/internal/models"
	"github.com/corral-cloud/corral/internal/rcontext"
	"github.com/corral-cloud/corral/internal/typederrors"
)

// ProfileCreate parses and validates the YAML spec document, then stores
// the profile.  The spec is immutable afterwards.
func (s *Service) ProfileCreate(ctx context.Context, name string, specYAML []byte,
	metadata map[string]any) (*models.Profile, error) {

	if name == "" {
		return nil, typederrors.NewValidationError(nil, "profile name is required")
	}
	kindType, version, properties, err := parseSpec(specYAML)
	if err != nil {
		return nil, err
	}

	rc := rcontext.FromContext(ctx)
	record := &models.Profile{
		Name:     name,
		Type:     kindType,
		Version:  version,
		Spec:     properties,
		Metadata: metadata,
		User:     rc.User,
		Project:  rc.Project,
		Domain:   rc.Domain,
	}
	// Instantiating the kind runs its validation.
	if _, err := s.profiles.New(record, s.profSvcs); err != nil {
		return nil, err
	}
	return s.store.Profiles().Create(ctx, record)
}

// ProfileGet returns one profile record.
func (s *Service) ProfileGet(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	return s.store.Profiles().Get(ctx, id)
}

// ProfileList returns the profiles visible to the caller.
func (s *Service) ProfileList(ctx context.Context) ([]models.Profile, error) {
	return s.store.Profiles().List(ctx)
}

// ProfileUpdate renames or re-tags the profile.  The spec cannot change.
func (s *Service) ProfileUpdate(ctx context.Context, id uuid.UUID, name *string,
	metadata map[string]any) (*models.Profile, error) {

	record, err := s.store.Profiles().Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if name != nil {
		record.Name = *name
	}
	if metadata != nil {
		record.Metadata = metadata
	}
	return s.store.Profiles().Update(ctx, record)
}

// ProfileDelete removes a profile not referenced by any cluster or node.
func (s *Service) ProfileDelete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.store.Profiles().Get(ctx, id); err != nil {
		return err
	}

	clusters, err := s.store.Clusters().List(ctx)
	if err != nil {
		return err
	}
	for i := range clusters {
		if clusters[i].ProfileID == id {
			return typederrors.NewConflictError(nil,
				"profile '%s' is still used by cluster '%s'", id, clusters[i].ID)
		}
	}
	nodes, err := s.store.Nodes().List(ctx)
	if err != nil {
		return err
	}
	for i := range nodes {
		if nodes[i].ProfileID == id {
			return typederrors.NewConflictError(nil,
				"profile '%s' is still used by node '%s'", id, nodes[i].ID)
		}
	}
	return s.store.Profiles().Delete(ctx, id)
}

// PolicyCreate parses and validates the YAML spec document, then stores
// the policy.
func (s *Service) PolicyCreate(ctx context.Context, name string, specYAML []byte) (*models.Policy, error) {
	if name == "" {
		return nil, typederrors.NewValidationError(nil, "policy name is required")
	}
	kindType, version, properties, err := parseSpec(specYAML)
	if err != nil {
		return nil, err
	}

	rc := rcontext.FromContext(ctx)
	record := &models.Policy{
		Name:    name,
		Type:    kindType,
		Version: version,
		Spec:    properties,
		User:    rc.User,
		Project: rc.Project,
		Domain:  rc.Domain,
	}
	if err := s.policies.ValidateSpec(record); err != nil {
		return nil, err
	}
	return s.store.Policies().Create(ctx, record)
}

// PolicyGet returns one policy record.
func (s *Service) PolicyGet(ctx context.Context, id uuid.UUID) (*models.Policy, error) {
	return s.store.Policies().Get(ctx, id)
}

// PolicyList returns the policies visible to the caller.
func (s *Service) PolicyList(ctx context.Context) ([]models.Policy, error) {
	return s.store.Policies().List(ctx)
}

// PolicyUpdate renames the policy.  The spec cannot change.
func (s *Service) PolicyUpdate(ctx context.Context, id uuid.UUID, name *string) (*models.Policy, error) {
	record, err := s.store.Policies().Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if name != nil {
		record.Name = *name
	}
	return s.store.Policies().Update(ctx, record)
}

// PolicyDelete removes a policy not bound to any cluster.
func (s *Service) PolicyDelete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.store.Policies().Get(ctx, id); err != nil {
		return err
	}
	bindings, err := s.store.Bindings().ListForPolicy(ctx, id)
	if err != nil {
		return err
	}
	if len(bindings) > 0 {
		return typederrors.NewConflictError(nil,
			"policy '%s' is still attached to %d cluster(s)", id, len(bindings))
	}
	return s.store.Policies().Delete(ctx, id)
}
