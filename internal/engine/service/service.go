/*
SPDX-FileCopyrightText: The Corral Authors

SPDX-License-Identifier: Apache-2.0
*/

// Package service is the intent surface of the engine.  Mutating cluster
// and node operations validate their arguments, persist an action and
// return its id; callers observe progress through the action and event
// records.
package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/corral-cloud/corral/internal/engine/policy"
	"github.com/corral-cloud/corral/internal/engine/profile"
	"github.com/corral-cloud/corral/internal/models"
	"github.com/corral-cloud/corral/internal/rcontext"
	"github.com/corral-cloud/corral/internal/storage"
	"github.com/corral-cloud/corral/internal/typederrors"
)

// Notifier wakes the scheduler when the service queues or cancels work.
type Notifier interface {
	NotifyReady(actionID uuid.UUID)
	NotifyCancel(actionID uuid.UUID)
}

// Service implements the engine's intent operations.
type Service struct {
	store    storage.Store
	policies *policy.Engine
	profiles *profile.Registry
	profSvcs profile.Services
	notifier Notifier
	logger   *slog.Logger
}

// New builds the service.
func New(store storage.Store, policies *policy.Engine, profiles *profile.Registry,
	profSvcs profile.Services, notifier Notifier, logger *slog.Logger) *Service {
	return &Service{store: store, policies: policies, profiles: profiles,
		profSvcs: profSvcs, notifier: notifier, logger: logger}
}

// submitAction persists an RPC-caused action, queues it and returns its id.
func (s *Service) submitAction(ctx context.Context, targetID uuid.UUID, operation, name string,
	timeout int, inputs map[string]any) (uuid.UUID, error) {

	rc := rcontext.FromContext(ctx)
	act := &models.Action{
		Name:         name,
		TargetID:     targetID,
		Action:       operation,
		Cause:        models.CauseRPC,
		Status:       models.ActionStatusInit,
		StatusReason: "Action initialized",
		Timeout:      timeout,
		Inputs:       inputs,
		User:         rc.User,
		Project:      rc.Project,
		Domain:       rc.Domain,
	}
	created, err := s.store.Actions().Create(ctx, act)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to create action '%s': %w", operation, err)
	}
	if err := s.store.Actions().MarkReady(ctx, *created.ID); err != nil {
		return uuid.Nil, err
	}
	s.notifier.NotifyReady(*created.ID)

	s.logger.InfoContext(ctx, "Action queued",
		slog.String("action", created.ID.String()),
		slog.String("operation", operation),
		slog.String("target", targetID.String()))
	return *created.ID, nil
}

// ActionGet returns one action record.
func (s *Service) ActionGet(ctx context.Context, id uuid.UUID) (*models.Action, error) {
	return s.store.Actions().Get(ctx, id)
}

// ActionList returns all action records visible to the caller.
func (s *Service) ActionList(ctx context.Context) ([]models.Action, error) {
	return s.store.Actions().List(ctx)
}

// ActionCancel requests cooperative cancellation.  Cancelling an already
// terminal action is a no-op.
func (s *Service) ActionCancel(ctx context.Context, id uuid.UUID) error {
	act, err := s.store.Actions().Get(ctx, id)
	if err != nil {
		return err
	}
	if models.IsTerminalActionStatus(act.Status) {
		return nil
	}
	if err := s.store.Actions().SetControl(ctx, id, models.ActionControlCancel); err != nil {
		return err
	}
	s.notifier.NotifyCancel(id)
	return nil
}

// EventList returns the chronological log for one object.
func (s *Service) EventList(ctx context.Context, objectID uuid.UUID) ([]models.Event, error) {
	return s.store.Events().ListByObject(ctx, objectID)
}

// parseSpec decodes a YAML spec document into its type, version and
// properties sections.
func parseSpec(raw []byte) (string, string, map[string]any, error) {
	var doc struct {
		Type       string         `yaml:"type"`
		Version    string         `yaml:"version"`
		Properties map[string]any `yaml:"properties"`
	}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return "", "", nil, typederrors.NewValidationError(err, "malformed spec document")
	}
	if doc.Type == "" || doc.Version == "" {
		return "", "", nil, typederrors.NewValidationError(nil,
			"spec document requires 'type' and 'version'")
	}
	if doc.Properties == nil {
		doc.Properties = map[string]any{}
	}
	return doc.Type, doc.Version, doc.Properties, nil
}
