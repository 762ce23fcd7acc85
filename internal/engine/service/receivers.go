/*
SPDX-FileCopyrightText: The Corral Authors

SPDX-License-Identifier: Apache-2.0
*/

package service

import (
	"context"
	"fmt"
	"maps"

	"github.com/google/uuid"

	"github.com/corral-cloud/corral/internal/models"
	"github.com/corral-cloud/corral/internal/rcontext"
	"github.com/corral-cloud/corral/internal/typederrors"
)

// triggerableActions are the cluster operations a receiver may be bound to.
var triggerableActions = map[string]bool{
	models.ClusterActionScaleOut: true,
	models.ClusterActionScaleIn:  true,
	models.ClusterActionResize:   true,
	models.ClusterActionUpdate:   true,
}

// ReceiverCreate binds an external trigger to a cluster action.  The actor
// credential is resolved at creation time: an admin caller borrows the
// cluster owner's stored trust, anyone else donates their own.
func (s *Service) ReceiverCreate(ctx context.Context, name string, clusterID uuid.UUID,
	actionName string, params map[string]any) (*models.Receiver, error) {

	if name == "" {
		return nil, typederrors.NewValidationError(nil, "receiver name is required")
	}
	if !triggerableActions[actionName] {
		return nil, typederrors.NewValidationError(nil,
			"action '%s' cannot be triggered by a receiver", actionName)
	}
	cluster, err := s.store.Clusters().Get(ctx, clusterID)
	if err != nil {
		return nil, err
	}

	rc := rcontext.FromContext(ctx)
	actor := map[string]any{}
	if rc.IsAdmin {
		credential, err := s.store.Credentials().GetByOwner(ctx, cluster.User, cluster.Project)
		if err != nil {
			return nil, err
		}
		actor["trust_id"] = credential.TrustID()
	} else {
		if rc.TrustID == "" {
			return nil, typederrors.NewValidationError(nil,
				"caller carries no trust id to bind to the receiver")
		}
		actor["trust_id"] = rc.TrustID
	}

	receiver := &models.Receiver{
		Name:      name,
		Type:      models.ReceiverTypeWebhook,
		ClusterID: clusterID,
		Action:    actionName,
		Actor:     actor,
		Params:    params,
		Channel:   map[string]any{},
		User:      rc.User,
		Project:   rc.Project,
		Domain:    rc.Domain,
	}
	return s.store.Receivers().Create(ctx, receiver)
}

// ReceiverGet returns one receiver record.
func (s *Service) ReceiverGet(ctx context.Context, id uuid.UUID) (*models.Receiver, error) {
	return s.store.Receivers().Get(ctx, id)
}

// ReceiverList returns the receivers visible to the caller.
func (s *Service) ReceiverList(ctx context.Context) ([]models.Receiver, error) {
	return s.store.Receivers().List(ctx)
}

// ReceiverDelete removes a receiver.
func (s *Service) ReceiverDelete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.store.Receivers().Get(ctx, id); err != nil {
		return err
	}
	return s.store.Receivers().Delete(ctx, id)
}

// ReceiverNotify fires the receiver: the bound action is queued against
// its cluster under the receiver's identity, with the stored params
// overridden by the trigger's.
func (s *Service) ReceiverNotify(ctx context.Context, id uuid.UUID, params map[string]any) (uuid.UUID, error) {
	receiver, err := s.store.Receivers().Get(ctx, id)
	if err != nil {
		return uuid.Nil, err
	}
	cluster, err := s.store.Clusters().Get(ctx, receiver.ClusterID)
	if err != nil {
		return uuid.Nil, err
	}

	inputs := map[string]any{}
	maps.Copy(inputs, receiver.Params)
	maps.Copy(inputs, params)

	act := &models.Action{
		Name:         fmt.Sprintf("webhook_%s", shortID(*receiver.ID)),
		TargetID:     receiver.ClusterID,
		Action:       receiver.Action,
		Cause:        models.CauseRPC,
		Status:       models.ActionStatusInit,
		StatusReason: "Action initialized",
		Timeout:      cluster.Timeout,
		Inputs:       inputs,
		User:         receiver.User,
		Project:      receiver.Project,
		Domain:       receiver.Domain,
	}
	created, err := s.store.Actions().Create(ctx, act)
	if err != nil {
		return uuid.Nil, err
	}
	if err := s.store.Actions().MarkReady(ctx, *created.ID); err != nil {
		return uuid.Nil, err
	}
	s.notifier.NotifyReady(*created.ID)
	return *created.ID, nil
}
