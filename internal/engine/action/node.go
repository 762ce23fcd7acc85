/*
SPDX-FileCopyrightText: The Corral Authors

SPDX-License-Identifier: Apache-2.0
*/

package action

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	retrygo "github.com/avast/retry-go"
	"github.com/google/uuid"

	"github.com/corral-cloud/corral/internal/engine/lock"
	"github.com/corral-cloud/corral/internal/engine/profile"
	"github.com/corral-cloud/corral/internal/models"
	"github.com/corral-cloud/corral/internal/storage"
	"github.com/corral-cloud/corral/internal/typederrors"
)

// Driver call retry policy: transient failures get three linearly spaced
// attempts before the action fails.
const (
	driverAttempts   = 3
	driverRetryDelay = 2 * time.Second
)

// NodeRuntime executes the atomic node operations against the
// infrastructure, one action at a time.
type NodeRuntime struct {
	store    storage.Store
	locks    *lock.Manager
	profiles *profile.Registry
	services profile.Services
	logger   *slog.Logger
}

// NewNodeRuntime builds the node action runtime.
func NewNodeRuntime(store storage.Store, locks *lock.Manager, profiles *profile.Registry,
	services profile.Services, logger *slog.Logger) *NodeRuntime {
	return &NodeRuntime{store: store, locks: locks, profiles: profiles, services: services, logger: logger}
}

// Execute runs a claimed node action to completion and returns its result.
// The per-node lock is held for the duration; derived actions may steal it
// from a stale owner.
func (r *NodeRuntime) Execute(ctx context.Context, action *models.Action) Result {
	node, err := r.store.Nodes().Get(ctx, action.TargetID)
	if err != nil {
		if typederrors.IsNotFoundError(err) {
			return fail(fmt.Sprintf("Node '%s' not found", action.TargetID))
		}
		return retry(err.Error())
	}

	forced := action.Cause == models.CauseDerived
	if err := r.locks.AcquireNode(ctx, *node.ID, *action.ID, forced); err != nil {
		// Busy and unavailable both requeue; the attempt budget bounds them.
		return retry(err.Error())
	}
	defer func() {
		if err := r.locks.ReleaseNode(ctx, *node.ID, *action.ID); err != nil {
			r.logger.WarnContext(ctx, "Failed to release node lock",
				slog.String("node", node.ID.String()), slog.String("error", err.Error()))
		}
	}()

	if result, stop := signalled(ctx, r.store, action); stop {
		return result
	}

	switch action.Action {
	case models.NodeActionCreate:
		return r.doCreate(ctx, action, node)
	case models.NodeActionDelete:
		return r.doDelete(ctx, action, node)
	case models.NodeActionUpdate:
		return r.doUpdate(ctx, action, node)
	case models.NodeActionJoin:
		return r.doJoin(ctx, action, node)
	case models.NodeActionLeave:
		return r.doLeave(ctx, action, node)
	default:
		return fail(fmt.Sprintf("Unsupported node action '%s'", action.Action))
	}
}

func (r *NodeRuntime) kindFor(ctx context.Context, profileID uuid.UUID) (profile.Kind, *models.Profile, error) {
	record, err := r.store.Profiles().Get(ctx, profileID)
	if err != nil {
		return nil, nil, err
	}
	kind, err := r.profiles.New(record, r.services)
	if err != nil {
		return nil, nil, err
	}
	return kind, record, nil
}

// callDriver wraps an infrastructure call with the transient retry policy.
func callDriver(ctx context.Context, operation func() error) error {
	return retrygo.Do(operation,
		retrygo.Context(ctx),
		retrygo.Attempts(driverAttempts),
		retrygo.Delay(driverRetryDelay),
		retrygo.DelayType(retrygo.FixedDelay),
		retrygo.LastErrorOnly(true),
		retrygo.RetryIf(func(err error) bool {
			return !typederrors.IsValidationError(err) &&
				!typederrors.IsNotFoundError(err) &&
				!typederrors.IsConflictError(err)
		}),
	)
}

func (r *NodeRuntime) setNodeStatus(ctx context.Context, node *models.Node, status, reason string) {
	node.Status = status
	node.StatusReason = reason
	if _, err := r.store.Nodes().Update(ctx, node); err != nil {
		r.logger.ErrorContext(ctx, "Failed to persist node status",
			slog.String("node", node.ID.String()), slog.String("status", status),
			slog.String("error", err.Error()))
	}
}

func (r *NodeRuntime) doCreate(ctx context.Context, action *models.Action, node *models.Node) Result {
	kind, _, err := r.kindFor(ctx, node.ProfileID)
	if err != nil {
		r.setNodeStatus(ctx, node, models.NodeStatusError, err.Error())
		return fail(err.Error())
	}

	r.setNodeStatus(ctx, node, models.NodeStatusCreating, "Creation in progress")

	var physicalID string
	err = callDriver(ctx, func() error {
		var createErr error
		physicalID, createErr = kind.DoCreate(ctx, node)
		return createErr
	})
	if err != nil {
		// Best-effort rollback of a half-provisioned resource.
		if physicalID != "" {
			node.PhysicalID = &physicalID
			if delErr := kind.DoDelete(ctx, node); delErr != nil {
				r.logger.WarnContext(ctx, "Rollback of failed node creation did not complete",
					slog.String("node", node.ID.String()), slog.String("error", delErr.Error()))
			}
			node.PhysicalID = nil
		}
		r.setNodeStatus(ctx, node, models.NodeStatusError, err.Error())
		return fail(fmt.Sprintf("Failed in creating node '%s': %s", node.ID, err))
	}

	node.PhysicalID = &physicalID
	r.setNodeStatus(ctx, node, models.NodeStatusActive, "Creation succeeded")
	return ok()
}

func (r *NodeRuntime) doDelete(ctx context.Context, action *models.Action, node *models.Node) Result {
	kind, _, err := r.kindFor(ctx, node.ProfileID)
	if err != nil {
		r.setNodeStatus(ctx, node, models.NodeStatusError, err.Error())
		return fail(err.Error())
	}

	r.setNodeStatus(ctx, node, models.NodeStatusDeleting, "Deletion in progress")

	if err := callDriver(ctx, func() error { return kind.DoDelete(ctx, node) }); err != nil {
		r.setNodeStatus(ctx, node, models.NodeStatusError, err.Error())
		return fail(fmt.Sprintf("Failed in deleting node '%s': %s", node.ID, err))
	}

	if err := r.store.Nodes().Delete(ctx, *node.ID); err != nil {
		return fail(fmt.Sprintf("Failed in removing record of node '%s': %s", node.ID, err))
	}
	return ok()
}

func (r *NodeRuntime) doUpdate(ctx context.Context, action *models.Action, node *models.Node) Result {
	if node.Status != models.NodeStatusActive {
		return fail(fmt.Sprintf("Node '%s' is not ACTIVE", node.ID))
	}
	newProfileRaw, ok2 := models.InputString(action.Inputs, "new_profile_id")
	if !ok2 {
		return fail("Missing new_profile_id input")
	}
	newProfileID, err := uuid.Parse(newProfileRaw)
	if err != nil {
		return fail(fmt.Sprintf("Invalid new_profile_id '%s'", newProfileRaw))
	}

	kind, _, err := r.kindFor(ctx, node.ProfileID)
	if err != nil {
		return fail(err.Error())
	}
	newProfile, err := r.store.Profiles().Get(ctx, newProfileID)
	if err != nil {
		return fail(err.Error())
	}

	r.setNodeStatus(ctx, node, models.NodeStatusUpdating, "Update in progress")

	if err := callDriver(ctx, func() error { return kind.DoUpdate(ctx, node, newProfile) }); err != nil {
		// The prior profile reference is retained on failure.
		r.setNodeStatus(ctx, node, models.NodeStatusError, err.Error())
		return fail(fmt.Sprintf("Failed in updating node '%s': %s", node.ID, err))
	}

	node.ProfileID = newProfileID
	r.setNodeStatus(ctx, node, models.NodeStatusActive, "Update succeeded")
	return ok()
}

func (r *NodeRuntime) doJoin(ctx context.Context, action *models.Action, node *models.Node) Result {
	if node.ClusterID != nil {
		return fail(fmt.Sprintf("Node '%s' is already owned by cluster '%s'", node.ID, node.ClusterID))
	}
	clusterRaw, ok2 := models.InputString(action.Inputs, "cluster_id")
	if !ok2 {
		return fail("Missing cluster_id input")
	}
	clusterID, err := uuid.Parse(clusterRaw)
	if err != nil {
		return fail(fmt.Sprintf("Invalid cluster_id '%s'", clusterRaw))
	}

	index, err := r.store.Clusters().NextIndex(ctx, clusterID)
	if err != nil {
		return fail(err.Error())
	}

	kind, _, err := r.kindFor(ctx, node.ProfileID)
	if err != nil {
		return fail(err.Error())
	}
	if err := callDriver(ctx, func() error { return kind.DoJoin(ctx, node, clusterID) }); err != nil {
		return fail(fmt.Sprintf("Failed in joining node '%s' to cluster '%s': %s", node.ID, clusterID, err))
	}

	node.ClusterID = &clusterID
	node.Index = index
	if _, err := r.store.Nodes().Update(ctx, node); err != nil {
		return fail(err.Error())
	}
	return ok()
}

func (r *NodeRuntime) doLeave(ctx context.Context, action *models.Action, node *models.Node) Result {
	if node.ClusterID == nil {
		return fail(fmt.Sprintf("Node '%s' is not owned by any cluster", node.ID))
	}

	kind, _, err := r.kindFor(ctx, node.ProfileID)
	if err != nil {
		return fail(err.Error())
	}
	if err := callDriver(ctx, func() error { return kind.DoLeave(ctx, node) }); err != nil {
		return fail(fmt.Sprintf("Failed in removing node '%s' from its cluster: %s", node.ID, err))
	}

	node.ClusterID = nil
	node.Index = models.OrphanNodeIndex
	if _, err := r.store.Nodes().Update(ctx, node); err != nil {
		return fail(err.Error())
	}
	return ok()
}

// signalled re-reads the action's cooperative signals: the cancel flag and
// the deadline.  Runtimes call it at every suspension point.
func signalled(ctx context.Context, store storage.Store, action *models.Action) (Result, bool) {
	current, err := store.Actions().Get(ctx, *action.ID)
	if err != nil {
		return retry(err.Error()), true
	}
	if current.Control != nil && *current.Control == models.ActionControlCancel {
		return Result{Code: ResultCancel, Reason: fmt.Sprintf("ACTION [%s] cancelled", action.ID)}, true
	}
	if timedOut(current) {
		return Result{Code: ResultTimeout, Reason: fmt.Sprintf("ACTION [%s] timeout", action.ID)}, true
	}
	return Result{}, false
}

func timedOut(action *models.Action) bool {
	if action.Timeout <= 0 || action.StartTime == nil {
		return false
	}
	deadline := action.StartTime.Add(time.Duration(action.Timeout) * time.Second)
	return time.Now().After(deadline)
}
