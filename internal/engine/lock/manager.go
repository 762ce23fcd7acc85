/*
SPDX-FileCopyrightText: The Corral Authors

SPDX-License-Identifier: Apache-2.0
*/

// Package lock arbitrates cluster and node ownership between actions.
// Locks are advisory and persisted, so a restart does not lose ownership;
// the busy/steal/orphan policy implemented here is what makes the stored
// rows meaningful.
package lock

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/corral-cloud/corral/internal/models"
	"github.com/corral-cloud/corral/internal/storage"
	"github.com/corral-cloud/corral/internal/typederrors"
)

// CancelNotifier wakes the worker running a stolen action.  The scheduler
// dispatcher implements it.
type CancelNotifier interface {
	NotifyCancel(actionID uuid.UUID)
}

// Manager implements the locking rules on top of the lock store.
type Manager struct {
	store    storage.Store
	notifier CancelNotifier
	logger   *slog.Logger
}

// NewManager builds a lock manager.  The notifier may be nil when forced
// acquisition is never used (tests, offline tools).
func NewManager(store storage.Store, notifier CancelNotifier, logger *slog.Logger) *Manager {
	return &Manager{store: store, notifier: notifier, logger: logger}
}

// SetNotifier installs the cancel notifier after construction.  The
// scheduler and the lock manager reference each other, so one side is
// wired late.
func (m *Manager) SetNotifier(notifier CancelNotifier) {
	m.notifier = notifier
}

// AcquireCluster takes the exclusive cluster lock for the requesting
// action.  A busy lock is surfaced as a LockBusyError unless forced, in
// which case the current owner is stolen and notified through its cancel
// channel.  A lock whose owner has already reached a terminal status is
// reclaimed without force.
func (m *Manager) AcquireCluster(ctx context.Context, clusterID, requester uuid.UUID, forced bool) error {
	owner, err := m.store.Locks().ClusterLockAcquire(ctx, clusterID, requester)
	if err != nil {
		return typederrors.NewRetriableError(err, "lock store unavailable for cluster '%s'", clusterID)
	}
	if owner == requester {
		return nil
	}

	terminal, err := m.ownerTerminal(ctx, owner)
	if err != nil {
		return typederrors.NewRetriableError(err, "lock store unavailable for cluster '%s'", clusterID)
	}
	if terminal {
		m.logger.InfoContext(ctx, "Reclaiming orphaned cluster lock",
			slog.String("cluster", clusterID.String()), slog.String("stale_owner", owner.String()))
		return m.stealCluster(ctx, clusterID, requester)
	}

	if !forced {
		return typederrors.NewLockBusyError(nil, "cluster '%s' is locked by action '%s'", clusterID, owner)
	}

	m.logger.WarnContext(ctx, "Forcibly stealing cluster lock",
		slog.String("cluster", clusterID.String()), slog.String("owner", owner.String()))
	if err := m.store.Actions().SetControl(ctx, owner, models.ActionControlCancel); err != nil {
		return typederrors.NewRetriableError(err, "failed to signal owner of cluster '%s'", clusterID)
	}
	if m.notifier != nil {
		m.notifier.NotifyCancel(owner)
	}
	return m.stealCluster(ctx, clusterID, requester)
}

func (m *Manager) stealCluster(ctx context.Context, clusterID, requester uuid.UUID) error {
	owner, err := m.store.Locks().ClusterLockSteal(ctx, clusterID, requester)
	if err != nil {
		return typederrors.NewRetriableError(err, "lock store unavailable for cluster '%s'", clusterID)
	}
	if owner != requester {
		return typederrors.NewLockBusyError(nil, "cluster '%s' is locked by action '%s'", clusterID, owner)
	}
	return nil
}

// ReleaseCluster drops the cluster lock when held by the requester.
func (m *Manager) ReleaseCluster(ctx context.Context, clusterID, requester uuid.UUID) error {
	released, err := m.store.Locks().ClusterLockRelease(ctx, clusterID, requester)
	if err != nil {
		return typederrors.NewRetriableError(err, "lock store unavailable for cluster '%s'", clusterID)
	}
	if !released {
		m.logger.DebugContext(ctx, "Cluster lock was not held by releasing action",
			slog.String("cluster", clusterID.String()), slog.String("action", requester.String()))
	}
	return nil
}

// IsClusterHeld reports whether any live action holds the cluster lock.
func (m *Manager) IsClusterHeld(ctx context.Context, clusterID uuid.UUID) (bool, error) {
	record, err := m.store.Locks().ClusterLockGet(ctx, clusterID)
	if err != nil {
		return false, typederrors.NewRetriableError(err, "lock store unavailable for cluster '%s'", clusterID)
	}
	if record == nil {
		return false, nil
	}
	terminal, err := m.ownerTerminal(ctx, record.ActionID)
	if err != nil {
		return false, typederrors.NewRetriableError(err, "lock store unavailable for cluster '%s'", clusterID)
	}
	return !terminal, nil
}

// AcquireNode adds the requester to the node's owner set.  Node locks are
// shared between live actions; only a stale exclusive steal is contested.
func (m *Manager) AcquireNode(ctx context.Context, nodeID, requester uuid.UUID, forced bool) error {
	owners, err := m.store.Locks().NodeLockAcquire(ctx, nodeID, requester)
	if err != nil {
		return typederrors.NewRetriableError(err, "lock store unavailable for node '%s'", nodeID)
	}
	if lo.Contains(owners, requester) {
		return nil
	}
	if !forced {
		return typederrors.NewLockBusyError(nil, "node '%s' is locked by other actions", nodeID)
	}
	for _, owner := range owners {
		if err := m.store.Actions().SetControl(ctx, owner, models.ActionControlCancel); err != nil {
			return typederrors.NewRetriableError(err, "failed to signal owner of node '%s'", nodeID)
		}
		if m.notifier != nil {
			m.notifier.NotifyCancel(owner)
		}
	}
	if _, err := m.store.Locks().NodeLockSteal(ctx, nodeID, requester); err != nil {
		return typederrors.NewRetriableError(err, "lock store unavailable for node '%s'", nodeID)
	}
	return nil
}

// ReleaseNode removes the requester from the node's owner set.
func (m *Manager) ReleaseNode(ctx context.Context, nodeID, requester uuid.UUID) error {
	if _, err := m.store.Locks().NodeLockRelease(ctx, nodeID, requester); err != nil {
		return typederrors.NewRetriableError(err, "lock store unavailable for node '%s'", nodeID)
	}
	return nil
}

// IsNodeHeld reports whether any live action holds the node lock.
func (m *Manager) IsNodeHeld(ctx context.Context, nodeID uuid.UUID) (bool, error) {
	record, err := m.store.Locks().NodeLockGet(ctx, nodeID)
	if err != nil {
		return false, typederrors.NewRetriableError(err, "lock store unavailable for node '%s'", nodeID)
	}
	if record == nil {
		return false, nil
	}
	for _, owner := range record.ActionIDs {
		terminal, err := m.ownerTerminal(ctx, owner)
		if err != nil {
			return false, typederrors.NewRetriableError(err, "lock store unavailable for node '%s'", nodeID)
		}
		if !terminal {
			return true, nil
		}
	}
	return false, nil
}

func (m *Manager) ownerTerminal(ctx context.Context, actionID uuid.UUID) (bool, error) {
	action, err := m.store.Actions().Get(ctx, actionID)
	if typederrors.IsNotFoundError(err) {
		// Owner record is gone; the lock is stale by definition.
		return true, nil
	}
	if err != nil {
		return false, err
	}
	return models.IsTerminalActionStatus(action.Status), nil
}
