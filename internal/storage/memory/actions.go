/*
SPDX-FileCopyrightText: The Corral Authors

SPDX-License-Identifier: Apache-2.0
*/

package memory

import (
	"context"
	"maps"
	"sort"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/corral-cloud/corral/internal/models"
	"github.com/corral-cloud/corral/internal/typederrors"
)

// ---------------------------------------------------------------------------
// actions

type actionStore Store

func (s *actionStore) Create(_ context.Context, action *models.Action) (*models.Action, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record := *action
	if record.ID == nil {
		record.ID = newID()
	}
	record.Inputs = maps.Clone(record.Inputs)
	record.Outputs = maps.Clone(record.Outputs)
	record.Data = maps.Clone(record.Data)
	record.CreatedAt = now()
	record.UpdatedAt = now()
	s.actions[*record.ID] = record
	return &record, nil
}

func (s *actionStore) Get(_ context.Context, id uuid.UUID) (*models.Action, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getLocked(id)
}

func (s *actionStore) getLocked(id uuid.UUID) (*models.Action, error) {
	record, ok := s.actions[id]
	if !ok {
		return nil, typederrors.NewNotFoundError(nil, "action '%s' not found", id)
	}
	return &record, nil
}

func (s *actionStore) List(_ context.Context) ([]models.Action, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	records := lo.Values(s.actions)
	sort.Slice(records, func(i, j int) bool { return records[i].CreatedAt.Before(*records[j].CreatedAt) })
	return records, nil
}

func (s *actionStore) ListByTarget(_ context.Context, targetID uuid.UUID) ([]models.Action, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	records := lo.Filter(lo.Values(s.actions), func(a models.Action, _ int) bool {
		return a.TargetID == targetID
	})
	sort.Slice(records, func(i, j int) bool { return records[i].CreatedAt.Before(*records[j].CreatedAt) })
	return records, nil
}

func (s *actionStore) Update(_ context.Context, action *models.Action) (*models.Action, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if action.ID == nil {
		return nil, typederrors.NewValidationError(nil, "action id is required for update")
	}
	current, ok := s.actions[*action.ID]
	if !ok {
		return nil, typederrors.NewNotFoundError(nil, "action '%s' not found", *action.ID)
	}
	if models.IsTerminalActionStatus(current.Status) && current.Status != action.Status {
		return nil, typederrors.NewValidationError(nil,
			"action '%s' is in terminal status %s", *action.ID, current.Status)
	}
	record := *action
	record.CreatedAt = current.CreatedAt
	record.UpdatedAt = now()
	record.Inputs = maps.Clone(record.Inputs)
	record.Outputs = maps.Clone(record.Outputs)
	record.Data = maps.Clone(record.Data)
	s.actions[*record.ID] = record
	return &record, nil
}

func (s *actionStore) UpdateStatus(_ context.Context, id uuid.UUID, status, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updateStatusLocked(id, status, reason)
}

func (s *actionStore) updateStatusLocked(id uuid.UUID, status, reason string) error {
	record, ok := s.actions[id]
	if !ok {
		return typederrors.NewNotFoundError(nil, "action '%s' not found", id)
	}
	if record.Status == status {
		return nil
	}
	if !models.ValidActionTransition(record.Status, status) {
		return typederrors.NewValidationError(nil,
			"invalid action status transition %s -> %s for '%s'", record.Status, status, id)
	}
	record.Status = status
	record.StatusReason = reason
	record.UpdatedAt = now()
	if models.IsTerminalActionStatus(status) {
		record.EndTime = now()
	}
	s.actions[id] = record
	return nil
}

func (s *actionStore) MarkReady(ctx context.Context, id uuid.UUID) error {
	return s.UpdateStatus(ctx, id, models.ActionStatusReady, "")
}

func (s *actionStore) GetReady(_ context.Context) ([]models.Action, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	records := lo.Filter(lo.Values(s.actions), func(a models.Action, _ int) bool {
		return a.Status == models.ActionStatusReady
	})
	sort.Slice(records, func(i, j int) bool { return records[i].CreatedAt.Before(*records[j].CreatedAt) })
	return records, nil
}

func (s *actionStore) AcquireForRun(_ context.Context, id, workerID uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.actions[id]
	if !ok || record.Status != models.ActionStatusReady {
		return false, nil
	}
	record.Status = models.ActionStatusRunning
	record.Owner = &workerID
	if record.StartTime == nil {
		record.StartTime = now()
	}
	record.UpdatedAt = now()
	s.actions[id] = record
	return true, nil
}

func (s *actionStore) AddDependency(_ context.Context, childID, parentID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if childID == parentID {
		return typederrors.NewValidationError(nil, "action '%s' cannot depend on itself", childID)
	}
	s.dependencies = append(s.dependencies, models.ActionDependency{
		ID: newID(), ChildID: childID, ParentID: parentID,
	})

	if _, err := s.getLocked(childID); err != nil {
		return err
	}

	// The child stays INIT; the spawner readies the whole batch once every
	// edge is recorded, so a half-wired parent can never wake early.
	parent, err := s.getLocked(parentID)
	if err != nil {
		return err
	}
	if parent.Status != models.ActionStatusWaiting && !models.IsTerminalActionStatus(parent.Status) {
		if err := s.updateStatusLocked(parentID, models.ActionStatusWaiting, "Waiting for depended actions"); err != nil {
			return err
		}
	}
	return nil
}

func (s *actionStore) ListDependencies(_ context.Context, parentID uuid.UUID) ([]uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []uuid.UUID
	for _, edge := range s.dependencies {
		if edge.ParentID == parentID {
			ids = append(ids, edge.ChildID)
		}
	}
	return ids, nil
}

func (s *actionStore) ListDependents(_ context.Context, childID uuid.UUID) ([]uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []uuid.UUID
	for _, edge := range s.dependencies {
		if edge.ChildID == childID {
			ids = append(ids, edge.ParentID)
		}
	}
	return ids, nil
}

func (s *actionStore) SetControl(_ context.Context, id uuid.UUID, control string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.actions[id]
	if !ok {
		return typederrors.NewNotFoundError(nil, "action '%s' not found", id)
	}
	record.Control = &control
	record.UpdatedAt = now()
	s.actions[id] = record
	return nil
}

// ---------------------------------------------------------------------------
// locks

type lockStore Store

func (s *lockStore) ClusterLockAcquire(_ context.Context, clusterID, actionID uuid.UUID) (uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if owner, held := s.clusterLocks[clusterID]; held {
		return owner, nil
	}
	s.clusterLocks[clusterID] = actionID
	return actionID, nil
}

func (s *lockStore) ClusterLockRelease(_ context.Context, clusterID, actionID uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if owner, held := s.clusterLocks[clusterID]; !held || owner != actionID {
		return false, nil
	}
	delete(s.clusterLocks, clusterID)
	return true, nil
}

func (s *lockStore) ClusterLockSteal(_ context.Context, clusterID, actionID uuid.UUID) (uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clusterLocks[clusterID] = actionID
	return actionID, nil
}

func (s *lockStore) ClusterLockGet(_ context.Context, clusterID uuid.UUID) (*models.ClusterLock, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	owner, held := s.clusterLocks[clusterID]
	if !held {
		return nil, nil
	}
	id := clusterID
	return &models.ClusterLock{ClusterID: &id, ActionID: owner}, nil
}

func (s *lockStore) NodeLockAcquire(_ context.Context, nodeID, actionID uuid.UUID) ([]uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	owners := s.nodeLocks[nodeID]
	if !lo.Contains(owners, actionID) {
		owners = append(owners, actionID)
		s.nodeLocks[nodeID] = owners
	}
	return append([]uuid.UUID(nil), owners...), nil
}

func (s *lockStore) NodeLockRelease(_ context.Context, nodeID, actionID uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	owners := s.nodeLocks[nodeID]
	if !lo.Contains(owners, actionID) {
		return false, nil
	}
	owners = lo.Without(owners, actionID)
	if len(owners) == 0 {
		delete(s.nodeLocks, nodeID)
	} else {
		s.nodeLocks[nodeID] = owners
	}
	return true, nil
}

func (s *lockStore) NodeLockSteal(_ context.Context, nodeID, actionID uuid.UUID) ([]uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nodeLocks[nodeID] = []uuid.UUID{actionID}
	return []uuid.UUID{actionID}, nil
}

func (s *lockStore) NodeLockGet(_ context.Context, nodeID uuid.UUID) (*models.NodeLock, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	owners, held := s.nodeLocks[nodeID]
	if !held {
		return nil, nil
	}
	id := nodeID
	return &models.NodeLock{NodeID: &id, ActionIDs: append([]uuid.UUID(nil), owners...)}, nil
}
