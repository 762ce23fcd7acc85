/*
SPDX-FileCopyrightText: The Corral Authors

SPDX-License-Identifier: Apache-2.0
*/

package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/corral-cloud/corral/internal/models"
	"github.com/corral-cloud/corral/internal/rcontext"
	"github.com/corral-cloud/corral/internal/typederrors"
)

// NodeCreateRequest carries the arguments of a standalone or member node
// creation.  A nil ClusterID creates an orphan node.
type NodeCreateRequest struct {
	Name      string
	ProfileID uuid.UUID
	ClusterID *uuid.UUID
	Metadata  map[string]any
}

// NodeCreate persists the INIT node and queues its provisioning.
func (s *Service) NodeCreate(ctx context.Context, request NodeCreateRequest) (*models.Node, uuid.UUID, error) {
	if request.Name == "" {
		return nil, uuid.Nil, typederrors.NewValidationError(nil, "node name is required")
	}
	nodeProfile, err := s.store.Profiles().Get(ctx, request.ProfileID)
	if err != nil {
		return nil, uuid.Nil, err
	}

	index := models.OrphanNodeIndex
	if request.ClusterID != nil {
		cluster, err := s.store.Clusters().Get(ctx, *request.ClusterID)
		if err != nil {
			return nil, uuid.Nil, err
		}
		clusterProfile, err := s.store.Profiles().Get(ctx, cluster.ProfileID)
		if err != nil {
			return nil, uuid.Nil, err
		}
		if nodeProfile.Type != clusterProfile.Type {
			return nil, uuid.Nil, typederrors.NewValidationError(nil,
				"node profile type '%s' does not match cluster profile type '%s'",
				nodeProfile.Type, clusterProfile.Type)
		}
		if index, err = s.store.Clusters().NextIndex(ctx, *request.ClusterID); err != nil {
			return nil, uuid.Nil, err
		}
	}

	rc := rcontext.FromContext(ctx)
	node := &models.Node{
		Name:         request.Name,
		ProfileID:    request.ProfileID,
		ClusterID:    request.ClusterID,
		Index:        index,
		Status:       models.NodeStatusInit,
		StatusReason: "Initializing",
		Metadata:     request.Metadata,
		User:         rc.User,
		Project:      rc.Project,
		Domain:       rc.Domain,
	}
	created, err := s.store.Nodes().Create(ctx, node)
	if err != nil {
		return nil, uuid.Nil, err
	}

	actionID, err := s.submitAction(ctx, *created.ID, models.NodeActionCreate,
		fmt.Sprintf("node_create_%s", shortID(*created.ID)), models.DefaultActionTimeout, nil)
	if err != nil {
		return nil, uuid.Nil, err
	}
	return created, actionID, nil
}

// NodeGet returns one node record, optionally enriched with live details
// read from the physical resource.
func (s *Service) NodeGet(ctx context.Context, id uuid.UUID, withDetails bool) (*models.Node, error) {
	node, err := s.store.Nodes().Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !withDetails || node.PhysicalID == nil {
		return node, nil
	}

	record, err := s.store.Profiles().Get(ctx, node.ProfileID)
	if err != nil {
		return nil, err
	}
	kind, err := s.profiles.New(record, s.profSvcs)
	if err != nil {
		return nil, err
	}
	details, err := kind.DoGetDetails(ctx, node)
	if err != nil {
		return nil, err
	}
	if node.Data == nil {
		node.Data = map[string]any{}
	}
	node.Data["details"] = details
	return node, nil
}

// NodeList returns the nodes visible to the caller.
func (s *Service) NodeList(ctx context.Context) ([]models.Node, error) {
	return s.store.Nodes().List(ctx)
}

// NodeUpdate renames or re-tags the node synchronously; a profile change
// is queued as a NODE_UPDATE action and its id returned.
func (s *Service) NodeUpdate(ctx context.Context, id uuid.UUID, name *string,
	metadata map[string]any, newProfileID *uuid.UUID) (*models.Node, uuid.UUID, error) {

	node, err := s.store.Nodes().Get(ctx, id)
	if err != nil {
		return nil, uuid.Nil, err
	}

	if name != nil || metadata != nil {
		if name != nil {
			node.Name = *name
		}
		if metadata != nil {
			node.Metadata = metadata
		}
		if node, err = s.store.Nodes().Update(ctx, node); err != nil {
			return nil, uuid.Nil, err
		}
	}

	if newProfileID == nil || *newProfileID == node.ProfileID {
		return node, uuid.Nil, nil
	}

	newProfile, err := s.store.Profiles().Get(ctx, *newProfileID)
	if err != nil {
		return nil, uuid.Nil, err
	}
	current, err := s.store.Profiles().Get(ctx, node.ProfileID)
	if err != nil {
		return nil, uuid.Nil, err
	}
	if newProfile.Type != current.Type {
		return nil, uuid.Nil, typederrors.NewValidationError(nil,
			"new profile type '%s' does not match current type '%s'", newProfile.Type, current.Type)
	}

	actionID, err := s.submitAction(ctx, id, models.NodeActionUpdate,
		fmt.Sprintf("node_update_%s", shortID(id)), models.DefaultActionTimeout,
		map[string]any{"new_profile_id": newProfileID.String()})
	if err != nil {
		return nil, uuid.Nil, err
	}
	return node, actionID, nil
}

// NodeDelete queues node destruction.
func (s *Service) NodeDelete(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	if _, err := s.store.Nodes().Get(ctx, id); err != nil {
		return uuid.Nil, err
	}
	return s.submitAction(ctx, id, models.NodeActionDelete,
		fmt.Sprintf("node_delete_%s", shortID(id)), models.DefaultActionTimeout, nil)
}

// NodeJoin queues the adoption of an orphan node into a cluster.
func (s *Service) NodeJoin(ctx context.Context, id, clusterID uuid.UUID) (uuid.UUID, error) {
	node, err := s.store.Nodes().Get(ctx, id)
	if err != nil {
		return uuid.Nil, err
	}
	if node.ClusterID != nil {
		return uuid.Nil, typederrors.NewValidationError(nil,
			"node '%s' is already owned by cluster '%s'", id, node.ClusterID)
	}
	if node.Status != models.NodeStatusActive {
		return uuid.Nil, typederrors.NewValidationError(nil, "node '%s' is not in ACTIVE status", id)
	}

	cluster, err := s.store.Clusters().Get(ctx, clusterID)
	if err != nil {
		return uuid.Nil, err
	}
	nodeProfile, err := s.store.Profiles().Get(ctx, node.ProfileID)
	if err != nil {
		return uuid.Nil, err
	}
	clusterProfile, err := s.store.Profiles().Get(ctx, cluster.ProfileID)
	if err != nil {
		return uuid.Nil, err
	}
	if nodeProfile.Type != clusterProfile.Type {
		return uuid.Nil, typederrors.NewValidationError(nil,
			"node profile type '%s' does not match cluster profile type '%s'",
			nodeProfile.Type, clusterProfile.Type)
	}

	return s.submitAction(ctx, id, models.NodeActionJoin,
		fmt.Sprintf("node_join_%s", shortID(id)), models.DefaultActionTimeout,
		map[string]any{"cluster_id": clusterID.String()})
}

// NodeLeave queues the departure of a member node from its cluster.  The
// node survives as an orphan.
func (s *Service) NodeLeave(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	node, err := s.store.Nodes().Get(ctx, id)
	if err != nil {
		return uuid.Nil, err
	}
	if node.ClusterID == nil {
		return uuid.Nil, typederrors.NewValidationError(nil, "node '%s' is not owned by any cluster", id)
	}
	if node.Status != models.NodeStatusActive {
		return uuid.Nil, typederrors.NewValidationError(nil, "node '%s' is not in ACTIVE status", id)
	}

	return s.submitAction(ctx, id, models.NodeActionLeave,
		fmt.Sprintf("node_leave_%s", shortID(id)), models.DefaultActionTimeout, nil)
}

// NodeCheck reads the health of the physical resource backing the node
// and reconciles the stored status with it.
func (s *Service) NodeCheck(ctx context.Context, id uuid.UUID) (bool, error) {
	node, err := s.store.Nodes().Get(ctx, id)
	if err != nil {
		return false, err
	}
	record, err := s.store.Profiles().Get(ctx, node.ProfileID)
	if err != nil {
		return false, err
	}
	kind, err := s.profiles.New(record, s.profSvcs)
	if err != nil {
		return false, err
	}
	healthy, err := kind.DoCheck(ctx, node)
	if err != nil {
		return false, err
	}

	if !healthy && node.Status == models.NodeStatusActive {
		node.Status = models.NodeStatusError
		node.StatusReason = "Health check failed"
		if _, err := s.store.Nodes().Update(ctx, node); err != nil {
			return healthy, err
		}
	}
	return healthy, nil
}
