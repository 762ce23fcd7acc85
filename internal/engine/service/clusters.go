/*
SPDX-FileCopyrightText: The Corral Authors

SPDX-License-Identifier: Apache-2.0
*/

package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/corral-cloud/corral/internal/engine/scaleutils"
	"github.com/corral-cloud/corral/internal/models"
	"github.com/corral-cloud/corral/internal/rcontext"
	"github.com/corral-cloud/corral/internal/typederrors"
)

// UnboundedMaxSize marks a cluster without an upper capacity bound.
const UnboundedMaxSize = -1

// ClusterCreateRequest carries the arguments of a cluster creation.
// Unset bounds default to zero min size and an unbounded max size.
type ClusterCreateRequest struct {
	Name            string
	ProfileID       uuid.UUID
	DesiredCapacity int
	MinSize         *int
	MaxSize         *int
	Timeout         *int
	Metadata        map[string]any
}

// ClusterResizeRequest carries the arguments of a resize intent.  Nil
// fields are not part of the request.
type ClusterResizeRequest struct {
	AdjustmentType string
	Number         *int
	MinSize        *int
	MaxSize        *int
	MinStep        *int
	Strict         bool
}

// ClusterCreate validates the size invariants, persists the INIT cluster
// and queues its creation.
func (s *Service) ClusterCreate(ctx context.Context, request ClusterCreateRequest) (*models.Cluster, uuid.UUID, error) {
	if request.Name == "" {
		return nil, uuid.Nil, typederrors.NewValidationError(nil, "cluster name is required")
	}
	if _, err := s.store.Profiles().Get(ctx, request.ProfileID); err != nil {
		return nil, uuid.Nil, err
	}

	rc := rcontext.FromContext(ctx)
	cluster := &models.Cluster{
		Name:            request.Name,
		ProfileID:       request.ProfileID,
		DesiredCapacity: request.DesiredCapacity,
		MinSize:         0,
		MaxSize:         UnboundedMaxSize,
		Timeout:         models.DefaultActionTimeout,
		Metadata:        request.Metadata,
		Status:          models.ClusterStatusInit,
		StatusReason:    "Initializing",
		User:            rc.User,
		Project:         rc.Project,
		Domain:          rc.Domain,
	}
	if request.MinSize != nil {
		cluster.MinSize = *request.MinSize
	}
	if request.MaxSize != nil {
		cluster.MaxSize = *request.MaxSize
	}
	if request.Timeout != nil {
		cluster.Timeout = *request.Timeout
	}
	if reason := scaleutils.CheckSizeParams(cluster, &cluster.DesiredCapacity,
		&cluster.MinSize, &cluster.MaxSize, true); reason != "" {
		return nil, uuid.Nil, typederrors.NewValidationError(nil, "%s", reason)
	}

	created, err := s.store.Clusters().Create(ctx, cluster)
	if err != nil {
		return nil, uuid.Nil, err
	}

	actionID, err := s.submitAction(ctx, *created.ID, models.ClusterActionCreate,
		fmt.Sprintf("cluster_create_%s", shortID(*created.ID)), created.Timeout, nil)
	if err != nil {
		return nil, uuid.Nil, err
	}
	return created, actionID, nil
}

// ClusterGet returns one cluster record.
func (s *Service) ClusterGet(ctx context.Context, id uuid.UUID) (*models.Cluster, error) {
	return s.store.Clusters().Get(ctx, id)
}

// ClusterList returns the clusters visible to the caller.
func (s *Service) ClusterList(ctx context.Context) ([]models.Cluster, error) {
	return s.store.Clusters().List(ctx)
}

// ClusterUpdate renames or re-tags the cluster synchronously; a profile
// change is queued as a CLUSTER_UPDATE action and its id returned.
func (s *Service) ClusterUpdate(ctx context.Context, id uuid.UUID, name *string,
	metadata map[string]any, newProfileID *uuid.UUID) (*models.Cluster, uuid.UUID, error) {

	cluster, err := s.store.Clusters().Get(ctx, id)
	if err != nil {
		return nil, uuid.Nil, err
	}

	if name != nil || metadata != nil {
		if name != nil {
			cluster.Name = *name
		}
		if metadata != nil {
			cluster.Metadata = metadata
		}
		if cluster, err = s.store.Clusters().Update(ctx, cluster); err != nil {
			return nil, uuid.Nil, err
		}
	}

	if newProfileID == nil || *newProfileID == cluster.ProfileID {
		return cluster, uuid.Nil, nil
	}

	newProfile, err := s.store.Profiles().Get(ctx, *newProfileID)
	if err != nil {
		return nil, uuid.Nil, err
	}
	current, err := s.store.Profiles().Get(ctx, cluster.ProfileID)
	if err != nil {
		return nil, uuid.Nil, err
	}
	if newProfile.Type != current.Type {
		return nil, uuid.Nil, typederrors.NewValidationError(nil,
			"new profile type '%s' does not match current type '%s'", newProfile.Type, current.Type)
	}

	actionID, err := s.submitAction(ctx, id, models.ClusterActionUpdate,
		fmt.Sprintf("cluster_update_%s", shortID(id)), cluster.Timeout,
		map[string]any{"new_profile_id": newProfileID.String()})
	if err != nil {
		return nil, uuid.Nil, err
	}
	return cluster, actionID, nil
}

// ClusterDelete queues cluster destruction.  A cluster still carrying
// policy bindings or receivers is busy and cannot be deleted.
func (s *Service) ClusterDelete(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	cluster, err := s.store.Clusters().Get(ctx, id)
	if err != nil {
		return uuid.Nil, err
	}

	bindings, err := s.store.Bindings().ListForCluster(ctx, id)
	if err != nil {
		return uuid.Nil, err
	}
	if len(bindings) > 0 {
		return uuid.Nil, typederrors.NewConflictError(nil,
			"cluster '%s' still has policies attached", id)
	}
	receivers, err := s.store.Receivers().List(ctx)
	if err != nil {
		return uuid.Nil, err
	}
	if lo.SomeBy(receivers, func(r models.Receiver) bool { return r.ClusterID == id }) {
		return uuid.Nil, typederrors.NewConflictError(nil,
			"cluster '%s' still has receivers attached", id)
	}

	return s.submitAction(ctx, id, models.ClusterActionDelete,
		fmt.Sprintf("cluster_delete_%s", shortID(id)), cluster.Timeout, nil)
}

// ClusterAddNodes queues the adoption of orphan nodes into the cluster.
// The whole batch is validated up front; one bad node rejects the intent.
func (s *Service) ClusterAddNodes(ctx context.Context, id uuid.UUID, nodeIDs []uuid.UUID) (uuid.UUID, error) {
	cluster, err := s.store.Clusters().Get(ctx, id)
	if err != nil {
		return uuid.Nil, err
	}
	if len(nodeIDs) == 0 {
		return uuid.Nil, typederrors.NewValidationError(nil, "no nodes specified")
	}

	clusterProfile, err := s.store.Profiles().Get(ctx, cluster.ProfileID)
	if err != nil {
		return uuid.Nil, err
	}
	for _, nodeID := range nodeIDs {
		node, err := s.store.Nodes().Get(ctx, nodeID)
		if err != nil {
			return uuid.Nil, err
		}
		if node.ClusterID != nil {
			return uuid.Nil, typederrors.NewConflictError(nil,
				"node '%s' is already owned by cluster '%s'", nodeID, node.ClusterID)
		}
		nodeProfile, err := s.store.Profiles().Get(ctx, node.ProfileID)
		if err != nil {
			return uuid.Nil, err
		}
		if nodeProfile.Type != clusterProfile.Type {
			return uuid.Nil, typederrors.NewValidationError(nil,
				"node '%s' has profile type '%s', cluster requires '%s'",
				nodeID, nodeProfile.Type, clusterProfile.Type)
		}
	}

	return s.submitAction(ctx, id, models.ClusterActionAddNodes,
		fmt.Sprintf("cluster_add_nodes_%s", shortID(id)), cluster.Timeout,
		map[string]any{"nodes": nodeIDStrings(nodeIDs)})
}

// ClusterDelNodes queues the removal of specific member nodes.
func (s *Service) ClusterDelNodes(ctx context.Context, id uuid.UUID, nodeIDs []uuid.UUID) (uuid.UUID, error) {
	cluster, err := s.store.Clusters().Get(ctx, id)
	if err != nil {
		return uuid.Nil, err
	}
	if len(nodeIDs) == 0 {
		return uuid.Nil, typederrors.NewValidationError(nil, "no nodes specified")
	}
	for _, nodeID := range nodeIDs {
		node, err := s.store.Nodes().Get(ctx, nodeID)
		if err != nil {
			return uuid.Nil, err
		}
		if node.ClusterID == nil || *node.ClusterID != id {
			return uuid.Nil, typederrors.NewValidationError(nil,
				"node '%s' is not a member of cluster '%s'", nodeID, id)
		}
	}

	return s.submitAction(ctx, id, models.ClusterActionDelNodes,
		fmt.Sprintf("cluster_del_nodes_%s", shortID(id)), cluster.Timeout,
		map[string]any{"nodes": nodeIDStrings(nodeIDs)})
}

// ClusterResize queues a resize.  Shallow argument validation happens
// here; the capacity math runs inside the action against live state.
func (s *Service) ClusterResize(ctx context.Context, id uuid.UUID, request ClusterResizeRequest) (uuid.UUID, error) {
	cluster, err := s.store.Clusters().Get(ctx, id)
	if err != nil {
		return uuid.Nil, err
	}

	inputs := map[string]any{}
	if request.AdjustmentType != "" {
		switch request.AdjustmentType {
		case scaleutils.ExactCapacity, scaleutils.ChangeInCapacity, scaleutils.ChangeInPercentage:
		default:
			return uuid.Nil, typederrors.NewValidationError(nil,
				"invalid adjustment type '%s'", request.AdjustmentType)
		}
		if request.Number == nil {
			return uuid.Nil, typederrors.NewValidationError(nil,
				"Missing number value for size adjustment.")
		}
		inputs[scaleutils.InputAdjustmentType] = request.AdjustmentType
		inputs[scaleutils.InputNumber] = *request.Number
	}
	if request.MinSize != nil {
		inputs[scaleutils.InputMinSize] = *request.MinSize
	}
	if request.MaxSize != nil {
		inputs[scaleutils.InputMaxSize] = *request.MaxSize
	}
	if request.MinStep != nil {
		inputs[scaleutils.InputMinStep] = *request.MinStep
	}
	inputs[scaleutils.InputStrict] = request.Strict

	return s.submitAction(ctx, id, models.ClusterActionResize,
		fmt.Sprintf("cluster_resize_%s", shortID(id)), cluster.Timeout, inputs)
}

// ClusterScaleOut queues the creation of count new members.
func (s *Service) ClusterScaleOut(ctx context.Context, id uuid.UUID, count *int) (uuid.UUID, error) {
	return s.scale(ctx, id, models.ClusterActionScaleOut, "cluster_scale_out", count)
}

// ClusterScaleIn queues the removal of count members.
func (s *Service) ClusterScaleIn(ctx context.Context, id uuid.UUID, count *int) (uuid.UUID, error) {
	return s.scale(ctx, id, models.ClusterActionScaleIn, "cluster_scale_in", count)
}

func (s *Service) scale(ctx context.Context, id uuid.UUID, operation, prefix string, count *int) (uuid.UUID, error) {
	cluster, err := s.store.Clusters().Get(ctx, id)
	if err != nil {
		return uuid.Nil, err
	}

	var inputs map[string]any
	if count != nil {
		if *count <= 0 {
			return uuid.Nil, typederrors.NewValidationError(nil,
				"Invalid count (%d) for action %s", *count, operation)
		}
		inputs = map[string]any{"count": *count}
	}
	return s.submitAction(ctx, id, operation,
		fmt.Sprintf("%s_%s", prefix, shortID(id)), cluster.Timeout, inputs)
}

// ClusterAttachPolicy queues the attachment of a policy to the cluster.
func (s *Service) ClusterAttachPolicy(ctx context.Context, id, policyID uuid.UUID,
	priority, level, cooldown *int, enabled bool) (uuid.UUID, error) {

	cluster, err := s.store.Clusters().Get(ctx, id)
	if err != nil {
		return uuid.Nil, err
	}
	if _, err := s.store.Policies().Get(ctx, policyID); err != nil {
		return uuid.Nil, err
	}
	if _, err := s.store.Bindings().Get(ctx, id, policyID); err == nil {
		return uuid.Nil, typederrors.NewConflictError(nil,
			"policy '%s' is already attached to cluster '%s'", policyID, id)
	} else if !typederrors.IsNotFoundError(err) {
		return uuid.Nil, err
	}

	inputs := map[string]any{"policy_id": policyID.String(), "enabled": enabled}
	if priority != nil {
		inputs["priority"] = *priority
	}
	if level != nil {
		inputs["level"] = *level
	}
	if cooldown != nil {
		inputs["cooldown"] = *cooldown
	}
	return s.submitAction(ctx, id, models.ClusterActionAttachPolicy,
		fmt.Sprintf("attach_policy_%s", shortID(id)), cluster.Timeout, inputs)
}

// ClusterDetachPolicy queues the detachment of a policy from the cluster.
func (s *Service) ClusterDetachPolicy(ctx context.Context, id, policyID uuid.UUID) (uuid.UUID, error) {
	cluster, err := s.store.Clusters().Get(ctx, id)
	if err != nil {
		return uuid.Nil, err
	}
	if _, err := s.store.Bindings().Get(ctx, id, policyID); err != nil {
		return uuid.Nil, err
	}
	return s.submitAction(ctx, id, models.ClusterActionDetachPolicy,
		fmt.Sprintf("detach_policy_%s", shortID(id)), cluster.Timeout,
		map[string]any{"policy_id": policyID.String()})
}

// ClusterUpdatePolicy queues an update of the binding attributes.
func (s *Service) ClusterUpdatePolicy(ctx context.Context, id, policyID uuid.UUID,
	priority, level, cooldown *int, enabled *bool) (uuid.UUID, error) {

	cluster, err := s.store.Clusters().Get(ctx, id)
	if err != nil {
		return uuid.Nil, err
	}
	if _, err := s.store.Bindings().Get(ctx, id, policyID); err != nil {
		return uuid.Nil, err
	}

	inputs := map[string]any{"policy_id": policyID.String()}
	if priority != nil {
		inputs["priority"] = *priority
	}
	if level != nil {
		inputs["level"] = *level
	}
	if cooldown != nil {
		inputs["cooldown"] = *cooldown
	}
	if enabled != nil {
		inputs["enabled"] = *enabled
	}
	return s.submitAction(ctx, id, models.ClusterActionUpdatePolicy,
		fmt.Sprintf("update_policy_%s", shortID(id)), cluster.Timeout, inputs)
}

// ClusterPolicyList returns the bindings of a cluster in evaluation order.
func (s *Service) ClusterPolicyList(ctx context.Context, id uuid.UUID) ([]models.ClusterPolicy, error) {
	if _, err := s.store.Clusters().Get(ctx, id); err != nil {
		return nil, err
	}
	return s.store.Bindings().ListForCluster(ctx, id)
}

// ClusterPolicyGet returns one binding of a cluster.
func (s *Service) ClusterPolicyGet(ctx context.Context, id, policyID uuid.UUID) (*models.ClusterPolicy, error) {
	if _, err := s.store.Clusters().Get(ctx, id); err != nil {
		return nil, err
	}
	return s.store.Bindings().Get(ctx, id, policyID)
}

func nodeIDStrings(ids []uuid.UUID) []any {
	return lo.Map(ids, func(id uuid.UUID, _ int) any { return id.String() })
}

func shortID(id uuid.UUID) string {
	return id.String()[:8]
}
