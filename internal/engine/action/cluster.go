/*
SPDX-FileCopyrightText: The Corral Authors

SPDX-License-Identifier: Apache-2.0
*/

package action

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/corral-cloud/corral/internal/engine/lock"
	"github.com/corral-cloud/corral/internal/engine/policy"
	"github.com/corral-cloud/corral/internal/engine/scaleutils"
	"github.com/corral-cloud/corral/internal/models"
	"github.com/corral-cloud/corral/internal/storage"
	"github.com/corral-cloud/corral/internal/typederrors"
)

// Dispatcher signals the scheduler that new work exists.  The scheduler
// package implements it.
type Dispatcher interface {
	NotifyReady(actionID uuid.UUID)
}

// ClusterRuntime decomposes cluster intents into node actions and
// arbitrates them through locks and policy checkpoints.  A decomposing
// body never blocks its worker on the children: it parks the action with
// ResultWaiting and finishes on a later dispatch, once the dependent set
// settled.
type ClusterRuntime struct {
	store      storage.Store
	locks      *lock.Manager
	policies   *policy.Engine
	dispatcher Dispatcher
	logger     *slog.Logger
}

// NewClusterRuntime builds the cluster action runtime.
func NewClusterRuntime(store storage.Store, locks *lock.Manager, policies *policy.Engine,
	dispatcher Dispatcher, logger *slog.Logger) *ClusterRuntime {
	return &ClusterRuntime{store: store, locks: locks, policies: policies,
		dispatcher: dispatcher, logger: logger}
}

// SetDispatcher installs the scheduler wakeup after construction; the
// scheduler itself is built around this runtime.
func (r *ClusterRuntime) SetDispatcher(dispatcher Dispatcher) {
	r.dispatcher = dispatcher
}

// Execute runs a claimed cluster action: lock, BEFORE checkpoint, the
// operation body, AFTER checkpoint, commit, unlock.  A busy lock is not a
// failure; the action asks to be requeued.  A parked action keeps the
// cluster lock; the same action re-acquires it when it resumes.
func (r *ClusterRuntime) Execute(ctx context.Context, action *models.Action) (result Result) {
	cluster, err := r.store.Clusters().Get(ctx, action.TargetID)
	if err != nil {
		if typederrors.IsNotFoundError(err) {
			return fail(fmt.Sprintf("Cluster '%s' not found", action.TargetID))
		}
		return retry(err.Error())
	}

	forced := action.Action == models.ClusterActionDelete
	if err := r.locks.AcquireCluster(ctx, *cluster.ID, *action.ID, forced); err != nil {
		// Busy and unavailable both requeue; the attempt budget bounds them.
		return retry(err.Error())
	}
	defer func() {
		if result.Code == ResultWaiting {
			return
		}
		if err := r.locks.ReleaseCluster(ctx, *cluster.ID, *action.ID); err != nil {
			r.logger.WarnContext(ctx, "Failed to release cluster lock",
				slog.String("cluster", cluster.ID.String()), slog.String("error", err.Error()))
		}
	}()

	childIDs, err := r.store.Actions().ListDependencies(ctx, *action.ID)
	if err != nil {
		return retry(err.Error())
	}
	resumed := len(childIDs) > 0

	if signal, stop := signalled(ctx, r.store, action); stop {
		r.finish(ctx, action, cluster, signal)
		return signal
	}

	if !resumed {
		r.emitEvent(ctx, action, cluster, models.EventLevelInfo, "Action execution started")

		priorStatus := cluster.Status
		if err := r.policies.Check(ctx, *cluster.ID, action, policy.PhaseBefore); err != nil {
			result = r.vetoResult(ctx, cluster, priorStatus, err)
			r.finish(ctx, action, cluster, result)
			return result
		}
		r.persistAction(ctx, action)
	}

	result = r.dispatch(ctx, action, cluster, resumed)
	if result.Code == ResultWaiting {
		action.Status = models.ActionStatusWaiting
		action.StatusReason = result.Reason
		r.persistAction(ctx, action)
		return result
	}

	if result.Code == ResultOK {
		if err := r.policies.Check(ctx, *cluster.ID, action, policy.PhaseAfter); err != nil {
			result = r.vetoResult(ctx, cluster, cluster.Status, err)
		}
	}

	r.finish(ctx, action, cluster, result)
	return result
}

func (r *ClusterRuntime) dispatch(ctx context.Context, action *models.Action, cluster *models.Cluster, resumed bool) Result {
	switch action.Action {
	case models.ClusterActionCreate:
		return r.doCreate(ctx, action, cluster, resumed)
	case models.ClusterActionDelete:
		return r.doDelete(ctx, action, cluster, resumed)
	case models.ClusterActionUpdate:
		return r.doUpdate(ctx, action, cluster, resumed)
	case models.ClusterActionAddNodes:
		return r.doAddNodes(ctx, action, cluster, resumed)
	case models.ClusterActionDelNodes:
		return r.doDelNodes(ctx, action, cluster, resumed)
	case models.ClusterActionResize:
		return r.doResize(ctx, action, cluster, resumed)
	case models.ClusterActionScaleOut:
		return r.doScaleOut(ctx, action, cluster, resumed)
	case models.ClusterActionScaleIn:
		return r.doScaleIn(ctx, action, cluster, resumed)
	case models.ClusterActionAttachPolicy:
		return r.doAttachPolicy(ctx, action, cluster)
	case models.ClusterActionDetachPolicy:
		return r.doDetachPolicy(ctx, action, cluster)
	case models.ClusterActionUpdatePolicy:
		return r.doUpdatePolicy(ctx, action, cluster)
	default:
		return fail(fmt.Sprintf("Unsupported cluster action '%s'", action.Action))
	}
}

// vetoResult maps a policy checkpoint failure to the action result.  The
// cluster keeps its prior status; a veto does not poison the cluster.
func (r *ClusterRuntime) vetoResult(ctx context.Context, cluster *models.Cluster, priorStatus string, err error) Result {
	if typederrors.IsPolicyCheckError(err) {
		r.setClusterStatus(ctx, cluster, priorStatus, cluster.StatusReason)
		return fail(fmt.Sprintf("Policy check failure: %s", err.Error()))
	}
	return fail(err.Error())
}

func (r *ClusterRuntime) finish(ctx context.Context, action *models.Action, cluster *models.Cluster, result Result) {
	r.persistAction(ctx, action)
	level := models.EventLevelInfo
	if result.Code != ResultOK && result.Code != ResultRetry {
		level = models.EventLevelError
	}
	r.emitEvent(ctx, action, cluster, level,
		fmt.Sprintf("Action finished: %s %s", result.Code, result.Reason))
}

// --- operation bodies -----------------------------------------------------

func (r *ClusterRuntime) doCreate(ctx context.Context, action *models.Action, cluster *models.Cluster, resumed bool) Result {
	if resumed {
		children, err := r.loadChildren(ctx, action)
		if err != nil {
			return retry(err.Error())
		}
		result := r.childOutcome(ctx, children)
		if result.Code != ResultOK {
			if result.Code != ResultWaiting {
				r.setClusterStatus(ctx, cluster, models.ClusterStatusError, result.Reason)
			}
			return result
		}
		setOutput(action, "nodes_added", childTargets(children))
		r.setClusterStatus(ctx, cluster, models.ClusterStatusActive, "Cluster creation succeeded")
		return ok()
	}

	r.setClusterStatus(ctx, cluster, models.ClusterStatusCreating, "Cluster creation in progress")

	placements := placementHints(action.Data)
	for i := 0; i < cluster.DesiredCapacity; i++ {
		node, err := r.createNodeRecord(ctx, cluster, placements, i)
		if err != nil {
			r.setClusterStatus(ctx, cluster, models.ClusterStatusError, err.Error())
			return fail(err.Error())
		}
		if err := r.spawnChild(ctx, action, models.NodeActionCreate, *node.ID, nil, node.Data); err != nil {
			r.setClusterStatus(ctx, cluster, models.ClusterStatusError, err.Error())
			return fail(err.Error())
		}
	}
	if cluster.DesiredCapacity == 0 {
		r.setClusterStatus(ctx, cluster, models.ClusterStatusActive, "Cluster creation succeeded")
		return ok()
	}
	return r.launchChildren(ctx, action)
}

func (r *ClusterRuntime) doDelete(ctx context.Context, action *models.Action, cluster *models.Cluster, resumed bool) Result {
	if resumed {
		children, err := r.loadChildren(ctx, action)
		if err != nil {
			return retry(err.Error())
		}
		result := r.childOutcome(ctx, children)
		if result.Code != ResultOK {
			// Some nodes linger; keep the cluster record around for inspection.
			if result.Code != ResultWaiting {
				r.setClusterStatus(ctx, cluster, models.ClusterStatusWarning, result.Reason)
			}
			return result
		}
		return r.dropClusterRecord(ctx, cluster)
	}

	r.setClusterStatus(ctx, cluster, models.ClusterStatusDeleting, "Cluster deletion in progress")

	nodes, err := r.store.Nodes().ListByCluster(ctx, *cluster.ID)
	if err != nil {
		return fail(err.Error())
	}

	destroy, hasDestroy := models.NestedBool(action.Data, models.DataKeyDeletion, models.DataKeyDestroyAfterDeletion)
	if !hasDestroy {
		destroy = true
	}
	childAction := models.NodeActionDelete
	if !destroy {
		childAction = models.NodeActionLeave
	}
	for i := range nodes {
		if err := r.spawnChild(ctx, action, childAction, *nodes[i].ID, nil, nil); err != nil {
			return fail(err.Error())
		}
	}
	if len(nodes) == 0 {
		return r.dropClusterRecord(ctx, cluster)
	}
	return r.launchChildren(ctx, action)
}

func (r *ClusterRuntime) dropClusterRecord(ctx context.Context, cluster *models.Cluster) Result {
	if err := r.store.Clusters().Delete(ctx, *cluster.ID); err != nil {
		r.setClusterStatus(ctx, cluster, models.ClusterStatusWarning, err.Error())
		return fail(err.Error())
	}
	return ok()
}

func (r *ClusterRuntime) doUpdate(ctx context.Context, action *models.Action, cluster *models.Cluster, resumed bool) Result {
	raw, ok2 := models.InputString(action.Inputs, "new_profile_id")
	if !ok2 {
		return fail("Missing new_profile_id input")
	}
	newProfileID, err := uuid.Parse(raw)
	if err != nil {
		return fail(fmt.Sprintf("Invalid new_profile_id '%s'", raw))
	}

	commit := func() Result {
		cluster.ProfileID = newProfileID
		r.setClusterStatus(ctx, cluster, models.ClusterStatusActive, "Cluster update succeeded")
		return ok()
	}

	if resumed {
		children, err := r.loadChildren(ctx, action)
		if err != nil {
			return retry(err.Error())
		}
		result := r.childOutcome(ctx, children)
		if result.Code != ResultOK {
			if result.Code != ResultWaiting {
				r.setClusterStatus(ctx, cluster, models.ClusterStatusError, result.Reason)
			}
			return result
		}
		return commit()
	}

	if _, err := r.store.Profiles().Get(ctx, newProfileID); err != nil {
		return fail(err.Error())
	}

	r.setClusterStatus(ctx, cluster, models.ClusterStatusUpdating, "Cluster update in progress")

	nodes, err := r.store.Nodes().ListByCluster(ctx, *cluster.ID)
	if err != nil {
		return fail(err.Error())
	}
	inputs := map[string]any{"new_profile_id": newProfileID.String()}
	for i := range nodes {
		if err := r.spawnChild(ctx, action, models.NodeActionUpdate, *nodes[i].ID, inputs, nil); err != nil {
			return fail(err.Error())
		}
	}
	if len(nodes) == 0 {
		return commit()
	}
	return r.launchChildren(ctx, action)
}

func (r *ClusterRuntime) doAddNodes(ctx context.Context, action *models.Action, cluster *models.Cluster, resumed bool) Result {
	if resumed {
		children, err := r.loadChildren(ctx, action)
		if err != nil {
			return retry(err.Error())
		}
		result := r.childOutcome(ctx, children)
		if result.Code != ResultOK {
			if result.Code != ResultWaiting {
				r.setClusterStatus(ctx, cluster, models.ClusterStatusWarning, result.Reason)
			}
			return result
		}
		if action.Cause == models.CauseRPC {
			cluster.DesiredCapacity += len(children)
		}
		setOutput(action, "nodes_added", childTargets(children))
		r.setClusterStatus(ctx, cluster, models.ClusterStatusActive, "Nodes added successfully")
		return ok()
	}

	nodeIDs, reason := inputNodeIDs(action.Inputs)
	if reason != "" {
		return fail(reason)
	}

	// Validate the whole batch before touching anything: a partial join is
	// never acceptable.
	candidates := make([]*models.Node, 0, len(nodeIDs))
	for _, nodeID := range nodeIDs {
		node, err := r.store.Nodes().Get(ctx, nodeID)
		if typederrors.IsNotFoundError(err) {
			return fail(fmt.Sprintf("Node [%s] is not found", nodeID))
		}
		if err != nil {
			return retry(err.Error())
		}
		if node.ClusterID != nil {
			return fail(fmt.Sprintf("Node [%s] is already owned by cluster [%s]", nodeID, node.ClusterID))
		}
		if node.Status != models.NodeStatusActive {
			return fail(fmt.Sprintf("Node [%s] is not in ACTIVE status", nodeID))
		}
		candidates = append(candidates, node)
	}

	r.setClusterStatus(ctx, cluster, models.ClusterStatusUpdating, "Adding nodes to cluster")

	inputs := map[string]any{"cluster_id": cluster.ID.String()}
	for _, node := range candidates {
		if err := r.spawnChild(ctx, action, models.NodeActionJoin, *node.ID, inputs, nil); err != nil {
			return fail(err.Error())
		}
	}
	return r.launchChildren(ctx, action)
}

func (r *ClusterRuntime) doDelNodes(ctx context.Context, action *models.Action, cluster *models.Cluster, resumed bool) Result {
	if resumed {
		return r.removeOutcome(ctx, action, cluster)
	}

	nodeIDs, reason := inputNodeIDs(action.Inputs)
	if reason != "" {
		return fail(reason)
	}
	for _, nodeID := range nodeIDs {
		node, err := r.store.Nodes().Get(ctx, nodeID)
		if typederrors.IsNotFoundError(err) {
			return fail(fmt.Sprintf("Node [%s] is not found", nodeID))
		}
		if err != nil {
			return retry(err.Error())
		}
		if node.ClusterID == nil || *node.ClusterID != *cluster.ID {
			return fail(fmt.Sprintf("Node [%s] is not a member of cluster [%s]", nodeID, cluster.ID))
		}
	}

	r.setClusterStatus(ctx, cluster, models.ClusterStatusUpdating, "Removing nodes from cluster")
	return r.removeNodes(ctx, action, cluster, nodeIDs)
}

func (r *ClusterRuntime) doResize(ctx context.Context, action *models.Action, cluster *models.Cluster, resumed bool) Result {
	if resumed {
		children, err := r.loadChildren(ctx, action)
		if err != nil {
			return retry(err.Error())
		}
		if len(children) > 0 && children[0].Action == models.NodeActionCreate {
			return r.growOutcome(ctx, action, cluster, children)
		}
		return r.removeOutcome(ctx, action, cluster)
	}

	nodes, err := r.store.Nodes().ListByCluster(ctx, *cluster.ID)
	if err != nil {
		return fail(err.Error())
	}

	if reason := scaleutils.ParseResizeParams(action, cluster, len(nodes)); reason != "" {
		return fail(reason)
	}
	r.persistAction(ctx, action)

	if minSize := models.InputInt(action.Inputs, scaleutils.InputMinSize); minSize != nil {
		cluster.MinSize = *minSize
	}
	if maxSize := models.InputInt(action.Inputs, scaleutils.InputMaxSize); maxSize != nil {
		cluster.MaxSize = *maxSize
	}

	r.setClusterStatus(ctx, cluster, models.ClusterStatusResizing, "Cluster resize in progress")

	if count, grow := models.NestedInt(action.Data, models.DataKeyCreation, models.DataKeyCount); grow && count > 0 {
		return r.growCluster(ctx, action, cluster, count)
	}
	if count, shrink := models.NestedInt(action.Data, models.DataKeyDeletion, models.DataKeyCount); shrink && count > 0 {
		victims, reason := r.pickVictims(ctx, action, cluster, count)
		if reason != "" {
			r.setClusterStatus(ctx, cluster, models.ClusterStatusError, reason)
			return fail(reason)
		}
		return r.removeNodes(ctx, action, cluster, victims)
	}

	// Capacity unchanged; only the bounds moved.
	r.setClusterStatus(ctx, cluster, models.ClusterStatusActive, "Cluster resize succeeded")
	return ok()
}

func (r *ClusterRuntime) doScaleOut(ctx context.Context, action *models.Action, cluster *models.Cluster, resumed bool) Result {
	if resumed {
		children, err := r.loadChildren(ctx, action)
		if err != nil {
			return retry(err.Error())
		}
		return r.growOutcome(ctx, action, cluster, children)
	}

	count, reason := scaleCount(action, models.DataKeyCreation)
	if reason != "" {
		return fail(reason)
	}
	if count == 0 {
		return ok()
	}

	r.setClusterStatus(ctx, cluster, models.ClusterStatusResizing, "Cluster scale out in progress")
	return r.growCluster(ctx, action, cluster, count)
}

func (r *ClusterRuntime) doScaleIn(ctx context.Context, action *models.Action, cluster *models.Cluster, resumed bool) Result {
	if resumed {
		return r.removeOutcome(ctx, action, cluster)
	}

	count, reason := scaleCount(action, models.DataKeyDeletion)
	if reason != "" {
		return fail(reason)
	}
	if count == 0 {
		return ok()
	}

	r.setClusterStatus(ctx, cluster, models.ClusterStatusResizing, "Cluster scale in progress")

	victims, errReason := r.pickVictims(ctx, action, cluster, count)
	if errReason != "" {
		r.setClusterStatus(ctx, cluster, models.ClusterStatusError, errReason)
		return fail(errReason)
	}
	return r.removeNodes(ctx, action, cluster, victims)
}

func (r *ClusterRuntime) doAttachPolicy(ctx context.Context, action *models.Action, cluster *models.Cluster) Result {
	policyID, reason := inputPolicyID(action.Inputs)
	if reason != "" {
		return fail(reason)
	}
	record, err := r.store.Policies().Get(ctx, policyID)
	if err != nil {
		return fail(err.Error())
	}
	kind, err := r.policies.KindFor(record)
	if err != nil {
		return fail(err.Error())
	}

	data, err := kind.Attach(ctx, cluster)
	if err != nil {
		return fail(fmt.Sprintf("Failed in attaching policy '%s': %s", policyID, err))
	}

	binding := &models.ClusterPolicy{
		ClusterID: *cluster.ID,
		PolicyID:  policyID,
		Priority:  models.DefaultBindingPriority,
		Level:     models.DefaultBindingLevel,
		Cooldown:  models.DefaultBindingCooldown,
		Enabled:   true,
		Data:      data,
	}
	if priority := models.InputInt(action.Inputs, "priority"); priority != nil {
		binding.Priority = *priority
	}
	if level := models.InputInt(action.Inputs, "level"); level != nil {
		binding.Level = *level
	}
	if cooldown := models.InputInt(action.Inputs, "cooldown"); cooldown != nil {
		binding.Cooldown = *cooldown
	}
	binding.Enabled = models.InputBool(action.Inputs, "enabled", true)

	if _, err := r.store.Bindings().Attach(ctx, binding); err != nil {
		// Undo the attach hook's side effects before surfacing the error.
		if detachErr := kind.Detach(ctx, cluster); detachErr != nil {
			r.logger.WarnContext(ctx, "Failed to roll back policy attachment",
				slog.String("policy", policyID.String()), slog.String("error", detachErr.Error()))
		}
		return fail(err.Error())
	}
	return ok()
}

func (r *ClusterRuntime) doDetachPolicy(ctx context.Context, action *models.Action, cluster *models.Cluster) Result {
	policyID, reason := inputPolicyID(action.Inputs)
	if reason != "" {
		return fail(reason)
	}
	if _, err := r.store.Bindings().Get(ctx, *cluster.ID, policyID); err != nil {
		return fail(err.Error())
	}
	record, err := r.store.Policies().Get(ctx, policyID)
	if err != nil {
		return fail(err.Error())
	}
	kind, err := r.policies.KindFor(record)
	if err != nil {
		return fail(err.Error())
	}
	if err := kind.Detach(ctx, cluster); err != nil {
		return fail(fmt.Sprintf("Failed in detaching policy '%s': %s", policyID, err))
	}
	if err := r.store.Bindings().Detach(ctx, *cluster.ID, policyID); err != nil {
		return fail(err.Error())
	}
	return ok()
}

func (r *ClusterRuntime) doUpdatePolicy(ctx context.Context, action *models.Action, cluster *models.Cluster) Result {
	policyID, reason := inputPolicyID(action.Inputs)
	if reason != "" {
		return fail(reason)
	}
	binding, err := r.store.Bindings().Get(ctx, *cluster.ID, policyID)
	if err != nil {
		return fail(err.Error())
	}

	if priority := models.InputInt(action.Inputs, "priority"); priority != nil {
		binding.Priority = *priority
	}
	if level := models.InputInt(action.Inputs, "level"); level != nil {
		binding.Level = *level
	}
	if cooldown := models.InputInt(action.Inputs, "cooldown"); cooldown != nil {
		binding.Cooldown = *cooldown
	}
	if enabled, ok2 := action.Inputs["enabled"].(bool); ok2 {
		binding.Enabled = enabled
	}

	if _, err := r.store.Bindings().Update(ctx, binding); err != nil {
		return fail(err.Error())
	}
	return ok()
}

// --- shared helpers -------------------------------------------------------

// growCluster spawns count NODE_CREATE children with fresh indices and
// yields until they settle.
func (r *ClusterRuntime) growCluster(ctx context.Context, action *models.Action, cluster *models.Cluster, count int) Result {
	placements := placementHints(action.Data)
	for i := 0; i < count; i++ {
		node, err := r.createNodeRecord(ctx, cluster, placements, i)
		if err != nil {
			r.setClusterStatus(ctx, cluster, models.ClusterStatusError, err.Error())
			return fail(err.Error())
		}
		if err := r.spawnChild(ctx, action, models.NodeActionCreate, *node.ID, nil, node.Data); err != nil {
			r.setClusterStatus(ctx, cluster, models.ClusterStatusError, err.Error())
			return fail(err.Error())
		}
	}
	return r.launchChildren(ctx, action)
}

// growOutcome commits a settled grow: the new desired capacity and the
// nodes_added output.
func (r *ClusterRuntime) growOutcome(ctx context.Context, action *models.Action, cluster *models.Cluster,
	children []*models.Action) Result {

	result := r.childOutcome(ctx, children)
	if result.Code != ResultOK {
		if result.Code != ResultWaiting {
			r.setClusterStatus(ctx, cluster, models.ClusterStatusError, result.Reason)
		}
		return result
	}

	cluster.DesiredCapacity += len(children)
	setOutput(action, "nodes_added", childTargets(children))
	r.setClusterStatus(ctx, cluster, models.ClusterStatusActive, "Cluster scaling succeeded")
	return ok()
}

// removeNodes spawns the destruction (or detach) of the given members,
// honoring the grace period and destroy flag recorded in action data, and
// yields until the children settle.
func (r *ClusterRuntime) removeNodes(ctx context.Context, action *models.Action, cluster *models.Cluster,
	victims []uuid.UUID) Result {

	if grace, ok2 := models.NestedInt(action.Data, models.DataKeyDeletion, models.DataKeyGracePeriod); ok2 && grace > 0 {
		if result, stop := r.sleep(ctx, action, time.Duration(grace)*time.Second); stop {
			return result
		}
	}

	destroy, hasDestroy := models.NestedBool(action.Data, models.DataKeyDeletion, models.DataKeyDestroyAfterDeletion)
	if !hasDestroy {
		destroy = true
	}
	childAction := models.NodeActionDelete
	if !destroy {
		childAction = models.NodeActionLeave
	}

	for _, victim := range victims {
		if err := r.spawnChild(ctx, action, childAction, victim, nil, nil); err != nil {
			return fail(err.Error())
		}
	}
	if len(victims) == 0 {
		r.setClusterStatus(ctx, cluster, models.ClusterStatusActive, "Nodes removed successfully")
		return ok()
	}
	return r.launchChildren(ctx, action)
}

// removeOutcome commits a settled shrink: the adjusted desired capacity
// and the nodes_removed output.  An RPC-caused removal shrinks the desired
// capacity; a policy-derived one already accounted for it.
func (r *ClusterRuntime) removeOutcome(ctx context.Context, action *models.Action, cluster *models.Cluster) Result {
	children, err := r.loadChildren(ctx, action)
	if err != nil {
		return retry(err.Error())
	}
	result := r.childOutcome(ctx, children)
	if result.Code != ResultOK {
		if result.Code != ResultWaiting {
			r.setClusterStatus(ctx, cluster, models.ClusterStatusWarning, result.Reason)
		}
		return result
	}

	if action.Cause == models.CauseRPC {
		cluster.DesiredCapacity -= len(children)
		if cluster.DesiredCapacity < 0 {
			cluster.DesiredCapacity = 0
		}
	}
	setOutput(action, "nodes_removed", childTargets(children))
	r.setClusterStatus(ctx, cluster, models.ClusterStatusActive, "Nodes removed successfully")
	return ok()
}

// pickVictims resolves the nodes a shrink removes: policy-selected
// candidates first, else the newest members by index.
func (r *ClusterRuntime) pickVictims(ctx context.Context, action *models.Action, cluster *models.Cluster,
	count int) ([]uuid.UUID, string) {

	if raw, ok2 := models.NestedValue(action.Data, models.DataKeyDeletion, models.DataKeyCandidates); ok2 {
		items, ok3 := raw.([]any)
		if !ok3 {
			return nil, "Malformed deletion candidates"
		}
		victims := make([]uuid.UUID, 0, len(items))
		for _, item := range items {
			s, ok4 := item.(string)
			if !ok4 {
				return nil, "Malformed deletion candidates"
			}
			id, err := uuid.Parse(s)
			if err != nil {
				return nil, fmt.Sprintf("Invalid deletion candidate '%s'", s)
			}
			victims = append(victims, id)
		}
		return victims, ""
	}

	nodes, err := r.store.Nodes().ListByCluster(ctx, *cluster.ID)
	if err != nil {
		return nil, err.Error()
	}
	if count > len(nodes) {
		count = len(nodes)
	}
	// Newest members go first; index ties are broken by age.
	sort.SliceStable(nodes, func(i, j int) bool {
		if nodes[i].Index != nodes[j].Index {
			return nodes[i].Index > nodes[j].Index
		}
		return nodes[i].CreatedAt.Before(*nodes[j].CreatedAt)
	})
	victims := make([]uuid.UUID, 0, count)
	for _, node := range nodes[:count] {
		victims = append(victims, *node.ID)
	}
	return victims, ""
}

// createNodeRecord persists a fresh INIT member with the next index.
func (r *ClusterRuntime) createNodeRecord(ctx context.Context, cluster *models.Cluster,
	placements []any, ordinal int) (*models.Node, error) {

	index, err := r.store.Clusters().NextIndex(ctx, *cluster.ID)
	if err != nil {
		return nil, err
	}

	node := &models.Node{
		Name:         fmt.Sprintf("node-%s-%03d", shortID(*cluster.ID), index),
		ProfileID:    cluster.ProfileID,
		ClusterID:    cluster.ID,
		Index:        index,
		Status:       models.NodeStatusInit,
		StatusReason: "Initializing",
		User:         cluster.User,
		Project:      cluster.Project,
		Domain:       cluster.Domain,
	}
	if ordinal < len(placements) {
		if hint, ok2 := placements[ordinal].(map[string]any); ok2 {
			node.Data = map[string]any{"placement": hint}
		}
	}
	return r.store.Nodes().Create(ctx, node)
}

// spawnChild creates a derived node action in INIT and wires the
// dependency edge.  The child's budget is the parent's remaining one;
// launchChildren releases the batch once every edge is recorded.
func (r *ClusterRuntime) spawnChild(ctx context.Context, parent *models.Action, name string,
	targetID uuid.UUID, inputs, data map[string]any) error {

	child := &models.Action{
		Name:         fmt.Sprintf("%s-%s", strings.ToLower(name), shortID(targetID)),
		TargetID:     targetID,
		Action:       name,
		Cause:        models.CauseDerived,
		Status:       models.ActionStatusInit,
		StatusReason: "Action initialized",
		Timeout:      remainingBudget(parent),
		Inputs:       inputs,
		Data:         data,
		User:         parent.User,
		Project:      parent.Project,
		Domain:       parent.Domain,
	}
	created, err := r.store.Actions().Create(ctx, child)
	if err != nil {
		return err
	}
	return r.store.Actions().AddDependency(ctx, *created.ID, *parent.ID)
}

// launchChildren readies the fully wired dependent set, wakes the
// scheduler for each child and parks the parent.
func (r *ClusterRuntime) launchChildren(ctx context.Context, action *models.Action) Result {
	childIDs, err := r.store.Actions().ListDependencies(ctx, *action.ID)
	if err != nil {
		return retry(err.Error())
	}
	for _, childID := range childIDs {
		if err := r.store.Actions().MarkReady(ctx, childID); err != nil {
			// A stuck INIT child is re-released when the parent resumes.
			return retry(err.Error())
		}
		if r.dispatcher != nil {
			r.dispatcher.NotifyReady(childID)
		}
	}
	return waiting()
}

// loadChildren returns the actions of the dependent set.
func (r *ClusterRuntime) loadChildren(ctx context.Context, action *models.Action) ([]*models.Action, error) {
	childIDs, err := r.store.Actions().ListDependencies(ctx, *action.ID)
	if err != nil {
		return nil, err
	}
	children := make([]*models.Action, 0, len(childIDs))
	for _, childID := range childIDs {
		child, err := r.store.Actions().Get(ctx, childID)
		if err != nil {
			return nil, err
		}
		children = append(children, child)
	}
	return children, nil
}

// childOutcome folds the dependent statuses into one result.  A child
// still in flight parks the parent again; one left in INIT is re-released
// in case its earlier launch was lost.
func (r *ClusterRuntime) childOutcome(ctx context.Context, children []*models.Action) Result {
	settled := true
	for _, child := range children {
		switch child.Status {
		case models.ActionStatusSucceeded:
			continue
		case models.ActionStatusFailed:
			return Result{Code: ResultError, Reason: fmt.Sprintf("ACTION [%s] failed", child.ID)}
		case models.ActionStatusCancelled:
			return Result{Code: ResultCancel, Reason: fmt.Sprintf("ACTION [%s] cancelled", child.ID)}
		case models.ActionStatusInit:
			if err := r.store.Actions().MarkReady(ctx, *child.ID); err == nil && r.dispatcher != nil {
				r.dispatcher.NotifyReady(*child.ID)
			}
			settled = false
		default:
			settled = false
		}
	}
	if settled {
		return ok()
	}
	return waiting()
}

// childTargets returns the target node ids of the dependent set.
func childTargets(children []*models.Action) []string {
	return lo.Map(children, func(child *models.Action, _ int) string {
		return child.TargetID.String()
	})
}

// sleep suspends the action for the given duration, checking the
// cooperative signals once a second.
func (r *ClusterRuntime) sleep(ctx context.Context, action *models.Action, duration time.Duration) (Result, bool) {
	if err := r.store.Actions().UpdateStatus(ctx, *action.ID, models.ActionStatusSuspended, "Grace period"); err != nil {
		r.logger.DebugContext(ctx, "Failed to suspend action",
			slog.String("action", action.ID.String()), slog.String("error", err.Error()))
	}
	deadline := time.Now().Add(duration)
	for time.Now().Before(deadline) {
		if result, stop := signalled(ctx, r.store, action); stop {
			return result, true
		}
		remaining := time.Until(deadline)
		if remaining > time.Second {
			remaining = time.Second
		}
		select {
		case <-ctx.Done():
			return Result{Code: ResultCancel, Reason: ctx.Err().Error()}, true
		case <-time.After(remaining):
		}
	}
	if err := r.store.Actions().UpdateStatus(ctx, *action.ID, models.ActionStatusRunning, ""); err != nil {
		r.logger.DebugContext(ctx, "Failed to resume suspended action",
			slog.String("action", action.ID.String()), slog.String("error", err.Error()))
	}
	return Result{}, false
}

func (r *ClusterRuntime) setClusterStatus(ctx context.Context, cluster *models.Cluster, status, reason string) {
	cluster.Status = status
	cluster.StatusReason = reason
	if _, err := r.store.Clusters().Update(ctx, cluster); err != nil {
		r.logger.ErrorContext(ctx, "Failed to persist cluster status",
			slog.String("cluster", cluster.ID.String()), slog.String("status", status),
			slog.String("error", err.Error()))
	}
}

func (r *ClusterRuntime) persistAction(ctx context.Context, action *models.Action) {
	if _, err := r.store.Actions().Update(ctx, action); err != nil {
		r.logger.WarnContext(ctx, "Failed to persist action state",
			slog.String("action", action.ID.String()), slog.String("error", err.Error()))
	}
}

func (r *ClusterRuntime) emitEvent(ctx context.Context, action *models.Action, cluster *models.Cluster,
	level, message string) {

	event := &models.Event{
		ObjectID:     *cluster.ID,
		ObjectType:   models.EventObjectCluster,
		ObjectName:   cluster.Name,
		Action:       action.Action,
		Level:        level,
		Status:       cluster.Status,
		StatusReason: message,
		User:         action.User,
		Project:      action.Project,
	}
	if _, err := r.store.Events().Create(ctx, event); err != nil {
		r.logger.DebugContext(ctx, "Failed to record event", slog.String("error", err.Error()))
	}
}

// --- input parsing --------------------------------------------------------

func inputNodeIDs(inputs map[string]any) ([]uuid.UUID, string) {
	raw, ok2 := inputs["nodes"].([]any)
	if !ok2 || len(raw) == 0 {
		return nil, "Missing nodes input"
	}
	ids := make([]uuid.UUID, 0, len(raw))
	for _, item := range raw {
		s, ok3 := item.(string)
		if !ok3 {
			return nil, "Malformed nodes input"
		}
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, fmt.Sprintf("Invalid node id '%s'", s)
		}
		ids = append(ids, id)
	}
	return ids, ""
}

func inputPolicyID(inputs map[string]any) (uuid.UUID, string) {
	raw, ok2 := models.InputString(inputs, "policy_id")
	if !ok2 {
		return uuid.Nil, "Missing policy_id input"
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Sprintf("Invalid policy_id '%s'", raw)
	}
	return id, ""
}

// scaleCount resolves the node count for a scale action: the policy
// decision wins, then the caller's count input, then one.
func scaleCount(action *models.Action, section string) (int, string) {
	if count, ok2 := models.NestedInt(action.Data, section, models.DataKeyCount); ok2 {
		if count < 0 {
			return 0, fmt.Sprintf("Invalid count (%d) for action %s", count, action.Action)
		}
		return count, ""
	}
	if count := models.InputInt(action.Inputs, "count"); count != nil {
		if *count < 0 {
			return 0, fmt.Sprintf("Invalid count (%d) for action %s", *count, action.Action)
		}
		return *count, ""
	}
	return 1, ""
}

func placementHints(data map[string]any) []any {
	raw, ok2 := models.NestedValue(data, models.DataKeyCreation, models.DataKeyPlacements)
	if !ok2 {
		return nil
	}
	hints, _ := raw.([]any)
	return hints
}

func setOutput(action *models.Action, key string, ids []string) {
	if action.Outputs == nil {
		action.Outputs = map[string]any{}
	}
	values := make([]any, 0, len(ids))
	for _, id := range ids {
		values = append(values, id)
	}
	action.Outputs[key] = values
}

// remainingBudget computes a child's timeout: the default, capped by
// whatever is left of the parent's own budget.
func remainingBudget(parent *models.Action) int {
	if parent.Timeout <= 0 {
		return models.DefaultActionTimeout
	}
	remaining := parent.Timeout
	if parent.StartTime != nil {
		remaining -= int(time.Since(*parent.StartTime).Seconds())
	}
	if remaining > models.DefaultActionTimeout {
		remaining = models.DefaultActionTimeout
	}
	if remaining < 1 {
		remaining = 1
	}
	return remaining
}

func shortID(id uuid.UUID) string {
	return id.String()[:8]
}
