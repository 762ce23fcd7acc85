/*
SPDX-FileCopyrightText: The Corral Authors

SPDX-License-Identifier: Apache-2.0
*/

package policy

import (
	"context"
	"log/slog"
	"sort"

	"github.com/google/uuid"

	"github.com/corral-cloud/corral/internal/driver"
	"github.com/corral-cloud/corral/internal/engine/scaleutils"
	"github.com/corral-cloud/corral/internal/engine/session"
	"github.com/corral-cloud/corral/internal/models"
	"github.com/corral-cloud/corral/internal/typederrors"
)

// TypeLBMember identifies the load-balancer membership policy.
const TypeLBMember = "corral.policy.lb-member"

// DefaultProtocolPort is used when the spec leaves protocol_port unset.
const DefaultProtocolPort = 80

// LBMemberPolicy keeps a load-balancer pool in sync with the member list
// of a cluster.  Additions register after the action finished; removals
// deregister before the nodes are destroyed, while their records and
// member ids still exist.
type LBMemberPolicy struct {
	Base
	services Services

	pool         string
	protocolPort int
}

// NewLBMemberPolicy builds the kind from its stored record.
func NewLBMemberPolicy(record *models.Policy, services Services) (Kind, error) {
	pool, err := specString(record.Spec, "pool")
	if err != nil {
		return nil, err
	}
	return &LBMemberPolicy{
		services:     services,
		pool:         pool,
		protocolPort: specInt(record.Spec, "protocol_port", DefaultProtocolPort),
	}, nil
}

func (p *LBMemberPolicy) Targets() []Target {
	return []Target{
		{Phase: PhaseBefore, Action: models.ClusterActionDelNodes},
		{Phase: PhaseBefore, Action: models.ClusterActionScaleIn},
		{Phase: PhaseBefore, Action: models.ClusterActionResize},
		{Phase: PhaseAfter, Action: models.ClusterActionAddNodes},
		{Phase: PhaseAfter, Action: models.ClusterActionScaleOut},
		{Phase: PhaseAfter, Action: models.ClusterActionResize},
	}
}

func (p *LBMemberPolicy) Validate() error {
	if p.protocolPort <= 0 || p.protocolPort > 65535 {
		return typederrors.NewValidationError(nil, "invalid protocol_port %d", p.protocolPort)
	}
	return nil
}

// Attach registers every existing node of the cluster as a pool member.
func (p *LBMemberPolicy) Attach(ctx context.Context, cluster *models.Cluster) (map[string]any, error) {
	lb, err := p.balancer(ctx, cluster.User, cluster.Project)
	if err != nil {
		return nil, err
	}
	nodes, err := p.services.Store.Nodes().ListByCluster(ctx, *cluster.ID)
	if err != nil {
		return nil, err
	}
	for i := range nodes {
		if err := p.addMember(ctx, lb, &nodes[i]); err != nil {
			return nil, err
		}
	}
	return map[string]any{"pool": p.pool, "protocol_port": p.protocolPort}, nil
}

// Detach removes every registered member of the cluster from the pool.
func (p *LBMemberPolicy) Detach(ctx context.Context, cluster *models.Cluster) error {
	lb, err := p.balancer(ctx, cluster.User, cluster.Project)
	if err != nil {
		return err
	}
	nodes, err := p.services.Store.Nodes().ListByCluster(ctx, *cluster.ID)
	if err != nil {
		return err
	}
	for i := range nodes {
		if err := p.removeMember(ctx, lb, &nodes[i]); err != nil {
			return err
		}
	}
	return nil
}

// PreOp deregisters the members a pending shrink will remove.  The
// victims are resolved here and recorded as the deletion candidates, so
// the runtime destroys exactly the deregistered set.
func (p *LBMemberPolicy) PreOp(ctx context.Context, clusterID uuid.UUID, action *models.Action) error {
	cluster, err := p.services.Store.Clusters().Get(ctx, clusterID)
	if err != nil {
		return err
	}
	victims, err := p.shrinkVictims(ctx, cluster, action)
	if err != nil {
		return err
	}
	if len(victims) == 0 {
		return nil
	}

	lb, err := p.balancer(ctx, cluster.User, cluster.Project)
	if err != nil {
		return err
	}
	for _, nodeID := range victims {
		node, err := p.services.Store.Nodes().Get(ctx, nodeID)
		if typederrors.IsNotFoundError(err) {
			continue
		}
		if err != nil {
			return err
		}
		if err := p.removeMember(ctx, lb, node); err != nil {
			return err
		}
	}
	return nil
}

// shrinkVictims resolves the nodes the action is about to remove:
// candidates selected by an earlier hook win, then the explicit node list
// of a DEL_NODES, then a count-based pick mirroring the runtime's newest
// first order.  The pick is recorded back as the deletion candidates.
func (p *LBMemberPolicy) shrinkVictims(ctx context.Context, cluster *models.Cluster,
	action *models.Action) ([]uuid.UUID, error) {

	if raw, ok := models.NestedValue(action.Data, models.DataKeyDeletion, models.DataKeyCandidates); ok {
		items, _ := raw.([]any)
		victims := make([]uuid.UUID, 0, len(items))
		for _, item := range items {
			s, ok2 := item.(string)
			if !ok2 {
				return nil, typederrors.NewValidationError(nil, "malformed deletion candidates")
			}
			id, err := uuid.Parse(s)
			if err != nil {
				return nil, typederrors.NewValidationError(err, "invalid deletion candidate '%s'", s)
			}
			victims = append(victims, id)
		}
		return victims, nil
	}

	if action.Action == models.ClusterActionDelNodes {
		raw, _ := action.Inputs["nodes"].([]any)
		victims := make([]uuid.UUID, 0, len(raw))
		for _, item := range raw {
			s, ok := item.(string)
			if !ok {
				continue
			}
			id, err := uuid.Parse(s)
			if err != nil {
				continue
			}
			victims = append(victims, id)
		}
		return victims, nil
	}

	nodes, err := p.services.Store.Nodes().ListByCluster(ctx, *cluster.ID)
	if err != nil {
		return nil, err
	}

	count, ok := models.NestedInt(action.Data, models.DataKeyDeletion, models.DataKeyCount)
	if !ok {
		if action.Action == models.ClusterActionResize {
			if reason := scaleutils.ParseResizeParams(action, cluster, len(nodes)); reason != "" {
				// The runtime will reject the resize on its own.
				return nil, nil
			}
			count, ok = models.NestedInt(action.Data, models.DataKeyDeletion, models.DataKeyCount)
			if !ok {
				// Not a shrink.
				return nil, nil
			}
		} else if n := models.InputInt(action.Inputs, "count"); n != nil {
			count = *n
		} else {
			count = 1
		}
	}
	if count <= 0 {
		return nil, nil
	}
	if count > len(nodes) {
		count = len(nodes)
	}

	sort.SliceStable(nodes, func(i, j int) bool {
		if nodes[i].Index != nodes[j].Index {
			return nodes[i].Index > nodes[j].Index
		}
		return nodes[i].CreatedAt.Before(*nodes[j].CreatedAt)
	})

	victims := make([]uuid.UUID, 0, count)
	candidates := make([]any, 0, count)
	for _, node := range nodes[:count] {
		victims = append(victims, *node.ID)
		candidates = append(candidates, node.ID.String())
	}
	action.Data = models.SetNested(action.Data, models.DataKeyDeletion, models.DataKeyCount, count)
	action.Data = models.SetNested(action.Data, models.DataKeyDeletion, models.DataKeyCandidates, candidates)
	return victims, nil
}

// PostOp registers the members the finished action added, per its
// nodes_added output.
func (p *LBMemberPolicy) PostOp(ctx context.Context, clusterID uuid.UUID, action *models.Action) error {
	added := outputIDs(action.Outputs, "nodes_added")
	if len(added) == 0 {
		return nil
	}
	if action.Data == nil {
		action.Data = map[string]any{}
	}

	cluster, err := p.services.Store.Clusters().Get(ctx, clusterID)
	if err != nil {
		return err
	}
	lb, err := p.balancer(ctx, cluster.User, cluster.Project)
	if err != nil {
		return err
	}

	for _, nodeID := range added {
		node, err := p.services.Store.Nodes().Get(ctx, nodeID)
		if err != nil {
			return err
		}
		if _, registered := node.Data[models.NodeDataLBMember]; registered {
			p.services.Logger.WarnContext(ctx, "Node already in lb pool",
				slog.String("node", node.ID.String()), slog.String("pool", p.pool))
			continue
		}
		if err := p.addMember(ctx, lb, node); err != nil {
			action.Data[models.DataKeyStatus] = models.CheckError
			action.Data[models.DataKeyReason] = "Failed in adding new node(s) into lb pool."
			return nil
		}
	}
	return nil
}

func (p *LBMemberPolicy) balancer(ctx context.Context, user, project string) (driver.LoadBalancingClient, error) {
	params, err := session.Params(ctx, p.services.Store, p.services.AuthURL, user, project)
	if err != nil {
		return nil, err
	}
	sess, err := p.services.Provider.Session(ctx, params)
	if err != nil {
		return nil, err
	}
	return sess.LoadBalancing(), nil
}

func (p *LBMemberPolicy) addMember(ctx context.Context, lb driver.LoadBalancingClient, node *models.Node) error {
	p.services.Logger.InfoContext(ctx, "Adding node to lb pool",
		slog.String("node", node.ID.String()),
		slog.Int("port", p.protocolPort),
		slog.String("pool", p.pool))
	memberID, err := lb.MemberAdd(ctx, node, p.pool, p.protocolPort)
	if err != nil {
		return err
	}
	if node.Data == nil {
		node.Data = map[string]any{}
	}
	node.Data[models.NodeDataLBMember] = memberID
	_, err = p.services.Store.Nodes().Update(ctx, node)
	return err
}

func (p *LBMemberPolicy) removeMember(ctx context.Context, lb driver.LoadBalancingClient, node *models.Node) error {
	memberID, ok := node.Data[models.NodeDataLBMember].(string)
	if !ok || memberID == "" {
		p.services.Logger.WarnContext(ctx, "Node not found in lb pool",
			slog.String("node", node.ID.String()), slog.String("pool", p.pool))
		return nil
	}
	p.services.Logger.InfoContext(ctx, "Removing node from lb pool",
		slog.String("node", node.ID.String()),
		slog.Int("port", p.protocolPort),
		slog.String("pool", p.pool))
	if err := lb.MemberRemove(ctx, memberID); err != nil {
		return err
	}
	delete(node.Data, models.NodeDataLBMember)
	_, err := p.services.Store.Nodes().Update(ctx, node)
	return err
}
