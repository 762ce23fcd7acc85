/*
SPDX-FileCopyrightText: The Corral Authors

SPDX-License-Identifier: Apache-2.0
*/

package service_test

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/corral-cloud/corral/internal/engine/policy"
	"github.com/corral-cloud/corral/internal/engine/profile"
	"github.com/corral-cloud/corral/internal/engine/service"
	"github.com/corral-cloud/corral/internal/models"
	"github.com/corral-cloud/corral/internal/rcontext"
	"github.com/corral-cloud/corral/internal/storage/memory"
	"github.com/corral-cloud/corral/internal/typederrors"
)

// queueNotifier records scheduler notifications instead of waking workers.
type queueNotifier struct {
	ready     []uuid.UUID
	cancelled []uuid.UUID
}

func (n *queueNotifier) NotifyReady(actionID uuid.UUID)  { n.ready = append(n.ready, actionID) }
func (n *queueNotifier) NotifyCancel(actionID uuid.UUID) { n.cancelled = append(n.cancelled, actionID) }

var _ = Describe("Service", func() {
	var (
		ctx      context.Context
		store    *memory.Store
		notifier *queueNotifier
		svc      *service.Service
		record   *models.Profile
	)

	intPtr := func(v int) *int { return &v }

	BeforeEach(func() {
		ctx = rcontext.WithRequestContext(context.Background(), rcontext.RequestContext{
			User:    "u1",
			Project: "p1",
		})
		store = memory.NewStore()
		notifier = &queueNotifier{}

		logger := slog.New(slog.NewTextHandler(GinkgoWriter, nil))
		profSvcs := profile.Services{Store: store, Logger: logger}
		policies := policy.NewEngine(policy.DefaultRegistry(),
			policy.Services{Store: store, Logger: logger})
		svc = service.New(store, policies, profile.DefaultRegistry(), profSvcs, notifier, logger)

		var err error
		record, err = store.Profiles().Create(ctx, &models.Profile{
			Name:    "small-server",
			Type:    profile.TypeNovaServer,
			Version: "1.0",
			Spec:    map[string]any{"flavor": "m1.small"},
			User:    "u1",
			Project: "p1",
		})
		Expect(err).ToNot(HaveOccurred())
	})

	Describe("ClusterCreate", func() {
		It("requires a name", func() {
			_, _, err := svc.ClusterCreate(ctx, service.ClusterCreateRequest{ProfileID: *record.ID})
			Expect(typederrors.IsValidationError(err)).To(BeTrue())
		})

		It("rejects an unknown profile", func() {
			_, _, err := svc.ClusterCreate(ctx, service.ClusterCreateRequest{
				Name:      "web",
				ProfileID: uuid.New(),
			})
			Expect(typederrors.IsNotFoundError(err)).To(BeTrue())
		})

		It("rejects a desired capacity outside the requested bounds", func() {
			_, _, err := svc.ClusterCreate(ctx, service.ClusterCreateRequest{
				Name:            "web",
				ProfileID:       *record.ID,
				DesiredCapacity: 8,
				MinSize:         intPtr(10),
			})
			Expect(typederrors.IsValidationError(err)).To(BeTrue())
			Expect(err.Error()).To(ContainSubstring(
				"The target capacity (8) is less than the specified min_size (10)."))
		})

		It("persists the cluster and queues its creation", func() {
			cluster, actionID, err := svc.ClusterCreate(ctx, service.ClusterCreateRequest{
				Name:            "web",
				ProfileID:       *record.ID,
				DesiredCapacity: 2,
				MaxSize:         intPtr(5),
			})
			Expect(err).ToNot(HaveOccurred())
			Expect(cluster.Status).To(Equal(models.ClusterStatusInit))
			Expect(cluster.Project).To(Equal("p1"))
			Expect(notifier.ready).To(HaveExactElements(Equal(actionID)))

			act, err := store.Actions().Get(ctx, actionID)
			Expect(err).ToNot(HaveOccurred())
			Expect(act.Action).To(Equal(models.ClusterActionCreate))
			Expect(act.Status).To(Equal(models.ActionStatusReady))
			Expect(act.Cause).To(Equal(models.CauseRPC))
			Expect(act.TargetID).To(Equal(*cluster.ID))
			Expect(act.Name).To(HavePrefix("cluster_create_"))
		})
	})

	Describe("ClusterResize", func() {
		var clusterID uuid.UUID

		BeforeEach(func() {
			cluster, _, err := svc.ClusterCreate(ctx, service.ClusterCreateRequest{
				Name:      "web",
				ProfileID: *record.ID,
			})
			Expect(err).ToNot(HaveOccurred())
			clusterID = *cluster.ID
		})

		It("rejects an unknown adjustment type", func() {
			_, err := svc.ClusterResize(ctx, clusterID, service.ClusterResizeRequest{
				AdjustmentType: "GUESSWORK",
				Number:         intPtr(1),
			})
			Expect(typederrors.IsValidationError(err)).To(BeTrue())
		})

		It("requires a number with an adjustment type", func() {
			_, err := svc.ClusterResize(ctx, clusterID, service.ClusterResizeRequest{
				AdjustmentType: "EXACT_CAPACITY",
			})
			Expect(typederrors.IsValidationError(err)).To(BeTrue())
			Expect(err.Error()).To(ContainSubstring("Missing number value for size adjustment."))
		})

		It("queues a bounds-only resize", func() {
			actionID, err := svc.ClusterResize(ctx, clusterID, service.ClusterResizeRequest{
				MaxSize: intPtr(10),
			})
			Expect(err).ToNot(HaveOccurred())

			act, err := store.Actions().Get(ctx, actionID)
			Expect(err).ToNot(HaveOccurred())
			Expect(act.Action).To(Equal(models.ClusterActionResize))
			Expect(act.Inputs).To(HaveKeyWithValue("max_size", 10))
		})
	})

	Describe("scaling intents", func() {
		var clusterID uuid.UUID

		BeforeEach(func() {
			cluster, _, err := svc.ClusterCreate(ctx, service.ClusterCreateRequest{
				Name:      "web",
				ProfileID: *record.ID,
			})
			Expect(err).ToNot(HaveOccurred())
			clusterID = *cluster.ID
		})

		It("rejects a non-positive count", func() {
			_, err := svc.ClusterScaleOut(ctx, clusterID, intPtr(0))
			Expect(typederrors.IsValidationError(err)).To(BeTrue())
			Expect(err.Error()).To(ContainSubstring("Invalid count (0) for action CLUSTER_SCALE_OUT"))
		})

		It("queues a scale-in with its count", func() {
			actionID, err := svc.ClusterScaleIn(ctx, clusterID, intPtr(2))
			Expect(err).ToNot(HaveOccurred())

			act, err := store.Actions().Get(ctx, actionID)
			Expect(err).ToNot(HaveOccurred())
			Expect(act.Action).To(Equal(models.ClusterActionScaleIn))
			Expect(act.Inputs).To(HaveKeyWithValue("count", 2))
		})
	})

	Describe("ClusterDelete", func() {
		var clusterID uuid.UUID

		BeforeEach(func() {
			cluster, _, err := svc.ClusterCreate(ctx, service.ClusterCreateRequest{
				Name:      "web",
				ProfileID: *record.ID,
			})
			Expect(err).ToNot(HaveOccurred())
			clusterID = *cluster.ID
		})

		It("refuses while policies are attached", func() {
			pol, err := store.Policies().Create(ctx, &models.Policy{
				Name: "scale", Type: policy.TypeScaling, Version: "1.0",
				Spec: map[string]any{"event": models.ClusterActionScaleOut},
			})
			Expect(err).ToNot(HaveOccurred())
			_, err = store.Bindings().Attach(ctx, &models.ClusterPolicy{
				ClusterID: clusterID, PolicyID: *pol.ID, Enabled: true,
			})
			Expect(err).ToNot(HaveOccurred())

			_, err = svc.ClusterDelete(ctx, clusterID)
			Expect(typederrors.IsConflictError(err)).To(BeTrue())
		})

		It("refuses while receivers are attached", func() {
			scoped := rcontext.WithRequestContext(ctx, rcontext.RequestContext{
				User: "u1", Project: "p1", TrustID: "trust-1",
			})
			_, err := svc.ReceiverCreate(scoped, "hook", clusterID,
				models.ClusterActionScaleOut, nil)
			Expect(err).ToNot(HaveOccurred())

			_, err = svc.ClusterDelete(ctx, clusterID)
			Expect(typederrors.IsConflictError(err)).To(BeTrue())
		})

		It("queues the deletion otherwise", func() {
			actionID, err := svc.ClusterDelete(ctx, clusterID)
			Expect(err).ToNot(HaveOccurred())

			act, err := store.Actions().Get(ctx, actionID)
			Expect(err).ToNot(HaveOccurred())
			Expect(act.Action).To(Equal(models.ClusterActionDelete))
		})
	})

	Describe("membership intents", func() {
		var clusterID uuid.UUID

		BeforeEach(func() {
			cluster, _, err := svc.ClusterCreate(ctx, service.ClusterCreateRequest{
				Name:      "web",
				ProfileID: *record.ID,
			})
			Expect(err).ToNot(HaveOccurred())
			clusterID = *cluster.ID
		})

		It("rejects adding a node already owned by a cluster", func() {
			owner := uuid.New()
			node, err := store.Nodes().Create(ctx, &models.Node{
				Name: "n1", ProfileID: *record.ID, ClusterID: &owner, Index: 1,
			})
			Expect(err).ToNot(HaveOccurred())

			_, err = svc.ClusterAddNodes(ctx, clusterID, []uuid.UUID{*node.ID})
			Expect(typederrors.IsConflictError(err)).To(BeTrue())
		})

		It("rejects adding a node of another profile type", func() {
			other, err := store.Profiles().Create(ctx, &models.Profile{
				Name: "other", Type: "os.heat.stack", Version: "1.0",
			})
			Expect(err).ToNot(HaveOccurred())
			node, err := store.Nodes().Create(ctx, &models.Node{
				Name: "n1", ProfileID: *other.ID, Index: models.OrphanNodeIndex,
			})
			Expect(err).ToNot(HaveOccurred())

			_, err = svc.ClusterAddNodes(ctx, clusterID, []uuid.UUID{*node.ID})
			Expect(typederrors.IsValidationError(err)).To(BeTrue())
		})

		It("queues adoption of valid orphans", func() {
			node, err := store.Nodes().Create(ctx, &models.Node{
				Name: "n1", ProfileID: *record.ID, Index: models.OrphanNodeIndex,
			})
			Expect(err).ToNot(HaveOccurred())

			actionID, err := svc.ClusterAddNodes(ctx, clusterID, []uuid.UUID{*node.ID})
			Expect(err).ToNot(HaveOccurred())

			act, err := store.Actions().Get(ctx, actionID)
			Expect(err).ToNot(HaveOccurred())
			Expect(act.Action).To(Equal(models.ClusterActionAddNodes))
			Expect(act.Inputs["nodes"]).To(Equal([]any{node.ID.String()}))
		})

		It("rejects removing a non-member", func() {
			node, err := store.Nodes().Create(ctx, &models.Node{
				Name: "n1", ProfileID: *record.ID, Index: models.OrphanNodeIndex,
			})
			Expect(err).ToNot(HaveOccurred())

			_, err = svc.ClusterDelNodes(ctx, clusterID, []uuid.UUID{*node.ID})
			Expect(typederrors.IsValidationError(err)).To(BeTrue())
		})

		It("queues the join of an active orphan", func() {
			node, err := store.Nodes().Create(ctx, &models.Node{
				Name: "n1", ProfileID: *record.ID, Index: models.OrphanNodeIndex,
				Status: models.NodeStatusActive,
			})
			Expect(err).ToNot(HaveOccurred())

			actionID, err := svc.NodeJoin(ctx, *node.ID, clusterID)
			Expect(err).ToNot(HaveOccurred())

			act, err := store.Actions().Get(ctx, actionID)
			Expect(err).ToNot(HaveOccurred())
			Expect(act.Action).To(Equal(models.NodeActionJoin))
			Expect(act.TargetID).To(Equal(*node.ID))
			Expect(act.Inputs).To(HaveKeyWithValue("cluster_id", clusterID.String()))
			Expect(act.Name).To(HavePrefix("node_join_"))
		})

		It("rejects joining a node that already has an owner", func() {
			owner := uuid.New()
			node, err := store.Nodes().Create(ctx, &models.Node{
				Name: "n1", ProfileID: *record.ID, ClusterID: &owner, Index: 1,
				Status: models.NodeStatusActive,
			})
			Expect(err).ToNot(HaveOccurred())

			_, err = svc.NodeJoin(ctx, *node.ID, clusterID)
			Expect(typederrors.IsValidationError(err)).To(BeTrue())
			Expect(err.Error()).To(ContainSubstring("already owned"))
		})

		It("rejects joining a node of another profile type", func() {
			other, err := store.Profiles().Create(ctx, &models.Profile{
				Name: "other", Type: "os.heat.stack", Version: "1.0",
			})
			Expect(err).ToNot(HaveOccurred())
			node, err := store.Nodes().Create(ctx, &models.Node{
				Name: "n1", ProfileID: *other.ID, Index: models.OrphanNodeIndex,
				Status: models.NodeStatusActive,
			})
			Expect(err).ToNot(HaveOccurred())

			_, err = svc.NodeJoin(ctx, *node.ID, clusterID)
			Expect(typederrors.IsValidationError(err)).To(BeTrue())
		})

		It("queues the leave of an active member", func() {
			node, err := store.Nodes().Create(ctx, &models.Node{
				Name: "n1", ProfileID: *record.ID, ClusterID: &clusterID, Index: 1,
				Status: models.NodeStatusActive,
			})
			Expect(err).ToNot(HaveOccurred())

			actionID, err := svc.NodeLeave(ctx, *node.ID)
			Expect(err).ToNot(HaveOccurred())

			act, err := store.Actions().Get(ctx, actionID)
			Expect(err).ToNot(HaveOccurred())
			Expect(act.Action).To(Equal(models.NodeActionLeave))
			Expect(act.TargetID).To(Equal(*node.ID))
			Expect(act.Name).To(HavePrefix("node_leave_"))
		})

		It("rejects the leave of an orphan", func() {
			node, err := store.Nodes().Create(ctx, &models.Node{
				Name: "n1", ProfileID: *record.ID, Index: models.OrphanNodeIndex,
				Status: models.NodeStatusActive,
			})
			Expect(err).ToNot(HaveOccurred())

			_, err = svc.NodeLeave(ctx, *node.ID)
			Expect(typederrors.IsValidationError(err)).To(BeTrue())
		})
	})

	Describe("policy attachment", func() {
		var (
			clusterID uuid.UUID
			policyID  uuid.UUID
		)

		BeforeEach(func() {
			cluster, _, err := svc.ClusterCreate(ctx, service.ClusterCreateRequest{
				Name:      "web",
				ProfileID: *record.ID,
			})
			Expect(err).ToNot(HaveOccurred())
			clusterID = *cluster.ID

			pol, err := store.Policies().Create(ctx, &models.Policy{
				Name: "scale", Type: policy.TypeScaling, Version: "1.0",
				Spec: map[string]any{"event": models.ClusterActionScaleOut},
			})
			Expect(err).ToNot(HaveOccurred())
			policyID = *pol.ID
		})

		It("queues the attach intent", func() {
			actionID, err := svc.ClusterAttachPolicy(ctx, clusterID, policyID,
				intPtr(40), nil, nil, true)
			Expect(err).ToNot(HaveOccurred())

			act, err := store.Actions().Get(ctx, actionID)
			Expect(err).ToNot(HaveOccurred())
			Expect(act.Action).To(Equal(models.ClusterActionAttachPolicy))
			Expect(act.Inputs).To(HaveKeyWithValue("policy_id", policyID.String()))
			Expect(act.Inputs).To(HaveKeyWithValue("priority", 40))
		})

		It("conflicts when the policy is already attached", func() {
			_, err := store.Bindings().Attach(ctx, &models.ClusterPolicy{
				ClusterID: clusterID, PolicyID: policyID, Enabled: true,
			})
			Expect(err).ToNot(HaveOccurred())

			_, err = svc.ClusterAttachPolicy(ctx, clusterID, policyID, nil, nil, nil, true)
			Expect(typederrors.IsConflictError(err)).To(BeTrue())
		})

		It("rejects detaching an unattached policy", func() {
			_, err := svc.ClusterDetachPolicy(ctx, clusterID, policyID)
			Expect(typederrors.IsNotFoundError(err)).To(BeTrue())
		})

		It("returns one binding by cluster and policy", func() {
			_, err := store.Bindings().Attach(ctx, &models.ClusterPolicy{
				ClusterID: clusterID, PolicyID: policyID, Priority: 40, Enabled: true,
			})
			Expect(err).ToNot(HaveOccurred())

			binding, err := svc.ClusterPolicyGet(ctx, clusterID, policyID)
			Expect(err).ToNot(HaveOccurred())
			Expect(binding.PolicyID).To(Equal(policyID))
			Expect(binding.Priority).To(Equal(40))
			Expect(binding.Enabled).To(BeTrue())
		})

		It("reports an unattached policy as not found", func() {
			_, err := svc.ClusterPolicyGet(ctx, clusterID, policyID)
			Expect(typederrors.IsNotFoundError(err)).To(BeTrue())
		})
	})

	Describe("ActionCancel", func() {
		It("flags a live action and wakes the scheduler", func() {
			_, actionID, err := svc.ClusterCreate(ctx, service.ClusterCreateRequest{
				Name:      "web",
				ProfileID: *record.ID,
			})
			Expect(err).ToNot(HaveOccurred())

			Expect(svc.ActionCancel(ctx, actionID)).To(Succeed())
			Expect(notifier.cancelled).To(HaveExactElements(Equal(actionID)))

			act, err := store.Actions().Get(ctx, actionID)
			Expect(err).ToNot(HaveOccurred())
			Expect(act.Control).ToNot(BeNil())
			Expect(*act.Control).To(Equal(models.ActionControlCancel))
		})

		It("is a no-op on a terminal action", func() {
			act, err := store.Actions().Create(ctx, &models.Action{
				Name:   "done",
				Action: models.ClusterActionCreate,
				Status: models.ActionStatusSucceeded,
			})
			Expect(err).ToNot(HaveOccurred())

			Expect(svc.ActionCancel(ctx, *act.ID)).To(Succeed())
			Expect(notifier.cancelled).To(BeEmpty())
		})
	})

	Describe("receivers", func() {
		var clusterID uuid.UUID

		BeforeEach(func() {
			cluster, _, err := svc.ClusterCreate(ctx, service.ClusterCreateRequest{
				Name:      "web",
				ProfileID: *record.ID,
			})
			Expect(err).ToNot(HaveOccurred())
			clusterID = *cluster.ID
		})

		It("rejects an untriggerable action", func() {
			_, err := svc.ReceiverCreate(ctx, "hook", clusterID, models.ClusterActionDelete, nil)
			Expect(typederrors.IsValidationError(err)).To(BeTrue())
		})

		It("requires a trust id from a non-admin caller", func() {
			_, err := svc.ReceiverCreate(ctx, "hook", clusterID, models.ClusterActionScaleOut, nil)
			Expect(typederrors.IsValidationError(err)).To(BeTrue())
			Expect(err.Error()).To(ContainSubstring("no trust id"))
		})

		It("binds the caller's trust", func() {
			scoped := rcontext.WithRequestContext(ctx, rcontext.RequestContext{
				User: "u1", Project: "p1", TrustID: "trust-1",
			})
			receiver, err := svc.ReceiverCreate(scoped, "hook", clusterID,
				models.ClusterActionScaleOut, map[string]any{"count": 1})
			Expect(err).ToNot(HaveOccurred())
			Expect(receiver.Actor).To(HaveKeyWithValue("trust_id", "trust-1"))
			Expect(receiver.Type).To(Equal(models.ReceiverTypeWebhook))
		})

		It("borrows the cluster owner's trust for an admin caller", func() {
			_, err := store.Credentials().Create(ctx, &models.Credential{
				User: "u1", Project: "p1",
				Cred: map[string]any{"trust_id": "owner-trust"},
			})
			Expect(err).ToNot(HaveOccurred())

			admin := rcontext.WithRequestContext(ctx, rcontext.RequestContext{
				User: "admin", Project: "ops", IsAdmin: true,
			})
			receiver, err := svc.ReceiverCreate(admin, "hook", clusterID,
				models.ClusterActionScaleOut, nil)
			Expect(err).ToNot(HaveOccurred())
			Expect(receiver.Actor).To(HaveKeyWithValue("trust_id", "owner-trust"))
		})

		It("fires the bound action with merged params", func() {
			scoped := rcontext.WithRequestContext(ctx, rcontext.RequestContext{
				User: "u1", Project: "p1", TrustID: "trust-1",
			})
			receiver, err := svc.ReceiverCreate(scoped, "hook", clusterID,
				models.ClusterActionScaleOut, map[string]any{"count": 1, "reason": "stored"})
			Expect(err).ToNot(HaveOccurred())

			actionID, err := svc.ReceiverNotify(ctx, *receiver.ID, map[string]any{"count": 3})
			Expect(err).ToNot(HaveOccurred())

			act, err := store.Actions().Get(ctx, actionID)
			Expect(err).ToNot(HaveOccurred())
			Expect(act.Action).To(Equal(models.ClusterActionScaleOut))
			Expect(act.TargetID).To(Equal(clusterID))
			Expect(act.Status).To(Equal(models.ActionStatusReady))
			Expect(act.Inputs).To(HaveKeyWithValue("count", 3))
			Expect(act.Inputs).To(HaveKeyWithValue("reason", "stored"))
			Expect(act.Name).To(HavePrefix("webhook_"))
		})
	})

	Describe("catalog", func() {
		It("rejects a malformed profile spec document", func() {
			_, err := svc.ProfileCreate(ctx, "bad", []byte("{{nope"), nil)
			Expect(typederrors.IsValidationError(err)).To(BeTrue())
		})

		It("parses and validates a profile spec document", func() {
			spec := []byte(`
type: os.nova.server
version: "1.0"
properties:
  flavor: m1.large
`)
			created, err := svc.ProfileCreate(ctx, "large-server", spec, nil)
			Expect(err).ToNot(HaveOccurred())
			Expect(created.Type).To(Equal(profile.TypeNovaServer))
			Expect(created.Spec).To(HaveKeyWithValue("flavor", "m1.large"))
		})

		It("refuses deleting a profile still in use", func() {
			_, _, err := svc.ClusterCreate(ctx, service.ClusterCreateRequest{
				Name:      "web",
				ProfileID: *record.ID,
			})
			Expect(err).ToNot(HaveOccurred())

			err = svc.ProfileDelete(ctx, *record.ID)
			Expect(typederrors.IsConflictError(err)).To(BeTrue())
		})

		It("validates a policy spec document against its kind", func() {
			spec := []byte(`
type: corral.policy.scaling
version: "1.0"
properties:
  event: CLUSTER_SCALE_OUT
  adjustment:
    type: CHANGE_IN_CAPACITY
    number: 1
`)
			created, err := svc.PolicyCreate(ctx, "scale-out", spec)
			Expect(err).ToNot(HaveOccurred())
			Expect(created.Type).To(Equal(policy.TypeScaling))
		})

		It("refuses deleting a bound policy", func() {
			pol, err := store.Policies().Create(ctx, &models.Policy{
				Name: "scale", Type: policy.TypeScaling, Version: "1.0",
				Spec: map[string]any{"event": models.ClusterActionScaleOut},
			})
			Expect(err).ToNot(HaveOccurred())
			_, err = store.Bindings().Attach(ctx, &models.ClusterPolicy{
				ClusterID: uuid.New(), PolicyID: *pol.ID,
			})
			Expect(err).ToNot(HaveOccurred())

			err = svc.PolicyDelete(ctx, *pol.ID)
			Expect(typederrors.IsConflictError(err)).To(BeTrue())
		})
	})
})
