/*
SPDX-FileCopyrightText: The Corral Authors

SPDX-License-Identifier: Apache-2.0
*/

package action_test

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"

	"github.com/corral-cloud/corral/internal/driver"
	"github.com/corral-cloud/corral/internal/driver/generated"
	"github.com/corral-cloud/corral/internal/engine/action"
	"github.com/corral-cloud/corral/internal/engine/lock"
	"github.com/corral-cloud/corral/internal/engine/profile"
	"github.com/corral-cloud/corral/internal/models"
	"github.com/corral-cloud/corral/internal/storage/memory"
	"github.com/corral-cloud/corral/internal/typederrors"
)

var _ = Describe("NodeRuntime", func() {
	var (
		ctx     context.Context
		store   *memory.Store
		ctrl    *gomock.Controller
		compute *generated.MockComputeClient
		runtime *action.NodeRuntime
		record  *models.Profile
	)

	BeforeEach(func() {
		ctx = context.Background()
		store = memory.NewStore()
		ctrl = gomock.NewController(GinkgoT())

		provider := generated.NewMockProvider(ctrl)
		sess := generated.NewMockSession(ctrl)
		compute = generated.NewMockComputeClient(ctrl)
		provider.EXPECT().Session(gomock.Any(), gomock.Any()).Return(sess, nil).AnyTimes()
		sess.EXPECT().Compute().Return(compute).AnyTimes()

		logger := slog.New(slog.NewTextHandler(GinkgoWriter, nil))
		services := profile.Services{Store: store, Provider: provider, Logger: logger}
		locks := lock.NewManager(store, nil, logger)
		runtime = action.NewNodeRuntime(store, locks, profile.DefaultRegistry(), services, logger)

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
		_, err = store.Credentials().Create(ctx, &models.Credential{
			User:    "u1",
			Project: "p1",
			Cred:    map[string]any{"trust_id": "trust-1"},
		})
		Expect(err).ToNot(HaveOccurred())
	})

	AfterEach(func() {
		ctrl.Finish()
	})

	seedNode := func(mutate func(*models.Node)) *models.Node {
		node := &models.Node{
			Name:      "node-1",
			ProfileID: *record.ID,
			Index:     models.OrphanNodeIndex,
			Status:    models.NodeStatusInit,
			User:      "u1",
			Project:   "p1",
		}
		if mutate != nil {
			mutate(node)
		}
		created, err := store.Nodes().Create(ctx, node)
		Expect(err).ToNot(HaveOccurred())
		return created
	}

	seedAction := func(operation string, targetID uuid.UUID, inputs map[string]any) *models.Action {
		created, err := store.Actions().Create(ctx, &models.Action{
			Name:     "node_op_test",
			TargetID: targetID,
			Action:   operation,
			Cause:    models.CauseRPC,
			Status:   models.ActionStatusRunning,
			Inputs:   inputs,
		})
		Expect(err).ToNot(HaveOccurred())
		return created
	}

	Describe("NODE_CREATE", func() {
		It("provisions the server and activates the node", func() {
			node := seedNode(nil)
			act := seedAction(models.NodeActionCreate, *node.ID, nil)

			compute.EXPECT().FlavorFind(gomock.Any(), "m1.small").Return("flavor-1", nil)
			compute.EXPECT().ServerCreate(gomock.Any(), gomock.Any()).
				Return(&driver.Server{ID: "server-1"}, nil)

			result := runtime.Execute(ctx, act)
			Expect(result.Code).To(Equal(action.ResultOK))

			refreshed, err := store.Nodes().Get(ctx, *node.ID)
			Expect(err).ToNot(HaveOccurred())
			Expect(refreshed.Status).To(Equal(models.NodeStatusActive))
			Expect(refreshed.PhysicalID).ToNot(BeNil())
			Expect(*refreshed.PhysicalID).To(Equal("server-1"))
		})

		It("fails without retrying on a validation error", func() {
			node := seedNode(nil)
			act := seedAction(models.NodeActionCreate, *node.ID, nil)

			compute.EXPECT().FlavorFind(gomock.Any(), "m1.small").Return("", typederrors.NewValidationError(nil, "no such flavor")).Times(1)

			result := runtime.Execute(ctx, act)
			Expect(result.Code).To(Equal(action.ResultError))
			Expect(result.Reason).To(ContainSubstring("Failed in creating node"))

			refreshed, err := store.Nodes().Get(ctx, *node.ID)
			Expect(err).ToNot(HaveOccurred())
			Expect(refreshed.Status).To(Equal(models.NodeStatusError))
			Expect(refreshed.PhysicalID).To(BeNil())
		})
	})

	Describe("NODE_DELETE", func() {
		It("destroys the server and removes the record", func() {
			physical := "server-1"
			node := seedNode(func(n *models.Node) {
				n.Status = models.NodeStatusActive
				n.PhysicalID = &physical
			})
			act := seedAction(models.NodeActionDelete, *node.ID, nil)

			compute.EXPECT().ServerDelete(gomock.Any(), "server-1", true).Return(nil)
			compute.EXPECT().WaitForServerDelete(gomock.Any(), "server-1", gomock.Any()).Return(nil)

			result := runtime.Execute(ctx, act)
			Expect(result.Code).To(Equal(action.ResultOK))

			_, err := store.Nodes().Get(ctx, *node.ID)
			Expect(typederrors.IsNotFoundError(err)).To(BeTrue())
		})

		It("skips the driver for a node without a physical resource", func() {
			node := seedNode(func(n *models.Node) { n.Status = models.NodeStatusActive })
			act := seedAction(models.NodeActionDelete, *node.ID, nil)

			result := runtime.Execute(ctx, act)
			Expect(result.Code).To(Equal(action.ResultOK))
		})
	})

	Describe("NODE_JOIN", func() {
		It("requires a cluster_id input", func() {
			node := seedNode(nil)
			act := seedAction(models.NodeActionJoin, *node.ID, nil)

			result := runtime.Execute(ctx, act)
			Expect(result.Code).To(Equal(action.ResultError))
			Expect(result.Reason).To(Equal("Missing cluster_id input"))
		})

		It("adopts an orphan into the cluster", func() {
			cluster, err := store.Clusters().Create(ctx, &models.Cluster{
				Name:      "web",
				ProfileID: *record.ID,
				Status:    models.ClusterStatusActive,
			})
			Expect(err).ToNot(HaveOccurred())
			node := seedNode(func(n *models.Node) { n.Status = models.NodeStatusActive })
			act := seedAction(models.NodeActionJoin, *node.ID,
				map[string]any{"cluster_id": cluster.ID.String()})

			result := runtime.Execute(ctx, act)
			Expect(result.Code).To(Equal(action.ResultOK))

			refreshed, err := store.Nodes().Get(ctx, *node.ID)
			Expect(err).ToNot(HaveOccurred())
			Expect(refreshed.ClusterID).ToNot(BeNil())
			Expect(*refreshed.ClusterID).To(Equal(*cluster.ID))
			Expect(refreshed.Index).To(BeNumerically(">", 0))
		})

		It("rejects a node already owned by a cluster", func() {
			owner := uuid.New()
			node := seedNode(func(n *models.Node) {
				n.ClusterID = &owner
				n.Index = 1
			})
			act := seedAction(models.NodeActionJoin, *node.ID,
				map[string]any{"cluster_id": uuid.New().String()})

			result := runtime.Execute(ctx, act)
			Expect(result.Code).To(Equal(action.ResultError))
			Expect(result.Reason).To(ContainSubstring("already owned by cluster"))
		})
	})

	Describe("NODE_LEAVE", func() {
		It("detaches a member from its cluster", func() {
			owner := uuid.New()
			node := seedNode(func(n *models.Node) {
				n.Status = models.NodeStatusActive
				n.ClusterID = &owner
				n.Index = 3
			})
			act := seedAction(models.NodeActionLeave, *node.ID, nil)

			result := runtime.Execute(ctx, act)
			Expect(result.Code).To(Equal(action.ResultOK))

			refreshed, err := store.Nodes().Get(ctx, *node.ID)
			Expect(err).ToNot(HaveOccurred())
			Expect(refreshed.ClusterID).To(BeNil())
			Expect(refreshed.Index).To(Equal(models.OrphanNodeIndex))
		})
	})

	Describe("signals", func() {
		It("observes a pending cancel before doing work", func() {
			node := seedNode(nil)
			act := seedAction(models.NodeActionCreate, *node.ID, nil)
			Expect(store.Actions().SetControl(ctx, *act.ID, models.ActionControlCancel)).To(Succeed())

			result := runtime.Execute(ctx, act)
			Expect(result.Code).To(Equal(action.ResultCancel))
		})
	})

	It("fails a missing target permanently", func() {
		act := seedAction(models.NodeActionCreate, uuid.New(), nil)

		result := runtime.Execute(ctx, act)
		Expect(result.Code).To(Equal(action.ResultError))
		Expect(result.Reason).To(ContainSubstring("not found"))
	})

	It("rejects an unsupported operation", func() {
		node := seedNode(nil)
		act := seedAction("NODE_REPAINT", *node.ID, nil)

		result := runtime.Execute(ctx, act)
		Expect(result.Code).To(Equal(action.ResultError))
		Expect(result.Reason).To(Equal("Unsupported node action 'NODE_REPAINT'"))
	})
})
