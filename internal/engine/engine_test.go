/*
SPDX-FileCopyrightText: The Corral Authors

SPDX-License-Identifier: Apache-2.0
*/

package engine_test

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"

	"github.com/corral-cloud/corral/internal/driver"
	"github.com/corral-cloud/corral/internal/driver/generated"
	"github.com/corral-cloud/corral/internal/engine"
	"github.com/corral-cloud/corral/internal/engine/policy"
	"github.com/corral-cloud/corral/internal/engine/profile"
	"github.com/corral-cloud/corral/internal/engine/service"
	"github.com/corral-cloud/corral/internal/models"
	"github.com/corral-cloud/corral/internal/rcontext"
	"github.com/corral-cloud/corral/internal/storage/memory"
	"github.com/corral-cloud/corral/internal/typederrors"
)

// End-to-end exercises of the assembled engine: intents submitted through
// the service, executed by the scheduler against a mocked cloud driver.
var _ = Describe("Engine", func() {
	var (
		ctx        context.Context
		store      *memory.Store
		ctrl       *gomock.Controller
		compute    *generated.MockComputeClient
		eng        *engine.Engine
		svc        *service.Service
		stopEngine context.CancelFunc
		engineDone chan struct{}
		record     *models.Profile
		serverSeq  atomic.Int64
	)

	intPtr := func(v int) *int { return &v }

	BeforeEach(func() {
		ctx = rcontext.WithRequestContext(context.Background(), rcontext.RequestContext{
			User:    "u1",
			Project: "p1",
		})
		store = memory.NewStore()
		ctrl = gomock.NewController(GinkgoT())

		provider := generated.NewMockProvider(ctrl)
		sess := generated.NewMockSession(ctrl)
		compute = generated.NewMockComputeClient(ctrl)
		provider.EXPECT().Session(gomock.Any(), gomock.Any()).Return(sess, nil).AnyTimes()
		sess.EXPECT().Compute().Return(compute).AnyTimes()

		serverSeq.Store(0)
		compute.EXPECT().FlavorFind(gomock.Any(), "m1.small").Return("flavor-1", nil).AnyTimes()
		compute.EXPECT().ServerCreate(gomock.Any(), gomock.Any()).
			DoAndReturn(func(context.Context, map[string]any) (*driver.Server, error) {
				return &driver.Server{ID: fmt.Sprintf("server-%d", serverSeq.Add(1))}, nil
			}).AnyTimes()

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
		// Derived actions run outside any request scope; node provisioning
		// resolves the owner's stored trust.
		_, err = store.Credentials().Create(ctx, &models.Credential{
			User:    "u1",
			Project: "p1",
			Cred:    map[string]any{"trust_id": "trust-1"},
		})
		Expect(err).ToNot(HaveOccurred())

		eng = engine.New(engine.Params{
			Store:    store,
			Provider: provider,
			Workers:  8,
			Logger:   slog.New(slog.NewTextHandler(GinkgoWriter, nil)),
		})
		svc = eng.Service()

		var engineCtx context.Context
		engineCtx, stopEngine = context.WithCancel(context.Background())
		engineDone = make(chan struct{})
		go func() {
			defer close(engineDone)
			_ = eng.Run(engineCtx)
		}()
	})

	AfterEach(func() {
		stopEngine()
		Eventually(engineDone, 10*time.Second).Should(BeClosed())
		ctrl.Finish()
	})

	waitForAction := func(actionID uuid.UUID, status string) *models.Action {
		var act *models.Action
		Eventually(func() string {
			current, err := store.Actions().Get(context.Background(), actionID)
			if err != nil {
				return ""
			}
			act = current
			return current.Status
		}, 20*time.Second, 50*time.Millisecond).Should(Equal(status))
		return act
	}

	createCluster := func(desired int, maxSize *int) *models.Cluster {
		cluster, actionID, err := svc.ClusterCreate(ctx, service.ClusterCreateRequest{
			Name:            "web",
			ProfileID:       *record.ID,
			DesiredCapacity: desired,
			MaxSize:         maxSize,
		})
		Expect(err).ToNot(HaveOccurred())
		waitForAction(actionID, models.ActionStatusSucceeded)

		refreshed, err := svc.ClusterGet(ctx, *cluster.ID)
		Expect(err).ToNot(HaveOccurred())
		return refreshed
	}

	It("creates a cluster and provisions its members", func() {
		cluster := createCluster(2, nil)

		Expect(cluster.Status).To(Equal(models.ClusterStatusActive))
		Expect(cluster.StatusReason).To(Equal("Cluster creation succeeded"))

		nodes, err := store.Nodes().ListByCluster(ctx, *cluster.ID)
		Expect(err).ToNot(HaveOccurred())
		Expect(nodes).To(HaveLen(2))
		for i := range nodes {
			Expect(nodes[i].Status).To(Equal(models.NodeStatusActive))
			Expect(nodes[i].PhysicalID).ToNot(BeNil())
			Expect(nodes[i].Index).To(Equal(i + 1))
		}

		events, err := svc.EventList(ctx, *cluster.ID)
		Expect(err).ToNot(HaveOccurred())
		Expect(events).ToNot(BeEmpty())
	})

	It("fails a strict resize that violates the size invariants", func() {
		cluster := createCluster(2, nil)

		actionID, err := svc.ClusterResize(ctx, *cluster.ID, service.ClusterResizeRequest{
			MinSize: intPtr(10),
			Strict:  true,
		})
		Expect(err).ToNot(HaveOccurred())

		act := waitForAction(actionID, models.ActionStatusFailed)
		Expect(act.StatusReason).To(ContainSubstring(
			"The target capacity (2) is less than the specified min_size (10)."))

		refreshed, err := svc.ClusterGet(ctx, *cluster.ID)
		Expect(err).ToNot(HaveOccurred())
		Expect(refreshed.Status).To(Equal(models.ClusterStatusActive))
		Expect(refreshed.MinSize).To(Equal(0))
	})

	It("adopts an orphan node as a member", func() {
		cluster := createCluster(2, nil)

		orphan, err := store.Nodes().Create(ctx, &models.Node{
			Name:      "stray",
			ProfileID: *record.ID,
			Index:     models.OrphanNodeIndex,
			Status:    models.NodeStatusActive,
			User:      "u1",
			Project:   "p1",
		})
		Expect(err).ToNot(HaveOccurred())

		actionID, err := svc.ClusterAddNodes(ctx, *cluster.ID, []uuid.UUID{*orphan.ID})
		Expect(err).ToNot(HaveOccurred())
		waitForAction(actionID, models.ActionStatusSucceeded)

		adopted, err := store.Nodes().Get(ctx, *orphan.ID)
		Expect(err).ToNot(HaveOccurred())
		Expect(adopted.ClusterID).ToNot(BeNil())
		Expect(*adopted.ClusterID).To(Equal(*cluster.ID))
		Expect(adopted.Index).To(BeNumerically(">", 0))

		refreshed, err := svc.ClusterGet(ctx, *cluster.ID)
		Expect(err).ToNot(HaveOccurred())
		Expect(refreshed.DesiredCapacity).To(Equal(3))
		Expect(refreshed.Status).To(Equal(models.ClusterStatusActive))
	})

	It("leaves a warning cluster behind when a member refuses to die", func() {
		cluster := createCluster(1, nil)

		compute.EXPECT().ServerDelete(gomock.Any(), gomock.Any(), true).
			Return(typederrors.NewValidationError(nil, "server is protected")).AnyTimes()

		actionID, err := svc.ClusterDelete(ctx, *cluster.ID)
		Expect(err).ToNot(HaveOccurred())
		waitForAction(actionID, models.ActionStatusFailed)

		// The record survives for inspection.
		refreshed, err := svc.ClusterGet(ctx, *cluster.ID)
		Expect(err).ToNot(HaveOccurred())
		Expect(refreshed.Status).To(Equal(models.ClusterStatusWarning))
	})

	It("vetoes a scale-out that would exceed the policy bounds", func() {
		cluster := createCluster(2, intPtr(2))

		pol, err := store.Policies().Create(ctx, &models.Policy{
			Name:    "scale-out",
			Type:    policy.TypeScaling,
			Version: "1.0",
			Spec: map[string]any{
				"event":      models.ClusterActionScaleOut,
				"adjustment": map[string]any{"type": "CHANGE_IN_CAPACITY", "number": 1},
			},
			User:    "u1",
			Project: "p1",
		})
		Expect(err).ToNot(HaveOccurred())
		_, err = store.Bindings().Attach(ctx, &models.ClusterPolicy{
			ClusterID: *cluster.ID,
			PolicyID:  *pol.ID,
			Priority:  models.DefaultBindingPriority,
			Enabled:   true,
		})
		Expect(err).ToNot(HaveOccurred())

		actionID, err := svc.ClusterScaleOut(ctx, *cluster.ID, nil)
		Expect(err).ToNot(HaveOccurred())

		act := waitForAction(actionID, models.ActionStatusFailed)
		Expect(act.StatusReason).To(HavePrefix("Policy check failure:"))
		Expect(act.StatusReason).To(ContainSubstring(
			"The target capacity (3) is greater than the cluster's max_size (2)."))

		refreshed, err := svc.ClusterGet(ctx, *cluster.ID)
		Expect(err).ToNot(HaveOccurred())
		Expect(refreshed.Status).To(Equal(models.ClusterStatusActive))
		Expect(refreshed.DesiredCapacity).To(Equal(2))
	})

	It("serializes concurrent scale-outs through the cluster lock", func() {
		cluster := createCluster(1, nil)

		first, err := svc.ClusterScaleOut(ctx, *cluster.ID, intPtr(1))
		Expect(err).ToNot(HaveOccurred())
		second, err := svc.ClusterScaleOut(ctx, *cluster.ID, intPtr(1))
		Expect(err).ToNot(HaveOccurred())

		// The loser of the lock race requeues and runs after the winner.
		waitForAction(first, models.ActionStatusSucceeded)
		waitForAction(second, models.ActionStatusSucceeded)

		refreshed, err := svc.ClusterGet(ctx, *cluster.ID)
		Expect(err).ToNot(HaveOccurred())
		Expect(refreshed.DesiredCapacity).To(Equal(3))

		nodes, err := store.Nodes().ListByCluster(ctx, *cluster.ID)
		Expect(err).ToNot(HaveOccurred())
		Expect(nodes).To(HaveLen(3))
	})

	It("drives parent and children to completion with a single worker", func() {
		// The parked parent must not occupy the only worker while its
		// children run.
		soloStore := memory.NewStore()
		provider := generated.NewMockProvider(ctrl)
		sess := generated.NewMockSession(ctrl)
		soloCompute := generated.NewMockComputeClient(ctrl)
		provider.EXPECT().Session(gomock.Any(), gomock.Any()).Return(sess, nil).AnyTimes()
		sess.EXPECT().Compute().Return(soloCompute).AnyTimes()
		soloCompute.EXPECT().FlavorFind(gomock.Any(), "m1.small").Return("flavor-1", nil).AnyTimes()
		soloCompute.EXPECT().ServerCreate(gomock.Any(), gomock.Any()).
			DoAndReturn(func(context.Context, map[string]any) (*driver.Server, error) {
				return &driver.Server{ID: fmt.Sprintf("solo-%d", serverSeq.Add(1))}, nil
			}).AnyTimes()

		prof, err := soloStore.Profiles().Create(ctx, &models.Profile{
			Name:    "small-server",
			Type:    profile.TypeNovaServer,
			Version: "1.0",
			Spec:    map[string]any{"flavor": "m1.small"},
			User:    "u1",
			Project: "p1",
		})
		Expect(err).ToNot(HaveOccurred())
		_, err = soloStore.Credentials().Create(ctx, &models.Credential{
			User:    "u1",
			Project: "p1",
			Cred:    map[string]any{"trust_id": "trust-1"},
		})
		Expect(err).ToNot(HaveOccurred())

		solo := engine.New(engine.Params{
			Store:    soloStore,
			Provider: provider,
			Workers:  1,
			Logger:   slog.New(slog.NewTextHandler(GinkgoWriter, nil)),
		})
		soloCtx, stopSolo := context.WithCancel(context.Background())
		soloDone := make(chan struct{})
		go func() {
			defer close(soloDone)
			_ = solo.Run(soloCtx)
		}()
		defer func() {
			stopSolo()
			Eventually(soloDone, 10*time.Second).Should(BeClosed())
		}()

		cluster, actionID, err := solo.Service().ClusterCreate(ctx, service.ClusterCreateRequest{
			Name:            "web",
			ProfileID:       *prof.ID,
			DesiredCapacity: 2,
		})
		Expect(err).ToNot(HaveOccurred())

		Eventually(func() string {
			current, err := soloStore.Actions().Get(context.Background(), actionID)
			if err != nil {
				return ""
			}
			return current.Status
		}, 20*time.Second, 50*time.Millisecond).Should(Equal(models.ActionStatusSucceeded))

		refreshed, err := soloStore.Clusters().Get(ctx, *cluster.ID)
		Expect(err).ToNot(HaveOccurred())
		Expect(refreshed.Status).To(Equal(models.ClusterStatusActive))

		nodes, err := soloStore.Nodes().ListByCluster(ctx, *cluster.ID)
		Expect(err).ToNot(HaveOccurred())
		Expect(nodes).To(HaveLen(2))
	})

	It("scales in by removing the newest members", func() {
		cluster := createCluster(3, nil)

		compute.EXPECT().ServerDelete(gomock.Any(), gomock.Any(), true).Return(nil).AnyTimes()
		compute.EXPECT().WaitForServerDelete(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).AnyTimes()

		actionID, err := svc.ClusterScaleIn(ctx, *cluster.ID, intPtr(1))
		Expect(err).ToNot(HaveOccurred())
		waitForAction(actionID, models.ActionStatusSucceeded)

		refreshed, err := svc.ClusterGet(ctx, *cluster.ID)
		Expect(err).ToNot(HaveOccurred())
		Expect(refreshed.DesiredCapacity).To(Equal(2))

		nodes, err := store.Nodes().ListByCluster(ctx, *cluster.ID)
		Expect(err).ToNot(HaveOccurred())
		Expect(nodes).To(HaveLen(2))
		// The newest member, index 3, was the victim.
		Expect(nodes[0].Index).To(Equal(1))
		Expect(nodes[1].Index).To(Equal(2))
	})
})
