/*
SPDX-FileCopyrightText: The Corral Authors

SPDX-License-Identifier: Apache-2.0
*/

package policy_test

import (
	"context"
	"log/slog"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"

	"github.com/corral-cloud/corral/internal/driver/generated"
	"github.com/corral-cloud/corral/internal/engine/policy"
	"github.com/corral-cloud/corral/internal/models"
	"github.com/corral-cloud/corral/internal/storage/memory"
	"github.com/corral-cloud/corral/internal/typederrors"
)

var _ = Describe("LBMemberPolicy", func() {
	var (
		ctx     context.Context
		store   *memory.Store
		ctrl    *gomock.Controller
		lb      *generated.MockLoadBalancingClient
		kind    policy.Kind
		cluster *models.Cluster
		members []*models.Node
	)

	BeforeEach(func() {
		ctx = context.Background()
		store = memory.NewStore()
		ctrl = gomock.NewController(GinkgoT())

		provider := generated.NewMockProvider(ctrl)
		sess := generated.NewMockSession(ctrl)
		lb = generated.NewMockLoadBalancingClient(ctrl)
		provider.EXPECT().Session(gomock.Any(), gomock.Any()).Return(sess, nil).AnyTimes()
		sess.EXPECT().LoadBalancing().Return(lb).AnyTimes()

		services := policy.Services{
			Store:    store,
			Provider: provider,
			Logger:   slog.New(slog.NewTextHandler(GinkgoWriter, nil)),
		}
		record := &models.Policy{
			Type:    policy.TypeLBMember,
			Version: "1.0",
			Spec:    map[string]any{"pool": "pool-1", "protocol_port": 8080},
		}
		var err error
		kind, err = policy.DefaultRegistry().New(record, services)
		Expect(err).ToNot(HaveOccurred())

		_, err = store.Credentials().Create(ctx, &models.Credential{
			User:    "u1",
			Project: "p1",
			Cred:    map[string]any{"trust_id": "trust-1"},
		})
		Expect(err).ToNot(HaveOccurred())

		cluster, err = store.Clusters().Create(ctx, &models.Cluster{
			Name:            "web",
			DesiredCapacity: 3,
			MaxSize:         10,
			Status:          models.ClusterStatusActive,
			User:            "u1",
			Project:         "p1",
		})
		Expect(err).ToNot(HaveOccurred())

		// Created in index order; members[2] is the newest.
		members = nil
		for i := range 3 {
			node, err := store.Nodes().Create(ctx, &models.Node{
				ClusterID: cluster.ID,
				Index:     i + 1,
				Status:    models.NodeStatusActive,
				Data:      map[string]any{models.NodeDataLBMember: "member-" + string(rune('a'+i))},
				User:      "u1",
				Project:   "p1",
			})
			Expect(err).ToNot(HaveOccurred())
			members = append(members, node)
		}
	})

	AfterEach(func() {
		ctrl.Finish()
	})

	Describe("PreOp", func() {
		It("deregisters the newest member before a scale in destroys it", func() {
			act := &models.Action{
				Action: models.ClusterActionScaleIn,
				Inputs: map[string]any{"count": 1},
			}

			lb.EXPECT().MemberRemove(gomock.Any(), "member-c").Return(nil)

			Expect(kind.PreOp(ctx, *cluster.ID, act)).To(Succeed())

			// The pick is recorded so the runtime destroys the same node.
			victims, ok := models.NestedValue(act.Data, models.DataKeyDeletion, models.DataKeyCandidates)
			Expect(ok).To(BeTrue())
			Expect(victims).To(Equal([]any{members[2].ID.String()}))

			refreshed, err := store.Nodes().Get(ctx, *members[2].ID)
			Expect(err).ToNot(HaveOccurred())
			Expect(refreshed.Data).ToNot(HaveKey(models.NodeDataLBMember))
		})

		It("honors candidates an earlier hook already selected", func() {
			act := &models.Action{
				Action: models.ClusterActionScaleIn,
				Data: models.SetNested(nil, models.DataKeyDeletion, models.DataKeyCandidates,
					[]any{members[0].ID.String()}),
			}

			lb.EXPECT().MemberRemove(gomock.Any(), "member-a").Return(nil)

			Expect(kind.PreOp(ctx, *cluster.ID, act)).To(Succeed())
		})

		It("deregisters the explicit victims of a node removal", func() {
			act := &models.Action{
				Action: models.ClusterActionDelNodes,
				Inputs: map[string]any{"nodes": []any{members[1].ID.String()}},
			}

			lb.EXPECT().MemberRemove(gomock.Any(), "member-b").Return(nil)

			Expect(kind.PreOp(ctx, *cluster.ID, act)).To(Succeed())
		})

		It("skips a victim that never joined the pool", func() {
			node, err := store.Nodes().Create(ctx, &models.Node{
				ClusterID: cluster.ID,
				Index:     4,
				Status:    models.NodeStatusActive,
				User:      "u1",
				Project:   "p1",
			})
			Expect(err).ToNot(HaveOccurred())
			act := &models.Action{
				Action: models.ClusterActionDelNodes,
				Inputs: map[string]any{"nodes": []any{node.ID.String()}},
			}

			Expect(kind.PreOp(ctx, *cluster.ID, act)).To(Succeed())
		})

		It("stays out of a resize that is not a shrink", func() {
			act := &models.Action{
				Action: models.ClusterActionResize,
				Inputs: map[string]any{"adjustment_type": "EXACT_CAPACITY", "number": 5},
			}

			Expect(kind.PreOp(ctx, *cluster.ID, act)).To(Succeed())
			_, ok := models.NestedValue(act.Data, models.DataKeyDeletion, models.DataKeyCandidates)
			Expect(ok).To(BeFalse())
		})
	})

	Describe("PostOp", func() {
		It("registers the nodes a grow added", func() {
			node, err := store.Nodes().Create(ctx, &models.Node{
				ClusterID: cluster.ID,
				Index:     4,
				Status:    models.NodeStatusActive,
				User:      "u1",
				Project:   "p1",
			})
			Expect(err).ToNot(HaveOccurred())
			act := &models.Action{
				Action:  models.ClusterActionScaleOut,
				Outputs: map[string]any{"nodes_added": []any{node.ID.String()}},
			}

			lb.EXPECT().MemberAdd(gomock.Any(), gomock.Any(), "pool-1", 8080).Return("member-d", nil)

			Expect(kind.PostOp(ctx, *cluster.ID, act)).To(Succeed())

			refreshed, err := store.Nodes().Get(ctx, *node.ID)
			Expect(err).ToNot(HaveOccurred())
			Expect(refreshed.Data[models.NodeDataLBMember]).To(Equal("member-d"))
		})

		It("flags the action when registration fails", func() {
			node, err := store.Nodes().Create(ctx, &models.Node{
				ClusterID: cluster.ID,
				Index:     4,
				Status:    models.NodeStatusActive,
				User:      "u1",
				Project:   "p1",
			})
			Expect(err).ToNot(HaveOccurred())
			act := &models.Action{
				Action:  models.ClusterActionScaleOut,
				Outputs: map[string]any{"nodes_added": []any{node.ID.String()}},
			}

			lb.EXPECT().MemberAdd(gomock.Any(), gomock.Any(), "pool-1", 8080).
				Return("", typederrors.NewRetriableError(nil, "pool unavailable"))

			Expect(kind.PostOp(ctx, *cluster.ID, act)).To(Succeed())
			Expect(act.Data[models.DataKeyStatus]).To(Equal(models.CheckError))
		})

		It("does nothing for an action that added no members", func() {
			act := &models.Action{Action: models.ClusterActionScaleOut}
			Expect(kind.PostOp(ctx, *cluster.ID, act)).To(Succeed())
		})
	})

	It("targets removals before and additions after the action", func() {
		phases := map[string]string{}
		for _, target := range kind.Targets() {
			phases[target.Phase+"/"+target.Action] = target.Action
		}
		Expect(phases).To(HaveKey(policy.PhaseBefore + "/" + models.ClusterActionDelNodes))
		Expect(phases).To(HaveKey(policy.PhaseBefore + "/" + models.ClusterActionScaleIn))
		Expect(phases).To(HaveKey(policy.PhaseAfter + "/" + models.ClusterActionAddNodes))
		Expect(phases).To(HaveKey(policy.PhaseAfter + "/" + models.ClusterActionScaleOut))
		Expect(phases).ToNot(HaveKey(policy.PhaseAfter + "/" + models.ClusterActionDelNodes))
	})
})
