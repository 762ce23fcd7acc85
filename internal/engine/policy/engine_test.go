/*
SPDX-FileCopyrightText: The Corral Authors

SPDX-License-Identifier: Apache-2.0
*/

package policy_test

import (
	"context"
	"log/slog"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/corral-cloud/corral/internal/engine/policy"
	"github.com/corral-cloud/corral/internal/models"
	"github.com/corral-cloud/corral/internal/storage/memory"
	"github.com/corral-cloud/corral/internal/typederrors"
)

var _ = Describe("Engine", func() {
	var (
		ctx     context.Context
		store   *memory.Store
		engine  *policy.Engine
		cluster *models.Cluster
	)

	BeforeEach(func() {
		ctx = context.Background()
		store = memory.NewStore()
		services := policy.Services{
			Store:  store,
			Logger: slog.New(slog.NewTextHandler(GinkgoWriter, nil)),
		}
		engine = policy.NewEngine(policy.DefaultRegistry(), services)

		var err error
		cluster, err = store.Clusters().Create(ctx, &models.Cluster{
			Name:            "web",
			DesiredCapacity: 2,
			MinSize:         0,
			MaxSize:         2,
			Status:          models.ClusterStatusActive,
		})
		Expect(err).ToNot(HaveOccurred())
		for range 2 {
			_, err := store.Nodes().Create(ctx, &models.Node{
				ClusterID: cluster.ID,
				Status:    models.NodeStatusActive,
			})
			Expect(err).ToNot(HaveOccurred())
		}
	})

	// attachScaling binds a scaling policy for CLUSTER_SCALE_OUT adding one
	// node per event.
	attachScaling := func(enabled bool, cooldown int, lastOp *time.Time) *models.ClusterPolicy {
		record, err := store.Policies().Create(ctx, &models.Policy{
			Name:    "scale-out-by-one",
			Type:    policy.TypeScaling,
			Version: "1.0",
			Spec: map[string]any{
				"event": models.ClusterActionScaleOut,
				"adjustment": map[string]any{
					"type":   "CHANGE_IN_CAPACITY",
					"number": 1,
				},
			},
		})
		Expect(err).ToNot(HaveOccurred())
		binding, err := store.Bindings().Attach(ctx, &models.ClusterPolicy{
			ClusterID: *cluster.ID,
			PolicyID:  *record.ID,
			Priority:  models.DefaultBindingPriority,
			Level:     models.DefaultBindingLevel,
			Cooldown:  cooldown,
			Enabled:   enabled,
			LastOp:    lastOp,
		})
		Expect(err).ToNot(HaveOccurred())
		return binding
	}

	scaleOutAction := func() *models.Action {
		return &models.Action{
			Name:   "cluster_scale_out_test",
			Action: models.ClusterActionScaleOut,
		}
	}

	It("passes when no policies are bound", func() {
		act := scaleOutAction()
		Expect(engine.Check(ctx, *cluster.ID, act, policy.PhaseBefore)).To(Succeed())
		Expect(act.Data).To(BeNil())
	})

	It("vetoes a scale that would exceed the size bounds", func() {
		attachScaling(true, 0, nil)

		act := scaleOutAction()
		err := engine.Check(ctx, *cluster.ID, act, policy.PhaseBefore)
		Expect(err).To(HaveOccurred())
		Expect(typederrors.IsPolicyCheckError(err)).To(BeTrue())
		Expect(err.Error()).To(Equal("The target capacity (3) is greater than the cluster's max_size (2)."))
		Expect(act.Data[models.DataKeyStatus]).To(Equal(models.CheckError))
	})

	It("skips disabled bindings", func() {
		binding := attachScaling(false, 0, nil)

		act := scaleOutAction()
		Expect(engine.Check(ctx, *cluster.ID, act, policy.PhaseBefore)).To(Succeed())

		refreshed, err := store.Bindings().Get(ctx, *cluster.ID, binding.PolicyID)
		Expect(err).ToNot(HaveOccurred())
		Expect(refreshed.LastOp).To(BeNil())
	})

	It("skips bindings still in cooldown", func() {
		fired := time.Now().UTC()
		attachScaling(true, 300, &fired)

		act := scaleOutAction()
		Expect(engine.Check(ctx, *cluster.ID, act, policy.PhaseBefore)).To(Succeed())
	})

	It("runs bindings whose cooldown has elapsed", func() {
		fired := time.Now().UTC().Add(-10 * time.Minute)
		attachScaling(true, 300, &fired)

		act := scaleOutAction()
		err := engine.Check(ctx, *cluster.ID, act, policy.PhaseBefore)
		Expect(typederrors.IsPolicyCheckError(err)).To(BeTrue())
	})

	It("records the firing time of a passing policy", func() {
		cluster.MaxSize = 10
		_, err := store.Clusters().Update(ctx, cluster)
		Expect(err).ToNot(HaveOccurred())
		binding := attachScaling(true, 0, nil)

		act := scaleOutAction()
		Expect(engine.Check(ctx, *cluster.ID, act, policy.PhaseBefore)).To(Succeed())

		count, ok := models.NestedInt(act.Data, models.DataKeyCreation, models.DataKeyCount)
		Expect(ok).To(BeTrue())
		Expect(count).To(Equal(1))

		refreshed, err := store.Bindings().Get(ctx, *cluster.ID, binding.PolicyID)
		Expect(err).ToNot(HaveOccurred())
		Expect(refreshed.LastOp).ToNot(BeNil())
	})

	It("ignores policies not subscribed to the action", func() {
		attachScaling(true, 0, nil)

		act := &models.Action{Name: "cluster_scale_in_test", Action: models.ClusterActionScaleIn}
		Expect(engine.Check(ctx, *cluster.ID, act, policy.PhaseBefore)).To(Succeed())
	})

	Describe("ValidateSpec", func() {
		It("accepts a well-formed scaling policy", func() {
			record := &models.Policy{
				Type:    policy.TypeScaling,
				Version: "1.0",
				Spec:    map[string]any{"event": models.ClusterActionScaleIn},
			}
			Expect(engine.ValidateSpec(record)).To(Succeed())
		})

		It("rejects an unknown policy type", func() {
			record := &models.Policy{Type: "corral.policy.unknown", Version: "1.0", Spec: map[string]any{}}
			err := engine.ValidateSpec(record)
			Expect(typederrors.IsValidationError(err)).To(BeTrue())
		})

		It("rejects a scaling policy with an invalid event", func() {
			record := &models.Policy{
				Type:    policy.TypeScaling,
				Version: "1.0",
				Spec:    map[string]any{"event": "CLUSTER_DANCE"},
			}
			err := engine.ValidateSpec(record)
			Expect(typederrors.IsValidationError(err)).To(BeTrue())
		})

		It("resolves a compatible minor version", func() {
			record := &models.Policy{
				Type:    policy.TypeScaling,
				Version: "1.2",
				Spec:    map[string]any{"event": models.ClusterActionScaleOut},
			}
			Expect(engine.ValidateSpec(record)).To(Succeed())
		})

		It("rejects an incompatible major version", func() {
			record := &models.Policy{
				Type:    policy.TypeScaling,
				Version: "2.0",
				Spec:    map[string]any{"event": models.ClusterActionScaleOut},
			}
			err := engine.ValidateSpec(record)
			Expect(typederrors.IsValidationError(err)).To(BeTrue())
		})
	})
})
