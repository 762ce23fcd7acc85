/*
SPDX-FileCopyrightText: The Corral Authors

SPDX-License-Identifier: Apache-2.0
*/

package lock_test

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/corral-cloud/corral/internal/engine/lock"
	"github.com/corral-cloud/corral/internal/models"
	"github.com/corral-cloud/corral/internal/storage/memory"
	"github.com/corral-cloud/corral/internal/typederrors"
)

// recordingNotifier captures the cancel notifications fired on steals.
type recordingNotifier struct {
	cancelled []uuid.UUID
}

func (n *recordingNotifier) NotifyCancel(actionID uuid.UUID) {
	n.cancelled = append(n.cancelled, actionID)
}

var _ = Describe("Manager", func() {
	var (
		ctx      context.Context
		store    *memory.Store
		notifier *recordingNotifier
		manager  *lock.Manager
		logger   *slog.Logger
	)

	BeforeEach(func() {
		ctx = context.Background()
		store = memory.NewStore()
		notifier = &recordingNotifier{}
		logger = slog.New(slog.NewTextHandler(GinkgoWriter, nil))
		manager = lock.NewManager(store, notifier, logger)
	})

	// seedAction stores an action record in the given status and returns
	// its id, for use as a lock owner.
	seedAction := func(status string) uuid.UUID {
		created, err := store.Actions().Create(ctx, &models.Action{
			Name:   "cluster_create_test",
			Action: models.ClusterActionCreate,
			Status: status,
		})
		Expect(err).ToNot(HaveOccurred())
		return *created.ID
	}

	Describe("cluster locks", func() {
		var clusterID uuid.UUID

		BeforeEach(func() {
			clusterID = uuid.New()
		})

		It("acquires a free lock", func() {
			requester := seedAction(models.ActionStatusRunning)
			Expect(manager.AcquireCluster(ctx, clusterID, requester, false)).To(Succeed())

			held, err := manager.IsClusterHeld(ctx, clusterID)
			Expect(err).ToNot(HaveOccurred())
			Expect(held).To(BeTrue())
		})

		It("reports busy when a live action holds the lock", func() {
			owner := seedAction(models.ActionStatusRunning)
			requester := seedAction(models.ActionStatusRunning)
			Expect(manager.AcquireCluster(ctx, clusterID, owner, false)).To(Succeed())

			err := manager.AcquireCluster(ctx, clusterID, requester, false)
			Expect(err).To(HaveOccurred())
			Expect(typederrors.IsLockBusyError(err)).To(BeTrue())
		})

		It("is reentrant for the current owner", func() {
			owner := seedAction(models.ActionStatusRunning)
			Expect(manager.AcquireCluster(ctx, clusterID, owner, false)).To(Succeed())
			Expect(manager.AcquireCluster(ctx, clusterID, owner, false)).To(Succeed())
		})

		It("reclaims a lock whose owner is terminal without force", func() {
			owner := seedAction(models.ActionStatusFailed)
			requester := seedAction(models.ActionStatusRunning)
			_, err := store.Locks().ClusterLockAcquire(ctx, clusterID, owner)
			Expect(err).ToNot(HaveOccurred())

			Expect(manager.AcquireCluster(ctx, clusterID, requester, false)).To(Succeed())
			Expect(notifier.cancelled).To(BeEmpty())

			record, err := store.Locks().ClusterLockGet(ctx, clusterID)
			Expect(err).ToNot(HaveOccurred())
			Expect(record.ActionID).To(Equal(requester))
		})

		It("reclaims a lock whose owner record is gone", func() {
			requester := seedAction(models.ActionStatusRunning)
			_, err := store.Locks().ClusterLockAcquire(ctx, clusterID, uuid.New())
			Expect(err).ToNot(HaveOccurred())

			Expect(manager.AcquireCluster(ctx, clusterID, requester, false)).To(Succeed())
		})

		It("steals from a live owner when forced, cancelling it", func() {
			owner := seedAction(models.ActionStatusRunning)
			requester := seedAction(models.ActionStatusRunning)
			Expect(manager.AcquireCluster(ctx, clusterID, owner, false)).To(Succeed())

			Expect(manager.AcquireCluster(ctx, clusterID, requester, true)).To(Succeed())
			Expect(notifier.cancelled).To(HaveExactElements(Equal(owner)))

			stolen, err := store.Actions().Get(ctx, owner)
			Expect(err).ToNot(HaveOccurred())
			Expect(stolen.Control).ToNot(BeNil())
			Expect(*stolen.Control).To(Equal(models.ActionControlCancel))

			record, err := store.Locks().ClusterLockGet(ctx, clusterID)
			Expect(err).ToNot(HaveOccurred())
			Expect(record.ActionID).To(Equal(requester))
		})

		It("releases only for the holding action", func() {
			owner := seedAction(models.ActionStatusRunning)
			other := seedAction(models.ActionStatusRunning)
			Expect(manager.AcquireCluster(ctx, clusterID, owner, false)).To(Succeed())

			Expect(manager.ReleaseCluster(ctx, clusterID, other)).To(Succeed())
			held, err := manager.IsClusterHeld(ctx, clusterID)
			Expect(err).ToNot(HaveOccurred())
			Expect(held).To(BeTrue())

			Expect(manager.ReleaseCluster(ctx, clusterID, owner)).To(Succeed())
			held, err = manager.IsClusterHeld(ctx, clusterID)
			Expect(err).ToNot(HaveOccurred())
			Expect(held).To(BeFalse())
		})

		It("treats a terminally owned lock as not held", func() {
			owner := seedAction(models.ActionStatusSucceeded)
			_, err := store.Locks().ClusterLockAcquire(ctx, clusterID, owner)
			Expect(err).ToNot(HaveOccurred())

			held, err := manager.IsClusterHeld(ctx, clusterID)
			Expect(err).ToNot(HaveOccurred())
			Expect(held).To(BeFalse())
		})
	})

	Describe("node locks", func() {
		var nodeID uuid.UUID

		BeforeEach(func() {
			nodeID = uuid.New()
		})

		It("shares the lock between live actions", func() {
			first := seedAction(models.ActionStatusRunning)
			second := seedAction(models.ActionStatusRunning)

			Expect(manager.AcquireNode(ctx, nodeID, first, false)).To(Succeed())
			Expect(manager.AcquireNode(ctx, nodeID, second, false)).To(Succeed())

			held, err := manager.IsNodeHeld(ctx, nodeID)
			Expect(err).ToNot(HaveOccurred())
			Expect(held).To(BeTrue())

			Expect(manager.ReleaseNode(ctx, nodeID, first)).To(Succeed())
			held, err = manager.IsNodeHeld(ctx, nodeID)
			Expect(err).ToNot(HaveOccurred())
			Expect(held).To(BeTrue())

			Expect(manager.ReleaseNode(ctx, nodeID, second)).To(Succeed())
			held, err = manager.IsNodeHeld(ctx, nodeID)
			Expect(err).ToNot(HaveOccurred())
			Expect(held).To(BeFalse())
		})

		It("is reentrant for an existing owner", func() {
			owner := seedAction(models.ActionStatusRunning)
			Expect(manager.AcquireNode(ctx, nodeID, owner, false)).To(Succeed())
			Expect(manager.AcquireNode(ctx, nodeID, owner, false)).To(Succeed())

			record, err := store.Locks().NodeLockGet(ctx, nodeID)
			Expect(err).ToNot(HaveOccurred())
			Expect(record.ActionIDs).To(HaveExactElements(Equal(owner)))
		})

		It("treats locks held only by terminal actions as not held", func() {
			owner := seedAction(models.ActionStatusCancelled)
			_, err := store.Locks().NodeLockAcquire(ctx, nodeID, owner)
			Expect(err).ToNot(HaveOccurred())

			held, err := manager.IsNodeHeld(ctx, nodeID)
			Expect(err).ToNot(HaveOccurred())
			Expect(held).To(BeFalse())
		})
	})
})
