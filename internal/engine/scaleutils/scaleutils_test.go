/*
SPDX-FileCopyrightText: The Corral Authors

SPDX-License-Identifier: Apache-2.0
*/

package scaleutils_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/corral-cloud/corral/internal/engine/scaleutils"
	"github.com/corral-cloud/corral/internal/models"
)

func intPtr(n int) *int { return &n }

var _ = Describe("CalculateDesired", func() {
	DescribeTable("turns an adjustment into a target capacity",
		func(current int, adjType string, number int, minStep *int, expected int) {
			Expect(scaleutils.CalculateDesired(current, adjType, number, minStep)).To(Equal(expected))
		},
		Entry("exact capacity", 5, scaleutils.ExactCapacity, 10, nil, 10),
		Entry("positive delta", 5, scaleutils.ChangeInCapacity, 3, nil, 8),
		Entry("negative delta", 5, scaleutils.ChangeInCapacity, -2, nil, 3),
		Entry("positive percentage", 10, scaleutils.ChangeInPercentage, 30, nil, 13),
		Entry("negative percentage", 10, scaleutils.ChangeInPercentage, -30, nil, 7),
		Entry("fractional positive percentage rounds away from zero",
			5, scaleutils.ChangeInPercentage, 10, nil, 6),
		Entry("fractional negative percentage rounds away from zero",
			5, scaleutils.ChangeInPercentage, -10, nil, 4),
		Entry("min_step floors a small positive delta",
			10, scaleutils.ChangeInPercentage, 5, intPtr(2), 12),
		Entry("min_step floors a small negative delta",
			10, scaleutils.ChangeInPercentage, -5, intPtr(2), 8),
		Entry("unknown adjustment type is a no-op", 5, "SOMETHING_ELSE", 3, nil, 5),
	)
})

var _ = Describe("TruncateDesired", func() {
	var cluster *models.Cluster

	BeforeEach(func() {
		cluster = &models.Cluster{MinSize: 2, MaxSize: 10}
	})

	It("clamps below the cluster's min_size", func() {
		Expect(scaleutils.TruncateDesired(cluster, 1, nil, nil)).To(Equal(2))
	})

	It("clamps above the cluster's max_size", func() {
		Expect(scaleutils.TruncateDesired(cluster, 12, nil, nil)).To(Equal(10))
	})

	It("prefers the requested bounds over the cluster's", func() {
		Expect(scaleutils.TruncateDesired(cluster, 1, intPtr(0), nil)).To(Equal(1))
		Expect(scaleutils.TruncateDesired(cluster, 12, nil, intPtr(11))).To(Equal(11))
	})

	It("leaves an in-range value alone", func() {
		Expect(scaleutils.TruncateDesired(cluster, 5, nil, nil)).To(Equal(5))
	})

	It("does not clamp against an unbounded max", func() {
		cluster.MaxSize = -1
		Expect(scaleutils.TruncateDesired(cluster, 100, nil, nil)).To(Equal(100))
		Expect(scaleutils.TruncateDesired(cluster, 100, nil, intPtr(-1))).To(Equal(100))
	})
})

var _ = Describe("CheckSizeParams", func() {
	var cluster *models.Cluster

	BeforeEach(func() {
		cluster = &models.Cluster{DesiredCapacity: 5, MinSize: 2, MaxSize: 10}
	})

	It("accepts a consistent combination", func() {
		Expect(scaleutils.CheckSizeParams(cluster, intPtr(5), intPtr(2), intPtr(10), true)).To(BeEmpty())
	})

	It("rejects a target below the specified min_size", func() {
		Expect(scaleutils.CheckSizeParams(cluster, intPtr(8), intPtr(10), nil, true)).
			To(Equal("The target capacity (8) is less than the specified min_size (10)."))
	})

	It("rejects a target below the cluster's min_size in strict mode", func() {
		Expect(scaleutils.CheckSizeParams(cluster, intPtr(1), nil, nil, true)).
			To(Equal("The target capacity (1) is less than the cluster's min_size (2)."))
	})

	It("tolerates a target below the cluster's min_size when not strict", func() {
		Expect(scaleutils.CheckSizeParams(cluster, intPtr(1), nil, nil, false)).To(BeEmpty())
	})

	It("rejects a target above the specified max_size", func() {
		Expect(scaleutils.CheckSizeParams(cluster, intPtr(12), nil, intPtr(11), true)).
			To(Equal("The target capacity (12) is greater than the specified max_size (11)."))
	})

	It("rejects a target above the cluster's max_size in strict mode", func() {
		Expect(scaleutils.CheckSizeParams(cluster, intPtr(12), nil, nil, true)).
			To(Equal("The target capacity (12) is greater than the cluster's max_size (10)."))
	})

	It("ignores the max bound when the target is unbounded", func() {
		Expect(scaleutils.CheckSizeParams(cluster, intPtr(100), nil, intPtr(-1), true)).To(BeEmpty())
	})

	It("rejects crossed bounds", func() {
		Expect(scaleutils.CheckSizeParams(cluster, nil, intPtr(8), intPtr(4), false)).
			To(Equal("The specified min_size is greater than the specified max_size."))
	})

	It("rejects a min_size above the current max_size", func() {
		Expect(scaleutils.CheckSizeParams(cluster, nil, intPtr(11), nil, false)).
			To(Equal("The specified min_size is greater than the current max_size of the cluster."))
	})

	It("rejects a min_size above the current desired_capacity in strict mode", func() {
		Expect(scaleutils.CheckSizeParams(cluster, nil, intPtr(6), nil, true)).
			To(Equal("The specified min_size is greater than the current desired_capacity of the cluster."))
	})

	It("rejects a max_size below the current min_size", func() {
		Expect(scaleutils.CheckSizeParams(cluster, nil, nil, intPtr(1), false)).
			To(Equal("The specified max_size is less than the current min_size of the cluster."))
	})

	It("rejects a max_size below the current desired_capacity in strict mode", func() {
		Expect(scaleutils.CheckSizeParams(cluster, nil, nil, intPtr(4), true)).
			To(Equal("The specified max_size is less than the current desired_capacity of the cluster."))
	})
})

var _ = Describe("ParseResizeParams", func() {
	var cluster *models.Cluster

	BeforeEach(func() {
		cluster = &models.Cluster{DesiredCapacity: 3, MinSize: 1, MaxSize: 5}
	})

	action := func(inputs map[string]any) *models.Action {
		return &models.Action{Action: models.ClusterActionResize, Inputs: inputs}
	}

	It("requires a number when an adjustment type is given", func() {
		act := action(map[string]any{scaleutils.InputAdjustmentType: scaleutils.ExactCapacity})
		Expect(scaleutils.ParseResizeParams(act, cluster, 3)).
			To(Equal("Missing number value for size adjustment."))
	})

	It("records a creation count for a grow", func() {
		act := action(map[string]any{
			scaleutils.InputAdjustmentType: scaleutils.ExactCapacity,
			scaleutils.InputNumber:         5,
		})
		Expect(scaleutils.ParseResizeParams(act, cluster, 3)).To(BeEmpty())
		count, ok := models.NestedInt(act.Data, models.DataKeyCreation, models.DataKeyCount)
		Expect(ok).To(BeTrue())
		Expect(count).To(Equal(2))
	})

	It("records a deletion count for a shrink", func() {
		act := action(map[string]any{
			scaleutils.InputAdjustmentType: scaleutils.ChangeInCapacity,
			scaleutils.InputNumber:         -2,
		})
		Expect(scaleutils.ParseResizeParams(act, cluster, 3)).To(BeEmpty())
		count, ok := models.NestedInt(act.Data, models.DataKeyDeletion, models.DataKeyCount)
		Expect(ok).To(BeTrue())
		Expect(count).To(Equal(2))
	})

	It("clamps an out-of-range target when not strict", func() {
		act := action(map[string]any{
			scaleutils.InputAdjustmentType: scaleutils.ExactCapacity,
			scaleutils.InputNumber:         10,
		})
		Expect(scaleutils.ParseResizeParams(act, cluster, 4)).To(BeEmpty())
		count, ok := models.NestedInt(act.Data, models.DataKeyCreation, models.DataKeyCount)
		Expect(ok).To(BeTrue())
		Expect(count).To(Equal(1))
	})

	It("rejects an out-of-range target in strict mode", func() {
		act := action(map[string]any{
			scaleutils.InputAdjustmentType: scaleutils.ExactCapacity,
			scaleutils.InputNumber:         8,
			scaleutils.InputMinSize:        10,
			scaleutils.InputStrict:         true,
		})
		Expect(scaleutils.ParseResizeParams(act, cluster, 3)).
			To(Equal("The target capacity (8) is less than the specified min_size (10)."))
		Expect(act.Data).To(BeEmpty())
	})

	It("treats a bounds-only request as neither grow nor shrink", func() {
		act := action(map[string]any{scaleutils.InputMinSize: 2})
		Expect(scaleutils.ParseResizeParams(act, cluster, 3)).To(BeEmpty())
		_, grow := models.NestedInt(act.Data, models.DataKeyCreation, models.DataKeyCount)
		_, shrink := models.NestedInt(act.Data, models.DataKeyDeletion, models.DataKeyCount)
		Expect(grow).To(BeFalse())
		Expect(shrink).To(BeFalse())
	})
})
