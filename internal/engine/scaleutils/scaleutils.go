/*
SPDX-FileCopyrightText: The Corral Authors

SPDX-License-Identifier: Apache-2.0
*/

// Package scaleutils holds the capacity arithmetic shared by the cluster
// runtime and the scaling policy.
package scaleutils

import (
	"fmt"
	"math"

	"github.com/corral-cloud/corral/internal/models"
)

// Adjustment types accepted by CLUSTER_RESIZE.
const (
	ExactCapacity      = "EXACT_CAPACITY"
	ChangeInCapacity   = "CHANGE_IN_CAPACITY"
	ChangeInPercentage = "CHANGE_IN_PERCENTAGE"
)

// Input keys for CLUSTER_RESIZE.
const (
	InputAdjustmentType = "adjustment_type"
	InputNumber         = "number"
	InputMinSize        = "min_size"
	InputMaxSize        = "max_size"
	InputMinStep        = "min_step"
	InputStrict         = "strict"
)

// CalculateDesired turns an adjustment request into a target capacity.
// Percentage deltas are truncated toward zero but never below one node,
// and minStep imposes a floor on the magnitude of the change.
func CalculateDesired(current int, adjType string, number int, minStep *int) int {
	switch adjType {
	case ExactCapacity:
		return number
	case ChangeInCapacity:
		return current + number
	case ChangeInPercentage:
		delta := float64(number) * float64(current) / 100.0
		desired := current + int(delta)
		if delta > 0 && delta < 1 {
			desired = current + 1
		} else if delta < 0 && delta > -1 {
			desired = current - 1
		}
		if minStep != nil && float64(*minStep) > math.Abs(delta) {
			if number > 0 {
				desired = current + *minStep
			} else {
				desired = current - *minStep
			}
		}
		return desired
	default:
		return current
	}
}

// TruncateDesired clamps the target capacity into the effective size
// bounds: the requested min/max when given, else the cluster's.
func TruncateDesired(cluster *models.Cluster, desired int, minSize, maxSize *int) int {
	if minSize != nil && desired < *minSize {
		desired = *minSize
	}
	if minSize == nil && desired < cluster.MinSize {
		desired = cluster.MinSize
	}
	if maxSize != nil && *maxSize >= 0 && desired > *maxSize {
		desired = *maxSize
	}
	if maxSize == nil && cluster.MaxSize >= 0 && desired > cluster.MaxSize {
		desired = cluster.MaxSize
	}
	return desired
}

// CheckSizeParams validates a (desired, min, max) combination against the
// cluster's current properties.  An empty string means the combination is
// acceptable; anything else is the rejection reason.
func CheckSizeParams(cluster *models.Cluster, desired, minSize, maxSize *int, strict bool) string {
	if desired != nil {
		if strict && minSize == nil && *desired < cluster.MinSize {
			return fmt.Sprintf("The target capacity (%d) is less than the cluster's min_size (%d).",
				*desired, cluster.MinSize)
		}
		if minSize != nil && *desired < *minSize {
			return fmt.Sprintf("The target capacity (%d) is less than the specified min_size (%d).",
				*desired, *minSize)
		}
		if strict && maxSize == nil && cluster.MaxSize >= 0 && *desired > cluster.MaxSize {
			return fmt.Sprintf("The target capacity (%d) is greater than the cluster's max_size (%d).",
				*desired, cluster.MaxSize)
		}
		if maxSize != nil && *maxSize >= 0 && *desired > *maxSize {
			return fmt.Sprintf("The target capacity (%d) is greater than the specified max_size (%d).",
				*desired, *maxSize)
		}
	}

	if minSize != nil {
		if maxSize != nil && *maxSize >= 0 && *minSize > *maxSize {
			return "The specified min_size is greater than the specified max_size."
		}
		if maxSize == nil && cluster.MaxSize >= 0 && *minSize > cluster.MaxSize {
			return "The specified min_size is greater than the current max_size of the cluster."
		}
		if strict && desired == nil && *minSize > cluster.DesiredCapacity {
			return "The specified min_size is greater than the current desired_capacity of the cluster."
		}
	}

	if maxSize != nil {
		if minSize == nil && *maxSize >= 0 && *maxSize < cluster.MinSize {
			return "The specified max_size is less than the current min_size of the cluster."
		}
		if strict && desired == nil && *maxSize >= 0 && *maxSize < cluster.DesiredCapacity {
			return "The specified max_size is less than the current desired_capacity of the cluster."
		}
	}

	return ""
}

// ParseResizeParams interprets a CLUSTER_RESIZE request against the
// cluster's current capacity and records the resulting creation/deletion
// count in action.Data.  A non-empty return is the rejection reason.
func ParseResizeParams(action *models.Action, cluster *models.Cluster, current int) string {
	adjType, hasAdjType := models.InputString(action.Inputs, InputAdjustmentType)
	number := models.InputInt(action.Inputs, InputNumber)
	minSize := models.InputInt(action.Inputs, InputMinSize)
	maxSize := models.InputInt(action.Inputs, InputMaxSize)
	minStep := models.InputInt(action.Inputs, InputMinStep)
	strict := models.InputBool(action.Inputs, InputStrict, false)

	desired := current
	if hasAdjType {
		if number == nil {
			return "Missing number value for size adjustment."
		}
		desired = CalculateDesired(current, adjType, *number, minStep)
	}

	if !strict {
		desired = TruncateDesired(cluster, desired, minSize, maxSize)
	}

	if reason := CheckSizeParams(cluster, &desired, minSize, maxSize, strict); reason != "" {
		return reason
	}

	count := desired - current
	switch {
	case count > 0:
		action.Data = models.SetNested(action.Data, models.DataKeyCreation, models.DataKeyCount, count)
	case count < 0:
		action.Data = models.SetNested(action.Data, models.DataKeyDeletion, models.DataKeyCount, -count)
	}
	return ""
}
