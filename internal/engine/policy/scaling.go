/*
SPDX-FileCopyrightText: The Corral Authors

SPDX-License-Identifier: Apache-2.0
*/

package policy

import (
	"context"

	"github.com/google/uuid"

	"github.com/corral-cloud/corral/internal/engine/scaleutils"
	"github.com/corral-cloud/corral/internal/models"
	"github.com/corral-cloud/corral/internal/typederrors"
)

// TypeScaling identifies the step-size policy for scale events.
const TypeScaling = "corral.policy.scaling"

// ScalingPolicy computes how many nodes a scale event adds or removes,
// replacing the caller-supplied count for the event it subscribes to.
type ScalingPolicy struct {
	Base
	services Services

	event          string
	adjustmentType string
	number         int
	minStep        *int
	bestEffort     bool
}

// NewScalingPolicy builds the kind from its stored record.
func NewScalingPolicy(record *models.Policy, services Services) (Kind, error) {
	event, err := specString(record.Spec, "event")
	if err != nil {
		return nil, err
	}
	p := &ScalingPolicy{
		services:       services,
		event:          event,
		adjustmentType: scaleutils.ChangeInCapacity,
		number:         1,
	}
	if adjustment := specSection(record.Spec, "adjustment"); adjustment != nil {
		if t, ok := adjustment["type"].(string); ok {
			p.adjustmentType = t
		}
		p.number = specInt(adjustment, "number", 1)
		if step := models.InputInt(adjustment, "min_step"); step != nil {
			p.minStep = step
		}
		p.bestEffort = specBool(adjustment, "best_effort", false)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *ScalingPolicy) Targets() []Target {
	return []Target{{Phase: PhaseBefore, Action: p.event}}
}

func (p *ScalingPolicy) Validate() error {
	switch p.event {
	case models.ClusterActionScaleOut, models.ClusterActionScaleIn:
	default:
		return typederrors.NewValidationError(nil, "invalid scaling event '%s'", p.event)
	}
	switch p.adjustmentType {
	case scaleutils.ExactCapacity, scaleutils.ChangeInCapacity, scaleutils.ChangeInPercentage:
	default:
		return typederrors.NewValidationError(nil, "invalid adjustment type '%s'", p.adjustmentType)
	}
	return nil
}

// PreOp computes the step for the subscribed event.  A target outside the
// cluster's size bounds is clamped when best_effort is set and vetoed
// otherwise.
func (p *ScalingPolicy) PreOp(ctx context.Context, clusterID uuid.UUID, action *models.Action) error {
	if action.Action != p.event {
		return nil
	}
	if action.Data == nil {
		action.Data = map[string]any{}
	}

	cluster, err := p.services.Store.Clusters().Get(ctx, clusterID)
	if err != nil {
		return err
	}
	nodes, err := p.services.Store.Nodes().ListByCluster(ctx, clusterID)
	if err != nil {
		return err
	}
	current := len(nodes)

	number := p.number
	if p.event == models.ClusterActionScaleIn {
		number = -number
	}
	desired := scaleutils.CalculateDesired(current, p.adjustmentType, number, p.minStep)

	if reason := scaleutils.CheckSizeParams(cluster, &desired, nil, nil, true); reason != "" {
		if !p.bestEffort {
			action.Data[models.DataKeyStatus] = models.CheckError
			action.Data[models.DataKeyReason] = reason
			return nil
		}
		desired = scaleutils.TruncateDesired(cluster, desired, nil, nil)
	}

	count := desired - current
	switch {
	case count > 0:
		action.Data = models.SetNested(action.Data, models.DataKeyCreation, models.DataKeyCount, count)
	case count < 0:
		action.Data = models.SetNested(action.Data, models.DataKeyDeletion, models.DataKeyCount, -count)
	}
	return nil
}
