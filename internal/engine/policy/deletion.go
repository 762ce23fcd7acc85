/*
SPDX-FileCopyrightText: The Corral Authors

SPDX-License-Identifier: Apache-2.0
*/

package policy

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/corral-cloud/corral/internal/models"
	"github.com/corral-cloud/corral/internal/typederrors"
)

// TypeDeletion identifies the victim-selection policy.
const TypeDeletion = "corral.policy.deletion"

// Victim selection criteria.
const (
	CriteriaOldestFirst   = "OLDEST_FIRST"
	CriteriaYoungestFirst = "YOUNGEST_FIRST"
	CriteriaRandom        = "RANDOM"
)

// DeletionPolicy selects which nodes a shrink operation removes and
// annotates the action with grace period and destroy semantics.
type DeletionPolicy struct {
	Base
	services Services

	criteria             string
	destroyAfterDeletion bool
	gracePeriod          int
}

// NewDeletionPolicy builds the kind from its stored record.
func NewDeletionPolicy(record *models.Policy, services Services) (Kind, error) {
	p := &DeletionPolicy{
		services:             services,
		criteria:             CriteriaOldestFirst,
		destroyAfterDeletion: true,
	}
	if c, ok := record.Spec["criteria"].(string); ok {
		p.criteria = c
	}
	p.destroyAfterDeletion = specBool(record.Spec, "destroy_after_deletion", true)
	p.gracePeriod = specInt(record.Spec, "grace_period", 0)
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *DeletionPolicy) Targets() []Target {
	return []Target{
		{Phase: PhaseBefore, Action: models.ClusterActionScaleIn},
		{Phase: PhaseBefore, Action: models.ClusterActionDelNodes},
		{Phase: PhaseBefore, Action: models.ClusterActionResize},
	}
}

func (p *DeletionPolicy) Validate() error {
	switch p.criteria {
	case CriteriaOldestFirst, CriteriaYoungestFirst, CriteriaRandom:
	default:
		return typederrors.NewValidationError(nil, "invalid deletion criteria '%s'", p.criteria)
	}
	if p.gracePeriod < 0 {
		return typederrors.NewValidationError(nil, "grace_period must not be negative")
	}
	return nil
}

// PreOp picks victims for the pending shrink and records them in
// action.Data.  The count comes from an earlier resize parse when
// present, else from the action's own count input, defaulting to 1.
func (p *DeletionPolicy) PreOp(ctx context.Context, clusterID uuid.UUID, action *models.Action) error {
	// Candidates picked by an earlier hook stand; only the deletion
	// semantics are added then.
	if _, picked := models.NestedValue(action.Data, models.DataKeyDeletion, models.DataKeyCandidates); picked {
		action.Data = models.SetNested(action.Data, models.DataKeyDeletion, models.DataKeyGracePeriod, p.gracePeriod)
		action.Data = models.SetNested(action.Data, models.DataKeyDeletion, models.DataKeyDestroyAfterDeletion,
			p.destroyAfterDeletion)
		return nil
	}

	count, ok := models.NestedInt(action.Data, models.DataKeyDeletion, models.DataKeyCount)
	if !ok {
		if action.Action == models.ClusterActionResize {
			// The resize parse decided this is not a shrink.
			return nil
		}
		if n := models.InputInt(action.Inputs, "count"); n != nil {
			count = *n
		} else {
			count = 1
		}
	}
	if count <= 0 {
		return nil
	}

	nodes, err := p.services.Store.Nodes().ListByCluster(ctx, clusterID)
	if err != nil {
		return err
	}
	if count > len(nodes) {
		count = len(nodes)
	}

	victims := p.selectVictims(nodes, count)
	action.Data = models.SetNested(action.Data, models.DataKeyDeletion, models.DataKeyCount, count)
	action.Data = models.SetNested(action.Data, models.DataKeyDeletion, models.DataKeyCandidates, victims)
	action.Data = models.SetNested(action.Data, models.DataKeyDeletion, models.DataKeyGracePeriod, p.gracePeriod)
	action.Data = models.SetNested(action.Data, models.DataKeyDeletion, models.DataKeyDestroyAfterDeletion,
		p.destroyAfterDeletion)
	return nil
}

func (p *DeletionPolicy) selectVictims(nodes []models.Node, count int) []any {
	ordered := make([]models.Node, len(nodes))
	copy(ordered, nodes)

	switch p.criteria {
	case CriteriaOldestFirst:
		sort.SliceStable(ordered, func(i, j int) bool {
			return ordered[i].CreatedAt.Before(*ordered[j].CreatedAt)
		})
	case CriteriaYoungestFirst:
		sort.SliceStable(ordered, func(i, j int) bool {
			return ordered[j].CreatedAt.Before(*ordered[i].CreatedAt)
		})
	case CriteriaRandom:
		ordered = lo.Shuffle(ordered)
	}

	victims := make([]any, 0, count)
	for _, node := range ordered[:count] {
		victims = append(victims, node.ID.String())
	}
	return victims
}
