/*
SPDX-FileCopyrightText: The Corral Authors

SPDX-License-Identifier: Apache-2.0
*/

package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/corral-cloud/corral/internal/database"
)

// Default attachment attributes applied when the caller leaves them unset.
const (
	DefaultBindingPriority = 50
	DefaultBindingLevel    = 50
	DefaultBindingCooldown = 0
)

// Interface compile enforcement
var _ database.Model = (*ClusterPolicy)(nil)

// ClusterPolicy represents the binding between a cluster and a policy.
// Data holds policy-private state seeded by the policy's attach hook.
// LastOp records the last successful firing, used for cooldown checks.
type ClusterPolicy struct {
	ID        *uuid.UUID     `db:"id"`
	ClusterID uuid.UUID      `db:"cluster_id"`
	PolicyID  uuid.UUID      `db:"policy_id"`
	Priority  int            `db:"priority"`
	Level     int            `db:"level"`
	Cooldown  int            `db:"cooldown"`
	Enabled   bool           `db:"enabled"`
	Data      map[string]any `db:"data"`
	LastOp    *time.Time     `db:"last_op"`
	CreatedAt *time.Time     `db:"created_at"`
}

// TableName returns the table name associated to this model
func (b ClusterPolicy) TableName() string { return "cluster_policy" }

// PrimaryKey returns the primary key column associated to this model
func (b ClusterPolicy) PrimaryKey() string { return "id" }
