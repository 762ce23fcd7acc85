/*
SPDX-FileCopyrightText: The Corral Authors

SPDX-License-Identifier: Apache-2.0
*/

package models

import (
	"github.com/google/uuid"

	"github.com/corral-cloud/corral/internal/database"
)

// Interface compile enforcement
var (
	_ database.Model = (*ClusterLock)(nil)
	_ database.Model = (*NodeLock)(nil)
)

// ClusterLock records the single live owner of a cluster-scoped lock.
type ClusterLock struct {
	ClusterID *uuid.UUID `db:"cluster_id"`
	ActionID  uuid.UUID  `db:"action_id"`
}

// TableName returns the table name associated to this model
func (l ClusterLock) TableName() string { return "cluster_lock" }

// PrimaryKey returns the primary key column associated to this model
func (l ClusterLock) PrimaryKey() string { return "cluster_id" }

// NodeLock records the owners of a node-scoped lock.  Multiple node-level
// actions may hold the same node concurrently.
type NodeLock struct {
	NodeID    *uuid.UUID  `db:"node_id"`
	ActionIDs []uuid.UUID `db:"action_ids"`
}

// TableName returns the table name associated to this model
func (l NodeLock) TableName() string { return "node_lock" }

// PrimaryKey returns the primary key column associated to this model
func (l NodeLock) PrimaryKey() string { return "node_id" }
