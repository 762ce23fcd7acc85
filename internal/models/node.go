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

// Node status values
const (
	NodeStatusInit     = "INIT"
	NodeStatusCreating = "CREATING"
	NodeStatusActive   = "ACTIVE"
	NodeStatusUpdating = "UPDATING"
	NodeStatusDeleting = "DELETING"
	NodeStatusError    = "ERROR"
	NodeStatusWarning  = "WARNING"
)

// OrphanNodeIndex is the index assigned to nodes that belong to no cluster.
const OrphanNodeIndex = -1

// NodeDataLBMember is the node data key carrying the load-balancer member
// id registered for this node.
const NodeDataLBMember = "lb_member"

// Interface compile enforcement
var _ database.Model = (*Node)(nil)

// Node represents a record in the node table.  ClusterID is nil for orphan
// nodes, in which case Index is OrphanNodeIndex.  PhysicalID is set once
// the infrastructure driver has provisioned the backing resource.
type Node struct {
	ID           *uuid.UUID     `db:"id"`
	Name         string         `db:"name"`
	ProfileID    uuid.UUID      `db:"profile_id"`
	ClusterID    *uuid.UUID     `db:"cluster_id"`
	Index        int            `db:"index"`
	Role         string         `db:"role"`
	PhysicalID   *string        `db:"physical_id"`
	Status       string         `db:"status"`
	StatusReason string         `db:"status_reason"`
	Data         map[string]any `db:"data"`
	Metadata     map[string]any `db:"metadata"`
	User         string         `db:"owner_user"`
	Project      string         `db:"owner_project"`
	Domain       string         `db:"owner_domain"`
	CreatedAt    *time.Time     `db:"created_at"`
	UpdatedAt    *time.Time     `db:"updated_at"`
}

// TableName returns the table name associated to this model
func (n Node) TableName() string { return "node" }

// PrimaryKey returns the primary key column associated to this model
func (n Node) PrimaryKey() string { return "id" }

// Orphan reports whether the node belongs to no cluster.
func (n Node) Orphan() bool { return n.ClusterID == nil }
