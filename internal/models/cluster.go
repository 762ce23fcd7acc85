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

// Cluster status values
const (
	ClusterStatusInit     = "INIT"
	ClusterStatusCreating = "CREATING"
	ClusterStatusActive   = "ACTIVE"
	ClusterStatusUpdating = "UPDATING"
	ClusterStatusResizing = "RESIZING"
	ClusterStatusDeleting = "DELETING"
	ClusterStatusWarning  = "WARNING"
	ClusterStatusError    = "ERROR"
)

// DefaultActionTimeout is the cluster-level timeout in seconds, flowed down
// to child actions as an upper bound.
const DefaultActionTimeout = 3600

// Interface compile enforcement
var _ database.Model = (*Cluster)(nil)

// Cluster represents a record in the cluster table.  MaxSize of -1 means
// the cluster capacity is unbounded.
type Cluster struct {
	ID              *uuid.UUID     `db:"id"`
	Name            string         `db:"name"`
	ProfileID       uuid.UUID      `db:"profile_id"`
	DesiredCapacity int            `db:"desired_capacity"`
	MinSize         int            `db:"min_size"`
	MaxSize         int            `db:"max_size"`
	Timeout         int            `db:"timeout"`
	ParentID        *uuid.UUID     `db:"parent_id"`
	Metadata        map[string]any `db:"metadata"`
	Data            map[string]any `db:"data"`
	Status          string         `db:"status"`
	StatusReason    string         `db:"status_reason"`
	// NextIndex moves only through ClusterStore.NextIndex; generic reads
	// and writes must not touch the column or a stale copy rolls it back.
	NextIndex int `db:"-"`
	User            string         `db:"owner_user"`
	Project         string         `db:"owner_project"`
	Domain          string         `db:"owner_domain"`
	CreatedAt       *time.Time     `db:"created_at"`
	UpdatedAt       *time.Time     `db:"updated_at"`
}

// TableName returns the table name associated to this model
func (c Cluster) TableName() string { return "cluster" }

// PrimaryKey returns the primary key column associated to this model
func (c Cluster) PrimaryKey() string { return "id" }

// CheckSize verifies the size invariants: min_size <= desired_capacity and,
// unless unbounded, desired_capacity <= max_size and min_size <= max_size.
func (c Cluster) CheckSize() bool {
	if c.MinSize > c.DesiredCapacity {
		return false
	}
	if c.MaxSize >= 0 && (c.MaxSize < c.DesiredCapacity || c.MaxSize < c.MinSize) {
		return false
	}
	return true
}
