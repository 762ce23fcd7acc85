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

// Action status values
const (
	ActionStatusInit      = "INIT"
	ActionStatusReady     = "READY"
	ActionStatusWaiting   = "WAITING"
	ActionStatusRunning   = "RUNNING"
	ActionStatusSuspended = "SUSPENDED"
	ActionStatusSucceeded = "SUCCEEDED"
	ActionStatusFailed    = "FAILED"
	ActionStatusCancelled = "CANCELLED"
)

// ActionControlCancel is the cooperative cancellation signal written to the
// control column.  Workers check it at every suspension point.
const ActionControlCancel = "CANCEL"

// Cluster action names
const (
	ClusterActionCreate       = "CLUSTER_CREATE"
	ClusterActionDelete       = "CLUSTER_DELETE"
	ClusterActionUpdate       = "CLUSTER_UPDATE"
	ClusterActionAddNodes     = "CLUSTER_ADD_NODES"
	ClusterActionDelNodes     = "CLUSTER_DEL_NODES"
	ClusterActionResize       = "CLUSTER_RESIZE"
	ClusterActionScaleOut     = "CLUSTER_SCALE_OUT"
	ClusterActionScaleIn      = "CLUSTER_SCALE_IN"
	ClusterActionAttachPolicy = "CLUSTER_ATTACH_POLICY"
	ClusterActionDetachPolicy = "CLUSTER_DETACH_POLICY"
	ClusterActionUpdatePolicy = "CLUSTER_UPDATE_POLICY"
)

// Node action names
const (
	NodeActionCreate = "NODE_CREATE"
	NodeActionDelete = "NODE_DELETE"
	NodeActionUpdate = "NODE_UPDATE"
	NodeActionJoin   = "NODE_JOIN"
	NodeActionLeave  = "NODE_LEAVE"
)

// Action causes
const (
	CauseRPC     = "RPC Request"
	CauseDerived = "Derived Action"
)

// IsTerminalActionStatus reports whether the status is final.
func IsTerminalActionStatus(status string) bool {
	switch status {
	case ActionStatusSucceeded, ActionStatusFailed, ActionStatusCancelled:
		return true
	}
	return false
}

// Interface compile enforcement
var _ database.Model = (*Action)(nil)

// Action represents a record in the action table.  Inputs are frozen at
// creation; Outputs and Data accumulate results and policy decisions while
// the action runs and are frozen once the status is terminal.
type Action struct {
	ID           *uuid.UUID     `db:"id"`
	Name         string         `db:"name"`
	TargetID     uuid.UUID      `db:"target_id"`
	Action       string         `db:"action"`
	Cause        string         `db:"cause"`
	Owner        *uuid.UUID     `db:"owner"`
	Control      *string        `db:"control"`
	Status       string         `db:"status"`
	StatusReason string         `db:"status_reason"`
	Timeout      int            `db:"timeout"`
	Inputs       map[string]any `db:"inputs"`
	Outputs      map[string]any `db:"outputs"`
	Data         map[string]any `db:"data"`
	User         string         `db:"owner_user"`
	Project      string         `db:"owner_project"`
	Domain       string         `db:"owner_domain"`
	StartTime    *time.Time     `db:"start_time"`
	EndTime      *time.Time     `db:"end_time"`
	CreatedAt    *time.Time     `db:"created_at"`
	UpdatedAt    *time.Time     `db:"updated_at"`
}

// TableName returns the table name associated to this model
func (a Action) TableName() string { return "action" }

// PrimaryKey returns the primary key column associated to this model
func (a Action) PrimaryKey() string { return "id" }

// Interface compile enforcement
var _ database.Model = (*ActionDependency)(nil)

// ActionDependency declares that the parent action waits on the child.
type ActionDependency struct {
	ID       *uuid.UUID `db:"id"`
	ChildID  uuid.UUID  `db:"child_id"`
	ParentID uuid.UUID  `db:"parent_id"`
}

// TableName returns the table name associated to this model
func (d ActionDependency) TableName() string { return "action_dependency" }

// PrimaryKey returns the primary key column associated to this model
func (d ActionDependency) PrimaryKey() string { return "id" }
