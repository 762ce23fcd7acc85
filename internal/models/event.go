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

// Event object types
const (
	EventObjectCluster = "CLUSTER"
	EventObjectNode    = "NODE"
	EventObjectAction  = "ACTION"
)

// Event levels
const (
	EventLevelInfo    = "INFO"
	EventLevelWarning = "WARNING"
	EventLevelError   = "ERROR"
)

// Interface compile enforcement
var _ database.Model = (*Event)(nil)

// Event is a chronological log entry recording a state change of a
// cluster, node or action.
type Event struct {
	ID           *uuid.UUID `db:"id"`
	Timestamp    *time.Time `db:"timestamp"`
	ObjectID     uuid.UUID  `db:"object_id"`
	ObjectType   string     `db:"object_type"`
	ObjectName   string     `db:"object_name"`
	Action       string     `db:"action"`
	Status       string     `db:"status"`
	StatusReason string     `db:"status_reason"`
	Level        string     `db:"level"`
	User         string     `db:"owner_user"`
	Project      string     `db:"owner_project"`
}

// TableName returns the table name associated to this model
func (e Event) TableName() string { return "event" }

// PrimaryKey returns the primary key column associated to this model
func (e Event) PrimaryKey() string { return "id" }
