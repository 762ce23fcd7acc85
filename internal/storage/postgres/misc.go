/*
SPDX-FileCopyrightText: The Corral Authors

SPDX-License-Identifier: Apache-2.0
*/

package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/stephenafamo/bob/dialect/psql"

	"github.com/corral-cloud/corral/internal/database"
	"github.com/corral-cloud/corral/internal/models"
	"github.com/corral-cloud/corral/internal/rcontext"
	"github.com/corral-cloud/corral/internal/typederrors"
)

// EventRepository persists event tuples.
type EventRepository struct {
	Db database.Queryable
}

func (r *EventRepository) Create(ctx context.Context, event *models.Event) (*models.Event, error) {
	return database.Create[models.Event](ctx, r.Db, *event)
}

// ListByObject returns the chronological event log for an object.
func (r *EventRepository) ListByObject(ctx context.Context, objectID uuid.UUID) ([]models.Event, error) {
	expr := psql.Quote("object_id").EQ(psql.Arg(objectID))
	return database.Search[models.Event](ctx, r.Db, expr, "timestamp")
}

// ReceiverRepository persists receiver tuples.
type ReceiverRepository struct {
	Db database.Queryable
}

func (r *ReceiverRepository) Create(ctx context.Context, receiver *models.Receiver) (*models.Receiver, error) {
	return database.Create[models.Receiver](ctx, r.Db, *receiver)
}

func (r *ReceiverRepository) Get(ctx context.Context, id uuid.UUID) (*models.Receiver, error) {
	record, err := database.Find[models.Receiver](ctx, r.Db, id)
	if errors.Is(err, database.ErrNotFound) {
		return nil, typederrors.NewNotFoundError(err, "receiver '%s' not found", id)
	}
	return record, err
}

func (r *ReceiverRepository) List(ctx context.Context) ([]models.Receiver, error) {
	rc := rcontext.FromContext(ctx)
	if rc.Project == "" || rc.IsAdmin {
		return database.FindAll[models.Receiver](ctx, r.Db)
	}
	expr := psql.Quote("owner_project").EQ(psql.Arg(rc.Project))
	return database.Search[models.Receiver](ctx, r.Db, expr, "created_at")
}

func (r *ReceiverRepository) Delete(ctx context.Context, id uuid.UUID) error {
	expr := psql.Quote(models.Receiver{}.PrimaryKey()).EQ(psql.Arg(id))
	count, err := database.Delete[models.Receiver](ctx, r.Db, expr)
	if err != nil {
		return err
	}
	if count == 0 {
		return typederrors.NewNotFoundError(nil, "receiver '%s' not found", id)
	}
	return nil
}

// CredentialRepository persists credential tuples.
type CredentialRepository struct {
	Db database.Queryable
}

func (r *CredentialRepository) Create(ctx context.Context, credential *models.Credential) (*models.Credential, error) {
	return database.Create[models.Credential](ctx, r.Db, *credential)
}

// GetByOwner retrieves the bundle stored for the (user, project) pair.
func (r *CredentialRepository) GetByOwner(ctx context.Context, user, project string) (*models.Credential, error) {
	expr := psql.Quote("owner_user").EQ(psql.Arg(user)).
		And(psql.Quote("owner_project").EQ(psql.Arg(project)))
	records, err := database.Search[models.Credential](ctx, r.Db, expr)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, typederrors.NewNotFoundError(nil, "credential for '%s/%s' not found", user, project)
	}
	return &records[0], nil
}

func (r *CredentialRepository) Update(ctx context.Context, credential *models.Credential) (*models.Credential, error) {
	if credential.ID == nil {
		return nil, typederrors.NewValidationError(nil, "credential id is required for update")
	}
	record, err := database.Update[models.Credential](ctx, r.Db, *credential.ID, *credential)
	if errors.Is(err, database.ErrNotFound) {
		return nil, typederrors.NewNotFoundError(err, "credential '%s' not found", *credential.ID)
	}
	return record, err
}

func (r *CredentialRepository) Delete(ctx context.Context, user, project string) error {
	expr := psql.Quote("owner_user").EQ(psql.Arg(user)).
		And(psql.Quote("owner_project").EQ(psql.Arg(project)))
	count, err := database.Delete[models.Credential](ctx, r.Db, expr)
	if err != nil {
		return err
	}
	if count == 0 {
		return typederrors.NewNotFoundError(nil, "credential for '%s/%s' not found", user, project)
	}
	return nil
}
