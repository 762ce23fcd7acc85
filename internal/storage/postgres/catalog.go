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

// ProfileRepository persists profile tuples.
type ProfileRepository struct {
	Db database.Queryable
}

func (r *ProfileRepository) Create(ctx context.Context, profile *models.Profile) (*models.Profile, error) {
	return database.Create[models.Profile](ctx, r.Db, *profile)
}

func (r *ProfileRepository) Get(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	record, err := database.Find[models.Profile](ctx, r.Db, id)
	if errors.Is(err, database.ErrNotFound) {
		return nil, typederrors.NewNotFoundError(err, "profile '%s' not found", id)
	}
	return record, err
}

func (r *ProfileRepository) List(ctx context.Context) ([]models.Profile, error) {
	rc := rcontext.FromContext(ctx)
	if rc.Project == "" || rc.IsAdmin {
		return database.FindAll[models.Profile](ctx, r.Db)
	}
	expr := psql.Quote("owner_project").EQ(psql.Arg(rc.Project))
	return database.Search[models.Profile](ctx, r.Db, expr, "created_at")
}

func (r *ProfileRepository) Update(ctx context.Context, profile *models.Profile) (*models.Profile, error) {
	if profile.ID == nil {
		return nil, typederrors.NewValidationError(nil, "profile id is required for update")
	}
	record, err := database.Update[models.Profile](ctx, r.Db, *profile.ID, *profile)
	if errors.Is(err, database.ErrNotFound) {
		return nil, typederrors.NewNotFoundError(err, "profile '%s' not found", *profile.ID)
	}
	return record, err
}

func (r *ProfileRepository) Delete(ctx context.Context, id uuid.UUID) error {
	expr := psql.Quote(models.Profile{}.PrimaryKey()).EQ(psql.Arg(id))
	count, err := database.Delete[models.Profile](ctx, r.Db, expr)
	if err != nil {
		return err
	}
	if count == 0 {
		return typederrors.NewNotFoundError(nil, "profile '%s' not found", id)
	}
	return nil
}

// PolicyRepository persists policy tuples.
type PolicyRepository struct {
	Db database.Queryable
}

func (r *PolicyRepository) Create(ctx context.Context, policy *models.Policy) (*models.Policy, error) {
	return database.Create[models.Policy](ctx, r.Db, *policy)
}

func (r *PolicyRepository) Get(ctx context.Context, id uuid.UUID) (*models.Policy, error) {
	record, err := database.Find[models.Policy](ctx, r.Db, id)
	if errors.Is(err, database.ErrNotFound) {
		return nil, typederrors.NewNotFoundError(err, "policy '%s' not found", id)
	}
	return record, err
}

func (r *PolicyRepository) List(ctx context.Context) ([]models.Policy, error) {
	rc := rcontext.FromContext(ctx)
	if rc.Project == "" || rc.IsAdmin {
		return database.FindAll[models.Policy](ctx, r.Db)
	}
	expr := psql.Quote("owner_project").EQ(psql.Arg(rc.Project))
	return database.Search[models.Policy](ctx, r.Db, expr, "created_at")
}

func (r *PolicyRepository) Update(ctx context.Context, policy *models.Policy) (*models.Policy, error) {
	if policy.ID == nil {
		return nil, typederrors.NewValidationError(nil, "policy id is required for update")
	}
	record, err := database.Update[models.Policy](ctx, r.Db, *policy.ID, *policy)
	if errors.Is(err, database.ErrNotFound) {
		return nil, typederrors.NewNotFoundError(err, "policy '%s' not found", *policy.ID)
	}
	return record, err
}

func (r *PolicyRepository) Delete(ctx context.Context, id uuid.UUID) error {
	expr := psql.Quote(models.Policy{}.PrimaryKey()).EQ(psql.Arg(id))
	count, err := database.Delete[models.Policy](ctx, r.Db, expr)
	if err != nil {
		return err
	}
	if count == 0 {
		return typederrors.NewNotFoundError(nil, "policy '%s' not found", id)
	}
	return nil
}
