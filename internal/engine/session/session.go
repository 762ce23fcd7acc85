/*
SPDX-FileCopyrightText: The Corral Authors

SPDX-License-Identifier: Apache-2.0
*/

// Package session builds tenant-scoped driver connection parameters from
// the request context and the stored credential bundle.
package session

import (
	"context"

	"github.com/corral-cloud/corral/internal/driver"
	"github.com/corral-cloud/corral/internal/rcontext"
	"github.com/corral-cloud/corral/internal/storage"
	"github.com/corral-cloud/corral/internal/typederrors"
)

// Params assembles driver parameters for acting on behalf of the given
// resource owner.  The trust id is looked up from the credential store.
// The request context's auth endpoint wins over the configured default;
// derived actions carry no request context and rely on the default.
func Params(ctx context.Context, store storage.Store, authURL, user, project string) (driver.Params, error) {
	rc := rcontext.FromContext(ctx)
	if rc.AuthURL != "" {
		authURL = rc.AuthURL
	}
	params := driver.Params{
		AuthURL: authURL,
		User:    user,
		Project: project,
		Domain:  rc.Domain,
	}

	if rc.TrustID != "" && rc.User == user && rc.Project == project {
		params.TrustID = rc.TrustID
		return params, nil
	}

	credential, err := store.Credentials().GetByOwner(ctx, user, project)
	if err != nil {
		return driver.Params{}, err
	}
	trustID := credential.TrustID()
	if trustID == "" {
		return driver.Params{}, typederrors.NewValidationError(nil,
			"credential for '%s/%s' carries no trust id", user, project)
	}
	params.TrustID = trustID
	return params, nil
}
