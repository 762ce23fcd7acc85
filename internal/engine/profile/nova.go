/*
SPDX-FileCopyrightText: The Corral Authors

SPDX-License-Identifier: Apache-2.0
*/

package profile

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/corral-cloud/corral/internal/models"
	"github.com/corral-cloud/corral/internal/typederrors"
)

// TypeNovaServer identifies the compute-server profile.
const TypeNovaServer = "os.nova.server"

// MetaClusterKey is the server metadata key recording cluster membership.
const MetaClusterKey = "cluster"

const serverDeleteTimeout = 5 * time.Minute

// NovaServerProfile provisions nodes as compute servers.
type NovaServerProfile struct {
	Base
	services Services
	owner    ownerRef

	name     string
	flavor   string
	image    string
	keyName  string
	userData string
	networks []string
	metadata map[string]string
}

type ownerRef struct {
	user    string
	project string
}

// NewNovaServerProfile builds the kind from its stored record.
func NewNovaServerProfile(record *models.Profile, services Services) (Kind, error) {
	p := &NovaServerProfile{
		services: services,
		owner:    ownerRef{user: record.User, project: record.Project},
		metadata: map[string]string{},
	}
	spec := record.Spec
	p.name, _ = spec["name"].(string)
	p.flavor, _ = spec["flavor"].(string)
	p.image, _ = spec["image"].(string)
	p.keyName, _ = spec["key_name"].(string)
	p.userData, _ = spec["user_data"].(string)
	if networks, ok := spec["networks"].([]any); ok {
		for _, item := range networks {
			if name, ok := item.(string); ok {
				p.networks = append(p.networks, name)
			}
		}
	}
	if metadata, ok := spec["metadata"].(map[string]any); ok {
		for key, value := range metadata {
			if s, ok := value.(string); ok {
				p.metadata[key] = s
			}
		}
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *NovaServerProfile) Validate() error {
	if p.flavor == "" {
		return typederrors.NewValidationError(nil, "profile property 'flavor' is required")
	}
	return nil
}

func (p *NovaServerProfile) DoCreate(ctx context.Context, node *models.Node) (string, error) {
	sess, err := sessionFor(ctx, p.services, p.owner.user, p.owner.project)
	if err != nil {
		return "", err
	}
	compute := sess.Compute()

	flavorID, err := compute.FlavorFind(ctx, p.flavor)
	if err != nil {
		return "", err
	}

	metadata := map[string]string{}
	for key, value := range p.metadata {
		metadata[key] = value
	}
	if node.ClusterID != nil {
		metadata[MetaClusterKey] = node.ClusterID.String()
	}

	name := node.Name
	if name == "" {
		name = p.name
	}
	attrs := map[string]any{
		"name":      name,
		"flavorRef": flavorID,
		"metadata":  metadata,
	}
	if p.image != "" {
		imageID, err := compute.ImageFind(ctx, p.image)
		if err != nil {
			return "", err
		}
		attrs["imageRef"] = imageID
	}
	if p.keyName != "" {
		attrs["key_name"] = p.keyName
	}
	if p.userData != "" {
		attrs["user_data"] = p.userData
	}
	if len(p.networks) > 0 {
		networks := make([]any, 0, len(p.networks))
		for _, network := range p.networks {
			networkID, err := sess.Network().NetworkGet(ctx, network)
			if err != nil {
				return "", err
			}
			networks = append(networks, map[string]any{"uuid": networkID})
		}
		attrs["networks"] = networks
	}

	server, err := compute.ServerCreate(ctx, attrs)
	if err != nil {
		return "", err
	}
	return server.ID, nil
}

func (p *NovaServerProfile) DoDelete(ctx context.Context, node *models.Node) error {
	if node.PhysicalID == nil || *node.PhysicalID == "" {
		return nil
	}
	sess, err := sessionFor(ctx, p.services, p.owner.user, p.owner.project)
	if err != nil {
		return err
	}
	if err := sess.Compute().ServerDelete(ctx, *node.PhysicalID, true); err != nil {
		return err
	}
	return sess.Compute().WaitForServerDelete(ctx, *node.PhysicalID, serverDeleteTimeout)
}

// DoUpdate rebuilds the server when the image changed and refreshes its
// metadata otherwise.
func (p *NovaServerProfile) DoUpdate(ctx context.Context, node *models.Node, newProfile *models.Profile) error {
	if node.PhysicalID == nil || *node.PhysicalID == "" {
		return typederrors.NewValidationError(nil, "node '%s' has no physical resource", node.ID)
	}
	sess, err := sessionFor(ctx, p.services, p.owner.user, p.owner.project)
	if err != nil {
		return err
	}
	compute := sess.Compute()

	newImage, _ := newProfile.Spec["image"].(string)
	if newImage != "" && newImage != p.image {
		imageID, err := compute.ImageFind(ctx, newImage)
		if err != nil {
			return err
		}
		if err := compute.ServerRebuild(ctx, *node.PhysicalID, imageID, node.Name, p.metadata); err != nil {
			return err
		}
	}

	if metadata, ok := newProfile.Spec["metadata"].(map[string]any); ok {
		update := map[string]string{}
		for key, value := range metadata {
			if s, ok := value.(string); ok {
				update[key] = s
			}
		}
		if node.ClusterID != nil {
			update[MetaClusterKey] = node.ClusterID.String()
		}
		if err := compute.ServerMetadataUpdate(ctx, *node.PhysicalID, update); err != nil {
			return err
		}
	}
	return nil
}

func (p *NovaServerProfile) DoGetDetails(ctx context.Context, node *models.Node) (map[string]any, error) {
	if node.PhysicalID == nil || *node.PhysicalID == "" {
		return nil, typederrors.NewValidationError(nil, "node '%s' has no physical resource", node.ID)
	}
	sess, err := sessionFor(ctx, p.services, p.owner.user, p.owner.project)
	if err != nil {
		return nil, err
	}
	server, err := sess.Compute().ServerGet(ctx, *node.PhysicalID)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"id":        server.ID,
		"name":      server.Name,
		"status":    server.Status,
		"addresses": server.Addresses,
	}, nil
}

func (p *NovaServerProfile) DoJoin(ctx context.Context, node *models.Node, clusterID uuid.UUID) error {
	if node.PhysicalID == nil || *node.PhysicalID == "" {
		return nil
	}
	sess, err := sessionFor(ctx, p.services, p.owner.user, p.owner.project)
	if err != nil {
		return err
	}
	metadata, err := sess.Compute().ServerMetadataGet(ctx, *node.PhysicalID)
	if err != nil {
		return err
	}
	if metadata == nil {
		metadata = map[string]string{}
	}
	metadata[MetaClusterKey] = clusterID.String()
	return sess.Compute().ServerMetadataUpdate(ctx, *node.PhysicalID, metadata)
}

func (p *NovaServerProfile) DoLeave(ctx context.Context, node *models.Node) error {
	if node.PhysicalID == nil || *node.PhysicalID == "" {
		return nil
	}
	sess, err := sessionFor(ctx, p.services, p.owner.user, p.owner.project)
	if err != nil {
		return err
	}
	metadata, err := sess.Compute().ServerMetadataGet(ctx, *node.PhysicalID)
	if err != nil {
		return err
	}
	delete(metadata, MetaClusterKey)
	return sess.Compute().ServerMetadataUpdate(ctx, *node.PhysicalID, metadata)
}

func (p *NovaServerProfile) DoCheck(ctx context.Context, node *models.Node) (bool, error) {
	if node.PhysicalID == nil || *node.PhysicalID == "" {
		return false, nil
	}
	sess, err := sessionFor(ctx, p.services, p.owner.user, p.owner.project)
	if err != nil {
		return false, err
	}
	server, err := sess.Compute().ServerGet(ctx, *node.PhysicalID)
	if err != nil {
		if typederrors.IsNotFoundError(err) {
			return false, nil
		}
		return false, err
	}
	return server.Status == "ACTIVE", nil
}
