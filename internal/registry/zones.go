package registry

import (
	"context"
	"fmt"

	"device-registry/internal/domain"
	"device-registry/internal/events"
	"device-registry/internal/store"

	"go.mongodb.org/mongo-driver/bson"
)

// CreateZone 在站点下创建区域
// Zone tokens are always generated; clients never pick them.
func (r *Registry) CreateZone(ctx context.Context, siteToken string, req *domain.ZoneCreateRequest) (*domain.Zone, error) {
	if req.Name == "" {
		return nil, fmt.Errorf("zone name is required")
	}
	site, err := r.GetSiteByToken(ctx, siteToken)
	if err != nil {
		return nil, err
	}
	if site == nil {
		return nil, domain.NewError(domain.ErrInvalidSiteReference, fmt.Sprintf("zone references non-existent site %q", siteToken))
	}

	zone := &domain.Zone{
		SiteToken:   siteToken,
		Name:        req.Name,
		Coordinates: req.Coordinates,
		BorderColor: req.BorderColor,
		FillColor:   req.FillColor,
	}
	if req.Opacity != nil {
		zone.Opacity = *req.Opacity
	}
	zone.Token = tokenOrUUID("")
	zone.Metadata = req.Metadata
	domain.StampCreated(&zone.Entity, "", r.now())

	if err := store.InsertEntity(ctx, r.zones, zone, domain.ErrDuplicateZoneToken); err != nil {
		return nil, err
	}
	r.events.PublishLifecycle("zone", zone.Token, events.ActionCreated)
	return zone, nil
}

// UpdateZone 更新区域
func (r *Registry) UpdateZone(ctx context.Context, token string, req *domain.ZoneCreateRequest) (*domain.Zone, error) {
	zone, err := r.assertZone(ctx, token)
	if err != nil {
		return nil, err
	}
	if req.Name != "" {
		zone.Name = req.Name
	}
	if req.Coordinates != nil {
		zone.Coordinates = req.Coordinates
	}
	if req.BorderColor != "" {
		zone.BorderColor = req.BorderColor
	}
	if req.FillColor != "" {
		zone.FillColor = req.FillColor
	}
	if req.Opacity != nil {
		zone.Opacity = *req.Opacity
	}
	if req.Metadata != nil {
		zone.Metadata = req.Metadata
	}
	domain.StampUpdated(&zone.Entity, "", r.now())

	if err := store.UpdateEntity(ctx, r.zones, bson.M{"token": token}, zone, domain.ErrInvalidZoneToken); err != nil {
		return nil, err
	}
	r.events.PublishLifecycle("zone", token, events.ActionUpdated)
	return zone, nil
}

// GetZone 按 token 查询区域（不存在返回 nil）
func (r *Registry) GetZone(ctx context.Context, token string) (*domain.Zone, error) {
	return store.FindEntity[domain.Zone](ctx, r.zones, bson.M{"token": token})
}

// ListZones 分页查询站点下的区域
func (r *Registry) ListZones(ctx context.Context, siteToken string, criteria domain.SearchCriteria) (*domain.SearchResults[domain.Zone], error) {
	filter := bson.M{"siteToken": siteToken}
	sort := bson.D{{Key: "createdDate", Value: -1}}
	return store.SearchEntities[domain.Zone](ctx, r.zones, filter, sort, criteria)
}

// DeleteZone 删除区域（soft 或 force）
func (r *Registry) DeleteZone(ctx context.Context, token string, force bool) (*domain.Zone, error) {
	zone, err := r.assertZone(ctx, token)
	if err != nil {
		return nil, err
	}
	if force {
		if _, err := store.DeleteEntity(ctx, r.zones, bson.M{"token": token}); err != nil {
			return nil, err
		}
	} else {
		zone.Deleted = true
		domain.StampUpdated(&zone.Entity, "", r.now())
		if err := store.UpdateEntity(ctx, r.zones, bson.M{"token": token}, zone, domain.ErrInvalidZoneToken); err != nil {
			return nil, err
		}
	}
	r.events.PublishLifecycle("zone", token, events.ActionDeleted)
	return zone, nil
}

func (r *Registry) assertZone(ctx context.Context, token string) (*domain.Zone, error) {
	zone, err := r.GetZone(ctx, token)
	if err != nil {
		return nil, err
	}
	if zone == nil {
		return nil, domain.NewError(domain.ErrInvalidZoneToken, fmt.Sprintf("zone %q not found", token))
	}
	return zone, nil
}
