package registry

import (
	"context"
	"fmt"

	"device-registry/internal/domain"
	"device-registry/internal/events"
	"device-registry/internal/store"

	"go.mongodb.org/mongo-driver/bson"
)

// CreateSite 创建站点
func (r *Registry) CreateSite(ctx context.Context, req *domain.SiteCreateRequest) (*domain.Site, error) {
	if req.Name == "" {
		return nil, fmt.Errorf("site name is required")
	}
	site := &domain.Site{
		Name:        req.Name,
		Description: req.Description,
		ImageURL:    req.ImageURL,
		MapType:     req.MapType,
		MapMetadata: req.MapMetadata,
	}
	site.Token = tokenOrUUID(req.Token)
	site.Metadata = req.Metadata
	domain.StampCreated(&site.Entity, "", r.now())

	if err := store.InsertEntity(ctx, r.sites, site, domain.ErrDuplicateSiteToken); err != nil {
		return nil, err
	}
	r.events.PublishLifecycle("site", site.Token, events.ActionCreated)
	return site, nil
}

// UpdateSite 更新站点
func (r *Registry) UpdateSite(ctx context.Context, token string, req *domain.SiteCreateRequest) (*domain.Site, error) {
	site, err := r.assertSite(ctx, token)
	if err != nil {
		return nil, err
	}
	if req.Name != "" {
		site.Name = req.Name
	}
	if req.Description != "" {
		site.Description = req.Description
	}
	if req.ImageURL != "" {
		site.ImageURL = req.ImageURL
	}
	if req.MapType != "" {
		site.MapType = req.MapType
	}
	if req.MapMetadata != nil {
		site.MapMetadata = req.MapMetadata
	}
	if req.Metadata != nil {
		site.Metadata = req.Metadata
	}
	domain.StampUpdated(&site.Entity, "", r.now())

	if err := store.UpdateEntity(ctx, r.sites, bson.M{"token": token}, site, domain.ErrInvalidSiteToken); err != nil {
		return nil, err
	}
	r.events.PublishLifecycle("site", token, events.ActionUpdated)
	return site, nil
}

// GetSiteByToken 按 token 查询站点（不存在返回 nil）
func (r *Registry) GetSiteByToken(ctx context.Context, token string) (*domain.Site, error) {
	return store.FindEntity[domain.Site](ctx, r.sites, bson.M{"token": token})
}

// ListSites 分页查询站点
func (r *Registry) ListSites(ctx context.Context, criteria domain.SearchCriteria) (*domain.SearchResults[domain.Site], error) {
	sort := bson.D{{Key: "name", Value: 1}}
	return store.SearchEntities[domain.Site](ctx, r.sites, bson.M{}, sort, criteria)
}

// DeleteSite 删除站点（soft 或 force）
func (r *Registry) DeleteSite(ctx context.Context, token string, force bool) (*domain.Site, error) {
	site, err := r.assertSite(ctx, token)
	if err != nil {
		return nil, err
	}
	if force {
		if _, err := store.DeleteEntity(ctx, r.sites, bson.M{"token": token}); err != nil {
			return nil, err
		}
	} else {
		site.Deleted = true
		domain.StampUpdated(&site.Entity, "", r.now())
		if err := store.UpdateEntity(ctx, r.sites, bson.M{"token": token}, site, domain.ErrInvalidSiteToken); err != nil {
			return nil, err
		}
	}
	r.events.PublishLifecycle("site", token, events.ActionDeleted)
	return site, nil
}

func (r *Registry) assertSite(ctx context.Context, token string) (*domain.Site, error) {
	site, err := r.GetSiteByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if site == nil {
		return nil, domain.NewError(domain.ErrInvalidSiteToken, fmt.Sprintf("site %q not found", token))
	}
	return site, nil
}
