package registry

import (
	"context"
	"fmt"

	"device-registry/internal/domain"
	"device-registry/internal/events"
	"device-registry/internal/store"

	"go.mongodb.org/mongo-driver/bson"
)

// CreateDeviceStatus 在规格下创建状态
// Code is backed by the compound unique index on (specToken, code); the
// in-memory sibling check on code and name runs first for defense in depth.
func (r *Registry) CreateDeviceStatus(ctx context.Context, specToken string, req *domain.DeviceStatusCreateRequest) (*domain.DeviceStatus, error) {
	if req.Code == "" {
		return nil, fmt.Errorf("status code is required")
	}
	if req.Name == "" {
		return nil, fmt.Errorf("status name is required")
	}
	if _, err := r.assertSpecification(ctx, specToken); err != nil {
		return nil, err
	}

	existing, err := r.ListDeviceStatuses(ctx, specToken)
	if err != nil {
		return nil, err
	}
	for _, sibling := range existing {
		if sibling.Code == req.Code || sibling.Name == req.Name {
			return nil, domain.NewError(domain.ErrDuplicateStatusCode,
				fmt.Sprintf("status %q/%q already exists for specification %q", req.Code, req.Name, specToken))
		}
	}

	status := &domain.DeviceStatus{
		SpecificationToken: specToken,
		Code:               req.Code,
		Name:               req.Name,
		BackgroundColor:    req.BackgroundColor,
		ForegroundColor:    req.ForegroundColor,
		BorderColor:        req.BorderColor,
		Icon:               req.Icon,
	}
	if err := store.InsertEntity(ctx, r.statuses, status, domain.ErrDuplicateStatusCode); err != nil {
		return nil, err
	}
	r.events.PublishLifecycle("status", specToken+"/"+status.Code, events.ActionCreated)
	return status, nil
}

// UpdateDeviceStatus 更新状态
func (r *Registry) UpdateDeviceStatus(ctx context.Context, specToken, code string, req *domain.DeviceStatusCreateRequest) (*domain.DeviceStatus, error) {
	status, err := r.assertStatus(ctx, specToken, code)
	if err != nil {
		return nil, err
	}
	if req.Code != "" {
		status.Code = req.Code
	}
	if req.Name != "" {
		status.Name = req.Name
	}
	if req.BackgroundColor != "" {
		status.BackgroundColor = req.BackgroundColor
	}
	if req.ForegroundColor != "" {
		status.ForegroundColor = req.ForegroundColor
	}
	if req.BorderColor != "" {
		status.BorderColor = req.BorderColor
	}
	if req.Icon != "" {
		status.Icon = req.Icon
	}

	siblings, err := r.ListDeviceStatuses(ctx, specToken)
	if err != nil {
		return nil, err
	}
	for _, sibling := range siblings {
		if sibling.Code == code {
			continue
		}
		if sibling.Code == status.Code || sibling.Name == status.Name {
			return nil, domain.NewError(domain.ErrDuplicateStatusCode,
				fmt.Sprintf("status %q/%q already exists for specification %q", status.Code, status.Name, specToken))
		}
	}

	query := bson.M{"specToken": specToken, "code": code}
	if err := store.UpdateEntity(ctx, r.statuses, query, status, domain.ErrInvalidStatusCode); err != nil {
		return nil, err
	}
	r.events.PublishLifecycle("status", specToken+"/"+code, events.ActionUpdated)
	return status, nil
}

// GetDeviceStatusByCode 按 (specToken, code) 查询状态（不存在返回 nil）
func (r *Registry) GetDeviceStatusByCode(ctx context.Context, specToken, code string) (*domain.DeviceStatus, error) {
	return store.FindEntity[domain.DeviceStatus](ctx, r.statuses, bson.M{"specToken": specToken, "code": code})
}

// ListDeviceStatuses 列出规格下的全部状态
func (r *Registry) ListDeviceStatuses(ctx context.Context, specToken string) ([]domain.DeviceStatus, error) {
	filter := bson.M{"specToken": specToken}
	sort := bson.D{{Key: "name", Value: 1}}
	return store.ListEntities[domain.DeviceStatus](ctx, r.statuses, filter, sort)
}

// DeleteDeviceStatus 删除状态（状态没有 soft delete）
func (r *Registry) DeleteDeviceStatus(ctx context.Context, specToken, code string) (*domain.DeviceStatus, error) {
	status, err := r.assertStatus(ctx, specToken, code)
	if err != nil {
		return nil, err
	}
	if _, err := store.DeleteEntity(ctx, r.statuses, bson.M{"specToken": specToken, "code": code}); err != nil {
		return nil, err
	}
	r.events.PublishLifecycle("status", specToken+"/"+code, events.ActionDeleted)
	return status, nil
}

func (r *Registry) assertStatus(ctx context.Context, specToken, code string) (*domain.DeviceStatus, error) {
	status, err := r.GetDeviceStatusByCode(ctx, specToken, code)
	if err != nil {
		return nil, err
	}
	if status == nil {
		return nil, domain.NewError(domain.ErrInvalidStatusCode,
			fmt.Sprintf("status %q not found for specification %q", code, specToken))
	}
	return status, nil
}
