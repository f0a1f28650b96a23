package registry

import (
	"context"
	"fmt"

	"device-registry/internal/domain"
	"device-registry/internal/events"
	"device-registry/internal/store"

	"go.mongodb.org/mongo-driver/bson"
)

// CreateDeviceSpecification 创建设备规格
func (r *Registry) CreateDeviceSpecification(ctx context.Context, req *domain.DeviceSpecificationCreateRequest) (*domain.DeviceSpecification, error) {
	if req.Name == "" {
		return nil, fmt.Errorf("specification name is required")
	}
	if req.AssetReference.Module == "" || req.AssetReference.ID == "" {
		return nil, fmt.Errorf("specification asset reference is required")
	}
	policy := req.ContainerPolicy
	if policy == "" {
		policy = domain.ContainerPolicyStandalone
	}

	spec := &domain.DeviceSpecification{
		Name:            req.Name,
		AssetReference:  req.AssetReference,
		ContainerPolicy: policy,
	}
	spec.Token = tokenOrUUID(req.Token)
	spec.Metadata = req.Metadata
	domain.StampCreated(&spec.Entity, "", r.now())

	if err := store.InsertEntity(ctx, r.specs, spec, domain.ErrDuplicateSpecificationToken); err != nil {
		return nil, err
	}
	r.events.PublishLifecycle("specification", spec.Token, events.ActionCreated)
	return spec, nil
}

// UpdateDeviceSpecification 更新设备规格
func (r *Registry) UpdateDeviceSpecification(ctx context.Context, token string, req *domain.DeviceSpecificationCreateRequest) (*domain.DeviceSpecification, error) {
	spec, err := r.assertSpecification(ctx, token)
	if err != nil {
		return nil, err
	}
	if req.Name != "" {
		spec.Name = req.Name
	}
	if req.AssetReference.Module != "" && req.AssetReference.ID != "" {
		spec.AssetReference = req.AssetReference
	}
	if req.ContainerPolicy != "" {
		spec.ContainerPolicy = req.ContainerPolicy
	}
	if req.Metadata != nil {
		spec.Metadata = req.Metadata
	}
	domain.StampUpdated(&spec.Entity, "", r.now())

	if err := store.UpdateEntity(ctx, r.specs, bson.M{"token": token}, spec, domain.ErrInvalidSpecificationToken); err != nil {
		return nil, err
	}
	r.events.PublishLifecycle("specification", token, events.ActionUpdated)
	return spec, nil
}

// GetDeviceSpecificationByToken 按 token 查询规格（不存在返回 nil）
func (r *Registry) GetDeviceSpecificationByToken(ctx context.Context, token string) (*domain.DeviceSpecification, error) {
	return store.FindEntity[domain.DeviceSpecification](ctx, r.specs, bson.M{"token": token})
}

// ListDeviceSpecifications 分页查询规格
func (r *Registry) ListDeviceSpecifications(ctx context.Context, includeDeleted bool, criteria domain.SearchCriteria) (*domain.SearchResults[domain.DeviceSpecification], error) {
	filter := bson.M{}
	if !includeDeleted {
		filter["deleted"] = false
	}
	sort := bson.D{{Key: "createdDate", Value: -1}}
	return store.SearchEntities[domain.DeviceSpecification](ctx, r.specs, filter, sort, criteria)
}

// DeleteDeviceSpecification 删除规格（soft 或 force）
func (r *Registry) DeleteDeviceSpecification(ctx context.Context, token string, force bool) (*domain.DeviceSpecification, error) {
	spec, err := r.assertSpecification(ctx, token)
	if err != nil {
		return nil, err
	}
	if force {
		if _, err := store.DeleteEntity(ctx, r.specs, bson.M{"token": token}); err != nil {
			return nil, err
		}
	} else {
		spec.Deleted = true
		domain.StampUpdated(&spec.Entity, "", r.now())
		if err := store.UpdateEntity(ctx, r.specs, bson.M{"token": token}, spec, domain.ErrInvalidSpecificationToken); err != nil {
			return nil, err
		}
	}
	r.events.PublishLifecycle("specification", token, events.ActionDeleted)
	return spec, nil
}

func (r *Registry) assertSpecification(ctx context.Context, token string) (*domain.DeviceSpecification, error) {
	spec, err := r.GetDeviceSpecificationByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if spec == nil {
		return nil, domain.NewError(domain.ErrInvalidSpecificationToken, fmt.Sprintf("specification %q not found", token))
	}
	return spec, nil
}
