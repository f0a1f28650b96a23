package registry

import (
	"context"
	"errors"
	"fmt"

	"device-registry/internal/domain"
	"device-registry/internal/events"
	"device-registry/internal/store"

	"go.mongodb.org/mongo-driver/bson"
)

// CreateDeviceGroup 创建设备组
func (r *Registry) CreateDeviceGroup(ctx context.Context, req *domain.DeviceGroupCreateRequest) (*domain.DeviceGroup, error) {
	if req.Name == "" {
		return nil, fmt.Errorf("device group name is required")
	}

	group := &domain.DeviceGroup{
		Name:        req.Name,
		Description: req.Description,
		Roles:       req.Roles,
		LastIndex:   0,
	}
	group.Token = tokenOrUUID(req.Token)
	group.Metadata = req.Metadata
	domain.StampCreated(&group.Entity, "", r.now())

	if err := store.InsertEntity(ctx, r.groups, group, domain.ErrDuplicateGroupToken); err != nil {
		return nil, err
	}
	r.events.PublishLifecycle("group", group.Token, events.ActionCreated)
	return group, nil
}

// UpdateDeviceGroup 更新设备组
// lastIndex is never touched here; only the atomic element-add path moves it.
func (r *Registry) UpdateDeviceGroup(ctx context.Context, token string, req *domain.DeviceGroupCreateRequest) (*domain.DeviceGroup, error) {
	group, err := r.assertGroup(ctx, token)
	if err != nil {
		return nil, err
	}
	if req.Name != "" {
		group.Name = req.Name
	}
	if req.Description != "" {
		group.Description = req.Description
	}
	if req.Roles != nil {
		group.Roles = req.Roles
	}
	if req.Metadata != nil {
		group.Metadata = req.Metadata
	}
	domain.StampUpdated(&group.Entity, "", r.now())

	if err := r.saveGroup(ctx, group); err != nil {
		return nil, err
	}
	r.events.PublishLifecycle("group", token, events.ActionUpdated)
	return group, nil
}

// GetDeviceGroup 按 token 查询设备组（不存在返回 nil）
func (r *Registry) GetDeviceGroup(ctx context.Context, token string) (*domain.DeviceGroup, error) {
	return store.FindEntity[domain.DeviceGroup](ctx, r.groups, bson.M{"token": token})
}

// ListDeviceGroups 列出设备组
func (r *Registry) ListDeviceGroups(ctx context.Context, includeDeleted bool, criteria domain.SearchCriteria) (*domain.SearchResults[domain.DeviceGroup], error) {
	filter := bson.M{}
	if !includeDeleted {
		filter["deleted"] = false
	}
	store.AddDateRange(filter, "createdDate", criteria)
	sort := bson.D{{Key: "createdDate", Value: -1}}
	return store.SearchEntities[domain.DeviceGroup](ctx, r.groups, filter, sort, criteria)
}

// ListDeviceGroupsWithRole 列出带指定角色的设备组
func (r *Registry) ListDeviceGroupsWithRole(ctx context.Context, role string, includeDeleted bool, criteria domain.SearchCriteria) (*domain.SearchResults[domain.DeviceGroup], error) {
	filter := bson.M{"roles": role}
	if !includeDeleted {
		filter["deleted"] = false
	}
	store.AddDateRange(filter, "createdDate", criteria)
	sort := bson.D{{Key: "createdDate", Value: -1}}
	return store.SearchEntities[domain.DeviceGroup](ctx, r.groups, filter, sort, criteria)
}

// DeleteDeviceGroup 删除设备组（force 时级联删除其元素）
func (r *Registry) DeleteDeviceGroup(ctx context.Context, token string, force bool) (*domain.DeviceGroup, error) {
	group, err := r.assertGroup(ctx, token)
	if err != nil {
		return nil, err
	}
	if force {
		if _, err := store.DeleteEntity(ctx, r.groups, bson.M{"token": token}); err != nil {
			return nil, err
		}
		if _, err := r.elements.DeleteMany(ctx, bson.M{"groupToken": token}); err != nil {
			return nil, fmt.Errorf("delete group elements: %w", err)
		}
	} else {
		group.Deleted = true
		domain.StampUpdated(&group.Entity, "", r.now())
		if err := r.saveGroup(ctx, group); err != nil {
			return nil, err
		}
	}
	r.events.PublishLifecycle("group", token, events.ActionDeleted)
	return group, nil
}

// nextGroupIndex atomically advances the group's lastIndex and returns the
// index to assign, which is the value before the increment. Concurrent
// callers therefore always receive distinct indexes.
func (r *Registry) nextGroupIndex(ctx context.Context, token string) (int64, error) {
	var updated domain.DeviceGroup
	err := r.groups.FindOneAndUpdate(ctx,
		bson.M{"token": token},
		bson.M{"$inc": bson.M{"lastIndex": int64(1)}},
		&updated,
	)
	if errors.Is(err, store.ErrNotFound) {
		return 0, domain.NewError(domain.ErrInvalidGroupToken, fmt.Sprintf("device group %q not found", token))
	}
	if err != nil {
		return 0, fmt.Errorf("allocate group index: %w", err)
	}
	return updated.LastIndex - 1, nil
}

// AddDeviceGroupElements 向设备组追加元素
// Each element gets the next monotonic index. With ignoreDuplicates a
// conflicting element is skipped and the rest proceed; without it the whole
// call aborts, returning the elements added so far. Skipped duplicates
// still consume an index.
func (r *Registry) AddDeviceGroupElements(ctx context.Context, token string, reqs []domain.DeviceGroupElementCreateRequest, ignoreDuplicates bool) ([]domain.DeviceGroupElement, error) {
	if _, err := r.assertGroup(ctx, token); err != nil {
		return nil, err
	}

	added := make([]domain.DeviceGroupElement, 0, len(reqs))
	for _, req := range reqs {
		index, err := r.nextGroupIndex(ctx, token)
		if err != nil {
			return added, err
		}
		elementType := req.Type
		if elementType == "" {
			elementType = domain.GroupElementTypeDevice
		}
		element := domain.DeviceGroupElement{
			GroupToken: token,
			Index:      index,
			Type:       elementType,
			ElementID:  req.ElementID,
			Roles:      req.Roles,
		}
		if err := r.elements.InsertOne(ctx, element); err != nil {
			if errors.Is(err, store.ErrDuplicateKey) {
				if ignoreDuplicates {
					continue
				}
				return added, domain.NewError(domain.ErrDuplicateGroupElement,
					fmt.Sprintf("element %s/%s already exists in group %q", elementType, req.ElementID, token))
			}
			return added, fmt.Errorf("insert group element: %w", err)
		}
		added = append(added, element)
	}
	return added, nil
}

// RemoveDeviceGroupElements 从设备组移除元素
// Elements that are not present are silently skipped; the returned slice
// holds only what was actually removed. The membership key is not unique,
// so each request clears every matching element.
func (r *Registry) RemoveDeviceGroupElements(ctx context.Context, token string, reqs []domain.DeviceGroupElementCreateRequest) ([]domain.DeviceGroupElement, error) {
	removed := make([]domain.DeviceGroupElement, 0, len(reqs))
	for _, req := range reqs {
		elementType := req.Type
		if elementType == "" {
			elementType = domain.GroupElementTypeDevice
		}
		filter := bson.M{
			"groupToken": token,
			"type":       string(elementType),
			"elementId":  req.ElementID,
		}
		for {
			var element domain.DeviceGroupElement
			if err := r.elements.FindOne(ctx, filter, &element); err != nil {
				if errors.Is(err, store.ErrNotFound) {
					break
				}
				return removed, fmt.Errorf("find group element: %w", err)
			}
			if _, err := r.elements.DeleteOne(ctx, filter); err != nil {
				return removed, fmt.Errorf("remove group element: %w", err)
			}
			removed = append(removed, element)
		}
	}
	return removed, nil
}

// ListDeviceGroupElements 按 index 升序列出设备组元素
func (r *Registry) ListDeviceGroupElements(ctx context.Context, token string, criteria domain.SearchCriteria) (*domain.SearchResults[domain.DeviceGroupElement], error) {
	filter := bson.M{"groupToken": token}
	sort := bson.D{{Key: "index", Value: 1}}
	return store.SearchEntities[domain.DeviceGroupElement](ctx, r.elements, filter, sort, criteria)
}

func (r *Registry) saveGroup(ctx context.Context, group *domain.DeviceGroup) error {
	return store.UpdateEntity(ctx, r.groups, bson.M{"token": group.Token}, group, domain.ErrInvalidGroupToken)
}

func (r *Registry) assertGroup(ctx context.Context, token string) (*domain.DeviceGroup, error) {
	group, err := r.GetDeviceGroup(ctx, token)
	if err != nil {
		return nil, err
	}
	if group == nil {
		return nil, domain.NewError(domain.ErrInvalidGroupToken, fmt.Sprintf("device group %q not found", token))
	}
	return group, nil
}
