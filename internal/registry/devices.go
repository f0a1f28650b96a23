package registry

import (
	"context"
	"fmt"
	"strings"

	"device-registry/internal/domain"
	"device-registry/internal/events"
	"device-registry/internal/store"

	"go.mongodb.org/mongo-driver/bson"
)

// CreateDevice 创建设备
func (r *Registry) CreateDevice(ctx context.Context, req *domain.DeviceCreateRequest) (*domain.Device, error) {
	if req.HardwareID == "" {
		return nil, fmt.Errorf("device hardware id is required")
	}
	if req.SiteToken != "" {
		site, err := r.GetSiteByToken(ctx, req.SiteToken)
		if err != nil {
			return nil, err
		}
		if site == nil {
			return nil, domain.NewError(domain.ErrInvalidSiteReference,
				fmt.Sprintf("device references non-existent site %q", req.SiteToken))
		}
	}
	if req.SpecificationToken != "" {
		spec, err := r.GetDeviceSpecificationByToken(ctx, req.SpecificationToken)
		if err != nil {
			return nil, err
		}
		if spec == nil {
			return nil, domain.NewError(domain.ErrInvalidSpecificationReference,
				fmt.Sprintf("device references non-existent specification %q", req.SpecificationToken))
		}
	}

	device := &domain.Device{
		HardwareID:         req.HardwareID,
		SiteToken:          req.SiteToken,
		SpecificationToken: req.SpecificationToken,
	}
	if req.ParentHardwareID != nil {
		device.ParentHardwareID = *req.ParentHardwareID
	}
	if req.Comments != nil {
		device.Comments = *req.Comments
	}
	if req.Status != nil {
		device.Status = *req.Status
	}
	device.Token = req.HardwareID
	device.Metadata = req.Metadata
	domain.StampCreated(&device.Entity, "", r.now())

	if err := store.InsertEntity(ctx, r.devices, device, domain.ErrDuplicateHardwareID); err != nil {
		return nil, err
	}
	r.events.PublishLifecycle("device", device.HardwareID, events.ActionCreated)
	return device, nil
}

// UpdateDevice 更新设备
func (r *Registry) UpdateDevice(ctx context.Context, hardwareID string, req *domain.DeviceCreateRequest) (*domain.Device, error) {
	device, err := r.assertDevice(ctx, hardwareID)
	if err != nil {
		return nil, err
	}
	if req.SiteToken != "" {
		device.SiteToken = req.SiteToken
	}
	if req.SpecificationToken != "" {
		device.SpecificationToken = req.SpecificationToken
	}
	if req.ParentHardwareID != nil {
		device.ParentHardwareID = *req.ParentHardwareID
	}
	if req.Comments != nil {
		device.Comments = *req.Comments
	}
	if req.Status != nil {
		device.Status = *req.Status
	}
	if req.Metadata != nil {
		device.Metadata = req.Metadata
	}
	domain.StampUpdated(&device.Entity, "", r.now())

	if err := r.saveDevice(ctx, device); err != nil {
		return nil, err
	}
	r.events.PublishLifecycle("device", hardwareID, events.ActionUpdated)
	return device, nil
}

// GetDeviceByHardwareID 按硬件 ID 查询设备（不存在返回 nil）
func (r *Registry) GetDeviceByHardwareID(ctx context.Context, hardwareID string) (*domain.Device, error) {
	return store.FindEntity[domain.Device](ctx, r.devices, bson.M{"hardwareId": hardwareID})
}

// GetCurrentDeviceAssignment 查询设备当前的活动分配（无分配返回 nil）
func (r *Registry) GetCurrentDeviceAssignment(ctx context.Context, hardwareID string) (*domain.DeviceAssignment, error) {
	device, err := r.assertDevice(ctx, hardwareID)
	if err != nil {
		return nil, err
	}
	if device.AssignmentToken == "" {
		return nil, nil
	}
	return r.assertAssignment(ctx, device.AssignmentToken)
}

// ListDevices 分页查询设备
func (r *Registry) ListDevices(ctx context.Context, includeDeleted bool, criteria domain.DeviceSearchCriteria) (*domain.SearchResults[domain.Device], error) {
	filter := bson.M{}
	if !includeDeleted {
		filter["deleted"] = false
	}
	if criteria.ExcludeAssigned {
		filter["assignmentToken"] = nil
	}
	if criteria.SpecificationToken != "" {
		filter["specificationToken"] = criteria.SpecificationToken
	}
	if criteria.SiteToken != "" {
		filter["siteToken"] = criteria.SiteToken
	}
	store.AddDateRange(filter, "createdDate", criteria.SearchCriteria)

	sort := bson.D{{Key: "createdDate", Value: -1}}
	return store.SearchEntities[domain.Device](ctx, r.devices, filter, sort, criteria.SearchCriteria)
}

// CreateDeviceElementMapping 在组合设备的插槽挂载子设备
// Fails when the slot path is already occupied. The child device is marked
// with the composite parent's hardware id.
func (r *Registry) CreateDeviceElementMapping(ctx context.Context, hardwareID string, mapping domain.DeviceElementMapping) (*domain.Device, error) {
	device, err := r.assertDevice(ctx, hardwareID)
	if err != nil {
		return nil, err
	}
	child, err := r.GetDeviceByHardwareID(ctx, mapping.HardwareID)
	if err != nil {
		return nil, err
	}
	if child == nil {
		return nil, domain.NewError(domain.ErrInvalidHardwareID,
			fmt.Sprintf("mapped device %q not found", mapping.HardwareID))
	}

	path := normalizeElementPath(mapping.DeviceElementSchemaPath)
	if path == "" {
		return nil, fmt.Errorf("element mapping path is required")
	}
	for _, existing := range device.ElementMappings {
		if existing.DeviceElementSchemaPath == path {
			return nil, domain.NewError(domain.ErrDeviceElementMappingExists,
				fmt.Sprintf("path %q is already mapped on device %q", path, hardwareID))
		}
	}

	device.ElementMappings = append(device.ElementMappings, domain.DeviceElementMapping{
		DeviceElementSchemaPath: path,
		HardwareID:              mapping.HardwareID,
	})
	domain.StampUpdated(&device.Entity, "", r.now())
	if err := r.saveDevice(ctx, device); err != nil {
		return nil, err
	}

	// Record the composite parent on the child device.
	child.ParentHardwareID = hardwareID
	domain.StampUpdated(&child.Entity, "", r.now())
	if err := r.saveDevice(ctx, child); err != nil {
		return nil, err
	}

	r.events.PublishLifecycle("device", hardwareID, events.ActionUpdated)
	return device, nil
}

// DeleteDeviceElementMapping 移除插槽映射
// Removing an unmapped path is a no-op, not an error.
func (r *Registry) DeleteDeviceElementMapping(ctx context.Context, hardwareID, path string) (*domain.Device, error) {
	device, err := r.assertDevice(ctx, hardwareID)
	if err != nil {
		return nil, err
	}
	path = normalizeElementPath(path)

	kept := make([]domain.DeviceElementMapping, 0, len(device.ElementMappings))
	var removed *domain.DeviceElementMapping
	for _, mapping := range device.ElementMappings {
		if mapping.DeviceElementSchemaPath == path && removed == nil {
			m := mapping
			removed = &m
			continue
		}
		kept = append(kept, mapping)
	}
	if removed == nil {
		return device, nil
	}

	device.ElementMappings = kept
	domain.StampUpdated(&device.Entity, "", r.now())
	if err := r.saveDevice(ctx, device); err != nil {
		return nil, err
	}

	// Detach the child from its composite parent if it still points here.
	child, err := r.GetDeviceByHardwareID(ctx, removed.HardwareID)
	if err != nil {
		return nil, err
	}
	if child != nil && child.ParentHardwareID == hardwareID {
		child.ParentHardwareID = ""
		domain.StampUpdated(&child.Entity, "", r.now())
		if err := r.saveDevice(ctx, child); err != nil {
			return nil, err
		}
	}

	r.events.PublishLifecycle("device", hardwareID, events.ActionUpdated)
	return device, nil
}

// DeleteDevice 删除设备（soft 或 force）
// A device with a live assignment cannot be deleted; it must be unassigned
// first. The assignment token is re-read immediately before the check.
func (r *Registry) DeleteDevice(ctx context.Context, hardwareID string, force bool) (*domain.Device, error) {
	device, err := r.assertDevice(ctx, hardwareID)
	if err != nil {
		return nil, err
	}
	if device.AssignmentToken != "" {
		assignment, err := r.GetDeviceAssignmentByToken(ctx, device.AssignmentToken)
		if err != nil {
			return nil, err
		}
		if assignment != nil {
			return nil, domain.NewError(domain.ErrDeviceCannotBeDeletedIfAssigned,
				fmt.Sprintf("device %q still has assignment %q", hardwareID, device.AssignmentToken))
		}
	}
	if force {
		if _, err := store.DeleteEntity(ctx, r.devices, bson.M{"hardwareId": hardwareID}); err != nil {
			return nil, err
		}
	} else {
		device.Deleted = true
		domain.StampUpdated(&device.Entity, "", r.now())
		if err := r.saveDevice(ctx, device); err != nil {
			return nil, err
		}
	}
	r.events.PublishLifecycle("device", hardwareID, events.ActionDeleted)
	return device, nil
}

func (r *Registry) saveDevice(ctx context.Context, device *domain.Device) error {
	return store.UpdateEntity(ctx, r.devices, bson.M{"hardwareId": device.HardwareID}, device, domain.ErrInvalidHardwareID)
}

func (r *Registry) assertDevice(ctx context.Context, hardwareID string) (*domain.Device, error) {
	device, err := r.GetDeviceByHardwareID(ctx, hardwareID)
	if err != nil {
		return nil, err
	}
	if device == nil {
		return nil, domain.NewError(domain.ErrInvalidHardwareID, fmt.Sprintf("device %q not found", hardwareID))
	}
	return device, nil
}

func normalizeElementPath(path string) string {
	return strings.Trim(strings.TrimSpace(path), "/")
}
