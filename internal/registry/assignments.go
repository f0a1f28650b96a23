package registry

import (
	"context"
	"fmt"

	"device-registry/internal/domain"
	"device-registry/internal/events"
	"device-registry/internal/store"

	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

// CreateDeviceAssignment 为设备创建分配
// The already-assigned check plus the device pointer update are two
// non-atomic writes against separate documents; the per-hardwareId guard
// serializes concurrent requests for the same device so both cannot pass
// the pre-check.
func (r *Registry) CreateDeviceAssignment(ctx context.Context, req *domain.DeviceAssignmentCreateRequest) (*domain.DeviceAssignment, error) {
	if req.DeviceHardwareID == "" {
		return nil, fmt.Errorf("assignment device hardware id is required")
	}

	var assignment *domain.DeviceAssignment
	err := r.guard.WithLock(ctx, "assignment:"+req.DeviceHardwareID, func() error {
		device, err := r.assertDevice(ctx, req.DeviceHardwareID)
		if err != nil {
			return err
		}
		if device.AssignmentToken != "" {
			return domain.NewError(domain.ErrDeviceAlreadyAssigned,
				fmt.Sprintf("device %q already has assignment %q", req.DeviceHardwareID, device.AssignmentToken))
		}

		assignmentType := req.AssignmentType
		if assignmentType == "" {
			assignmentType = domain.AssignmentTypeUnassociated
			if req.AssetReference != nil {
				assignmentType = domain.AssignmentTypeAssociated
			}
		}
		now := r.now()
		assignment = &domain.DeviceAssignment{
			DeviceHardwareID: req.DeviceHardwareID,
			SiteToken:        device.SiteToken,
			AssignmentType:   assignmentType,
			AssetReference:   req.AssetReference,
			Status:           domain.AssignmentStatusActive,
			ActiveDate:       &now,
		}
		assignment.Token = tokenOrUUID(req.Token)
		assignment.Metadata = req.Metadata
		domain.StampCreated(&assignment.Entity, "", now)

		if err := store.InsertEntity(ctx, r.assignments, assignment, domain.ErrDuplicateAssignmentToken); err != nil {
			return err
		}

		// Point the device at the new assignment. A crash between the two
		// writes leaves a fully-written assignment without the device
		// back-reference, which heals on the next read.
		device.AssignmentToken = assignment.Token
		domain.StampUpdated(&device.Entity, "", now)
		return r.saveDevice(ctx, device)
	})
	if err != nil {
		return nil, err
	}
	r.events.PublishLifecycle("assignment", assignment.Token, events.ActionCreated)
	return assignment, nil
}

// GetDeviceAssignmentByToken 按 token 查询分配（不存在返回 nil）
func (r *Registry) GetDeviceAssignmentByToken(ctx context.Context, token string) (*domain.DeviceAssignment, error) {
	return store.FindEntity[domain.DeviceAssignment](ctx, r.assignments, bson.M{"token": token})
}

// UpdateDeviceAssignmentMetadata 合并分配元数据
func (r *Registry) UpdateDeviceAssignmentMetadata(ctx context.Context, token string, metadata map[string]string) (*domain.DeviceAssignment, error) {
	assignment, err := r.assertAssignment(ctx, token)
	if err != nil {
		return nil, err
	}
	if assignment.Metadata == nil {
		assignment.Metadata = make(map[string]string, len(metadata))
	}
	for k, v := range metadata {
		assignment.Metadata[k] = v
	}
	domain.StampUpdated(&assignment.Entity, "", r.now())

	if err := r.saveAssignment(ctx, assignment); err != nil {
		return nil, err
	}
	r.events.PublishLifecycle("assignment", token, events.ActionUpdated)
	return assignment, nil
}

// UpdateDeviceAssignmentStatus 更新分配状态
// This is the externally-triggered transition path (e.g. a monitoring
// process marking an assignment Missing); EndDeviceAssignment is the only
// internal transition.
func (r *Registry) UpdateDeviceAssignmentStatus(ctx context.Context, token string, status domain.AssignmentStatus) (*domain.DeviceAssignment, error) {
	assignment, err := r.assertAssignment(ctx, token)
	if err != nil {
		return nil, err
	}
	assignment.Status = status
	domain.StampUpdated(&assignment.Entity, "", r.now())

	if err := r.saveAssignment(ctx, assignment); err != nil {
		return nil, err
	}
	r.events.PublishLifecycle("assignment", token, events.ActionUpdated)
	return assignment, nil
}

// EndDeviceAssignment 结束分配
// Sets Released + releasedDate on the assignment, then clears the device
// back-reference. History is retained; Released is terminal.
func (r *Registry) EndDeviceAssignment(ctx context.Context, token string) (*domain.DeviceAssignment, error) {
	assignment, err := r.assertAssignment(ctx, token)
	if err != nil {
		return nil, err
	}
	now := r.now()
	assignment.Status = domain.AssignmentStatusReleased
	assignment.ReleasedDate = &now
	domain.StampUpdated(&assignment.Entity, "", now)
	if err := r.saveAssignment(ctx, assignment); err != nil {
		return nil, err
	}

	device, err := r.GetDeviceByHardwareID(ctx, assignment.DeviceHardwareID)
	if err != nil {
		return nil, err
	}
	if device == nil {
		r.logger.Warn("Released assignment references missing device",
			zap.String("assignmentToken", token),
			zap.String("hardwareId", assignment.DeviceHardwareID),
		)
	} else if device.AssignmentToken == token {
		device.AssignmentToken = ""
		domain.StampUpdated(&device.Entity, "", now)
		if err := r.saveDevice(ctx, device); err != nil {
			return nil, err
		}
	}

	r.events.PublishLifecycle("assignment", token, events.ActionReleased)
	return assignment, nil
}

// DeleteDeviceAssignment 删除分配（soft 或 force）
// An assignment that has not been released cannot be deleted; end it first.
func (r *Registry) DeleteDeviceAssignment(ctx context.Context, token string, force bool) (*domain.DeviceAssignment, error) {
	assignment, err := r.assertAssignment(ctx, token)
	if err != nil {
		return nil, err
	}
	if assignment.ReleasedDate == nil {
		return nil, domain.NewError(domain.ErrAssignmentNotReleased,
			fmt.Sprintf("assignment %q is still active", token))
	}
	if force {
		if _, err := store.DeleteEntity(ctx, r.assignments, bson.M{"token": token}); err != nil {
			return nil, err
		}
	} else {
		assignment.Deleted = true
		domain.StampUpdated(&assignment.Entity, "", r.now())
		if err := r.saveAssignment(ctx, assignment); err != nil {
			return nil, err
		}
	}
	r.events.PublishLifecycle("assignment", token, events.ActionDeleted)
	return assignment, nil
}

// GetDeviceAssignmentHistory 查询设备的分配历史
func (r *Registry) GetDeviceAssignmentHistory(ctx context.Context, hardwareID string, criteria domain.SearchCriteria) (*domain.SearchResults[domain.DeviceAssignment], error) {
	filter := bson.M{"deviceHardwareId": hardwareID}
	sort := bson.D{{Key: "activeDate", Value: -1}}
	return store.SearchEntities[domain.DeviceAssignment](ctx, r.assignments, filter, sort, criteria)
}

// GetDeviceAssignmentsForSite 查询站点下的分配
func (r *Registry) GetDeviceAssignmentsForSite(ctx context.Context, siteToken string, criteria domain.AssignmentSearchCriteria) (*domain.SearchResults[domain.DeviceAssignment], error) {
	filter := bson.M{"siteToken": siteToken}
	if criteria.Status != "" {
		filter["status"] = string(criteria.Status)
	}
	sort := bson.D{{Key: "activeDate", Value: -1}}
	return store.SearchEntities[domain.DeviceAssignment](ctx, r.assignments, filter, sort, criteria.SearchCriteria)
}

// GetDeviceAssignmentsForAsset 按资产引用查询分配
func (r *Registry) GetDeviceAssignmentsForAsset(ctx context.Context, ref domain.AssetReference, criteria domain.AssignmentsForAssetSearchCriteria) (*domain.SearchResults[domain.DeviceAssignment], error) {
	filter := bson.M{"assetReference": ref}
	if criteria.SiteToken != "" {
		filter["siteToken"] = criteria.SiteToken
	}
	if criteria.Status != "" {
		filter["status"] = string(criteria.Status)
	}
	sort := bson.D{{Key: "activeDate", Value: -1}}
	return store.SearchEntities[domain.DeviceAssignment](ctx, r.assignments, filter, sort, criteria.SearchCriteria)
}

func (r *Registry) saveAssignment(ctx context.Context, assignment *domain.DeviceAssignment) error {
	return store.UpdateEntity(ctx, r.assignments, bson.M{"token": assignment.Token}, assignment, domain.ErrInvalidAssignmentToken)
}

func (r *Registry) assertAssignment(ctx context.Context, token string) (*domain.DeviceAssignment, error) {
	assignment, err := r.GetDeviceAssignmentByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if assignment == nil {
		return nil, domain.NewError(domain.ErrInvalidAssignmentToken, fmt.Sprintf("assignment %q not found", token))
	}
	return assignment, nil
}
