package registry

import (
	"context"
	"fmt"

	"device-registry/internal/domain"
	"device-registry/internal/events"
	"device-registry/internal/store"

	"go.mongodb.org/mongo-driver/bson"
)

// commandKey 命令去重键（namespace 限定 name）
func commandKey(namespace, name string) string {
	return namespace + "/" + name
}

// CreateDeviceCommand 在规格下创建命令
// Name must be unique among the specification's non-deleted commands; a
// previously soft-deleted duplicate does not block the new command.
func (r *Registry) CreateDeviceCommand(ctx context.Context, specToken string, req *domain.DeviceCommandCreateRequest) (*domain.DeviceCommand, error) {
	if req.Name == "" {
		return nil, fmt.Errorf("command name is required")
	}
	if _, err := r.assertSpecification(ctx, specToken); err != nil {
		return nil, err
	}

	existing, err := r.ListDeviceCommands(ctx, specToken, false)
	if err != nil {
		return nil, err
	}
	for _, sibling := range existing {
		if commandKey(sibling.Namespace, sibling.Name) == commandKey(req.Namespace, req.Name) {
			return nil, domain.NewError(domain.ErrDuplicateCommandName,
				fmt.Sprintf("command %q already exists for specification %q", req.Name, specToken))
		}
	}

	command := &domain.DeviceCommand{
		SpecificationToken: specToken,
		Namespace:          req.Namespace,
		Name:               req.Name,
		Description:        req.Description,
		Parameters:         req.Parameters,
	}
	command.Token = tokenOrUUID(req.Token)
	command.Metadata = req.Metadata
	domain.StampCreated(&command.Entity, "", r.now())

	if err := store.InsertEntity(ctx, r.commands, command, domain.ErrDuplicateCommandName); err != nil {
		return nil, err
	}
	r.events.PublishLifecycle("command", command.Token, events.ActionCreated)
	return command, nil
}

// UpdateDeviceCommand 更新命令
func (r *Registry) UpdateDeviceCommand(ctx context.Context, token string, req *domain.DeviceCommandCreateRequest) (*domain.DeviceCommand, error) {
	command, err := r.assertCommand(ctx, token)
	if err != nil {
		return nil, err
	}
	if req.Namespace != "" {
		command.Namespace = req.Namespace
	}
	if req.Name != "" {
		command.Name = req.Name
	}
	if req.Description != "" {
		command.Description = req.Description
	}
	if req.Parameters != nil {
		command.Parameters = req.Parameters
	}
	if req.Metadata != nil {
		command.Metadata = req.Metadata
	}

	// Re-validate the name against active siblings, excluding this command.
	siblings, err := r.ListDeviceCommands(ctx, command.SpecificationToken, false)
	if err != nil {
		return nil, err
	}
	for _, sibling := range siblings {
		if sibling.Token == token {
			continue
		}
		if commandKey(sibling.Namespace, sibling.Name) == commandKey(command.Namespace, command.Name) {
			return nil, domain.NewError(domain.ErrDuplicateCommandName,
				fmt.Sprintf("command %q already exists for specification %q", command.Name, command.SpecificationToken))
		}
	}
	domain.StampUpdated(&command.Entity, "", r.now())

	if err := store.UpdateEntity(ctx, r.commands, bson.M{"token": token}, command, domain.ErrInvalidCommandToken); err != nil {
		return nil, err
	}
	r.events.PublishLifecycle("command", token, events.ActionUpdated)
	return command, nil
}

// GetDeviceCommandByToken 按 token 查询命令（不存在返回 nil）
func (r *Registry) GetDeviceCommandByToken(ctx context.Context, token string) (*domain.DeviceCommand, error) {
	return store.FindEntity[domain.DeviceCommand](ctx, r.commands, bson.M{"token": token})
}

// ListDeviceCommands 列出规格下的全部命令（内部去重也使用此接口）
func (r *Registry) ListDeviceCommands(ctx context.Context, specToken string, includeDeleted bool) ([]domain.DeviceCommand, error) {
	filter := bson.M{"specToken": specToken}
	if !includeDeleted {
		filter["deleted"] = false
	}
	sort := bson.D{{Key: "name", Value: 1}}
	return store.ListEntities[domain.DeviceCommand](ctx, r.commands, filter, sort)
}

// DeleteDeviceCommand 删除命令（soft 或 force）
func (r *Registry) DeleteDeviceCommand(ctx context.Context, token string, force bool) (*domain.DeviceCommand, error) {
	command, err := r.assertCommand(ctx, token)
	if err != nil {
		return nil, err
	}
	if force {
		if _, err := store.DeleteEntity(ctx, r.commands, bson.M{"token": token}); err != nil {
			return nil, err
		}
	} else {
		command.Deleted = true
		domain.StampUpdated(&command.Entity, "", r.now())
		if err := store.UpdateEntity(ctx, r.commands, bson.M{"token": token}, command, domain.ErrInvalidCommandToken); err != nil {
			return nil, err
		}
	}
	r.events.PublishLifecycle("command", token, events.ActionDeleted)
	return command, nil
}

func (r *Registry) assertCommand(ctx context.Context, token string) (*domain.DeviceCommand, error) {
	command, err := r.GetDeviceCommandByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if command == nil {
		return nil, domain.NewError(domain.ErrInvalidCommandToken, fmt.Sprintf("command %q not found", token))
	}
	return command, nil
}
