package httpapi

import (
	"device-registry/internal/asset"
	"device-registry/internal/marshaling"
	"device-registry/internal/registry"

	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

// API 设备注册 HTTP 接口
type API struct {
	registry    *registry.Registry
	devices     *marshaling.DeviceMarshaler
	assignments *marshaling.AssignmentMarshaler
	logger      *zap.Logger
}

func NewAPI(reg *registry.Registry, resolver asset.Resolver, logger *zap.Logger) *API {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &API{
		registry:    reg,
		devices:     marshaling.NewDeviceMarshaler(reg, resolver, logger),
		assignments: marshaling.NewAssignmentMarshaler(reg, resolver, logger),
		logger:      logger,
	}
}
