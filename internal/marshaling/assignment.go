package marshaling

import (
	"context"
	"fmt"

	"device-registry/internal/asset"
	"device-registry/internal/domain"
	"device-registry/internal/registry"

	"go.uber.org/zap"
)

// AssignmentMarshalOptions 分配序列化的关联实体开关
type AssignmentMarshalOptions struct {
	IncludeAsset  bool
	IncludeDevice bool
	IncludeSite   bool

	// Device flags applied when IncludeDevice is set; the nested device is
	// always marshaled with its assignment collapsed to avoid recursion.
	DeviceOptions DeviceMarshalOptions
}

func DefaultAssignmentMarshalOptions() AssignmentMarshalOptions {
	return AssignmentMarshalOptions{
		IncludeAsset:  true,
		DeviceOptions: DefaultDeviceMarshalOptions(),
	}
}

// MarshaledAssignment 序列化后的分配
type MarshaledAssignment struct {
	domain.DeviceAssignment

	AssetName     string           `json:"assetName,omitempty"`
	AssetImageURL string           `json:"assetImageUrl,omitempty"`
	Device        *MarshaledDevice `json:"device,omitempty"`
	Site          *domain.Site     `json:"site,omitempty"`
}

// AssignmentMarshaler 分配序列化器
type AssignmentMarshaler struct {
	registry *registry.Registry
	devices  *DeviceMarshaler
	resolver asset.Resolver
	logger   *zap.Logger
}

func NewAssignmentMarshaler(reg *registry.Registry, resolver asset.Resolver, logger *zap.Logger) *AssignmentMarshaler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssignmentMarshaler{
		registry: reg,
		devices:  NewDeviceMarshaler(reg, resolver, logger),
		resolver: resolver,
		logger:   logger,
	}
}

// MarshalAssignment hydrates a single assignment per the inclusion flags.
// An associated assignment whose asset no longer resolves is tolerated with
// a warning since released history may outlive assets.
func (m *AssignmentMarshaler) MarshalAssignment(ctx context.Context, assignment *domain.DeviceAssignment, opts AssignmentMarshalOptions) (*MarshaledAssignment, error) {
	out := &MarshaledAssignment{DeviceAssignment: *assignment}

	if opts.IncludeAsset && assignment.AssetReference != nil {
		hwAsset, err := m.resolver.ResolveAsset(ctx, *assignment.AssetReference)
		if err != nil {
			return nil, err
		}
		if hwAsset == nil {
			m.logger.Warn("Assignment references non-existent asset",
				zap.String("assignmentToken", assignment.Token),
				zap.String("assetModule", assignment.AssetReference.Module),
				zap.String("assetId", assignment.AssetReference.ID),
			)
		} else {
			out.AssetName = hwAsset.Name
			out.AssetImageURL = hwAsset.ImageURL
		}
	}

	if opts.IncludeDevice {
		device, err := m.registry.GetDeviceByHardwareID(ctx, assignment.DeviceHardwareID)
		if err != nil {
			return nil, err
		}
		if device == nil {
			return nil, domain.NewError(domain.ErrInvalidHardwareID,
				fmt.Sprintf("assignment %q references missing device %q", assignment.Token, assignment.DeviceHardwareID))
		}
		deviceOpts := opts.DeviceOptions
		deviceOpts.IncludeAssignment = false
		marshaled, err := m.devices.MarshalDevice(ctx, device, deviceOpts)
		if err != nil {
			return nil, err
		}
		out.Device = marshaled
	}

	if opts.IncludeSite {
		site, err := m.registry.GetSiteByToken(ctx, assignment.SiteToken)
		if err != nil {
			return nil, err
		}
		if site == nil {
			return nil, domain.NewError(domain.ErrInvalidSiteReference,
				fmt.Sprintf("assignment %q references missing site %q", assignment.Token, assignment.SiteToken))
		}
		out.Site = site
	}

	return out, nil
}

// MarshalAssignments hydrates a result page in place, preserving order.
func (m *AssignmentMarshaler) MarshalAssignments(ctx context.Context, assignments []domain.DeviceAssignment, opts AssignmentMarshalOptions) ([]MarshaledAssignment, error) {
	out := make([]MarshaledAssignment, 0, len(assignments))
	for i := range assignments {
		marshaled, err := m.MarshalAssignment(ctx, &assignments[i], opts)
		if err != nil {
			return nil, err
		}
		out = append(out, *marshaled)
	}
	return out, nil
}
