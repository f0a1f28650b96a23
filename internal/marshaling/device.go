// Package marshaling turns stored registry entities into API shapes,
// attaching related entities on demand. The stored documents only carry
// tokens; hydration resolves them based on per-request inclusion flags.
package marshaling

import (
	"context"
	"fmt"

	"device-registry/internal/asset"
	"device-registry/internal/domain"
	"device-registry/internal/registry"

	"go.uber.org/zap"
)

// DeviceMarshalOptions 设备序列化的关联实体开关
type DeviceMarshalOptions struct {
	IncludeAsset         bool
	IncludeSpecification bool
	IncludeAssignment    bool
	IncludeSite          bool
	IncludeNested        bool
}

// DefaultDeviceMarshalOptions returns the flag set used when the caller
// does not specify anything: asset and specification attached, the rest
// collapsed to tokens.
func DefaultDeviceMarshalOptions() DeviceMarshalOptions {
	return DeviceMarshalOptions{
		IncludeAsset:         true,
		IncludeSpecification: true,
	}
}

// MarshaledDevice 序列化后的设备
// When the specification is collapsed the denormalized Asset* fields carry
// just enough of the spec's asset for list rendering.
type MarshaledDevice struct {
	domain.Device

	Specification *MarshaledSpecification `json:"specification,omitempty"`
	Assignment    *domain.DeviceAssignment `json:"assignment,omitempty"`
	Site          *domain.Site             `json:"site,omitempty"`

	AssetID       string `json:"assetId,omitempty"`
	AssetName     string `json:"assetName,omitempty"`
	AssetImageURL string `json:"assetImageUrl,omitempty"`

	MappedDevices []MarshaledDeviceElementMapping `json:"mappedDevices,omitempty"`
}

// MarshaledSpecification 序列化后的设备规格（附带资产信息）
type MarshaledSpecification struct {
	domain.DeviceSpecification

	AssetName     string `json:"assetName,omitempty"`
	AssetImageURL string `json:"assetImageUrl,omitempty"`
}

// MarshaledDeviceElementMapping 序列化后的插槽映射（附带子设备）
type MarshaledDeviceElementMapping struct {
	DeviceElementSchemaPath string           `json:"deviceElementSchemaPath"`
	HardwareID              string           `json:"hardwareId"`
	Device                  *MarshaledDevice `json:"device,omitempty"`
}

// DeviceMarshaler 设备序列化器
type DeviceMarshaler struct {
	registry *registry.Registry
	resolver asset.Resolver
	logger   *zap.Logger
}

func NewDeviceMarshaler(reg *registry.Registry, resolver asset.Resolver, logger *zap.Logger) *DeviceMarshaler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DeviceMarshaler{registry: reg, resolver: resolver, logger: logger}
}

// MarshalDevice hydrates a single device per the inclusion flags.
// A dangling assignment token is tolerated with a warning; a dangling
// specification or site reference is a data-integrity failure.
func (m *DeviceMarshaler) MarshalDevice(ctx context.Context, device *domain.Device, opts DeviceMarshalOptions) (*MarshaledDevice, error) {
	visited := map[string]bool{}
	return m.marshalDevice(ctx, device, opts, visited)
}

func (m *DeviceMarshaler) marshalDevice(ctx context.Context, device *domain.Device, opts DeviceMarshalOptions, visited map[string]bool) (*MarshaledDevice, error) {
	visited[device.HardwareID] = true
	out := &MarshaledDevice{Device: *device}

	// The specification reference is optional; only a token that points at
	// nothing is a data-integrity failure.
	if device.SpecificationToken != "" {
		spec, err := m.registry.GetDeviceSpecificationByToken(ctx, device.SpecificationToken)
		if err != nil {
			return nil, err
		}
		if spec == nil {
			return nil, domain.NewError(domain.ErrInvalidSpecificationReference,
				fmt.Sprintf("device %q references missing specification %q", device.HardwareID, device.SpecificationToken))
		}

		var hwAsset *domain.HardwareAsset
		if opts.IncludeAsset {
			hwAsset, err = m.resolver.ResolveAsset(ctx, spec.AssetReference)
			if err != nil {
				return nil, err
			}
			if hwAsset == nil {
				return nil, domain.NewError(domain.ErrInvalidAssetReference,
					fmt.Sprintf("specification %q references missing asset %s/%s", spec.Token, spec.AssetReference.Module, spec.AssetReference.ID))
			}
		}

		if opts.IncludeSpecification {
			marshaled := &MarshaledSpecification{DeviceSpecification: *spec}
			if hwAsset != nil {
				marshaled.AssetName = hwAsset.Name
				marshaled.AssetImageURL = hwAsset.ImageURL
			}
			out.Specification = marshaled
		} else if hwAsset != nil {
			out.AssetID = hwAsset.ID
			out.AssetName = hwAsset.Name
			out.AssetImageURL = hwAsset.ImageURL
		}
	}

	if opts.IncludeAssignment && device.AssignmentToken != "" {
		assignment, err := m.registry.GetDeviceAssignmentByToken(ctx, device.AssignmentToken)
		if err != nil {
			return nil, err
		}
		if assignment == nil {
			// Tolerated: the device document outlived its assignment. The
			// response just omits the assignment rather than failing the read.
			m.logger.Warn("Device references non-existent assignment",
				zap.String("hardwareId", device.HardwareID),
				zap.String("assignmentToken", device.AssignmentToken),
			)
		} else {
			out.Assignment = assignment
		}
	}

	if opts.IncludeSite && device.SiteToken != "" {
		site, err := m.registry.GetSiteByToken(ctx, device.SiteToken)
		if err != nil {
			return nil, err
		}
		if site == nil {
			return nil, domain.NewError(domain.ErrInvalidSiteReference,
				fmt.Sprintf("device %q references missing site %q", device.HardwareID, device.SiteToken))
		}
		out.Site = site
	}

	if opts.IncludeNested && len(device.ElementMappings) > 0 {
		out.MappedDevices = make([]MarshaledDeviceElementMapping, 0, len(device.ElementMappings))
		for _, mapping := range device.ElementMappings {
			entry := MarshaledDeviceElementMapping{
				DeviceElementSchemaPath: mapping.DeviceElementSchemaPath,
				HardwareID:              mapping.HardwareID,
			}
			if visited[mapping.HardwareID] {
				m.logger.Warn("Cycle detected in device element mappings",
					zap.String("hardwareId", device.HardwareID),
					zap.String("mappedHardwareId", mapping.HardwareID),
				)
				out.MappedDevices = append(out.MappedDevices, entry)
				continue
			}
			child, err := m.registry.GetDeviceByHardwareID(ctx, mapping.HardwareID)
			if err != nil {
				return nil, err
			}
			if child == nil {
				m.logger.Warn("Element mapping references non-existent device",
					zap.String("hardwareId", device.HardwareID),
					zap.String("mappedHardwareId", mapping.HardwareID),
				)
				out.MappedDevices = append(out.MappedDevices, entry)
				continue
			}
			nested, err := m.marshalDevice(ctx, child, opts, visited)
			if err != nil {
				return nil, err
			}
			entry.Device = nested
			out.MappedDevices = append(out.MappedDevices, entry)
		}
	}

	return out, nil
}

// MarshalDevices hydrates a result page in place, preserving order.
func (m *DeviceMarshaler) MarshalDevices(ctx context.Context, devices []domain.Device, opts DeviceMarshalOptions) ([]MarshaledDevice, error) {
	out := make([]MarshaledDevice, 0, len(devices))
	for i := range devices {
		marshaled, err := m.MarshalDevice(ctx, &devices[i], opts)
		if err != nil {
			return nil, err
		}
		out = append(out, *marshaled)
	}
	return out, nil
}
