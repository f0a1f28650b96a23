package registry

import (
	"context"
	"testing"

	"device-registry/internal/domain"

	"github.com/stretchr/testify/require"
)

func TestCreateDeviceChecksReferences(t *testing.T) {
	r, _ := newTestRegistry(t)
	ctx := context.Background()
	createTestSite(t, r, "site-1")
	createTestSpecification(t, r, "spec-1")

	_, err := r.CreateDevice(ctx, &domain.DeviceCreateRequest{
		HardwareID: "hw-1", SiteToken: "ghost", SpecificationToken: "spec-1",
	})
	require.True(t, domain.HasCode(err, domain.ErrInvalidSiteReference))

	_, err = r.CreateDevice(ctx, &domain.DeviceCreateRequest{
		HardwareID: "hw-1", SiteToken: "site-1", SpecificationToken: "ghost",
	})
	require.True(t, domain.HasCode(err, domain.ErrInvalidSpecificationReference))

	device := createTestDevice(t, r, "hw-1", "site-1", "spec-1")
	require.Equal(t, "hw-1", device.Token)
	require.Empty(t, device.AssignmentToken)
}

func TestCreateDeviceDuplicateHardwareID(t *testing.T) {
	r, _ := newTestRegistry(t)
	ctx := context.Background()
	createTestSite(t, r, "site-1")
	createTestSpecification(t, r, "spec-1")
	createTestDevice(t, r, "hw-1", "site-1", "spec-1")

	_, err := r.CreateDevice(ctx, &domain.DeviceCreateRequest{
		HardwareID: "hw-1", SiteToken: "site-1", SpecificationToken: "spec-1",
	})
	require.True(t, domain.HasCode(err, domain.ErrDuplicateHardwareID))
}

func TestDeleteDeviceGuardedWhileAssigned(t *testing.T) {
	r, _ := newTestRegistry(t)
	ctx := context.Background()
	createTestSite(t, r, "site-1")
	createTestSpecification(t, r, "spec-1")
	createTestDevice(t, r, "hw-1", "site-1", "spec-1")

	assignment, err := r.CreateDeviceAssignment(ctx, &domain.DeviceAssignmentCreateRequest{DeviceHardwareID: "hw-1"})
	require.NoError(t, err)

	_, err = r.DeleteDevice(ctx, "hw-1", false)
	require.True(t, domain.HasCode(err, domain.ErrDeviceCannotBeDeletedIfAssigned))
	_, err = r.DeleteDevice(ctx, "hw-1", true)
	require.True(t, domain.HasCode(err, domain.ErrDeviceCannotBeDeletedIfAssigned))

	_, err = r.EndDeviceAssignment(ctx, assignment.Token)
	require.NoError(t, err)

	deleted, err := r.DeleteDevice(ctx, "hw-1", false)
	require.NoError(t, err)
	require.True(t, deleted.Deleted)
}

func TestDeviceElementMappings(t *testing.T) {
	r, _ := newTestRegistry(t)
	ctx := context.Background()
	createTestSite(t, r, "site-1")
	createTestSpecification(t, r, "spec-1")
	createTestDevice(t, r, "gateway-1", "site-1", "spec-1")
	createTestDevice(t, r, "sensor-1", "site-1", "spec-1")
	createTestDevice(t, r, "sensor-2", "site-1", "spec-1")

	parent, err := r.CreateDeviceElementMapping(ctx, "gateway-1", domain.DeviceElementMapping{
		DeviceElementSchemaPath: "/slots/left/",
		HardwareID:              "sensor-1",
	})
	require.NoError(t, err)
	require.Len(t, parent.ElementMappings, 1)
	require.Equal(t, "slots/left", parent.ElementMappings[0].DeviceElementSchemaPath)

	child, err := r.GetDeviceByHardwareID(ctx, "sensor-1")
	require.NoError(t, err)
	require.Equal(t, "gateway-1", child.ParentHardwareID)

	// Occupied slot path conflicts even with a different child.
	_, err = r.CreateDeviceElementMapping(ctx, "gateway-1", domain.DeviceElementMapping{
		DeviceElementSchemaPath: "slots/left",
		HardwareID:              "sensor-2",
	})
	require.True(t, domain.HasCode(err, domain.ErrDeviceElementMappingExists))

	// Unknown child device is an integrity error.
	_, err = r.CreateDeviceElementMapping(ctx, "gateway-1", domain.DeviceElementMapping{
		DeviceElementSchemaPath: "slots/right",
		HardwareID:              "ghost",
	})
	require.True(t, domain.HasCode(err, domain.ErrInvalidHardwareID))

	// Removing an unmapped path is a no-op.
	unchanged, err := r.DeleteDeviceElementMapping(ctx, "gateway-1", "slots/right")
	require.NoError(t, err)
	require.Len(t, unchanged.ElementMappings, 1)

	cleared, err := r.DeleteDeviceElementMapping(ctx, "gateway-1", "slots/left")
	require.NoError(t, err)
	require.Empty(t, cleared.ElementMappings)
	child, err = r.GetDeviceByHardwareID(ctx, "sensor-1")
	require.NoError(t, err)
	require.Empty(t, child.ParentHardwareID)
}

func TestListDevicesFilters(t *testing.T) {
	r, _ := newTestRegistry(t)
	ctx := context.Background()
	createTestSite(t, r, "site-1")
	createTestSite(t, r, "site-2")
	createTestSpecification(t, r, "spec-1")
	createTestSpecification(t, r, "spec-2")

	createTestDevice(t, r, "hw-1", "site-1", "spec-1")
	createTestDevice(t, r, "hw-2", "site-1", "spec-2")
	createTestDevice(t, r, "hw-3", "site-2", "spec-1")

	_, err := r.CreateDeviceAssignment(ctx, &domain.DeviceAssignmentCreateRequest{DeviceHardwareID: "hw-1"})
	require.NoError(t, err)

	bySite, err := r.ListDevices(ctx, false, domain.DeviceSearchCriteria{
		SearchCriteria: domain.NewSearchCriteria(1, 10),
		SiteToken:      "site-1",
	})
	require.NoError(t, err)
	require.EqualValues(t, 2, bySite.Total)

	bySpec, err := r.ListDevices(ctx, false, domain.DeviceSearchCriteria{
		SearchCriteria:     domain.NewSearchCriteria(1, 10),
		SpecificationToken: "spec-1",
	})
	require.NoError(t, err)
	require.EqualValues(t, 2, bySpec.Total)

	unassigned, err := r.ListDevices(ctx, false, domain.DeviceSearchCriteria{
		SearchCriteria:  domain.NewSearchCriteria(1, 10),
		ExcludeAssigned: true,
	})
	require.NoError(t, err)
	require.EqualValues(t, 2, unassigned.Total)
	for _, device := range unassigned.Items {
		require.Empty(t, device.AssignmentToken)
	}

	_, err = r.DeleteDevice(ctx, "hw-3", false)
	require.NoError(t, err)
	active, err := r.ListDevices(ctx, false, domain.DeviceSearchCriteria{SearchCriteria: domain.NewSearchCriteria(1, 10)})
	require.NoError(t, err)
	require.EqualValues(t, 2, active.Total)
	all, err := r.ListDevices(ctx, true, domain.DeviceSearchCriteria{SearchCriteria: domain.NewSearchCriteria(1, 10)})
	require.NoError(t, err)
	require.EqualValues(t, 3, all.Total)
}
