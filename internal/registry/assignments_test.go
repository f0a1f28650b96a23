package registry

import (
	"context"
	"testing"
	"time"

	"device-registry/internal/domain"

	"github.com/stretchr/testify/require"
)

func setupAssignmentFixtures(t *testing.T, r *Registry) {
	t.Helper()
	createTestSite(t, r, "site-1")
	createTestSpecification(t, r, "spec-1")
	createTestDevice(t, r, "hw-1", "site-1", "spec-1")
}

func TestAssignmentLifecycle(t *testing.T) {
	r, _ := newTestRegistry(t)
	ctx := context.Background()
	setupAssignmentFixtures(t, r)

	// Stepping clock so activeDate ordering is deterministic.
	base := time.Now().UTC().Truncate(time.Millisecond)
	step := 0
	r.now = func() time.Time {
		step++
		return base.Add(time.Duration(step) * time.Millisecond)
	}

	assignment, err := r.CreateDeviceAssignment(ctx, &domain.DeviceAssignmentCreateRequest{
		Token:            "assign-1",
		DeviceHardwareID: "hw-1",
		AssetReference:   &domain.AssetReference{Module: "persons", ID: "tech-7"},
	})
	require.NoError(t, err)
	require.Equal(t, domain.AssignmentStatusActive, assignment.Status)
	require.Equal(t, domain.AssignmentTypeAssociated, assignment.AssignmentType)
	require.Equal(t, "site-1", assignment.SiteToken)
	require.NotNil(t, assignment.ActiveDate)
	require.Nil(t, assignment.ReleasedDate)

	device, err := r.GetDeviceByHardwareID(ctx, "hw-1")
	require.NoError(t, err)
	require.Equal(t, "assign-1", device.AssignmentToken)

	current, err := r.GetCurrentDeviceAssignment(ctx, "hw-1")
	require.NoError(t, err)
	require.Equal(t, "assign-1", current.Token)

	// One active assignment per device.
	_, err = r.CreateDeviceAssignment(ctx, &domain.DeviceAssignmentCreateRequest{DeviceHardwareID: "hw-1"})
	require.True(t, domain.HasCode(err, domain.ErrDeviceAlreadyAssigned))

	released, err := r.EndDeviceAssignment(ctx, "assign-1")
	require.NoError(t, err)
	require.Equal(t, domain.AssignmentStatusReleased, released.Status)
	require.NotNil(t, released.ReleasedDate)

	device, err = r.GetDeviceByHardwareID(ctx, "hw-1")
	require.NoError(t, err)
	require.Empty(t, device.AssignmentToken)
	current, err = r.GetCurrentDeviceAssignment(ctx, "hw-1")
	require.NoError(t, err)
	require.Nil(t, current)

	// Device is assignable again; history retains both.
	second, err := r.CreateDeviceAssignment(ctx, &domain.DeviceAssignmentCreateRequest{DeviceHardwareID: "hw-1"})
	require.NoError(t, err)
	require.Equal(t, domain.AssignmentTypeUnassociated, second.AssignmentType)

	history, err := r.GetDeviceAssignmentHistory(ctx, "hw-1", domain.NewSearchCriteria(1, 10))
	require.NoError(t, err)
	require.EqualValues(t, 2, history.Total)
	require.Equal(t, second.Token, history.Items[0].Token)
	require.Equal(t, "assign-1", history.Items[1].Token)
}

func TestCreateAssignmentUnknownDevice(t *testing.T) {
	r, _ := newTestRegistry(t)
	_, err := r.CreateDeviceAssignment(context.Background(), &domain.DeviceAssignmentCreateRequest{DeviceHardwareID: "ghost"})
	require.True(t, domain.HasCode(err, domain.ErrInvalidHardwareID))
}

func TestCreateAssignmentDuplicateToken(t *testing.T) {
	r, _ := newTestRegistry(t)
	ctx := context.Background()
	setupAssignmentFixtures(t, r)
	createTestDevice(t, r, "hw-2", "site-1", "spec-1")

	_, err := r.CreateDeviceAssignment(ctx, &domain.DeviceAssignmentCreateRequest{Token: "assign-1", DeviceHardwareID: "hw-1"})
	require.NoError(t, err)
	_, err = r.CreateDeviceAssignment(ctx, &domain.DeviceAssignmentCreateRequest{Token: "assign-1", DeviceHardwareID: "hw-2"})
	require.True(t, domain.HasCode(err, domain.ErrDuplicateAssignmentToken))
}

func TestUpdateAssignmentStatusMissing(t *testing.T) {
	r, _ := newTestRegistry(t)
	ctx := context.Background()
	setupAssignmentFixtures(t, r)

	assignment, err := r.CreateDeviceAssignment(ctx, &domain.DeviceAssignmentCreateRequest{DeviceHardwareID: "hw-1"})
	require.NoError(t, err)

	missing, err := r.UpdateDeviceAssignmentStatus(ctx, assignment.Token, domain.AssignmentStatusMissing)
	require.NoError(t, err)
	require.Equal(t, domain.AssignmentStatusMissing, missing.Status)

	// Missing keeps the device bound; only ending releases it.
	device, err := r.GetDeviceByHardwareID(ctx, "hw-1")
	require.NoError(t, err)
	require.Equal(t, assignment.Token, device.AssignmentToken)
}

func TestUpdateAssignmentMetadataMerges(t *testing.T) {
	r, _ := newTestRegistry(t)
	ctx := context.Background()
	setupAssignmentFixtures(t, r)

	assignment, err := r.CreateDeviceAssignment(ctx, &domain.DeviceAssignmentCreateRequest{
		DeviceHardwareID: "hw-1",
		Metadata:         map[string]string{"floor": "3"},
	})
	require.NoError(t, err)

	updated, err := r.UpdateDeviceAssignmentMetadata(ctx, assignment.Token, map[string]string{"room": "301"})
	require.NoError(t, err)
	require.Equal(t, "3", updated.Metadata["floor"])
	require.Equal(t, "301", updated.Metadata["room"])
}

func TestDeleteAssignmentRequiresRelease(t *testing.T) {
	r, _ := newTestRegistry(t)
	ctx := context.Background()
	setupAssignmentFixtures(t, r)

	assignment, err := r.CreateDeviceAssignment(ctx, &domain.DeviceAssignmentCreateRequest{DeviceHardwareID: "hw-1"})
	require.NoError(t, err)

	_, err = r.DeleteDeviceAssignment(ctx, assignment.Token, false)
	require.True(t, domain.HasCode(err, domain.ErrAssignmentNotReleased))
	_, err = r.DeleteDeviceAssignment(ctx, assignment.Token, true)
	require.True(t, domain.HasCode(err, domain.ErrAssignmentNotReleased))

	_, err = r.EndDeviceAssignment(ctx, assignment.Token)
	require.NoError(t, err)

	_, err = r.DeleteDeviceAssignment(ctx, assignment.Token, true)
	require.NoError(t, err)
	fetched, err := r.GetDeviceAssignmentByToken(ctx, assignment.Token)
	require.NoError(t, err)
	require.Nil(t, fetched)
}

func TestAssignmentsForSiteAndAsset(t *testing.T) {
	r, _ := newTestRegistry(t)
	ctx := context.Background()
	setupAssignmentFixtures(t, r)
	createTestDevice(t, r, "hw-2", "site-1", "spec-1")

	ref := domain.AssetReference{Module: "persons", ID: "tech-7"}
	first, err := r.CreateDeviceAssignment(ctx, &domain.DeviceAssignmentCreateRequest{
		DeviceHardwareID: "hw-1",
		AssetReference:   &ref,
	})
	require.NoError(t, err)
	_, err = r.CreateDeviceAssignment(ctx, &domain.DeviceAssignmentCreateRequest{DeviceHardwareID: "hw-2"})
	require.NoError(t, err)
	_, err = r.EndDeviceAssignment(ctx, first.Token)
	require.NoError(t, err)

	all, err := r.GetDeviceAssignmentsForSite(ctx, "site-1", domain.AssignmentSearchCriteria{
		SearchCriteria: domain.NewSearchCriteria(1, 10),
	})
	require.NoError(t, err)
	require.EqualValues(t, 2, all.Total)

	active, err := r.GetDeviceAssignmentsForSite(ctx, "site-1", domain.AssignmentSearchCriteria{
		SearchCriteria: domain.NewSearchCriteria(1, 10),
		Status:         domain.AssignmentStatusActive,
	})
	require.NoError(t, err)
	require.EqualValues(t, 1, active.Total)
	require.Equal(t, "hw-2", active.Items[0].DeviceHardwareID)

	byAsset, err := r.GetDeviceAssignmentsForAsset(ctx, ref, domain.AssignmentsForAssetSearchCriteria{
		SearchCriteria: domain.NewSearchCriteria(1, 10),
	})
	require.NoError(t, err)
	require.EqualValues(t, 1, byAsset.Total)
	require.Equal(t, first.Token, byAsset.Items[0].Token)

	none, err := r.GetDeviceAssignmentsForAsset(ctx, ref, domain.AssignmentsForAssetSearchCriteria{
		SearchCriteria: domain.NewSearchCriteria(1, 10),
		Status:         domain.AssignmentStatusActive,
	})
	require.NoError(t, err)
	require.EqualValues(t, 0, none.Total)
}

func TestConcurrentAssignmentCreation(t *testing.T) {
	r, _ := newTestRegistry(t)
	ctx := context.Background()
	setupAssignmentFixtures(t, r)

	const attempts = 8
	errCh := make(chan error, attempts)
	for i := 0; i < attempts; i++ {
		go func() {
			_, err := r.CreateDeviceAssignment(ctx, &domain.DeviceAssignmentCreateRequest{DeviceHardwareID: "hw-1"})
			errCh <- err
		}()
	}

	succeeded := 0
	for i := 0; i < attempts; i++ {
		if err := <-errCh; err == nil {
			succeeded++
		} else {
			require.True(t, domain.HasCode(err, domain.ErrDeviceAlreadyAssigned))
		}
	}
	require.Equal(t, 1, succeeded)

	history, err := r.GetDeviceAssignmentHistory(ctx, "hw-1", domain.NewSearchCriteria(1, 20))
	require.NoError(t, err)
	require.EqualValues(t, 1, history.Total)
}
