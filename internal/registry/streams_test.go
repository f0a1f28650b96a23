package registry

import (
	"context"
	"testing"

	"device-registry/internal/domain"

	"github.com/stretchr/testify/require"
)

func createTestAssignment(t *testing.T, r *Registry) *domain.DeviceAssignment {
	t.Helper()
	setupAssignmentFixtures(t, r)
	assignment, err := r.CreateDeviceAssignment(context.Background(), &domain.DeviceAssignmentCreateRequest{
		Token:            "assign-1",
		DeviceHardwareID: "hw-1",
	})
	require.NoError(t, err)
	return assignment
}

func TestCreateStreamValidatesAssignment(t *testing.T) {
	r, _ := newTestRegistry(t)
	_, err := r.CreateDeviceStream(context.Background(), "ghost", &domain.DeviceStreamCreateRequest{StreamID: "video-1"})
	require.True(t, domain.HasCode(err, domain.ErrInvalidAssignmentToken))
}

func TestCreateStreamValidatesID(t *testing.T) {
	r, _ := newTestRegistry(t)
	ctx := context.Background()
	createTestAssignment(t, r)

	for _, bad := range []string{"", "video 1", "video/1", "vídeo"} {
		_, err := r.CreateDeviceStream(ctx, "assign-1", &domain.DeviceStreamCreateRequest{StreamID: bad})
		require.True(t, domain.HasCode(err, domain.ErrInvalidStreamIDFormat), "stream id %q", bad)
	}

	stream, err := r.CreateDeviceStream(ctx, "assign-1", &domain.DeviceStreamCreateRequest{
		StreamID:    "video_feed-1",
		ContentType: "video/mpeg4",
	})
	require.NoError(t, err)
	require.Equal(t, "assign-1", stream.AssignmentToken)
}

func TestStreamIDUniquePerAssignment(t *testing.T) {
	r, _ := newTestRegistry(t)
	ctx := context.Background()
	createTestAssignment(t, r)

	_, err := r.CreateDeviceStream(ctx, "assign-1", &domain.DeviceStreamCreateRequest{StreamID: "video-1"})
	require.NoError(t, err)
	_, err = r.CreateDeviceStream(ctx, "assign-1", &domain.DeviceStreamCreateRequest{StreamID: "video-1"})
	require.True(t, domain.HasCode(err, domain.ErrDuplicateStreamID))

	// Same stream id under another assignment is fine.
	createTestDevice(t, r, "hw-2", "site-1", "spec-1")
	_, err = r.CreateDeviceAssignment(ctx, &domain.DeviceAssignmentCreateRequest{Token: "assign-2", DeviceHardwareID: "hw-2"})
	require.NoError(t, err)
	_, err = r.CreateDeviceStream(ctx, "assign-2", &domain.DeviceStreamCreateRequest{StreamID: "video-1"})
	require.NoError(t, err)

	fetched, err := r.GetDeviceStream(ctx, "assign-1", "video-1")
	require.NoError(t, err)
	require.NotNil(t, fetched)
	missing, err := r.GetDeviceStream(ctx, "assign-1", "video-2")
	require.NoError(t, err)
	require.Nil(t, missing)

	results, err := r.ListDeviceStreams(ctx, "assign-1", domain.NewSearchCriteria(1, 10))
	require.NoError(t, err)
	require.EqualValues(t, 1, results.Total)
}
