package registry

import (
	"context"
	"fmt"

	"device-registry/internal/domain"
	"device-registry/internal/events"
	"device-registry/internal/store"

	"go.mongodb.org/mongo-driver/bson"
)

// CreateDeviceStream 在分配下声明数据流
func (r *Registry) CreateDeviceStream(ctx context.Context, assignmentToken string, req *domain.DeviceStreamCreateRequest) (*domain.DeviceStream, error) {
	if _, err := r.assertAssignment(ctx, assignmentToken); err != nil {
		return nil, err
	}
	if !streamIDPattern.MatchString(req.StreamID) {
		return nil, domain.NewError(domain.ErrInvalidStreamIDFormat,
			fmt.Sprintf("stream id %q must contain only letters, numbers, underscores and dashes", req.StreamID))
	}

	stream := &domain.DeviceStream{
		AssignmentToken: assignmentToken,
		StreamID:        req.StreamID,
		ContentType:     req.ContentType,
	}
	stream.Token = req.StreamID
	stream.Metadata = req.Metadata
	domain.StampCreated(&stream.Entity, "", r.now())

	if err := store.InsertEntity(ctx, r.streams, stream, domain.ErrDuplicateStreamID); err != nil {
		return nil, err
	}
	r.events.PublishLifecycle("stream", stream.StreamID, events.ActionCreated)
	return stream, nil
}

// GetDeviceStream 查询分配下的数据流（不存在返回 nil）
func (r *Registry) GetDeviceStream(ctx context.Context, assignmentToken, streamID string) (*domain.DeviceStream, error) {
	filter := bson.M{"assignmentToken": assignmentToken, "streamId": streamID}
	return store.FindEntity[domain.DeviceStream](ctx, r.streams, filter)
}

// ListDeviceStreams 列出分配下的数据流
func (r *Registry) ListDeviceStreams(ctx context.Context, assignmentToken string, criteria domain.SearchCriteria) (*domain.SearchResults[domain.DeviceStream], error) {
	filter := bson.M{"assignmentToken": assignmentToken}
	store.AddDateRange(filter, "createdDate", criteria)
	sort := bson.D{{Key: "createdDate", Value: -1}}
	return store.SearchEntities[domain.DeviceStream](ctx, r.streams, filter, sort, criteria)
}
