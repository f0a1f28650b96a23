// Package registry is the persistence and referential-integrity core of the
// device registry. It layers application-level invariants (uniqueness,
// reference checks, soft-delete semantics, one-active-assignment-per-device,
// monotonic group indexes) on top of a schemaless document store.
package registry

import (
	"context"
	"regexp"
	"time"

	"device-registry/internal/events"
	"device-registry/internal/lock"
	"device-registry/internal/store"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

// 集合名称
const (
	CollectionSites         = "sites"
	CollectionZones         = "zones"
	CollectionSpecs         = "devicespecifications"
	CollectionCommands      = "devicecommands"
	CollectionStatuses      = "devicestatuses"
	CollectionDevices       = "devices"
	CollectionAssignments   = "deviceassignments"
	CollectionStreams       = "devicestreams"
	CollectionGroups        = "devicegroups"
	CollectionGroupElements = "devicegroupelements"
)

// Registry 设备注册核心
type Registry struct {
	sites       store.Collection
	zones       store.Collection
	specs       store.Collection
	commands    store.Collection
	statuses    store.Collection
	devices     store.Collection
	assignments store.Collection
	streams     store.Collection
	groups      store.Collection
	elements    store.Collection

	guard  lock.Guard
	events events.Publisher
	logger *zap.Logger
	now    func() time.Time
}

// New 创建注册核心
// guard serializes assignment creation per hardware id (pass a RedisGuard
// for multi-instance deployments); publisher may be nil to disable events.
func New(provider store.Provider, guard lock.Guard, publisher events.Publisher, logger *zap.Logger) *Registry {
	if guard == nil {
		guard = lock.NewMemoryGuard()
	}
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		sites:       provider.Collection(CollectionSites),
		zones:       provider.Collection(CollectionZones),
		specs:       provider.Collection(CollectionSpecs),
		commands:    provider.Collection(CollectionCommands),
		statuses:    provider.Collection(CollectionStatuses),
		devices:     provider.Collection(CollectionDevices),
		assignments: provider.Collection(CollectionAssignments),
		streams:     provider.Collection(CollectionStreams),
		groups:      provider.Collection(CollectionGroups),
		elements:    provider.Collection(CollectionGroupElements),
		guard:       guard,
		events:      publisher,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
	}
}

// EnsureIndexes 启动时创建集合索引
func (r *Registry) EnsureIndexes(ctx context.Context) error {
	steps := []struct {
		coll   store.Collection
		keys   bson.D
		unique bool
	}{
		{r.sites, bson.D{{Key: "token", Value: 1}}, true},
		{r.specs, bson.D{{Key: "token", Value: 1}}, true},
		{r.statuses, bson.D{{Key: "specToken", Value: 1}, {Key: "code", Value: 1}}, true},
		{r.devices, bson.D{{Key: "hardwareId", Value: 1}}, true},
		{r.assignments, bson.D{{Key: "token", Value: 1}}, true},
		{r.assignments, bson.D{{Key: "siteToken", Value: 1}, {Key: "assetReference", Value: 1}, {Key: "status", Value: 1}}, false},
		{r.streams, bson.D{{Key: "assignmentToken", Value: 1}, {Key: "streamId", Value: 1}}, true},
		{r.groups, bson.D{{Key: "token", Value: 1}}, true},
		{r.groups, bson.D{{Key: "roles", Value: 1}}, false},
		{r.elements, bson.D{{Key: "groupToken", Value: 1}, {Key: "type", Value: 1}, {Key: "elementId", Value: 1}}, false},
		{r.elements, bson.D{{Key: "groupToken", Value: 1}, {Key: "roles", Value: 1}}, false},
	}
	for _, step := range steps {
		if err := step.coll.CreateIndex(ctx, step.keys, step.unique); err != nil {
			return err
		}
	}
	return nil
}

// tokenOrUUID 使用调用方提供的 token，缺省时生成新 UUID
func tokenOrUUID(token string) string {
	if token != "" {
		return token
	}
	return uuid.NewString()
}

var streamIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_\-]+$`)
