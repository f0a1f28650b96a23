// Package events publishes registry lifecycle notifications so downstream
// services (automation, audit) can react to entity changes without polling.
package events

import (
	"encoding/json"
	"time"
)

// Action 生命周期事件类型
type Action string

const (
	ActionCreated  Action = "created"
	ActionUpdated  Action = "updated"
	ActionDeleted  Action = "deleted"
	ActionReleased Action = "released"
)

// LifecycleEvent 实体生命周期事件
type LifecycleEvent struct {
	EntityType string    `json:"entityType"`
	Token      string    `json:"token"`
	Action     Action    `json:"action"`
	OccurredAt time.Time `json:"occurredAt"`
}

// Publisher 生命周期事件发布接口
type Publisher interface {
	PublishLifecycle(entityType, token string, action Action)
}

// NopPublisher 空实现（事件发布未启用时）
type NopPublisher struct{}

func (NopPublisher) PublishLifecycle(string, string, Action) {}

func marshalEvent(entityType, token string, action Action) []byte {
	payload, _ := json.Marshal(LifecycleEvent{
		EntityType: entityType,
		Token:      token,
		Action:     action,
		OccurredAt: time.Now().UTC(),
	})
	return payload
}
