package domain

import "time"

// Entity 所有注册实体的公共字段
// Token is the caller-visible unique identifier, immutable after creation.
type Entity struct {
	Token           string            `bson:"token" json:"token"`
	CreatedDate     time.Time         `bson:"createdDate" json:"createdDate"`
	CreatedBy       string            `bson:"createdBy,omitempty" json:"createdBy,omitempty"`
	LastUpdatedDate time.Time         `bson:"lastUpdatedDate" json:"lastUpdatedDate"`
	LastUpdatedBy   string            `bson:"lastUpdatedBy,omitempty" json:"lastUpdatedBy,omitempty"`
	Deleted         bool              `bson:"deleted" json:"deleted"`
	Metadata        map[string]string `bson:"metadata,omitempty" json:"metadata,omitempty"`
}
