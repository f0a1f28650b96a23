package domain

// GroupElementType 组成员类型（设备或嵌套组）
type GroupElementType string

const (
	GroupElementTypeDevice GroupElementType = "Device"
	GroupElementTypeGroup  GroupElementType = "Group"
)

// DeviceGroup 设备组领域模型
// LastIndex is a monotonically increasing counter private to the group; it
// is only ever advanced through an atomic increment on the stored document.
type DeviceGroup struct {
	Entity `bson:",inline"`

	Name        string   `bson:"name" json:"name"`
	Description string   `bson:"description,omitempty" json:"description,omitempty"`
	Roles       []string `bson:"roles,omitempty" json:"roles,omitempty"`
	LastIndex   int64    `bson:"lastIndex" json:"lastIndex"`
}

// DeviceGroupElement 设备组成员领域模型
// Index is assigned from the group's LastIndex at creation time and defines
// a stable, strictly increasing ordering within the group.
type DeviceGroupElement struct {
	GroupToken string           `bson:"groupToken" json:"groupToken"`
	Index      int64            `bson:"index" json:"index"`
	Type       GroupElementType `bson:"type" json:"type"`
	ElementID  string           `bson:"elementId" json:"elementId"`
	Roles      []string         `bson:"roles,omitempty" json:"roles,omitempty"`
}
