package domain

import "time"

// AssignmentStatus 设备分配状态机
// Active -> Released is the only transition driven by the registry itself.
// Missing is set by external monitoring through UpdateDeviceAssignmentStatus.
type AssignmentStatus string

const (
	AssignmentStatusActive   AssignmentStatus = "Active"
	AssignmentStatusMissing  AssignmentStatus = "Missing"
	AssignmentStatusReleased AssignmentStatus = "Released"
)

// AssignmentType 分配类型（是否关联资产）
type AssignmentType string

const (
	AssignmentTypeUnassociated AssignmentType = "Unassociated"
	AssignmentTypeAssociated   AssignmentType = "Associated"
)

// DeviceAssignment 设备分配领域模型
// History is retained: ending an assignment transitions its status and
// clears the device back-reference, it never deletes the document.
type DeviceAssignment struct {
	Entity `bson:",inline"`

	DeviceHardwareID string           `bson:"deviceHardwareId" json:"deviceHardwareId"`
	SiteToken        string           `bson:"siteToken" json:"siteToken"`
	AssignmentType   AssignmentType   `bson:"assignmentType" json:"assignmentType"`
	AssetReference   *AssetReference  `bson:"assetReference,omitempty" json:"assetReference,omitempty"`
	Status           AssignmentStatus `bson:"status" json:"status"`
	ActiveDate       *time.Time       `bson:"activeDate,omitempty" json:"activeDate,omitempty"`
	ReleasedDate     *time.Time       `bson:"releasedDate,omitempty" json:"releasedDate,omitempty"`
}

// DeviceStream 设备数据流领域模型（属于一个分配）
type DeviceStream struct {
	Entity `bson:",inline"`

	AssignmentToken string `bson:"assignmentToken" json:"assignmentToken"`
	StreamID        string `bson:"streamId" json:"streamId"`
	ContentType     string `bson:"contentType,omitempty" json:"contentType,omitempty"`
}
