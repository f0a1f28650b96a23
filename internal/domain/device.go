package domain

// Device 设备领域模型
// HardwareID acts as the device token and is unique per tenant collection.
// AssignmentToken is non-empty only while the device has an active
// assignment; the registry clears it when the assignment ends.
type Device struct {
	Entity `bson:",inline"`

	HardwareID         string                 `bson:"hardwareId" json:"hardwareId"`
	SiteToken          string                 `bson:"siteToken,omitempty" json:"siteToken,omitempty"`
	SpecificationToken string                 `bson:"specificationToken,omitempty" json:"specificationToken,omitempty"`
	ParentHardwareID   string                 `bson:"parentHardwareId,omitempty" json:"parentHardwareId,omitempty"`
	AssignmentToken    string                 `bson:"assignmentToken,omitempty" json:"assignmentToken,omitempty"`
	Comments           string                 `bson:"comments,omitempty" json:"comments,omitempty"`
	Status             string                 `bson:"status,omitempty" json:"status,omitempty"`
	ElementMappings    []DeviceElementMapping `bson:"deviceElementMappings,omitempty" json:"deviceElementMappings,omitempty"`
}

// DeviceElementMapping 组合设备的插槽映射
// Maps a named slot path on a composite device to the hardware id of the
// child device installed there.
type DeviceElementMapping struct {
	DeviceElementSchemaPath string `bson:"path" json:"deviceElementSchemaPath"`
	HardwareID              string `bson:"hardwareId" json:"hardwareId"`
}
