package domain

import "time"

// Create/update request payloads. Pointer fields distinguish "leave as is"
// from "set to zero value" on update paths.

// SiteCreateRequest 创建/更新站点请求
type SiteCreateRequest struct {
	Token       string            `json:"token,omitempty"`
	Name        string            `json:"name"`
	Description string            `json:"description,omitempty"`
	ImageURL    string            `json:"imageUrl,omitempty"`
	MapType     string            `json:"mapType,omitempty"`
	MapMetadata map[string]string `json:"mapMetadata,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// ZoneCreateRequest 创建/更新区域请求
type ZoneCreateRequest struct {
	Name        string            `json:"name"`
	Coordinates []Location        `json:"coordinates,omitempty"`
	BorderColor string            `json:"borderColor,omitempty"`
	FillColor   string            `json:"fillColor,omitempty"`
	Opacity     *float64          `json:"opacity,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// DeviceSpecificationCreateRequest 创建/更新设备规格请求
type DeviceSpecificationCreateRequest struct {
	Token           string            `json:"token,omitempty"`
	Name            string            `json:"name"`
	AssetReference  AssetReference    `json:"assetReference"`
	ContainerPolicy ContainerPolicy   `json:"containerPolicy,omitempty"`
	Metadata        map[string]string `json:"metadata,omitempty"`
}

// DeviceCommandCreateRequest 创建/更新设备命令请求
type DeviceCommandCreateRequest struct {
	Token       string             `json:"token,omitempty"`
	Namespace   string             `json:"namespace,omitempty"`
	Name        string             `json:"name"`
	Description string             `json:"description,omitempty"`
	Parameters  []CommandParameter `json:"parameters,omitempty"`
	Metadata    map[string]string  `json:"metadata,omitempty"`
}

// DeviceStatusCreateRequest 创建/更新设备状态请求
type DeviceStatusCreateRequest struct {
	Code            string `json:"code"`
	Name            string `json:"name"`
	BackgroundColor string `json:"backgroundColor,omitempty"`
	ForegroundColor string `json:"foregroundColor,omitempty"`
	BorderColor     string `json:"borderColor,omitempty"`
	Icon            string `json:"icon,omitempty"`
}

// DeviceCreateRequest 创建/更新设备请求
type DeviceCreateRequest struct {
	HardwareID         string            `json:"hardwareId"`
	SiteToken          string            `json:"siteToken,omitempty"`
	SpecificationToken string            `json:"specificationToken,omitempty"`
	ParentHardwareID   *string           `json:"parentHardwareId,omitempty"`
	Comments           *string           `json:"comments,omitempty"`
	Status             *string           `json:"status,omitempty"`
	Metadata           map[string]string `json:"metadata,omitempty"`
}

// DeviceAssignmentCreateRequest 创建设备分配请求
type DeviceAssignmentCreateRequest struct {
	Token            string            `json:"token,omitempty"`
	DeviceHardwareID string            `json:"deviceHardwareId"`
	AssignmentType   AssignmentType    `json:"assignmentType,omitempty"`
	AssetReference   *AssetReference   `json:"assetReference,omitempty"`
	Metadata         map[string]string `json:"metadata,omitempty"`
}

// DeviceStreamCreateRequest 创建设备数据流请求
type DeviceStreamCreateRequest struct {
	StreamID    string            `json:"streamId"`
	ContentType string            `json:"contentType,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// DeviceGroupCreateRequest 创建/更新设备组请求
type DeviceGroupCreateRequest struct {
	Token       string            `json:"token,omitempty"`
	Name        string            `json:"name"`
	Description string            `json:"description,omitempty"`
	Roles       []string          `json:"roles,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// DeviceGroupElementCreateRequest 添加/移除组成员请求
type DeviceGroupElementCreateRequest struct {
	Type      GroupElementType `json:"type"`
	ElementID string           `json:"elementId"`
	Roles     []string         `json:"roles,omitempty"`
}

// StampCreated fills the entity audit fields for a newly created entity.
func StampCreated(e *Entity, actor string, now time.Time) {
	e.CreatedDate = now
	e.CreatedBy = actor
	e.LastUpdatedDate = now
	e.LastUpdatedBy = actor
}

// StampUpdated refreshes the entity audit fields on update.
func StampUpdated(e *Entity, actor string, now time.Time) {
	e.LastUpdatedDate = now
	e.LastUpdatedBy = actor
}
