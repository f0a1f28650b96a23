package domain

// ContainerPolicy 设备规格的容器策略
type ContainerPolicy string

const (
	// ContainerPolicyStandalone indicates a specification for simple devices.
	ContainerPolicyStandalone ContainerPolicy = "Standalone"
	// ContainerPolicyComposite indicates devices that contain child devices
	// at named slots (see Device.ElementMappings).
	ContainerPolicyComposite ContainerPolicy = "Composite"
)

// DeviceSpecification 设备规格领域模型
// Owns commands and statuses, references an external hardware asset.
type DeviceSpecification struct {
	Entity `bson:",inline"`

	Name            string          `bson:"name" json:"name"`
	AssetReference  AssetReference  `bson:"assetReference" json:"assetReference"`
	ContainerPolicy ContainerPolicy `bson:"containerPolicy" json:"containerPolicy"`
}

// DeviceCommand 设备命令领域模型（属于一个规格）
// Name must be unique among non-deleted commands of the specification; the
// namespace qualifies the name for dedup purposes.
type DeviceCommand struct {
	Entity `bson:",inline"`

	SpecificationToken string             `bson:"specToken" json:"specificationToken"`
	Namespace          string             `bson:"namespace,omitempty" json:"namespace,omitempty"`
	Name               string             `bson:"name" json:"name"`
	Description        string             `bson:"description,omitempty" json:"description,omitempty"`
	Parameters         []CommandParameter `bson:"parameters,omitempty" json:"parameters,omitempty"`
}

// CommandParameter 命令参数定义
type CommandParameter struct {
	Name     string `bson:"name" json:"name"`
	Type     string `bson:"type" json:"type"`
	Required bool   `bson:"required" json:"required"`
}

// DeviceStatus 设备状态领域模型（属于一个规格）
// Code is unique per specification (compound unique index), name is unique
// among the specification's statuses.
type DeviceStatus struct {
	SpecificationToken string `bson:"specToken" json:"specificationToken"`
	Code               string `bson:"code" json:"code"`
	Name               string `bson:"name" json:"name"`
	BackgroundColor    string `bson:"backgroundColor,omitempty" json:"backgroundColor,omitempty"`
	ForegroundColor    string `bson:"foregroundColor,omitempty" json:"foregroundColor,omitempty"`
	BorderColor        string `bson:"borderColor,omitempty" json:"borderColor,omitempty"`
	Icon               string `bson:"icon,omitempty" json:"icon,omitempty"`
}
