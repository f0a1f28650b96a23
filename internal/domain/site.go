package domain

// Site 站点领域模型
// A site is a top-level grouping that owns zones and devices.
type Site struct {
	Entity `bson:",inline"`

	Name        string `bson:"name" json:"name"`
	Description string `bson:"description,omitempty" json:"description,omitempty"`
	ImageURL    string `bson:"imageUrl,omitempty" json:"imageUrl,omitempty"`
	// Map display configuration for UI rendering (type + open key/values).
	MapType     string            `bson:"mapType,omitempty" json:"mapType,omitempty"`
	MapMetadata map[string]string `bson:"mapMetadata,omitempty" json:"mapMetadata,omitempty"`
}

// Location 经纬度坐标点
type Location struct {
	Latitude  float64 `bson:"latitude" json:"latitude"`
	Longitude float64 `bson:"longitude" json:"longitude"`
	Elevation float64 `bson:"elevation,omitempty" json:"elevation,omitempty"`
}

// Zone 区域领域模型（属于一个站点）
type Zone struct {
	Entity `bson:",inline"`

	SiteToken   string     `bson:"siteToken" json:"siteToken"`
	Name        string     `bson:"name" json:"name"`
	Coordinates []Location `bson:"coordinates,omitempty" json:"coordinates,omitempty"`
	BorderColor string     `bson:"borderColor,omitempty" json:"borderColor,omitempty"`
	FillColor   string     `bson:"fillColor,omitempty" json:"fillColor,omitempty"`
	Opacity     float64    `bson:"opacity,omitempty" json:"opacity,omitempty"`
}
