package domain

// AssetReference 外部资产引用（模块 + 资产ID）
// Resolution happens through the asset module service; the registry only
// stores the reference.
type AssetReference struct {
	Module string `bson:"module" json:"module"`
	ID     string `bson:"id" json:"id"`
}

// HardwareAsset 资产模块返回的硬件资产
type HardwareAsset struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	ImageURL    string `json:"imageUrl,omitempty"`
	SKU         string `json:"sku,omitempty"`
}
