// Package asset resolves external asset references. The registry only
// stores references; lookups go to the asset module service.
package asset

import (
	"context"

	"device-registry/internal/domain"
)

// Resolver 资产解析接口
// Returns (nil, nil) when the reference does not resolve to an asset, so
// callers decide whether a dangling reference is fatal.
type Resolver interface {
	ResolveAsset(ctx context.Context, ref domain.AssetReference) (*domain.HardwareAsset, error)
}

// StaticResolver 内存资产表实现（测试和离线模式用）
type StaticResolver struct {
	assets map[domain.AssetReference]domain.HardwareAsset
}

func NewStaticResolver() *StaticResolver {
	return &StaticResolver{assets: make(map[domain.AssetReference]domain.HardwareAsset)}
}

func (r *StaticResolver) Put(ref domain.AssetReference, a domain.HardwareAsset) {
	r.assets[ref] = a
}

func (r *StaticResolver) ResolveAsset(_ context.Context, ref domain.AssetReference) (*domain.HardwareAsset, error) {
	a, ok := r.assets[ref]
	if !ok {
		return nil, nil
	}
	return &a, nil
}
