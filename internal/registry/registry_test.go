package registry

import (
	"context"
	"testing"

	"device-registry/internal/domain"
	"device-registry/internal/lock"
	"device-registry/internal/store"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// newTestRegistry 基于内存存储构建测试用注册核心
func newTestRegistry(t *testing.T) (*Registry, *store.Memory) {
	t.Helper()
	provider := store.NewMemory()
	r := New(provider, lock.NewMemoryGuard(), nil, zap.NewNop())
	require.NoError(t, r.EnsureIndexes(context.Background()))
	return r, provider
}

func createTestSite(t *testing.T, r *Registry, token string) *domain.Site {
	t.Helper()
	site, err := r.CreateSite(context.Background(), &domain.SiteCreateRequest{
		Token: token,
		Name:  "Test Site",
	})
	require.NoError(t, err)
	return site
}

func createTestSpecification(t *testing.T, r *Registry, token string) *domain.DeviceSpecification {
	t.Helper()
	spec, err := r.CreateDeviceSpecification(context.Background(), &domain.DeviceSpecificationCreateRequest{
		Token:          token,
		Name:           "Test Specification",
		AssetReference: domain.AssetReference{Module: "hardware", ID: "asset-1"},
	})
	require.NoError(t, err)
	return spec
}

func createTestDevice(t *testing.T, r *Registry, hardwareID, siteToken, specToken string) *domain.Device {
	t.Helper()
	device, err := r.CreateDevice(context.Background(), &domain.DeviceCreateRequest{
		HardwareID:         hardwareID,
		SiteToken:          siteToken,
		SpecificationToken: specToken,
	})
	require.NoError(t, err)
	return device
}
