package asset

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"device-registry/internal/domain"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestHTTPResolverResolvesAsset(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/assets/modules/hardware/assets/asset-1", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(domain.HardwareAsset{
			ID:   "asset-1",
			Name: "MeiTrack GPS",
			SKU:  "MT-90",
		})
	}))
	defer server.Close()

	resolver := NewHTTPResolver(server.URL, time.Second, zap.NewNop())
	a, err := resolver.ResolveAsset(context.Background(), domain.AssetReference{Module: "hardware", ID: "asset-1"})
	require.NoError(t, err)
	require.NotNil(t, a)
	require.Equal(t, "MeiTrack GPS", a.Name)
	require.Equal(t, "MT-90", a.SKU)
}

func TestHTTPResolverMissingAssetIsNil(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	resolver := NewHTTPResolver(server.URL, time.Second, zap.NewNop())
	a, err := resolver.ResolveAsset(context.Background(), domain.AssetReference{Module: "hardware", ID: "ghost"})
	require.NoError(t, err)
	require.Nil(t, a)
}

func TestHTTPResolverServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	resolver := NewHTTPResolver(server.URL, time.Second, zap.NewNop())
	_, err := resolver.ResolveAsset(context.Background(), domain.AssetReference{Module: "hardware", ID: "asset-1"})
	require.Error(t, err)
}
