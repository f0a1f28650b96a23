package asset

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"device-registry/internal/domain"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// HTTPResolver 资产模块 HTTP 客户端
type HTTPResolver struct {
	client *resty.Client
	logger *zap.Logger
}

func NewHTTPResolver(baseURL string, timeout time.Duration, logger *zap.Logger) *HTTPResolver {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetRetryCount(2)
	return &HTTPResolver{client: client, logger: logger}
}

func (r *HTTPResolver) ResolveAsset(ctx context.Context, ref domain.AssetReference) (*domain.HardwareAsset, error) {
	var result domain.HardwareAsset
	resp, err := r.client.R().
		SetContext(ctx).
		SetPathParams(map[string]string{
			"module": ref.Module,
			"id":     ref.ID,
		}).
		SetResult(&result).
		Get("/assets/modules/{module}/assets/{id}")
	if err != nil {
		return nil, fmt.Errorf("asset module request failed: %w", err)
	}
	if resp.StatusCode() == http.StatusNotFound {
		return nil, nil
	}
	if resp.IsError() {
		r.logger.Warn("Asset module returned error",
			zap.String("module", ref.Module),
			zap.String("assetId", ref.ID),
			zap.Int("status", resp.StatusCode()),
		)
		return nil, fmt.Errorf("asset module returned status %d", resp.StatusCode())
	}
	return &result, nil
}
