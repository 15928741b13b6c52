package infrastructure

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"pricewise/internal/pkg/httpclient"
	"pricewise/internal/service/pricing/domain"
)

// URLResolver 返回 oracle 的完整 URL，可以是固定地址，也可以来自服务发现。
type URLResolver func(ctx context.Context) (string, error)

func StaticURL(url string) URLResolver {
	return func(context.Context) (string, error) { return url, nil }
}

// InstanceDiscoverer 由 nacos.Client 实现。
type InstanceDiscoverer interface {
	DiscoverServiceInstance(serviceName string) (string, int, error)
}

// DiscoveredURL 每次调用都通过服务发现选一个健康实例。
func DiscoveredURL(d InstanceDiscoverer, serviceName, path string) URLResolver {
	return func(context.Context) (string, error) {
		ip, port, err := d.DiscoverServiceInstance(serviceName)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("http://%s:%d%s", ip, port, path), nil
	}
}

type confidenceRequest struct {
	Context         domain.PricingContext `json:"context"`
	TotalAdjustment float64               `json:"totalAdjustment"`
}

type confidenceResponse struct {
	Confidence *float64 `json:"confidence"`
}

// ConfidenceHTTPAdapter 通过 HTTP 调用外部置信度估计服务。
// 所有失败都包装为 ErrOracleUnavailable，底层原因仍可用 errors.Is 判断。
type ConfidenceHTTPAdapter struct {
	client  *httpclient.Client
	resolve URLResolver
}

func NewConfidenceHTTPAdapter(client *httpclient.Client, resolve URLResolver) *ConfidenceHTTPAdapter {
	return &ConfidenceHTTPAdapter{client: client, resolve: resolve}
}

func (a *ConfidenceHTTPAdapter) Estimate(ctx context.Context, pctx domain.PricingContext, totalAdjustment float64) (float64, error) {
	url, err := a.resolve(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: resolve oracle: %w", domain.ErrOracleUnavailable, err)
	}
	var resp confidenceResponse
	if err := a.client.PostJSON(ctx, url, confidenceRequest{Context: pctx, TotalAdjustment: totalAdjustment}, &resp); err != nil {
		return 0, fmt.Errorf("%w: call oracle: %w", domain.ErrOracleUnavailable, err)
	}
	if resp.Confidence == nil {
		return 0, errors.Wrap(domain.ErrOracleUnavailable, "oracle response has no confidence")
	}
	return *resp.Confidence, nil
}
