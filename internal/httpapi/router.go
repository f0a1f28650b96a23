// Package httpapi exposes the registry over HTTP. Routing stays on the
// standard library mux with explicit method checks per route.
package httpapi

import (
	"net/http"
	"strings"

	"go.uber.org/zap"
)

const apiPrefix = "/registry/api/v1"

// Router 使用标准库 http.ServeMux（避免引入第三方路由依赖）
type Router struct {
	mux    *http.ServeMux
	logger *zap.Logger
}

func NewRouter(logger *zap.Logger) *Router {
	return &Router{
		mux:    http.NewServeMux(),
		logger: logger,
	}
}

func (r *Router) Handle(pattern string, h http.HandlerFunc) {
	r.mux.HandleFunc(pattern, h)
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// pathTail strips prefix from the request path and splits the remainder on
// "/", so "/registry/api/v1/sites/abc/zones" yields ["abc", "zones"].
func pathTail(req *http.Request, prefix string) []string {
	tail := strings.Trim(strings.TrimPrefix(req.URL.Path, prefix), "/")
	if tail == "" {
		return nil
	}
	return strings.Split(tail, "/")
}

// RegisterRegistryRoutes 注册设备注册 API 路由
func (r *Router) RegisterRegistryRoutes(api *API) {
	r.Handle(apiPrefix+"/sites", api.SitesHandler)
	r.Handle(apiPrefix+"/sites/", api.SiteByTokenHandler)

	r.Handle(apiPrefix+"/zones/", api.ZoneByTokenHandler)

	r.Handle(apiPrefix+"/specifications", api.SpecificationsHandler)
	r.Handle(apiPrefix+"/specifications/", api.SpecificationByTokenHandler)

	r.Handle(apiPrefix+"/commands/", api.CommandByTokenHandler)

	r.Handle(apiPrefix+"/devices", api.DevicesHandler)
	r.Handle(apiPrefix+"/devices/export", api.DevicesExportHandler)
	r.Handle(apiPrefix+"/devices/", api.DeviceByIDHandler)

	r.Handle(apiPrefix+"/assignments", api.AssignmentsHandler)
	r.Handle(apiPrefix+"/assignments/", api.AssignmentByTokenHandler)

	r.Handle(apiPrefix+"/assets/assignments", api.AssignmentsForAssetHandler)

	r.Handle(apiPrefix+"/groups", api.GroupsHandler)
	r.Handle(apiPrefix+"/groups/", api.GroupByTokenHandler)
}
