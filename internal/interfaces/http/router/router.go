package router

import (
	"path"
	"slices"

	"github.com/erp/labtrack/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
)

// Router mounts domain groups under the versioned API prefix
type Router struct {
	engine     *gin.Engine
	apiVersion string
	groups     []*DomainGroup
}

// RouterOption is a functional option for Router configuration
type RouterOption func(*Router)

// WithAPIVersion sets the API version prefix
func WithAPIVersion(version string) RouterOption {
	return func(r *Router) {
		r.apiVersion = version
	}
}

// NewRouter creates a new Router instance
func NewRouter(engine *gin.Engine, opts ...RouterOption) *Router {
	r := &Router{
		engine:     engine,
		apiVersion: "v1",
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// BasePath is the prefix every group is mounted under
func (r *Router) BasePath() string {
	return "/api/" + r.apiVersion
}

// Register queues groups for Setup
func (r *Router) Register(groups ...*DomainGroup) *Router {
	r.groups = append(r.groups, groups...)
	return r
}

// Setup mounts all registered groups on the engine
func (r *Router) Setup() {
	api := r.engine.Group(r.BasePath())
	for _, g := range r.groups {
		g.mount(api)
	}
}

// Routes lists every registered route with the scope gates in front of it
func (r *Router) Routes() []RouteInfo {
	var out []RouteInfo
	for _, g := range r.groups {
		out = g.collect(out, r.BasePath(), nil)
	}
	return out
}

// RouteInfo describes a mounted route. Each gate admits a token holding any
// of its scopes; a request must pass every gate.
type RouteInfo struct {
	Method string
	Path   string
	Gates  [][]string
}

// Public reports whether the route is reachable without any scope
func (ri RouteInfo) Public() bool {
	return len(ri.Gates) == 0
}

// DomainGroup collects the routes of one API area and the scopes that guard them
type DomainGroup struct {
	name       string
	prefix     string
	gates      [][]string
	middleware []gin.HandlerFunc
	routes     []route
	subgroups  []*DomainGroup
}

type route struct {
	method  string
	path    string
	gate    []string
	handler gin.HandlerFunc
}

// NewDomainGroup creates a new domain-specific route group
func NewDomainGroup(name, prefix string) *DomainGroup {
	return &DomainGroup{name: name, prefix: prefix}
}

// Require puts a scope gate in front of every route of the group and its
// subgroups. Gates stack: a subgroup route needs the group's gate as well.
func (dg *DomainGroup) Require(scopes ...string) *DomainGroup {
	dg.gates = append(dg.gates, slices.Clone(scopes))
	return dg
}

// Use adds middleware to this group; it runs after the scope gates
func (dg *DomainGroup) Use(middleware ...gin.HandlerFunc) *DomainGroup {
	dg.middleware = append(dg.middleware, middleware...)
	return dg
}

// Handle registers a route. When scopes are given the route gets its own
// gate on top of the group's.
func (dg *DomainGroup) Handle(method, relativePath string, handler gin.HandlerFunc, scopes ...string) *DomainGroup {
	dg.routes = append(dg.routes, route{
		method:  method,
		path:    relativePath,
		gate:    slices.Clone(scopes),
		handler: handler,
	})
	return dg
}

// GET registers a GET route
func (dg *DomainGroup) GET(relativePath string, handler gin.HandlerFunc, scopes ...string) *DomainGroup {
	return dg.Handle("GET", relativePath, handler, scopes...)
}

// POST registers a POST route
func (dg *DomainGroup) POST(relativePath string, handler gin.HandlerFunc, scopes ...string) *DomainGroup {
	return dg.Handle("POST", relativePath, handler, scopes...)
}

// DELETE registers a DELETE route
func (dg *DomainGroup) DELETE(relativePath string, handler gin.HandlerFunc, scopes ...string) *DomainGroup {
	return dg.Handle("DELETE", relativePath, handler, scopes...)
}

// Group creates a sub-group within this domain
func (dg *DomainGroup) Group(name, prefix string) *DomainGroup {
	subgroup := NewDomainGroup(name, prefix)
	dg.subgroups = append(dg.subgroups, subgroup)
	return subgroup
}

func (dg *DomainGroup) mount(parent *gin.RouterGroup) {
	group := parent.Group(dg.prefix)
	for _, gate := range dg.gates {
		group.Use(middleware.RequireScope(gate...))
	}
	if len(dg.middleware) > 0 {
		group.Use(dg.middleware...)
	}

	for _, rt := range dg.routes {
		if len(rt.gate) > 0 {
			group.Handle(rt.method, rt.path, middleware.RequireScope(rt.gate...), rt.handler)
			continue
		}
		group.Handle(rt.method, rt.path, rt.handler)
	}

	for _, subgroup := range dg.subgroups {
		subgroup.mount(group)
	}
}

func (dg *DomainGroup) collect(out []RouteInfo, base string, inherited [][]string) []RouteInfo {
	base = joinPath(base, dg.prefix)
	gates := append(slices.Clone(inherited), dg.gates...)
	for _, rt := range dg.routes {
		routeGates := slices.Clone(gates)
		if len(rt.gate) > 0 {
			routeGates = append(routeGates, rt.gate)
		}
		out = append(out, RouteInfo{Method: rt.method, Path: joinPath(base, rt.path), Gates: routeGates})
	}
	for _, subgroup := range dg.subgroups {
		out = subgroup.collect(out, base, gates)
	}
	return out
}

// joinPath mirrors gin's group path joining, keeping a trailing slash
func joinPath(base, relative string) string {
	if relative == "" {
		return base
	}
	joined := path.Join(base, relative)
	if relative[len(relative)-1] == '/' && joined[len(joined)-1] != '/' {
		return joined + "/"
	}
	return joined
}

// Name returns the group name
func (dg *DomainGroup) Name() string {
	return dg.name
}

// Prefix returns the group prefix
func (dg *DomainGroup) Prefix() string {
	return dg.prefix
}
