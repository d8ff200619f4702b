// Package router groups HTTP routes by domain and mounts them under a
// versioned API prefix.
package router

import (
	"net/http"
	"path"

	"github.com/gin-gonic/gin"
)

// RouteRegistrar mounts its routes on a gin group
type RouteRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

// Route is one method and path, relative to the API prefix
type Route struct {
	Method string
	Path   string
}

// Router mounts registrars under /api/<version>
type Router struct {
	engine     *gin.Engine
	apiVersion string
	registrars []RouteRegistrar
}

// RouterOption configures a Router
type RouterOption func(*Router)

// WithAPIVersion sets the version segment of the API prefix
func WithAPIVersion(version string) RouterOption {
	return func(r *Router) {
		r.apiVersion = version
	}
}

func NewRouter(engine *gin.Engine, opts ...RouterOption) *Router {
	r := &Router{engine: engine, apiVersion: "v1"}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register queues a registrar until Setup
func (r *Router) Register(registrar RouteRegistrar) *Router {
	r.registrars = append(r.registrars, registrar)
	return r
}

// BasePath is the prefix every registrar is mounted under
func (r *Router) BasePath() string {
	return "/api/" + r.apiVersion
}

func (r *Router) Setup() {
	api := r.engine.Group(r.BasePath())
	for _, registrar := range r.registrars {
		registrar.RegisterRoutes(api)
	}
}

// Routes lists the routes of registrars that can describe themselves,
// with the API prefix joined in.
func (r *Router) Routes() []Route {
	var out []Route
	for _, registrar := range r.registrars {
		lister, ok := registrar.(interface{ Routes() []Route })
		if !ok {
			continue
		}
		for _, route := range lister.Routes() {
			out = append(out, Route{Method: route.Method, Path: path.Join(r.BasePath(), route.Path)})
		}
	}
	return out
}

// DomainGroup collects the routes of one area (webhooks, membership,
// admin) together with the middleware they share. Middleware set on a
// group covers its subgroups too.
type DomainGroup struct {
	name       string
	prefix     string
	middleware []gin.HandlerFunc
	entries    []entry
	children   []*DomainGroup
}

type entry struct {
	Route
	handlers []gin.HandlerFunc
}

func NewDomainGroup(name, prefix string) *DomainGroup {
	return &DomainGroup{name: name, prefix: prefix}
}

func (dg *DomainGroup) Use(middleware ...gin.HandlerFunc) *DomainGroup {
	dg.middleware = append(dg.middleware, middleware...)
	return dg
}

func (dg *DomainGroup) Handle(method, relativePath string, handlers ...gin.HandlerFunc) *DomainGroup {
	dg.entries = append(dg.entries, entry{Route: Route{Method: method, Path: relativePath}, handlers: handlers})
	return dg
}

func (dg *DomainGroup) GET(relativePath string, handlers ...gin.HandlerFunc) *DomainGroup {
	return dg.Handle(http.MethodGet, relativePath, handlers...)
}

func (dg *DomainGroup) POST(relativePath string, handlers ...gin.HandlerFunc) *DomainGroup {
	return dg.Handle(http.MethodPost, relativePath, handlers...)
}

func (dg *DomainGroup) PATCH(relativePath string, handlers ...gin.HandlerFunc) *DomainGroup {
	return dg.Handle(http.MethodPatch, relativePath, handlers...)
}

// Group adds a child group mounted under this group's prefix
func (dg *DomainGroup) Group(name, prefix string) *DomainGroup {
	child := NewDomainGroup(name, prefix)
	dg.children = append(dg.children, child)
	return child
}

// RegisterRoutes implements RouteRegistrar
func (dg *DomainGroup) RegisterRoutes(rg *gin.RouterGroup) {
	group := rg.Group(dg.prefix, dg.middleware...)
	for _, e := range dg.entries {
		group.Handle(e.Method, e.Path, e.handlers...)
	}
	for _, child := range dg.children {
		child.RegisterRoutes(group)
	}
}

func (dg *DomainGroup) Name() string   { return dg.name }
func (dg *DomainGroup) Prefix() string { return dg.prefix }

// Routes lists every route of the group and its children with the group
// prefixes joined in.
func (dg *DomainGroup) Routes() []Route {
	var out []Route
	dg.collect("/", &out)
	return out
}

func (dg *DomainGroup) collect(parent string, out *[]Route) {
	base := path.Join(parent, dg.prefix)
	for _, e := range dg.entries {
		*out = append(*out, Route{Method: e.Method, Path: path.Join(base, e.Path)})
	}
	for _, child := range dg.children {
		child.collect(base, out)
	}
}

// RouteCount counts the routes of the group and its children
func (dg *DomainGroup) RouteCount() int {
	return len(dg.Routes())
}
