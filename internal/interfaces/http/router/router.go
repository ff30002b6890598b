// Package router assembles the gin engine of the Stoflow API.
package router

import (
	"net/http"
	"path"
	"sort"

	"github.com/gin-gonic/gin"
)

// APIPrefix is the mount point of every versioned group
const APIPrefix = "/api/v1"

// RouteRegistrar mounts its routes on a parent group
type RouteRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

// Route describes one mounted endpoint
type Route struct {
	Group  string
	Method string
	Path   string
	Public bool
}

// Router mounts domain groups under APIPrefix. Protected groups sit behind
// the auth chain added with Use, public groups only get their own middleware.
type Router struct {
	engine    *gin.Engine
	authChain []gin.HandlerFunc
	groups    []*DomainGroup
}

// NewRouter creates a Router on engine
func NewRouter(engine *gin.Engine) *Router {
	return &Router{engine: engine}
}

// Use appends middleware to the protected chain. Call before Setup.
func (r *Router) Use(middleware ...gin.HandlerFunc) *Router {
	r.authChain = append(r.authChain, middleware...)
	return r
}

// Register queues a group for Setup
func (r *Router) Register(groups ...*DomainGroup) *Router {
	r.groups = append(r.groups, groups...)
	return r
}

// Setup mounts every registered group on the engine
func (r *Router) Setup() {
	public := r.engine.Group(APIPrefix)
	protected := r.engine.Group(APIPrefix, r.authChain...)
	for _, g := range r.groups {
		if g.public {
			g.RegisterRoutes(public)
		} else {
			g.RegisterRoutes(protected)
		}
	}
}

// Routes lists what Setup mounts, sorted by path then method
func (r *Router) Routes() []Route {
	var routes []Route
	for _, g := range r.groups {
		routes = g.collect(APIPrefix, g.public, routes)
	}
	sort.Slice(routes, func(i, j int) bool {
		if routes[i].Path != routes[j].Path {
			return routes[i].Path < routes[j].Path
		}
		return routes[i].Method < routes[j].Method
	})
	return routes
}

// DomainGroup collects the routes of one API area (jobs, batches, mappings...)
type DomainGroup struct {
	name       string
	prefix     string
	public     bool
	routes     []routeDefinition
	subgroups  []*DomainGroup
	middleware []gin.HandlerFunc
}

type routeDefinition struct {
	method   string
	path     string
	handlers []gin.HandlerFunc
}

// NewDomainGroup creates a protected group
func NewDomainGroup(name, prefix string) *DomainGroup {
	return &DomainGroup{name: name, prefix: prefix}
}

// Public exempts the group from the protected chain
func (dg *DomainGroup) Public() *DomainGroup {
	dg.public = true
	return dg
}

// Use adds middleware to this group
func (dg *DomainGroup) Use(middleware ...gin.HandlerFunc) *DomainGroup {
	dg.middleware = append(dg.middleware, middleware...)
	return dg
}

// Handle registers a route for any method
func (dg *DomainGroup) Handle(method, p string, handlers ...gin.HandlerFunc) *DomainGroup {
	dg.routes = append(dg.routes, routeDefinition{method: method, path: p, handlers: handlers})
	return dg
}

// GET registers a GET route
func (dg *DomainGroup) GET(p string, handlers ...gin.HandlerFunc) *DomainGroup {
	return dg.Handle(http.MethodGet, p, handlers...)
}

// POST registers a POST route
func (dg *DomainGroup) POST(p string, handlers ...gin.HandlerFunc) *DomainGroup {
	return dg.Handle(http.MethodPost, p, handlers...)
}

// DELETE registers a DELETE route
func (dg *DomainGroup) DELETE(p string, handlers ...gin.HandlerFunc) *DomainGroup {
	return dg.Handle(http.MethodDelete, p, handlers...)
}

// Group creates a sub-group; it inherits the parent's visibility
func (dg *DomainGroup) Group(name, prefix string) *DomainGroup {
	subgroup := NewDomainGroup(name, prefix)
	dg.subgroups = append(dg.subgroups, subgroup)
	return subgroup
}

// RegisterRoutes implements RouteRegistrar
func (dg *DomainGroup) RegisterRoutes(rg *gin.RouterGroup) {
	group := rg.Group(dg.prefix, dg.middleware...)
	for _, route := range dg.routes {
		group.Handle(route.method, route.path, route.handlers...)
	}
	for _, subgroup := range dg.subgroups {
		subgroup.RegisterRoutes(group)
	}
}

func (dg *DomainGroup) collect(base string, public bool, out []Route) []Route {
	base = path.Join(base, dg.prefix)
	for _, route := range dg.routes {
		full := base
		if route.path != "" {
			full = path.Join(base, route.path)
		}
		out = append(out, Route{Group: dg.name, Method: route.method, Path: full, Public: public})
	}
	for _, subgroup := range dg.subgroups {
		out = subgroup.collect(base, public, out)
	}
	return out
}

// Name returns the group name
func (dg *DomainGroup) Name() string {
	return dg.name
}

// Prefix returns the group prefix
func (dg *DomainGroup) Prefix() string {
	return dg.prefix
}
