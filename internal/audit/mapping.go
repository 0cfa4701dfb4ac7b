package audit

import (
	"net/http"
	"strings"
)

// ActionResource holds action and resource derived from an HTTP method and gin route pattern.
type ActionResource struct {
	Action   string
	Resource string
}

// Route overrides, keyed by "METHOD pattern".
var routeOverrides = map[string]ActionResource{
	"PUT /api/notifications/:id/read": {Action: "mark_read", Resource: "notification"},
	"PUT /api/notifications/read-all": {Action: "mark_all_read", Resource: "notification"},
	"POST /api/settings":              {Action: "upsert", Resource: "setting"},
	"PUT /api/auth/profile":           {Action: "update", Resource: "profile"},
	"GET /api/auth/me":                {Action: "get", Resource: "profile"},
	"POST /api/auth/register":         {Action: "register", Resource: "user"},
}

// collectionResource maps the first path segment under /api to its singular resource name.
var collectionResource = map[string]string{
	"complaints":        "complaint",
	"development-works": "development_work",
	"events":            "event",
	"media":             "media",
	"schemes":           "scheme",
	"mla-connect":       "connect",
	"users":             "user",
	"notifications":     "notification",
	"settings":          "setting",
	"dashboard":         "dashboard",
	"audit-logs":        "audit_log",
	"auth":              "auth",
}

// ParseRoute returns action and resource for a request (e.g. "PUT", "/api/complaints/:id").
// Action is a verb: get, list, create, update, delete. Resource is the singular collection name.
// Unrecognized routes yield "unknown".
func ParseRoute(method, route string) ActionResource {
	if ar, ok := routeOverrides[method+" "+route]; ok {
		return ar
	}
	rest, ok := strings.CutPrefix(route, "/api/")
	if !ok || rest == "" {
		return ActionResource{Action: "unknown", Resource: "unknown"}
	}
	segs := strings.Split(strings.Trim(rest, "/"), "/")
	resource, ok := collectionResource[segs[0]]
	if !ok {
		resource = "unknown"
	}
	hasID := len(segs) > 1 && strings.HasPrefix(segs[1], ":")
	return ActionResource{Action: methodToAction(method, hasID), Resource: resource}
}

// Mutating reports whether method changes state and should be audited by the route middleware.
func Mutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

func methodToAction(method string, hasID bool) string {
	switch method {
	case http.MethodGet:
		if hasID {
			return "get"
		}
		return "list"
	case http.MethodPost:
		return "create"
	case http.MethodPut, http.MethodPatch:
		return "update"
	case http.MethodDelete:
		return "delete"
	default:
		return strings.ToLower(method)
	}
}
