// Package remnawave translates resource/operation (or action) selections into
// calls against the Remnawave user-management API.
package remnawave

import (
	"fmt"
	"net/http"
	"net/url"
	"sort"
)

// RouteKey selects one route by resource and operation.
type RouteKey struct {
	Resource  string `json:"resource"`
	Operation string `json:"operation"`
}

func (k RouteKey) String() string {
	return k.Resource + "." + k.Operation
}

// ParamType is the declared type of a route parameter.
type ParamType string

const (
	ParamString         ParamType = "string"
	ParamNumber         ParamType = "number"
	ParamBoolean        ParamType = "boolean"
	ParamJSON           ParamType = "json"
	ParamIdentifierType ParamType = "identifierType"
)

// ParamSpec declares one input parameter of a route. Aliases are looked up in
// order when Name is absent from the record.
type ParamSpec struct {
	Name     string      `json:"name"`
	Aliases  []string    `json:"aliases,omitempty"`
	Type     ParamType   `json:"type"`
	Required bool        `json:"required"`
	Default  interface{} `json:"default,omitempty"`
}

// Route describes one remote API capability.
type Route struct {
	Key    RouteKey
	Method string
	Params []ParamSpec

	// Path returns the path relative to the base URL, query string included.
	Path func(Params) string
	// Body returns the request body, or nil when the route sends none.
	Body func(Params) map[string]interface{}
	// Subject names the identifier involved, for error messages.
	Subject func(Params) string
	// NotFound builds the message for a remote 404. Nil means a 404 is an
	// ordinary API error.
	NotFound func(Params) string

	// UnwrapPath is the envelope path the normalizer extracts.
	UnwrapPath []string
	Pagination bool
}

// Name is the dotted route name used in logs, metrics and error messages.
func (r *Route) Name() string {
	return r.Key.String()
}

// Identifier types accepted by users.get.
const (
	IdentifierUUID       = "uuid"
	IdentifierShortUUID  = "short-uuid"
	IdentifierID         = "id"
	IdentifierUsername   = "username"
	IdentifierTelegramID = "telegram-id"
	IdentifierEmail      = "email"
)

var identifierTypes = map[string]struct{}{
	IdentifierUUID:       {},
	IdentifierShortUUID:  {},
	IdentifierID:         {},
	IdentifierUsername:   {},
	IdentifierTelegramID: {},
	IdentifierEmail:      {},
}

// IdentifierTypes returns the accepted identifier types, sorted.
func IdentifierTypes() []string {
	types := make([]string, 0, len(identifierTypes))
	for t := range identifierTypes {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

const (
	defaultPageStart = 0
	defaultPageSize  = 25
)

var (
	userFieldsParam  = ParamSpec{Name: "fields", Aliases: []string{"updateFields"}, Type: ParamJSON, Required: true}
	deviceOwnerParam = ParamSpec{Name: "userUuid", Type: ParamString, Required: true}
)

func userUUIDParam(aliases ...string) ParamSpec {
	return ParamSpec{Name: "uuid", Aliases: aliases, Type: ParamString, Required: true}
}

var routes = buildRoutes()

// actions maps the single action names onto route keys.
var actions = map[string]RouteKey{
	"createUser":         {"users", "create"},
	"getUsers":           {"users", "getAll"},
	"checkUser":          {"users", "get"},
	"updateUser":         {"users", "update"},
	"deleteUser":         {"users", "delete"},
	"revokeSubscription": {"users", "revoke"},
	"disableUser":        {"users", "disable"},
	"enableUser":         {"users", "enable"},
	"resetUserTraffic":   {"users", "resetTraffic"},
	"getHWID":            {"hwid", "getForUser"},
	"deleteHWID":         {"hwid", "delete"},
	"deleteAllHWID":      {"hwid", "deleteAllForUser"},
	"getAllHWID":         {"hwid", "getAll"},
}

func init() {
	for action, key := range actions {
		if _, ok := routes[key]; !ok {
			panic(fmt.Sprintf("remnawave: action %q points at unknown route %s", action, key))
		}
	}
	for key, route := range routes {
		if route.Key != key {
			panic(fmt.Sprintf("remnawave: route registered as %s declares key %s", key, route.Key))
		}
		if route.Path == nil {
			panic(fmt.Sprintf("remnawave: route %s has no path builder", key))
		}
	}
}

func buildRoutes() map[RouteKey]*Route {
	list := []*Route{
		{
			Key:    RouteKey{"users", "create"},
			Method: http.MethodPost,
			Params: []ParamSpec{userFieldsParam},
			Path:   func(Params) string { return "/users" },
			Body:   func(p Params) map[string]interface{} { return shallowCopy(p.Object("fields")) },
		},
		{
			Key:    RouteKey{"users", "getAll"},
			Method: http.MethodGet,
			Params: []ParamSpec{
				{Name: "start", Aliases: []string{"offset"}, Type: ParamNumber, Default: float64(defaultPageStart)},
				{Name: "size", Aliases: []string{"limit"}, Type: ParamNumber, Default: float64(defaultPageSize)},
				{Name: "returnAll", Type: ParamBoolean, Default: false},
			},
			Path:       usersPagePath,
			Pagination: true,
		},
		{
			Key:    RouteKey{"users", "get"},
			Method: http.MethodGet,
			Params: []ParamSpec{
				{Name: "identifierType", Type: ParamIdentifierType, Default: IdentifierUUID},
				{Name: "identifierValue", Aliases: []string{"identifier"}, Type: ParamString, Required: true},
			},
			Path: func(p Params) string {
				return userLookupPath(p.String("identifierType"), p.String("identifierValue"))
			},
			Subject: func(p Params) string {
				return p.String("identifierType") + ": " + p.String("identifierValue")
			},
			NotFound: func(p Params) string {
				return fmt.Sprintf("User not found with %s: %s", p.String("identifierType"), p.String("identifierValue"))
			},
		},
		{
			Key:    RouteKey{"users", "update"},
			Method: http.MethodPatch,
			Params: []ParamSpec{userUUIDParam("updateUuid"), userFieldsParam},
			Path:   userPath(""),
			Body: func(p Params) map[string]interface{} {
				return shallowCopy(p.Object("fields"))
			},
			Subject:  uuidSubject,
			NotFound: userUUIDNotFound,
		},
		{
			Key:      RouteKey{"users", "delete"},
			Method:   http.MethodDelete,
			Params:   []ParamSpec{userUUIDParam("deleteIdentifierValue", "identifierValue")},
			Path:     userPath(""),
			Subject:  uuidSubject,
			NotFound: userUUIDNotFound,
		},
		userActionRoute("revoke", "revoke", "revokeUuid"),
		userActionRoute("disable", "disable"),
		userActionRoute("enable", "enable"),
		userActionRoute("resetTraffic", "reset-traffic"),
		{
			Key:        RouteKey{"hwid", "getForUser"},
			Method:     http.MethodGet,
			Params:     []ParamSpec{deviceOwnerParam},
			Path:       func(p Params) string { return "/hwid/devices/" + url.PathEscape(p.String("userUuid")) },
			Subject:    ownerSubject,
			UnwrapPath: []string{"response", "devices"},
		},
		{
			Key:    RouteKey{"hwid", "delete"},
			Method: http.MethodPost,
			Params: []ParamSpec{
				deviceOwnerParam,
				{Name: "hwid", Type: ParamString, Required: true},
			},
			Path: func(Params) string { return "/hwid/devices/delete" },
			Body: func(p Params) map[string]interface{} {
				return map[string]interface{}{
					"userUuid": p.String("userUuid"),
					"hwid":     p.String("hwid"),
				}
			},
			Subject: func(p Params) string {
				return "userUuid: " + p.String("userUuid") + ", hwid: " + p.String("hwid")
			},
		},
		{
			Key:     RouteKey{"hwid", "deleteAllForUser"},
			Method:  http.MethodDelete,
			Params:  []ParamSpec{deviceOwnerParam},
			Path:    func(p Params) string { return "/hwid/devices/" + url.PathEscape(p.String("userUuid")) + "/all" },
			Subject: ownerSubject,
		},
		{
			Key:        RouteKey{"hwid", "getAll"},
			Method:     http.MethodGet,
			Path:       func(Params) string { return "/hwid/devices" },
			UnwrapPath: []string{"response", "devices"},
		},
	}

	table := make(map[RouteKey]*Route, len(list))
	for _, route := range list {
		if _, dup := table[route.Key]; dup {
			panic(fmt.Sprintf("remnawave: duplicate route %s", route.Key))
		}
		table[route.Key] = route
	}
	return table
}

// userActionRoute builds the POST /users/{uuid}/actions/{name} routes, which
// always carry an empty object body.
func userActionRoute(operation, action string, aliases ...string) *Route {
	return &Route{
		Key:      RouteKey{"users", operation},
		Method:   http.MethodPost,
		Params:   []ParamSpec{userUUIDParam(aliases...)},
		Path:     userPath("/actions/" + action),
		Body:     func(Params) map[string]interface{} { return map[string]interface{}{} },
		Subject:  uuidSubject,
		NotFound: userUUIDNotFound,
	}
}

func userPath(suffix string) func(Params) string {
	return func(p Params) string {
		return "/users/" + url.PathEscape(p.String("uuid")) + suffix
	}
}

// userLookupPath keeps the remote asymmetry: uuid lookups have no "by-" prefix.
func userLookupPath(identifierType, value string) string {
	if identifierType == IdentifierUUID {
		return "/users/" + url.PathEscape(value)
	}
	return "/users/by-" + identifierType + "/" + url.PathEscape(value)
}

func usersPagePath(p Params) string {
	query := url.Values{}
	query.Set("start", formatNumber(p.Number("start")))
	if !p.Bool("returnAll") {
		query.Set("size", formatNumber(p.Number("size")))
	}
	return "/users?" + query.Encode()
}

func uuidSubject(p Params) string  { return "uuid: " + p.String("uuid") }
func ownerSubject(p Params) string { return "userUuid: " + p.String("userUuid") }

func userUUIDNotFound(p Params) string {
	return "User not found with UUID: " + p.String("uuid")
}

// Lookup returns the route registered for key.
func Lookup(key RouteKey) (*Route, bool) {
	route, ok := routes[key]
	return route, ok
}

// ActionKey resolves an action name to its route key.
func ActionKey(action string) (RouteKey, bool) {
	key, ok := actions[action]
	return key, ok
}

// Routes returns every route ordered by name.
func Routes() []*Route {
	list := make([]*Route, 0, len(routes))
	for _, route := range routes {
		list = append(list, route)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name() < list[j].Name() })
	return list
}

// Actions returns the action name to route key mapping.
func Actions() map[string]RouteKey {
	out := make(map[string]RouteKey, len(actions))
	for k, v := range actions {
		out[k] = v
	}
	return out
}

func shallowCopy(src map[string]interface{}) map[string]interface{} {
	dst := make(map[string]interface{}, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
