// Package middleware implements request authentication and access control.
package middleware

import (
	"strconv"
	"strings"

	"github.com/ncobase/passport/structs"
)

type requirementKind int

const (
	kindPublic requirementKind = iota
	kindAuthenticated
	kindAnyRole
	kindSelfOrRole
)

// Requirement is the access condition attached to a route pattern.
type Requirement struct {
	kind  requirementKind
	roles []structs.Role
}

// Public allows any request, authenticated or not.
func Public() Requirement { return Requirement{kind: kindPublic} }

// IsPublic reports whether the requirement allows anonymous access.
func (r Requirement) IsPublic() bool { return r.kind == kindPublic }

// Authenticated requires a resolved principal, any role.
func Authenticated() Requirement { return Requirement{kind: kindAuthenticated} }

// AnyOf requires one of the given roles.
func AnyOf(roles ...structs.Role) Requirement {
	return Requirement{kind: kindAnyRole, roles: roles}
}

// SelfOr allows the user whose id matches the wildcard path segment, or any
// of the given roles.
func SelfOr(roles ...structs.Role) Requirement {
	return Requirement{kind: kindSelfOrRole, roles: roles}
}

// Rule binds a method and path pattern to a requirement. Pattern segments
// are literal except "*", which matches exactly one segment. Method "*"
// matches any method.
type Rule struct {
	Method  string
	Pattern string
	Require Requirement
}

// PolicyEngine classifies requests against an ordered rule table. The first
// matching rule wins; unmatched requests require authentication, so a new
// endpoint is never accidentally public.
type PolicyEngine struct {
	rules []Rule
}

// NewPolicyEngine creates an engine over the given ordered rules.
func NewPolicyEngine(rules []Rule) *PolicyEngine {
	return &PolicyEngine{rules: rules}
}

// DefaultRules builds the service's access table. Extra whitelist patterns
// from configuration are public for any method.
func DefaultRules(whitelist []string) []Rule {
	rules := []Rule{
		{"POST", "/auth/login", Public()},
		{"POST", "/auth/register", Public()},
		{"POST", "/auth/refresh", Public()},
		{"GET", "/health", Public()},
	}
	for _, pattern := range whitelist {
		rules = append(rules, Rule{"*", pattern, Public()})
	}
	rules = append(rules,
		Rule{"POST", "/auth/logout", Authenticated()},
		Rule{"GET", "/auth/me", Authenticated()},

		Rule{"POST", "/users", AnyOf(structs.RoleAdmin, structs.RoleUser)},
		Rule{"GET", "/users", AnyOf(structs.RoleAdmin, structs.RoleModerator)},
		Rule{"GET", "/users/search", AnyOf(structs.RoleAdmin, structs.RoleModerator)},
		Rule{"GET", "/users/statistics", AnyOf(structs.RoleAdmin, structs.RoleModerator)},
		Rule{"GET", "/users/recent", AnyOf(structs.RoleAdmin, structs.RoleModerator)},
		Rule{"GET", "/users/by-status/*", AnyOf(structs.RoleAdmin, structs.RoleModerator)},
		Rule{"GET", "/users/by-role/*", AnyOf(structs.RoleAdmin, structs.RoleModerator)},
		Rule{"GET", "/users/username/*", Authenticated()},
		Rule{"PATCH", "/users/*/role", AnyOf(structs.RoleAdmin)},
		Rule{"PATCH", "/users/*/status", AnyOf(structs.RoleAdmin, structs.RoleModerator)},
		Rule{"DELETE", "/users/*", AnyOf(structs.RoleAdmin)},
		Rule{"GET", "/users/*", SelfOr(structs.RoleAdmin)},
		Rule{"PUT", "/users/*", SelfOr(structs.RoleAdmin)},
	)
	return rules
}

// Classify returns the requirement for a request and the value of the first
// wildcard segment, if any.
func (e *PolicyEngine) Classify(method, path string) (Requirement, string) {
	segments := splitPath(path)
	for _, rule := range e.rules {
		if rule.Method != "*" && rule.Method != method {
			continue
		}
		if capture, ok := match(splitPath(rule.Pattern), segments); ok {
			return rule.Require, capture
		}
	}
	return Authenticated(), ""
}

// Allowed reports whether the identity satisfies the requirement. capture is
// the wildcard segment used for self matching.
func Allowed(req Requirement, capture string, id *structs.Identity) bool {
	switch req.kind {
	case kindPublic:
		return true
	case kindAuthenticated:
		return id.Authenticated()
	case kindAnyRole:
		return id.HasAnyRole(req.roles...)
	case kindSelfOrRole:
		if !id.Authenticated() {
			return false
		}
		if targetID, err := strconv.ParseInt(capture, 10, 64); err == nil && targetID == id.User.ID {
			return true
		}
		return id.HasAnyRole(req.roles...)
	}
	return false
}

func splitPath(path string) []string {
	return strings.Split(strings.Trim(path, "/"), "/")
}

func match(pattern, segments []string) (string, bool) {
	if len(pattern) != len(segments) {
		return "", false
	}
	capture := ""
	for i, p := range pattern {
		if p == "*" {
			if segments[i] == "" {
				return "", false
			}
			if capture == "" {
				capture = segments[i]
			}
			continue
		}
		if p != segments[i] {
			return "", false
		}
	}
	return capture, true
}
