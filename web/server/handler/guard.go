package handler

import (
	"fmt"
	"net/http"
	"net/netip"
	"reflect"

	"github.com/zpatrick/rbac"
	"go4.org/netipx"
)

type requireRole struct {
	role string
}

// RequireRole returns a step that only allows identities with the given role.
// It must run after a step that provides the identity. Other roles get a 403
// response, which ends the chain.
func RequireRole(role string) Step {
	return requireRole{role: role}
}

func (g requireRole) Serve(c *Context) (*Response, error) {
	id, ok := c.Identity()
	if !ok {
		return nil, fmt.Errorf("%w: identity", ErrMissingAttribute)
	}

	if id.Role != g.role {
		c.Logger().Debug("access denied", "required_role", g.role, "role", id.Role)
		return forbidden(fmt.Sprintf("Access denied. This route is only for %ss.", g.role)), nil
	}

	return c.Next()
}

func (requireRole) Requires() []Capability {
	return []Capability{CapIdentity}
}

func (g requireRole) Name() string {
	return fmt.Sprintf("RequireRole(%s)", g.role)
}

type requireAttribute struct {
	key   string
	value any
}

// RequireAttribute returns a step that only continues if the Context attribute
// key is equal to value. A missing attribute is an error in the chain setup,
// not a client error.
func RequireAttribute(key string, value any) Step {
	return requireAttribute{key: key, value: value}
}

func (g requireAttribute) Serve(c *Context) (*Response, error) {
	v, ok := c.Attribute(g.key)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingAttribute, g.key)
	}

	if !reflect.DeepEqual(v, g.value) {
		return forbidden("Access denied."), nil
	}

	return c.Next()
}

func (g requireAttribute) Name() string {
	return fmt.Sprintf("RequireAttribute(%s)", g.key)
}

// Policy is a role-based access control policy. Each role grants a set of
// permissions, and identities are matched to roles by name.
type Policy struct {
	roles map[string]rbac.Role
}

// NewPolicy returns a new Policy with the given roles.
func NewPolicy(roles ...rbac.Role) *Policy {
	p := &Policy{roles: make(map[string]rbac.Role, len(roles))}
	for _, r := range roles {
		p.roles[r.RoleID] = r
	}

	return p
}

// Can reports whether the role is allowed to perform action on target.
// Unknown roles aren't allowed anything.
func (p *Policy) Can(role, action, target string) (bool, error) {
	r, ok := p.roles[role]
	if !ok {
		return false, nil
	}

	can, err := r.Can(action, target)
	if err != nil {
		return false, fmt.Errorf("failed checking permission of role '%s': %w", role, err)
	}

	return can, nil
}

type policyGuard struct {
	policy         *Policy
	action, target string
}

// Require returns a step that only allows identities whose role can perform
// action on target.
func (p *Policy) Require(action, target string) Step {
	return policyGuard{policy: p, action: action, target: target}
}

func (g policyGuard) Serve(c *Context) (*Response, error) {
	id, ok := c.Identity()
	if !ok {
		return nil, fmt.Errorf("%w: identity", ErrMissingAttribute)
	}

	can, err := g.policy.Can(id.Role, g.action, g.target)
	if err != nil {
		return nil, err
	}
	if !can {
		return forbidden(fmt.Sprintf("Access denied. Role '%s' is not allowed to %s %s.",
			id.Role, g.action, g.target)), nil
	}

	return c.Next()
}

func (policyGuard) Requires() []Capability {
	return []Capability{CapIdentity}
}

func (g policyGuard) Name() string {
	return fmt.Sprintf("Require(%s %s)", g.action, g.target)
}

type allowNetworks struct {
	set *netipx.IPSet
}

// AllowNetworks returns a step that only allows clients whose address is
// within set.
func AllowNetworks(set *netipx.IPSet) Step {
	if set == nil {
		panic("handler: nil IPSet")
	}
	return allowNetworks{set: set}
}

func (g allowNetworks) Serve(c *Context) (*Response, error) {
	addr, err := clientAddr(c.Request().RemoteAddr)
	if err != nil || !g.set.Contains(addr) {
		c.Logger().Debug("client address not allowed", "remote_addr", c.Request().RemoteAddr)
		return forbidden("Access denied."), nil
	}

	return c.Next()
}

func (allowNetworks) Name() string {
	return "AllowNetworks"
}

func clientAddr(remoteAddr string) (netip.Addr, error) {
	if ap, err := netip.ParseAddrPort(remoteAddr); err == nil {
		return ap.Addr().Unmap(), nil
	}
	addr, err := netip.ParseAddr(remoteAddr)
	if err != nil {
		return netip.Addr{}, fmt.Errorf("failed parsing client address '%s': %w", remoteAddr, err)
	}

	return addr.Unmap(), nil
}

// ParseNetworks parses one or more IP address strings in plain, CIDR or range
// notation, and returns an IP set containing them.
func ParseNetworks(ipAddr ...string) (*netipx.IPSet, error) {
	var b netipx.IPSetBuilder
	for _, ip := range ipAddr {
		if addr, err := netip.ParseAddr(ip); err == nil {
			b.Add(addr)
			continue
		}
		if cidr, err := netip.ParsePrefix(ip); err == nil {
			b.AddPrefix(cidr)
			continue
		}
		ipRange, err := netipx.ParseIPRange(ip)
		if err != nil {
			return nil, fmt.Errorf("failed parsing IP address '%s': %w", ip, err)
		}
		b.AddRange(ipRange)
	}

	ipSet, err := b.IPSet()
	if err != nil {
		return nil, fmt.Errorf("failed building IP set: %w", err)
	}

	return ipSet, nil
}

func forbidden(msg string) *Response {
	return Error(http.StatusForbidden, msg)
}
