package models

import (
	"fmt"
	"strings"
)

// Role is the closed set of account roles.
type Role string

const (
	RoleCustomer  Role = "customer"
	RoleAssociate Role = "associate"
	RoleAdmin     Role = "admin"
)

// ParseRole maps user input onto a Role. It is the only place role strings are
// normalised.
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "customer", "user":
		return RoleCustomer, nil
	case "associate", "sales", "sales_associate":
		return RoleAssociate, nil
	case "admin", "administrator":
		return RoleAdmin, nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// IsStaff reports whether the role may open the lead dashboards.
func (r Role) IsStaff() bool {
	switch r {
	case RoleAdmin, RoleAssociate:
		return true
	case RoleCustomer:
		return false
	}
	return false
}

// Actor is the authenticated caller of a dashboard operation.
type Actor struct {
	UserID string
	Role   Role
}
