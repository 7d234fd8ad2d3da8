package rules

import (
	"fmt"
	"strings"
)

// UserPolicy selects how the non-root user rule treats a Dockerfile.
type UserPolicy string

const (
	// UserPolicyRequireUser fails on an explicit root USER and on a final
	// stage with no USER directive at all.
	UserPolicyRequireUser UserPolicy = "require-user"
	// UserPolicyExplicitRoot fails only when the final USER is root.
	UserPolicyExplicitRoot UserPolicy = "explicit-root"
)

func ParseUserPolicy(s string) (UserPolicy, error) {
	switch p := UserPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case UserPolicyRequireUser, UserPolicyExplicitRoot:
		return p, nil
	case "":
		return UserPolicyRequireUser, nil
	}
	return "", fmt.Errorf("unknown user policy %q (want %s or %s)", s, UserPolicyRequireUser, UserPolicyExplicitRoot)
}

type Options struct {
	UserPolicy UserPolicy
	// LayerThreshold is the largest RUN count that still passes. Values
	// below 1 select the default.
	LayerThreshold int
	SensitivePorts []int
}

func DefaultOptions() Options {
	return Options{
		UserPolicy:     UserPolicyRequireUser,
		LayerThreshold: 5,
		SensitivePorts: []int{21, 22, 23},
	}
}

// withDefaults fills zero fields from DefaultOptions.
func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.UserPolicy == "" {
		o.UserPolicy = d.UserPolicy
	}
	if o.LayerThreshold <= 0 {
		o.LayerThreshold = d.LayerThreshold
	}
	if o.SensitivePorts == nil {
		o.SensitivePorts = d.SensitivePorts
	}
	return o
}
