// SPDX-License-Identifier: MPL-2.0

package kitchen

import "strings"

const (
	// DestroyPassing tears an instance down only when its tests pass.
	DestroyPassing DestroyPolicy = "passing"
	// DestroyAlways tears an instance down after every test run.
	DestroyAlways DestroyPolicy = "always"
	// DestroyNever keeps the instance around for inspection.
	DestroyNever DestroyPolicy = "never"
)

// DestroyPolicy governs whether a test instance is torn down after its run.
type DestroyPolicy string

// ParseDestroyPolicy maps free text onto a policy, case-insensitively:
// "never"/"no" keep the instance, "always"/"yes" destroy it, and anything
// else (including the empty string) falls back to DestroyPassing.
func ParseDestroyPolicy(s string) DestroyPolicy {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "never", "no":
		return DestroyNever
	case "always", "yes":
		return DestroyAlways
	default:
		return DestroyPassing
	}
}

// String returns the value passed to "kitchen test --destroy".
func (p DestroyPolicy) String() string { return string(p) }
