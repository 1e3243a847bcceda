// SPDX-License-Identifier: MPL-2.0

package taskgraph

import (
	"fmt"
	"strings"
)

// ParseTaskSpec splits a command-line task reference such as
// "integration[never]" or "build[a, b]" into its name and positional
// arguments. Empty brackets are the same as no brackets.
func ParseTaskSpec(spec string) (name string, args []string, err error) {
	spec = strings.TrimSpace(spec)
	open := strings.IndexByte(spec, '[')
	if open < 0 {
		if strings.ContainsRune(spec, ']') {
			return "", nil, fmt.Errorf("%w: unexpected ']' in %q", ErrInvalidTaskSpec, spec)
		}
		if spec == "" {
			return "", nil, fmt.Errorf("%w: empty task name", ErrInvalidTaskSpec)
		}
		return spec, nil, nil
	}

	name = spec[:open]
	if name == "" {
		return "", nil, fmt.Errorf("%w: empty task name in %q", ErrInvalidTaskSpec, spec)
	}
	if !strings.HasSuffix(spec, "]") {
		return "", nil, fmt.Errorf("%w: missing closing ']' in %q", ErrInvalidTaskSpec, spec)
	}

	inner := spec[open+1 : len(spec)-1]
	if strings.ContainsAny(inner, "[]") {
		return "", nil, fmt.Errorf("%w: nested brackets in %q", ErrInvalidTaskSpec, spec)
	}
	if strings.TrimSpace(inner) == "" {
		return name, nil, nil
	}
	for _, part := range strings.Split(inner, ",") {
		args = append(args, strings.TrimSpace(part))
	}
	return name, args, nil
}
