// SPDX-License-Identifier: MPL-2.0

// Package kitchen drives Test Kitchen integration runs: it reads the
// instances declared in .kitchen.yml and tests each one with a destroy policy.
package kitchen
