// Package admin provides administrative operations on the data stores.
package admin

import (
	"context"
	"fmt"
	"time"
)

// ResetTimeout is the maximum duration for a reset run.
const ResetTimeout = 30 * time.Second

// ResetFunc clears one store.
type ResetFunc func(ctx context.Context) error

// ResetAll runs every reset in order under ResetTimeout and stops at the
// first failure. This is destructive; callers confirm beforehand.
func ResetAll(ctx context.Context, resets ...ResetFunc) error {
	ctx, cancel := context.WithTimeout(ctx, ResetTimeout)
	defer cancel()

	for i, reset := range resets {
		if err := reset(ctx); err != nil {
			return fmt.Errorf("reset %d of %d: %w", i+1, len(resets), err)
		}
	}
	return nil
}
