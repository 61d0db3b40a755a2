//go:build prod

package hcc

import (
	"context"
	"errors"
)

// Watch is unavailable in production builds
func (engine *Engine) Watch(ctx context.Context) error {
	return errors.New("watch mode is not available in prod builds")
}

// stopHotReload is a no-op in production builds
func (engine *Engine) stopHotReload(ctx context.Context) error {
	return nil
}
