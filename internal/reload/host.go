package reload

import "context"

// Host is the process that owns the real build and reset machinery
type Host interface {
	// IsBuilding reports whether a build is in progress
	IsBuilding() bool
	// RefreshAssets rescans project assets and reports whether anything changed
	RefreshAssets(ctx context.Context) (bool, error)
	// RequestCompile asks for a build. With resetAfter the host resets the
	// tracker once the build succeeds.
	RequestCompile(ctx context.Context, resetAfter bool) error
	// RequestReset asks the host to discard and recreate the tracker
	RequestReset(ctx context.Context) error
}
