// Package test provides infrastructure and utilities for integration testing in reloader.
//
// The test package implements a complete test environment that wires the
// reload tracker to a real API server and a real API client while keeping
// the host under the control of the test. It can be used both within
// reloader and by external packages that want to test their integration
// with it.
//
// The package provides:
//
//   - TestEnvironment: a struct that manages a complete test setup including
//     a file-based SQLite durable store, the tracker runtime, a real API
//     server and a real API client
//
//   - ScriptedHost: a host whose build state and failures are set by the
//     test, with helpers to emit build signals on the event bus
//
//   - ManualTicker and Clock: deterministic replacements for the host update
//     loop and wall clock
//
// Example Usage:
//
//	func TestExample(t *testing.T) {
//	    env := test.NewTestEnvironment(t)
//	    defer env.Cleanup()
//
//	    sub, err := env.APIClient.TriggerReload(env.Context(), handlers.ReloadParams{
//	        Action: handlers.ActionRefreshAssets,
//	    })
//	    env.Require().NoError(err)
//	    env.Ticker.Fire()
//	}
package test
