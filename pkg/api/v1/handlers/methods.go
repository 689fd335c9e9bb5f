// Package handlers provides HTTP request handling
package handlers

import "github.com/celestiaorg/reloader/internal/reload"

// Reload actions accepted by the reload endpoint
const (
	ActionRefreshAssets    = string(reload.ActionRefreshAssets)
	ActionCompileScripts   = string(reload.ActionCompileScripts)
	ActionDomainReload     = string(reload.ActionDomainReload)
	ActionCompileAndReload = string(reload.ActionCompileAndReload)
	// ActionGetStatus polls an existing job
	ActionGetStatus = "get_status"
)

// IsJobAction checks if the given action starts a new job
func IsJobAction(action string) bool {
	switch action {
	case ActionRefreshAssets, ActionCompileScripts, ActionDomainReload, ActionCompileAndReload:
		return true
	default:
		return false
	}
}
