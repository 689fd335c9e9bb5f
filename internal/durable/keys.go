package durable

import "strings"

// DefaultPrefix namespaces every key written by the tracker
const DefaultPrefix = "reloader"

// Keys builds the durable key layout: one key for the session id, one key
// per job snapshot and one key for the list of active job ids.
type Keys struct {
	prefix string
}

// NewKeys returns the key layout under prefix. An empty prefix uses DefaultPrefix.
func NewKeys(prefix string) Keys {
	prefix = strings.TrimRight(strings.TrimSpace(prefix), ":")
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return Keys{prefix: prefix}
}

// Session is the key holding the session id
func (k Keys) Session() string {
	return k.prefix + ":session_id"
}

// Job is the key holding the snapshot of one job
func (k Keys) Job(id string) string {
	return k.prefix + ":job:" + id
}

// ActiveJobs is the key holding the JSON list of job ids believed running
func (k Keys) ActiveJobs() string {
	return k.prefix + ":active_jobs"
}
