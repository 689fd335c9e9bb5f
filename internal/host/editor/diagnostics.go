package editor

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/celestiaorg/reloader/internal/events"
)

// UnitResult groups the diagnostics reported for one compiled package
type UnitResult struct {
	Unit        string
	Diagnostics []events.Diagnostic
}

var (
	// path/to/file.go:12:4: message
	diagnosticLine = regexp.MustCompile(`^(\S+?\.\w+):(\d+)(?::(\d+))?: (.+)$`)
	// # example.com/module/pkg
	unitHeader = regexp.MustCompile(`^# (\S+)`)
)

// ParseBuildOutput splits compiler output into per-unit diagnostics and
// remaining log lines. Lines indented with a tab continue the previous
// diagnostic.
func ParseBuildOutput(output string) ([]UnitResult, []string) {
	var (
		units []UnitResult
		logs  []string
		cur   *UnitResult
	)

	unit := func(name string) *UnitResult {
		for i := range units {
			if units[i].Unit == name {
				return &units[i]
			}
		}
		units = append(units, UnitResult{Unit: name})
		return &units[len(units)-1]
	}

	for _, raw := range strings.Split(output, "\n") {
		line := strings.TrimRight(raw, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}

		if m := unitHeader.FindStringSubmatch(line); m != nil {
			cur = unit(m[1])
			continue
		}

		if strings.HasPrefix(line, "\t") && cur != nil && len(cur.Diagnostics) > 0 {
			last := &cur.Diagnostics[len(cur.Diagnostics)-1]
			last.Message += " " + strings.TrimSpace(line)
			continue
		}

		if m := diagnosticLine.FindStringSubmatch(line); m != nil {
			if cur == nil {
				cur = unit("")
			}
			cur.Diagnostics = append(cur.Diagnostics, parseDiagnostic(m))
			continue
		}

		logs = append(logs, line)
	}
	return units, logs
}

func parseDiagnostic(m []string) events.Diagnostic {
	d := events.Diagnostic{
		Severity: events.SeverityError,
		File:     strings.TrimPrefix(m[1], "./"),
		Message:  strings.TrimSpace(m[4]),
	}
	d.Line, _ = strconv.Atoi(m[2])
	if m[3] != "" {
		d.Column, _ = strconv.Atoi(m[3])
	}
	lower := strings.ToLower(d.Message)
	switch {
	case strings.HasPrefix(lower, "warning:"):
		d.Severity = events.SeverityWarning
		d.Message = strings.TrimSpace(d.Message[len("warning:"):])
	case strings.HasPrefix(lower, "note:"):
		d.Severity = events.SeverityInfo
		d.Message = strings.TrimSpace(d.Message[len("note:"):])
	}
	return d
}

// hasErrors reports whether any unit carries an error diagnostic
func hasErrors(units []UnitResult) bool {
	for _, u := range units {
		for _, d := range u.Diagnostics {
			if d.Severity == events.SeverityError {
				return true
			}
		}
	}
	return false
}
