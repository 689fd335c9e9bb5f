package models

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDurableEntry_Validate(t *testing.T) {
	tests := []struct {
		name    string
		entry   DurableEntry
		wantErr bool
	}{
		{name: "valid entry", entry: DurableEntry{Key: "reloader:session_id", Value: "abc"}},
		{name: "empty value is allowed", entry: DurableEntry{Key: "reloader:active_jobs"}},
		{name: "blank key", entry: DurableEntry{Key: "   "}, wantErr: true},
		{name: "key too long", entry: DurableEntry{Key: strings.Repeat("k", 256)}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.entry.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
