package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateToolID(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		wantErr bool
	}{
		{"bare name", "get_files", false},
		{"qualified", "filesystem.get_files", false},
		{"empty", "", true},
		{"spaces", "get files", true},
		{"path", "../etc", true},
		{"too long", strings.Repeat("a", MaxIDLength+1), true},
		{"nul", "a\x00b", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateToolID(tt.id, "tool_id", true)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateID(t *testing.T) {
	assert.NoError(t, ValidateID("", "actor", false))
	assert.NoError(t, ValidateID("agent-1_x", "actor", true))
	assert.Error(t, ValidateID("agent.1", "actor", true))
	assert.Error(t, ValidateID("", "actor", true))
}

func TestValidateCategory(t *testing.T) {
	assert.NoError(t, ValidateCategory("filesystem", false))
	assert.NoError(t, ValidateCategory("", false))
	assert.Error(t, ValidateCategory("file system", false))
}

func TestValidateMessage(t *testing.T) {
	assert.NoError(t, ValidateMessage("search log files"))
	assert.Error(t, ValidateMessage(""))
	assert.Error(t, ValidateMessage(strings.Repeat("x", MaxMessageSize+1)))
}

func TestValidateJSONDepth(t *testing.T) {
	shallow := map[string]any{"paths": []any{"/a", "/b"}}
	assert.NoError(t, ValidateJSONDepth(shallow, MaxParamsDepth))

	var deep any = "leaf"
	for range MaxParamsDepth + 2 {
		deep = []any{deep}
	}
	assert.ErrorIs(t, ValidateJSONDepth(deep, MaxParamsDepth), ErrTooDeep)
}
