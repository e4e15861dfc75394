package reminder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/ecolage/core"
)

func TestRules_Validate(t *testing.T) {
	tests := []struct {
		name       string
		rules      Rules
		wantFields []string
	}{
		{name: "defaults", rules: DefaultRules()},
		{name: "custom", rules: Rules{Preventive: -5, DueDay: 0, OverdueLevel1: 1, OverdueLevel2: 30}},
		{name: "zero value", rules: Rules{}, wantFields: []string{"preventive", "overdue_level_1", "overdue_level_2"}},
		{name: "positive preventive", rules: Rules{Preventive: 2, OverdueLevel1: 3, OverdueLevel2: 7}, wantFields: []string{"preventive"}},
		{name: "preventive too early", rules: Rules{Preventive: -400, OverdueLevel1: 3, OverdueLevel2: 7}, wantFields: []string{"preventive"}},
		{name: "shifted due day", rules: Rules{Preventive: -10, DueDay: 1, OverdueLevel1: 3, OverdueLevel2: 7}, wantFields: []string{"due_day"}},
		{name: "negative overdue", rules: Rules{Preventive: -10, OverdueLevel1: -3, OverdueLevel2: 7}, wantFields: []string{"overdue_level_1"}},
		{name: "levels out of order", rules: Rules{Preventive: -10, OverdueLevel1: 7, OverdueLevel2: 7}, wantFields: []string{"overdue_level_2"}},
		{name: "overdue too late", rules: Rules{Preventive: -10, OverdueLevel1: 3, OverdueLevel2: 366}, wantFields: []string{"overdue_level_2"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.rules.Validate()
			if tt.wantFields == nil {
				assert.NoError(t, err)
				return
			}
			require.IsType(t, &core.ConfigurationError{}, err)
			var fields []string
			for _, f := range err.(*core.ConfigurationError).Fields {
				fields = append(fields, f.Field)
			}
			assert.Equal(t, tt.wantFields, fields)
		})
	}
}

func TestRules_Classify(t *testing.T) {
	rules := DefaultRules()

	tests := []struct {
		offset int // days from the due date to today
		want   Level
		wantOK bool
	}{
		{offset: -11},
		{offset: -10, want: LevelPreventive, wantOK: true},
		{offset: -9},
		{offset: 0, want: LevelDueDay, wantOK: true},
		{offset: 1},
		{offset: 3, want: LevelOverdueLevel1, wantOK: true},
		{offset: 7, want: LevelOverdueLevel2, wantOK: true},
		{offset: 8},
	}
	for _, tt := range tests {
		got, ok := rules.Classify(tt.offset)
		assert.Equal(t, tt.wantOK, ok, "offset %d", tt.offset)
		assert.Equal(t, tt.want, got, "offset %d", tt.offset)
	}

	// colliding offsets resolve in priority order
	lvl, ok := Rules{Preventive: -3, OverdueLevel1: -3, OverdueLevel2: 7}.Classify(-3)
	assert.True(t, ok)
	assert.Equal(t, LevelPreventive, lvl)
}
