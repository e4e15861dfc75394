package reminder

import (
	"context"
	"fmt"

	"github.com/trezcool/ecolage/core"
)

const maxOffset = 365

// Rules holds the day-offsets of the escalation schedule, relative to the due date.
// A reminder of a level fires on due_date + offset for preventive and due_day,
// and on due_date + overdue_level_N for overdue levels.
type Rules struct {
	Preventive    int `json:"preventive" yaml:"preventive"`           // negative: days before the due date
	DueDay        int `json:"due_day" yaml:"due_day"`                 // zero
	OverdueLevel1 int `json:"overdue_level_1" yaml:"overdue_level_1"` // positive: days after the due date
	OverdueLevel2 int `json:"overdue_level_2" yaml:"overdue_level_2"` // positive, after OverdueLevel1
}

func DefaultRules() Rules {
	return Rules{Preventive: -10, DueDay: 0, OverdueLevel1: 3, OverdueLevel2: 7}
}

// Validate returns a *core.ConfigurationError listing every malformed offset.
func (r Rules) Validate() error {
	var flds []core.FieldError
	add := func(field, msg string) {
		flds = append(flds, core.FieldError{Field: field, Error: msg})
	}

	if r.Preventive >= 0 {
		add("preventive", "must be negative")
	} else if r.Preventive < -maxOffset {
		add("preventive", fmt.Sprintf("must be at least -%d", maxOffset))
	}
	if r.DueDay != 0 {
		add("due_day", "must be zero")
	}
	if r.OverdueLevel1 <= 0 {
		add("overdue_level_1", "must be positive")
	} else if r.OverdueLevel1 > maxOffset {
		add("overdue_level_1", fmt.Sprintf("must be at most %d", maxOffset))
	}
	if r.OverdueLevel2 <= r.OverdueLevel1 {
		add("overdue_level_2", "must be greater than overdue_level_1")
	} else if r.OverdueLevel2 > maxOffset {
		add("overdue_level_2", fmt.Sprintf("must be at most %d", maxOffset))
	}

	if flds != nil {
		return core.NewConfigurationError(flds...)
	}
	return nil
}

// Classify returns the level firing `offset` days after the due date (negative: before it).
// Levels are evaluated in priority order preventive, due_day, overdue_level_1, overdue_level_2
// and the first match wins, should offsets ever collide.
func (r Rules) Classify(offset int) (Level, bool) {
	switch offset {
	case r.Preventive:
		return LevelPreventive, true
	case r.DueDay:
		return LevelDueDay, true
	case r.OverdueLevel1:
		return LevelOverdueLevel1, true
	case r.OverdueLevel2:
		return LevelOverdueLevel2, true
	}
	return "", false
}

// RuleStore persists the singleton rule configuration.
type RuleStore interface {
	// GetRules returns ok == false when no rules were ever saved.
	GetRules(ctx context.Context) (rules Rules, ok bool, err error)
	SaveRules(ctx context.Context, rules Rules) error
}
