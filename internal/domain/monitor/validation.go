package monitor

import (
	"fmt"
	"net/url"
	"strings"
	"unicode"

	"github.com/robfig/cron/v3"

	uperrors "github.com/alexisbeaulieu97/uptimer/pkg/errors"
)

const (
	maxNameLen = 100
	maxURLLen  = 2048
	minInterval = 10
)

// cronParser accepts exactly the 5-field form the scheduler parses
// (minute hour day-of-month month day-of-week); descriptors such as
// "@daily" are rejected.
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// StageTypeKnown reports whether a registered stage constructor exists for
// the given type name. The monitor package takes this as a function rather
// than importing the registry directly, so validation stays decoupled from
// the concrete stage set.
type StageTypeKnown func(stageType string) bool

// Validate enforces the invariants from spec §3: non-empty pipeline, every
// stage type resolves, exactly one of {interval, schedule} effective, tags
// deduplicated, name/url bounds, interval floor.
func Validate(m *Monitor, knownType StageTypeKnown) error {
	if err := validateName(m.Name); err != nil {
		return err
	}
	if err := validateURL(m.URL); err != nil {
		return err
	}
	if len(m.Pipeline) == 0 {
		return uperrors.NewValidationError("pipeline", "must contain at least one stage", nil)
	}
	for i, spec := range m.Pipeline {
		t := spec.Type()
		if t == "" {
			return uperrors.NewValidationError(fmt.Sprintf("pipeline[%d].type", i), "is required", nil)
		}
		if knownType != nil && !knownType(t) {
			return uperrors.NewValidationError(fmt.Sprintf("pipeline[%d].type", i), fmt.Sprintf("unknown stage type %q", t), nil)
		}
	}
	if m.Schedule == "" && m.Interval < minInterval {
		return uperrors.NewValidationError("interval", fmt.Sprintf("must be >= %d seconds", minInterval), nil)
	}
	if m.Schedule != "" {
		if _, err := cronParser.Parse(m.Schedule); err != nil {
			return uperrors.NewValidationError("schedule", "invalid cron expression", err)
		}
	}
	m.Tags = NormalizeTags(m.Tags)
	return nil
}

func validateName(name string) error {
	n := len([]rune(name))
	if n < 1 || n > maxNameLen {
		return uperrors.NewValidationError("name", fmt.Sprintf("must be between 1 and %d characters", maxNameLen), nil)
	}
	for _, r := range name {
		if !unicode.IsPrint(r) {
			return uperrors.NewValidationError("name", "must contain only printable characters", nil)
		}
	}
	return nil
}

// NormalizeURL defaults a missing scheme to https, per §3.
func NormalizeURL(raw string) string {
	if raw == "" {
		return raw
	}
	if !strings.Contains(raw, "://") {
		return "https://" + raw
	}
	return raw
}

func validateURL(raw string) error {
	if len(raw) == 0 || len(raw) > maxURLLen {
		return uperrors.NewValidationError("url", fmt.Sprintf("must be 1-%d characters", maxURLLen), nil)
	}
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Host == "" {
		return uperrors.NewValidationError("url", "must be a valid URL", err)
	}
	return nil
}
