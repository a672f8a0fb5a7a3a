// Package validate provides shared validation functions.
package validate

import (
	"errors"
	"fmt"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/hay-kot/criterio"
)

// Port validates a TCP port number.
func Port(n int) error {
	if n < 1 || n > 65535 {
		return fmt.Errorf("port %d out of range", n)
	}
	return nil
}

// Positive validates n is greater than zero.
func Positive(n int) error {
	if n <= 0 {
		return errors.New("must be a positive number")
	}
	return nil
}

// TopicFilter applies the MQTT filter rules: '#' only as the final level,
// '+' only as a whole level.
func TopicFilter(topic string) error {
	if topic == "" {
		return errors.New("topic cannot be empty")
	}
	levels := strings.Split(topic, "/")
	for i, level := range levels {
		if strings.Contains(level, "#") && (level != "#" || i != len(levels)-1) {
			return fmt.Errorf("topic %q: '#' must be the last level on its own", topic)
		}
		if strings.Contains(level, "+") && level != "+" {
			return fmt.Errorf("topic %q: '+' must occupy a whole level", topic)
		}
	}
	return nil
}

// Glob validates a doublestar pattern.
func Glob(pattern string) error {
	if !doublestar.ValidatePattern(pattern) {
		return fmt.Errorf("invalid glob %q", pattern)
	}
	return nil
}

// TopicFilters validates every filter, reporting each failure under
// field[i].
func TopicFilters(field string, topics []string) error {
	var errs criterio.FieldErrorsBuilder
	for i, topic := range topics {
		if err := TopicFilter(topic); err != nil {
			errs = errs.Append(fmt.Sprintf("%s[%d]", field, i), err)
		}
	}
	return errs.ToError()
}

// Globs validates every pattern, reporting each failure under field[i].
func Globs(field string, patterns []string) error {
	var errs criterio.FieldErrorsBuilder
	for i, pattern := range patterns {
		if err := Glob(pattern); err != nil {
			errs = errs.Append(fmt.Sprintf("%s[%d]", field, i), err)
		}
	}
	return errs.ToError()
}
