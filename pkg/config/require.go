package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

var ErrMissing = errors.New("missing required env")

// Require returns an error naming every blank entry of settings, keyed by
// env var name.
func Require(settings map[string]string) error {
	var missing []string
	for name, value := range settings {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	slices.Sort(missing)
	return fmt.Errorf("%w: %s", ErrMissing, strings.Join(missing, ", "))
}
