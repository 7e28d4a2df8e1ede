package lib

import (
	"errors"
	"fmt"
)

var (
	// ErrNoAWSAccounts means the catalog came back empty: the user has
	// no AWS app with at least one usable role.
	ErrNoAWSAccounts = errors.New("no AWS accounts found")

	// ErrInvalidSelection means the interactive chooser ran out of
	// attempts without receiving a usable answer.
	ErrInvalidSelection = errors.New("invalid selection, giving up")
)

// NotFoundError reports a pinned app or role name that matched nothing
// in the candidate set.
type NotFoundError struct {
	Kind string // "app" or "role"
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("AWS %s %s not found for this user", e.Kind, e.Name)
}

// MissingConfigError names a configuration key the run cannot proceed
// without.
type MissingConfigError struct {
	Key string
}

func (e *MissingConfigError) Error() string {
	return fmt.Sprintf("no %s in configuration, try running --configure again", e.Key)
}
