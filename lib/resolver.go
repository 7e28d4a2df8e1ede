package lib

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	input "github.com/tcnksm/go-input"
)

// selectionRetries bounds the interactive chooser so a wedged pipe or a
// confused operator cannot loop forever.
const selectionRetries = 5

// Resolve settles the whole choice: one app out of the catalog, then
// one of that app's roles. Pinned names short-circuit their step; the
// references in the result point into apps.
func Resolve(ui *input.UI, apps []AWSApp, pinnedApp, pinnedRole string) (Selection, error) {
	app, err := ResolveApp(ui, apps, pinnedApp)
	if err != nil {
		return Selection{}, err
	}
	role, err := ResolveRole(ui, app, pinnedRole)
	if err != nil {
		return Selection{}, err
	}
	return Selection{App: app, Role: role}, nil
}

// ResolveApp picks exactly one app: the exact match for a pinned name
// when one is configured, an interactive choice otherwise. The result
// points into apps.
func ResolveApp(ui *input.UI, apps []AWSApp, pinned string) (*AWSApp, error) {
	if pinned != "" {
		for i := range apps {
			if apps[i].Name == pinned {
				return &apps[i], nil
			}
		}
		return nil, &NotFoundError{Kind: "app", Name: pinned}
	}
	names := make([]string, len(apps))
	for i := range apps {
		names[i] = apps[i].Name
	}
	idx, err := chooseIndex(ui, "Pick an app:", names)
	if err != nil {
		return nil, err
	}
	return &apps[idx], nil
}

// ResolveRole picks exactly one of the app's roles the same way.
func ResolveRole(ui *input.UI, app *AWSApp, pinned string) (*AWSRole, error) {
	roles := make([]*AWSRole, 0, len(app.Roles))
	for i := range app.Roles {
		if app.Roles[i].Name == "" {
			continue
		}
		roles = append(roles, &app.Roles[i])
	}
	if len(roles) == 0 {
		return nil, errors.Errorf("no roles available in %s for this user", app.Name)
	}
	if pinned != "" {
		for _, role := range roles {
			if role.Name == pinned {
				return role, nil
			}
		}
		return nil, &NotFoundError{Kind: "role", Name: pinned}
	}
	names := make([]string, len(roles))
	for i := range roles {
		names[i] = roles[i].Name
	}
	idx, err := chooseIndex(ui, "Pick a role:", names)
	if err != nil {
		return nil, err
	}
	return roles[idx], nil
}

// chooseIndex prints a zero-indexed menu once and asks for an integer
// answer. A bad answer, not an integer or outside the menu, costs one
// of the fixed attempts and prompts again.
func chooseIndex(ui *input.UI, header string, names []string) (int, error) {
	fmt.Fprintln(ui.Writer, header)
	for i, name := range names {
		fmt.Fprintf(ui.Writer, "[%d] %s\n", i, name)
	}
	validate := func(s string) error {
		n, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			return errors.New("invalid selection, must be an integer value")
		}
		if n < 0 || n >= len(names) {
			return errors.Errorf("invalid selection, must be between 0 and %d", len(names)-1)
		}
		return nil
	}
	for attempt := 0; attempt < selectionRetries; attempt++ {
		answer, err := ui.Ask("Selection:", &input.Options{
			Required:     true,
			Loop:         false,
			ValidateFunc: validate,
		})
		if err != nil {
			fmt.Fprintln(ui.Writer, err)
			continue
		}
		n, _ := strconv.Atoi(strings.TrimSpace(answer))
		return n, nil
	}
	return 0, ErrInvalidSelection
}
