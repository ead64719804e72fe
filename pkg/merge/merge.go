// Package merge applies configuration fragments, typically from an uploaded
// file, to the device. Which sections apply depends on where the fragment was
// dropped: the whole device, a pad's settings or a role's mappings.
package merge

import (
	"errors"
	"fmt"
	"strings"

	"github.com/automatedhome/eavesdrum-bridge/pkg/command"
)

type Filter int

const (
	FilterNone Filter = iota
	FilterSettings
	FilterMappings
)

func (f Filter) String() string {
	switch f {
	case FilterNone:
		return ""
	case FilterSettings:
		return "settings"
	case FilterMappings:
		return "mappings"
	}
	return fmt.Sprintf("Filter(%d)", int(f))
}

// ParseFilter accepts "", "settings" and "mappings".
func ParseFilter(s string) (Filter, error) {
	switch strings.ToLower(s) {
	case "":
		return FilterNone, nil
	case "settings":
		return FilterSettings, nil
	case "mappings":
		return FilterMappings, nil
	}
	return FilterNone, fmt.Errorf("unknown filter %q", s)
}

// DropContext describes the target of a fragment.
type DropContext struct {
	Filter   Filter
	PadIndex *int
	PadRole  string
}

// Fragment is a parsed configuration document holding any subset of the
// sections general, mux, connectors, pads, settings and mappings.
type Fragment map[string]any

// identitySections make a fragment a whole device configuration.
var identitySections = []string{"general", "mux", "connectors", "pads"}

func (f Fragment) section(name string) (map[string]any, bool) {
	m, ok := f[name].(map[string]any)
	return m, ok
}

// Sender delivers commands to the device.
type Sender interface {
	Send(cmd command.Command) error
}

var (
	ErrNoTargetPad    = errors.New("no target pad known")
	ErrNoSettings     = errors.New("no settings found")
	ErrNoMappings     = errors.New("no mappings found")
	ErrNoRoleMappings = errors.New("no mappings found for role")
	ErrNoMatch        = errors.New("no valid config entry found")
	ErrUnreadable     = errors.New("file unreadable")
)

// Plan returns the commands that apply fragment to the target described by
// ctx, without sending them. The trailing config refresh is included.
func Plan(fragment Fragment, ctx DropContext) ([]command.Command, error) {
	cmd, err := decide(fragment, ctx)
	if err != nil {
		return nil, err
	}
	return []command.Command{cmd, command.RequestConfig()}, nil
}

// Apply sends the commands of Plan. Nothing is sent if the fragment does not
// match the context.
func Apply(fragment Fragment, ctx DropContext, sender Sender) error {
	cmds, err := Plan(fragment, ctx)
	if err != nil {
		return err
	}
	for _, cmd := range cmds {
		if err := sender.Send(cmd); err != nil {
			return err
		}
	}
	return nil
}

func decide(fragment Fragment, ctx DropContext) (command.Command, error) {
	switch ctx.Filter {
	case FilterNone:
		for _, name := range identitySections {
			if _, ok := fragment[name]; ok {
				return command.ReplaceConfig(map[string]any(fragment)), nil
			}
		}
		return mappings(fragment, ctx.PadRole)
	case FilterSettings:
		return settings(fragment, ctx)
	case FilterMappings:
		return mappings(fragment, ctx.PadRole)
	}
	return command.Command{}, fmt.Errorf("%w for filter %s", ErrNoMatch, ctx.Filter)
}

// settings looks for the pad settings in settings[role], then in the settings
// section itself and finally in a "preset" section. A settings section keyed by
// role is never sent as a whole.
func settings(fragment Fragment, ctx DropContext) (command.Command, error) {
	if ctx.PadIndex == nil {
		return command.Command{}, ErrNoTargetPad
	}

	var values map[string]any
	if section, ok := fragment.section("settings"); ok {
		if perRole, ok := section[ctx.PadRole].(map[string]any); ok && ctx.PadRole != "" {
			values = perRole
		} else if !byRole(section) {
			values = section
		}
	}
	if len(values) == 0 {
		values, _ = fragment.section("preset")
	}
	if len(values) == 0 {
		return command.Command{}, ErrNoSettings
	}
	return command.PadSettings(*ctx.PadIndex, values), nil
}

// byRole reports whether section holds per-role sub-sections instead of the
// settings of a single pad.
func byRole(section map[string]any) bool {
	for _, v := range section {
		if _, ok := v.(map[string]any); ok {
			return true
		}
	}
	return false
}

func mappings(fragment Fragment, role string) (command.Command, error) {
	section, ok := fragment.section("mappings")
	if !ok || len(section) == 0 {
		return command.Command{}, ErrNoMappings
	}
	if role == "" {
		return command.Mappings(section, true), nil
	}
	values, ok := section[role].(map[string]any)
	if !ok {
		return command.Command{}, fmt.Errorf("%w %q", ErrNoRoleMappings, role)
	}
	return command.RoleMappings(role, values, true), nil
}

// Message turns a merge or import error into text for the user.
func Message(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrUnreadable):
		return "File unreadable: " + strings.TrimPrefix(err.Error(), ErrUnreadable.Error()+": ")
	case errors.Is(err, ErrNoTargetPad):
		return "No target pad known"
	case errors.Is(err, ErrNoSettings):
		return "No settings section found"
	case errors.Is(err, ErrNoRoleMappings):
		return "No mappings found for this role"
	case errors.Is(err, ErrNoMappings):
		return "No mappings section found"
	}
	return "No valid config entry found"
}
