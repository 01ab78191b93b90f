package errors

import (
	"maps"
	"slices"
)

// Template describes a registered error code.
type Template struct {
	Category    Category
	Message     string
	Explanation string
}

var registry = map[string]Template{
	// render, E100-E109
	"E101": {
		Category:    CategoryRender,
		Message:     "Malformed element description",
		Explanation: "A child is neither an element nor a primitive that can become a text node. Only *Element, string, numeric and bool children are accepted.",
	},
	"E102": {
		Category:    CategoryRender,
		Message:     "Hook order changed",
		Explanation: "A component called UseState a different number of times than on its previous render. Hooks must be called unconditionally and in the same order on every render.",
	},
	"E103": {
		Category:    CategoryRender,
		Message:     "State hook used outside component render",
		Explanation: "UseState can only be called while a component function is being invoked by the reconciler.",
	},
	"E104": {
		Category:    CategoryCommit,
		Message:     "No host parent found during commit",
		Explanation: "Walking up from a fiber reached the top of the tree without finding an ancestor that owns a host node. The fiber tree was built incorrectly; the commit cannot continue.",
	},
	"E105": {
		Category:    CategoryHost,
		Message:     "Foreign host node",
		Explanation: "A node handed to the host bridge was not created by that bridge.",
	},
	"E106": {
		Category:    CategoryRender,
		Message:     "Invalid element tag",
		Explanation: "An element tag must be a non-empty string, a *Component, or a component function.",
	},
	"E107": {
		Category:    CategoryRender,
		Message:     "State updated during render",
		Explanation: "A state setter was called while a component function was running. Call setters from event handlers, not from render; the pass is aborted and the update is dropped.",
	},

	// scheduler, E110-E119
	"E110": {
		Category:    CategoryScheduler,
		Message:     "Idle loop terminated",
		Explanation: "Work was submitted to an idle loop after it stopped.",
	},
	"E111": {
		Category:    CategoryScheduler,
		Message:     "Idle loop already running",
		Explanation: "Run was called on an idle loop that is already running.",
	},

	// config, E120-E149
	"E120": {
		Category:    CategoryConfig,
		Message:     "Invalid configuration",
		Explanation: "The configuration file could not be read or parsed.",
	},
	"E121": {
		Category:    CategoryConfig,
		Message:     "Invalid configuration value",
		Explanation: "A configuration value is out of range or malformed.",
	},
	"E141": {
		Category:    CategoryConfig,
		Message:     "Configuration file not found",
		Explanation: "No fibers.json, fibers.yaml or fibers.yml was found.",
	},

	// protocol, E160-E169
	"E160": {
		Category:    CategoryProtocol,
		Message:     "Malformed mutation frame",
		Explanation: "A mutation frame could not be decoded.",
	},
}

// Codes returns the registered error codes, sorted.
func Codes() []string {
	return slices.Sorted(maps.Keys(registry))
}

// Lookup returns the template registered for code.
func Lookup(code string) (Template, bool) {
	t, ok := registry[code]
	return t, ok
}
