package errors

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category Category
	Message  string
	Detail   string
}

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Reactive Errors (E001-E019)
	// ============================================

	"E001": {
		Category: CategoryReactive,
		Message:  "Cyclic computation",
		Detail:   "A memo read itself while it was being computed. Break the cycle by reading one side with Peek or Untracked.",
	},
	"E003": {
		Category: CategoryReactive,
		Message:  "Effect panicked",
		Detail:   "An effect body panicked while the scheduler was flushing. The effect stays subscribed and will run again on the next change.",
	},

	// ============================================
	// Scheduler Errors (E020-E039)
	// ============================================

	"E020": {
		Category: CategoryScheduler,
		Message:  "Loop terminated",
		Detail:   "Work was posted to an event loop that has already been stopped.",
	},
	"E021": {
		Category: CategoryScheduler,
		Message:  "Loop already running",
		Detail:   "Run was called on a loop that is already being driven by another goroutine.",
	},
	"E022": {
		Category: CategoryScheduler,
		Message:  "Storm budget exceeded",
		Detail:   "Too many effect runs happened in a single flush; the remaining effects were deferred to the next tick.",
	},
	"E023": {
		Category: CategoryScheduler,
		Message:  "Async operation panicked",
		Detail:   "A function started with Loop.Go panicked on its goroutine. The panic was converted into the operation's error.",
	},

	// ============================================
	// Component Errors (E100-E139)
	// ============================================

	"E100": {
		Category: CategoryRender,
		Message:  "Render failed",
		Detail:   "The render function of a component, or one of its lifecycle hooks, failed. The affected subtree was destroyed.",
	},
	"E101": {
		Category: CategoryLifecycle,
		Message:  "Function called after end of life",
		Detail:   "A protected callback completed after its component was destroyed; its result was discarded.",
	},
	"E102": {
		Category: CategoryPlugin,
		Message:  "Dependency not started",
		Detail:   "A plugin was requested before it was started. Start plugins with App.StartPlugins and wait for its future before mounting.",
	},
	"E103": {
		Category: CategoryLifecycle,
		Message:  "Application destroyed",
		Detail:   "The application was destroyed, either explicitly or because of an uncaught render error.",
	},
	"E104": {
		Category: CategoryLifecycle,
		Message:  "Invalid mount target",
		Detail:   "Mount requires a non-nil target node.",
	},
	"E105": {
		Category: CategoryLifecycle,
		Message:  "Component destroyed",
		Detail:   "The operation targeted a component that has already been destroyed.",
	},
	"E106": {
		Category: CategoryPlugin,
		Message:  "Unknown plugin",
		Detail:   "No plugin with this id was registered.",
	},
	"E107": {
		Category: CategoryPlugin,
		Message:  "Plugin dependency cycle",
		Detail:   "Plugins depend on each other in a cycle and cannot be started.",
	},
	"E108": {
		Category: CategoryLifecycle,
		Message:  "Already mounted",
		Detail:   "A root can only be mounted once.",
	},
	"E109": {
		Category: CategoryRender,
		Message:  "Unresolved component slot",
		Detail:   "A view tree contains a component placeholder that was not reconciled to a component instance.",
	},
	"E110": {
		Category: CategoryRender,
		Message:  "No event handler",
		Detail:   "The element has no handler for this event, or the handler has an unsupported signature.",
	},

	// ============================================
	// Config Errors (E140-E159)
	// ============================================

	"E140": {
		Category: CategoryConfig,
		Message:  "Invalid loom configuration",
		Detail:   "The configuration file could not be parsed.",
	},
	"E141": {
		Category: CategoryConfig,
		Message:  "Invalid configuration value",
		Detail:   "A configuration value is out of range.",
	},

	// ============================================
	// CLI Errors (E160-E179)
	// ============================================

	"E160": {
		Category: CategoryCLI,
		Message:  "Unknown demo",
		Detail:   "The requested demo scenario does not exist.",
	},
}

// GetAllCodes returns all registered error codes.
func GetAllCodes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	return codes
}

// GetTemplate returns the template for an error code.
func GetTemplate(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}

// Register adds a new error template to the registry.
func Register(code string, template ErrorTemplate) {
	registry[code] = template
}
