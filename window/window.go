// Package window opens a non resizable window that Vulkan can present into.
package window

import (
	"fmt"

	"github.com/devblok/trident/core"
)

// Backends that can be configured
const (
	SDL  = "sdl"
	GLFW = "glfw"
)

// Window is a platform window owning its windowing system
type Window interface {
	core.Platform

	// Destroy closes the window and shuts the windowing system down
	Destroy()
}

// New opens a window with the configured backend. Escape or the window
// manager's close button request the window to close.
func New(cfg core.WindowConfiguration) (Window, error) {
	switch cfg.Backend {
	case SDL, "":
		return newSDLWindow(cfg)
	case GLFW:
		return newGLFWWindow(cfg)
	default:
		return nil, fmt.Errorf("unknown window backend %q", cfg.Backend)
	}
}
