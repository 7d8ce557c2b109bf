package window

import (
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/veandco/go-sdl2/sdl"

	"github.com/devblok/trident/core"
)

func TestUnknownBackend(t *testing.T) {
	c := qt.New(t)
	_, err := New(core.WindowConfiguration{Backend: "gtk", Width: 800, Height: 600})
	c.Assert(err, qt.ErrorMatches, `unknown window backend "gtk"`)
}

func TestSDLCloseEvents(t *testing.T) {
	c := qt.New(t)
	c.Assert(closeRequested(&sdl.QuitEvent{Type: sdl.QUIT}), qt.IsTrue)
	c.Assert(closeRequested(&sdl.KeyboardEvent{
		Type:   sdl.KEYDOWN,
		Keysym: sdl.Keysym{Sym: sdl.K_ESCAPE},
	}), qt.IsTrue)
	c.Assert(closeRequested(&sdl.KeyboardEvent{
		Type:   sdl.KEYUP,
		Keysym: sdl.Keysym{Sym: sdl.K_ESCAPE},
	}), qt.IsFalse)
	c.Assert(closeRequested(&sdl.KeyboardEvent{
		Type:   sdl.KEYDOWN,
		Keysym: sdl.Keysym{Sym: sdl.K_SPACE},
	}), qt.IsFalse)
	c.Assert(closeRequested(&sdl.MouseMotionEvent{}), qt.IsFalse)
}

func TestGLFWCloseKey(t *testing.T) {
	c := qt.New(t)
	c.Assert(isCloseKey(glfw.KeyEscape, glfw.Press), qt.IsTrue)
	c.Assert(isCloseKey(glfw.KeyEscape, glfw.Release), qt.IsFalse)
	c.Assert(isCloseKey(glfw.KeyQ, glfw.Press), qt.IsFalse)
}

// Both backends expose everything the renderer needs.
var (
	_ Window = (*sdlWindow)(nil)
	_ Window = (*glfwWindow)(nil)
)
