// Package core brings up a Vulkan rendering context stage by stage and
// drives a single frame in flight through it.
package core

import (
	"unsafe"

	vk "github.com/vulkan-go/vulkan"
)

// Window is the part of a platform window the render loop talks to.
type Window interface {
	// FramebufferSize returns the current drawable size in pixels
	FramebufferSize() (width, height uint32)

	// ShouldClose reports whether the user asked to close the window
	ShouldClose() bool

	// PollEvents processes pending window events without blocking
	PollEvents()

	// SetTitle changes the window title
	SetTitle(title string)
}

// SurfaceProvider bridges a platform window with the Vulkan loader.
type SurfaceProvider interface {
	// ProcAddr returns vkGetInstanceProcAddr of the loader
	// the window system has loaded
	ProcAddr() unsafe.Pointer

	// InstanceExtensions lists instance extensions needed
	// to present into the window
	InstanceExtensions() []string

	// CreateSurface creates a surface for the window on the given instance
	CreateSurface(instance vk.Instance) (vk.Surface, error)
}

// Platform is a window that can be rendered into.
type Platform interface {
	Window
	SurfaceProvider
}

// ShaderSource provides compiled SPIR-V bytecode.
type ShaderSource interface {
	LoadCompiledShader(ShaderType) ([]byte, error)
}

// ShaderType represents the type of shader thats loaded
type ShaderType int

// Identifies shader objects with their types
const (
	VertexShaderType ShaderType = iota
	FragmentShaderType
	UnknownShaderType
)

func (s ShaderType) String() string {
	switch s {
	case VertexShaderType:
		return "vertex"
	case FragmentShaderType:
		return "fragment"
	default:
		return "unknown"
	}
}

// Destroyable is implemented by every stage owning Vulkan objects.
type Destroyable interface {
	Destroy()
}
