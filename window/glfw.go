package window

import (
	"errors"
	"unsafe"

	"github.com/go-gl/glfw/v3.3/glfw"
	vk "github.com/vulkan-go/vulkan"

	"github.com/devblok/trident/core"
)

func newGLFWWindow(cfg core.WindowConfiguration) (*glfwWindow, error) {
	if err := glfw.Init(); err != nil {
		return nil, errors.New("glfw.Init(): " + err.Error())
	}
	if !glfw.VulkanSupported() {
		glfw.Terminate()
		return nil, errors.New("glfw.VulkanSupported(): no Vulkan loader found")
	}

	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	glfw.WindowHint(glfw.Resizable, glfw.False)
	window, err := glfw.CreateWindow(int(cfg.Width), int(cfg.Height), cfg.Title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, errors.New("glfw.CreateWindow(): " + err.Error())
	}

	window.SetKeyCallback(func(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
		if isCloseKey(key, action) {
			w.SetShouldClose(true)
		}
	})
	return &glfwWindow{window: window}, nil
}

type glfwWindow struct {
	window *glfw.Window
}

func (g *glfwWindow) ProcAddr() unsafe.Pointer {
	return glfw.GetVulkanGetInstanceProcAddress()
}

func (g *glfwWindow) InstanceExtensions() []string {
	return g.window.GetRequiredInstanceExtensions()
}

func (g *glfwWindow) CreateSurface(instance vk.Instance) (vk.Surface, error) {
	srf, err := g.window.CreateWindowSurface(instance, nil)
	if err != nil {
		return vk.NullSurface, errors.New("glfw.CreateWindowSurface(): " + err.Error())
	}
	return vk.SurfaceFromPointer(srf), nil
}

func (g *glfwWindow) FramebufferSize() (uint32, uint32) {
	w, h := g.window.GetFramebufferSize()
	return uint32(w), uint32(h)
}

func (g *glfwWindow) ShouldClose() bool {
	return g.window.ShouldClose()
}

func (g *glfwWindow) PollEvents() {
	glfw.PollEvents()
}

func (g *glfwWindow) SetTitle(title string) {
	g.window.SetTitle(title)
}

func (g *glfwWindow) Destroy() {
	g.window.Destroy()
	glfw.Terminate()
}

func isCloseKey(key glfw.Key, action glfw.Action) bool {
	return key == glfw.KeyEscape && action == glfw.Press
}
