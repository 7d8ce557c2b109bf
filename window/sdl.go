package window

import (
	"errors"
	"unsafe"

	"github.com/veandco/go-sdl2/sdl"
	vk "github.com/vulkan-go/vulkan"

	"github.com/devblok/trident/core"
)

func newSDLWindow(cfg core.WindowConfiguration) (*sdlWindow, error) {
	if err := sdl.Init(sdl.INIT_VIDEO | sdl.INIT_EVENTS); err != nil {
		return nil, errors.New("sdl.Init(): " + err.Error())
	}

	if err := sdl.VulkanLoadLibrary(""); err != nil {
		sdl.Quit()
		return nil, errors.New("sdl.VulkanLoadLibrary(): " + err.Error())
	}

	window, err := sdl.CreateWindow(cfg.Title,
		sdl.WINDOWPOS_UNDEFINED,
		sdl.WINDOWPOS_UNDEFINED,
		int32(cfg.Width),
		int32(cfg.Height),
		sdl.WINDOW_VULKAN)
	if err != nil {
		sdl.VulkanUnloadLibrary()
		sdl.Quit()
		return nil, errors.New("sdl.CreateWindow(): " + err.Error())
	}

	return &sdlWindow{window: window}, nil
}

type sdlWindow struct {
	window      *sdl.Window
	shouldClose bool
}

func (s *sdlWindow) ProcAddr() unsafe.Pointer {
	return sdl.VulkanGetVkGetInstanceProcAddr()
}

func (s *sdlWindow) InstanceExtensions() []string {
	return s.window.VulkanGetInstanceExtensions()
}

func (s *sdlWindow) CreateSurface(instance vk.Instance) (vk.Surface, error) {
	srf, err := s.window.VulkanCreateSurface(instance)
	if err != nil {
		return vk.NullSurface, errors.New("sdl.VulkanCreateSurface(): " + err.Error())
	}
	return vk.SurfaceFromPointer(uintptr(srf)), nil
}

func (s *sdlWindow) FramebufferSize() (uint32, uint32) {
	w, h := s.window.VulkanGetDrawableSize()
	return uint32(w), uint32(h)
}

func (s *sdlWindow) ShouldClose() bool {
	return s.shouldClose
}

func (s *sdlWindow) PollEvents() {
	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		if closeRequested(event) {
			s.shouldClose = true
		}
	}
}

func (s *sdlWindow) SetTitle(title string) {
	s.window.SetTitle(title)
}

func (s *sdlWindow) Destroy() {
	s.window.Destroy()
	sdl.VulkanUnloadLibrary()
	sdl.Quit()
}

func closeRequested(event sdl.Event) bool {
	switch et := event.(type) {
	case *sdl.KeyboardEvent:
		return et.Type == sdl.KEYDOWN && et.Keysym.Sym == sdl.K_ESCAPE
	case *sdl.QuitEvent:
		return true
	}
	return false
}
