package core_test

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/gobuffalo/envy"

	"github.com/devblok/trident/core"
)

func TestDefaultConfiguration(t *testing.T) {
	c := qt.New(t)
	envy.Temp(func() {
		cfg, err := core.LoadConfiguration("")
		c.Assert(err, qt.IsNil)
		c.Assert(cfg.Renderer.DeviceExtensions, qt.DeepEquals, []string{"VK_KHR_swapchain"})
		c.Assert(cfg.Renderer.RequireDiscrete, qt.IsTrue)
		c.Assert(cfg.Renderer.ClearColor, qt.Equals, [4]float32{0.0, 0.4, 0.8, 1.0})
		c.Assert(cfg.Window.Backend, qt.Equals, "sdl")
		c.Assert(cfg.Time.FramesPerSecond, qt.Equals, 0)
	})
}

func TestEnvironmentOverrides(t *testing.T) {
	c := qt.New(t)
	envy.Temp(func() {
		envy.Set("TRIDENT_WIDTH", "1024")
		envy.Set("TRIDENT_HEIGHT", "768")
		envy.Set("TRIDENT_WINDOW", "GLFW")
		envy.Set("TRIDENT_FPS", "144")
		envy.Set("TRIDENT_DEBUG", "true")
		envy.Set("TRIDENT_REQUIRE_DISCRETE", "false")
		envy.Set("TRIDENT_DEVICE_EXTENSIONS", "VK_KHR_pipeline_library, VK_KHR_swapchain,VK_EXT_graphics_pipeline_library")

		cfg, err := core.LoadConfiguration("")
		c.Assert(err, qt.IsNil)
		c.Assert(cfg.Window.Width, qt.Equals, uint32(1024))
		c.Assert(cfg.Window.Height, qt.Equals, uint32(768))
		c.Assert(cfg.Window.Backend, qt.Equals, "glfw")
		c.Assert(cfg.Time.FramesPerSecond, qt.Equals, 144)
		c.Assert(cfg.Instance.DebugMode, qt.IsTrue)
		c.Assert(cfg.Renderer.RequireDiscrete, qt.IsFalse)
		c.Assert(cfg.Renderer.DeviceExtensions, qt.DeepEquals, []string{
			"VK_KHR_swapchain",
			"VK_KHR_pipeline_library",
			"VK_EXT_graphics_pipeline_library",
		})
	})
}

func TestInvalidConfiguration(t *testing.T) {
	c := qt.New(t)
	for key, value := range map[string]string{
		"TRIDENT_WIDTH":  "wide",
		"TRIDENT_FPS":    "-1",
		"TRIDENT_WINDOW": "gtk",
		"TRIDENT_DEBUG":  "maybe",
		"TRIDENT_HEIGHT": "0",
	} {
		envy.Temp(func() {
			envy.Set(key, value)
			_, err := core.LoadConfiguration("")
			c.Assert(err, qt.Not(qt.IsNil), qt.Commentf("%s=%s", key, value))
		})
	}
}

func TestEnvFile(t *testing.T) {
	c := qt.New(t)
	c.Cleanup(func() {
		os.Unsetenv("TRIDENT_TITLE")
		envy.Reload()
	})

	path := filepath.Join(c.TempDir(), "trident.env")
	c.Assert(ioutil.WriteFile(path, []byte("TRIDENT_TITLE=From file\n"), 0644), qt.IsNil)

	cfg, err := core.LoadConfiguration(path)
	c.Assert(err, qt.IsNil)
	c.Assert(cfg.Window.Title, qt.Equals, "From file")

	_, err = core.LoadConfiguration(filepath.Join(c.TempDir(), "missing.env"))
	c.Assert(err, qt.Not(qt.IsNil))
}
