package core

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gobuffalo/envy"
	"github.com/joho/godotenv"
	vk "github.com/vulkan-go/vulkan"
)

// Configuration defines a global engine configuration setting
type Configuration struct {
	Time     TimeConfiguration
	Renderer RendererConfiguration
	Instance InstanceConfiguration
	Window   WindowConfiguration

	// Shaders is a directory or a .kar archive with compiled shaders
	Shaders string

	// LogLevel is a logrus level name, empty means decide by DebugMode
	LogLevel string
}

// TimeConfiguration is used to configure time services
type TimeConfiguration struct {
	// FramesPerSecond caps frames per second that is put out
	// To unlimit, set to 0
	FramesPerSecond int
}

// RendererConfiguration is used to configure the renderer
type RendererConfiguration struct {
	// DeviceExtensions must all be supported by the selected device
	DeviceExtensions []string

	// RequireDiscrete rejects integrated and virtual GPUs
	RequireDiscrete bool

	// ClearColor is the RGBA colour the frame is cleared to
	ClearColor [4]float32
}

// InstanceConfiguration is used to configure a Vulkan instance
type InstanceConfiguration struct {
	ApplicationName string

	// DebugMode enables validation layers when available
	DebugMode  bool
	Extensions []string
	Layers     []string
}

// WindowConfiguration describes the window to open
type WindowConfiguration struct {
	// Backend is either "sdl" or "glfw"
	Backend string
	Title   string
	Width   uint32
	Height  uint32
}

// ValidationLayer is requested in debug mode
const ValidationLayer = "VK_LAYER_KHRONOS_validation"

// DefaultConfiguration is the configuration used when nothing is overridden
func DefaultConfiguration() Configuration {
	return Configuration{
		Time: TimeConfiguration{
			FramesPerSecond: 0,
		},
		Renderer: RendererConfiguration{
			DeviceExtensions: []string{vk.KhrSwapchainExtensionName},
			RequireDiscrete:  true,
			ClearColor:       [4]float32{0.0, 0.4, 0.8, 1.0},
		},
		Instance: InstanceConfiguration{
			ApplicationName: "Trident",
		},
		Window: WindowConfiguration{
			Backend: "sdl",
			Title:   "Trident",
			Width:   800,
			Height:  600,
		},
		Shaders: "shaders/compiled",
	}
}

// LoadConfiguration builds the configuration from defaults overridden
// by TRIDENT_* environment variables. When envFile is given it's loaded
// into the environment first.
func LoadConfiguration(envFile string) (Configuration, error) {
	if envFile != "" {
		if _, err := godotenv.Read(envFile); err != nil {
			return Configuration{}, fmt.Errorf("godotenv.Read(%s): %s", envFile, err.Error())
		}
		envy.Load(envFile)
	}

	cfg := DefaultConfiguration()

	var err error
	if cfg.Window.Width, err = envUint32("TRIDENT_WIDTH", cfg.Window.Width); err != nil {
		return cfg, err
	}
	if cfg.Window.Height, err = envUint32("TRIDENT_HEIGHT", cfg.Window.Height); err != nil {
		return cfg, err
	}
	cfg.Window.Title = envy.Get("TRIDENT_TITLE", cfg.Window.Title)
	cfg.Window.Backend = strings.ToLower(envy.Get("TRIDENT_WINDOW", cfg.Window.Backend))
	cfg.Shaders = envy.Get("TRIDENT_SHADERS", cfg.Shaders)
	cfg.LogLevel = envy.Get("TRIDENT_LOG_LEVEL", cfg.LogLevel)

	if fps, err := strconv.Atoi(envy.Get("TRIDENT_FPS", strconv.Itoa(cfg.Time.FramesPerSecond))); err != nil || fps < 0 {
		return cfg, fmt.Errorf("TRIDENT_FPS: expected a non negative number")
	} else {
		cfg.Time.FramesPerSecond = fps
	}

	if cfg.Instance.DebugMode, err = envBool("TRIDENT_DEBUG", cfg.Instance.DebugMode); err != nil {
		return cfg, err
	}
	if cfg.Renderer.RequireDiscrete, err = envBool("TRIDENT_REQUIRE_DISCRETE", cfg.Renderer.RequireDiscrete); err != nil {
		return cfg, err
	}

	for _, ext := range strings.Split(envy.Get("TRIDENT_DEVICE_EXTENSIONS", ""), ",") {
		if ext = strings.TrimSpace(ext); ext != "" && !contains(cfg.Renderer.DeviceExtensions, ext) {
			cfg.Renderer.DeviceExtensions = append(cfg.Renderer.DeviceExtensions, ext)
		}
	}

	switch cfg.Window.Backend {
	case "sdl", "glfw":
	default:
		return cfg, fmt.Errorf("TRIDENT_WINDOW: unknown window backend %q", cfg.Window.Backend)
	}
	if cfg.Window.Width == 0 || cfg.Window.Height == 0 {
		return cfg, fmt.Errorf("window size must not be zero")
	}
	return cfg, nil
}

func envUint32(key string, def uint32) (uint32, error) {
	value := envy.Get(key, "")
	if value == "" {
		return def, nil
	}
	num, err := strconv.ParseUint(value, 10, 32)
	if err != nil {
		return def, fmt.Errorf("%s: %s", key, err.Error())
	}
	return uint32(num), nil
}

func envBool(key string, def bool) (bool, error) {
	value := envy.Get(key, "")
	if value == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return def, fmt.Errorf("%s: %s", key, err.Error())
	}
	return b, nil
}

func contains(list []string, s string) bool {
	for _, l := range list {
		if l == s {
			return true
		}
	}
	return false
}
