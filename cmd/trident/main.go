package main

import (
	"flag"
	"os"
	"runtime"
	"runtime/pprof"
	"runtime/trace"

	log "github.com/sirupsen/logrus"

	"github.com/devblok/trident/core"
	"github.com/devblok/trident/shader"
	"github.com/devblok/trident/window"
)

func init() {
	// windowing systems and the Vulkan queue are driven from the main thread
	runtime.LockOSThread()
}

var (
	envFile      = flag.String("env", "", "Load configuration from the given .env file")
	debug        = flag.Bool("vkdbg", false, "Load Vulkan validation layers")
	backend      = flag.String("window", "", "Window backend, sdl or glfw")
	cpuProfile   = flag.String("cpuprof", "", "Profile CPU usage to file")
	memProfile   = flag.String("memprof", "", "Profile memory usage into a file")
	traceProfile = flag.String("trace", "", "Trace output for profiling")
)

func main() {
	flag.Parse()

	if err := run(); err != nil {
		log.WithError(err).Error("trident exited")
		os.Exit(1)
	}
}

func run() error {
	cfg, err := core.LoadConfiguration(*envFile)
	if err != nil {
		return err
	}
	if *debug {
		cfg.Instance.DebugMode = true
	}
	if *backend != "" {
		cfg.Window.Backend = *backend
	}
	if err := setupLogging(cfg); err != nil {
		return err
	}

	stopProfiling, err := startProfiling()
	if err != nil {
		return err
	}
	defer stopProfiling()

	win, err := window.New(cfg.Window)
	if err != nil {
		return err
	}
	defer win.Destroy()

	shaders, err := shader.Open(cfg.Shaders)
	if err != nil {
		return err
	}
	defer shaders.Close()

	renderer := core.NewRenderer(win, shaders, cfg)
	if err := renderer.Initialise(); err != nil {
		return err
	}
	defer renderer.Destroy()

	log.WithFields(log.Fields{
		"backend": cfg.Window.Backend,
		"width":   cfg.Window.Width,
		"height":  cfg.Window.Height,
		"fps":     cfg.Time.FramesPerSecond,
	}).Info("renderer initialised")

	if err := renderer.Run(); err != nil {
		return err
	}
	return writeMemProfile()
}

func setupLogging(cfg core.Configuration) error {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	switch {
	case cfg.LogLevel != "":
		level, err := log.ParseLevel(cfg.LogLevel)
		if err != nil {
			return err
		}
		log.SetLevel(level)
	case cfg.Instance.DebugMode:
		log.SetLevel(log.DebugLevel)
	default:
		log.SetLevel(log.InfoLevel)
	}
	return nil
}

func startProfiling() (func(), error) {
	stop := func() {}

	if *cpuProfile != "" {
		f, err := os.Create(*cpuProfile)
		if err != nil {
			return stop, err
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			f.Close()
			return stop, err
		}
		prev := stop
		stop = func() {
			pprof.StopCPUProfile()
			f.Close()
			prev()
		}
	}

	if *traceProfile != "" {
		f, err := os.Create(*traceProfile)
		if err != nil {
			stop()
			return func() {}, err
		}
		if err := trace.Start(f); err != nil {
			f.Close()
			stop()
			return func() {}, err
		}
		prev := stop
		stop = func() {
			trace.Stop()
			f.Close()
			prev()
		}
	}
	return stop, nil
}

func writeMemProfile() error {
	if *memProfile == "" {
		return nil
	}
	f, err := os.Create(*memProfile)
	if err != nil {
		return err
	}
	defer f.Close()
	return pprof.WriteHeapProfile(f)
}
