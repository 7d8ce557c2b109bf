package core

import (
	"fmt"

	glm "github.com/go-gl/mathgl/mgl32"
	log "github.com/sirupsen/logrus"
	vk "github.com/vulkan-go/vulkan"

	"github.com/devblok/trident/device"
)

// NewRenderer creates a renderer that is not yet initialised.
func NewRenderer(platform Platform, shaders ShaderSource, cfg Configuration) *Renderer {
	r := &Renderer{
		configuration: cfg,
		platform:      platform,
		shaders:       shaders,
	}
	r.stages = r.bringUpStages()
	return r
}

// Renderer owns every stage of the rendering context. Stages are
// created in dependency order by Initialise and released in reverse
// by Destroy.
type Renderer struct {
	configuration Configuration
	platform      Platform
	shaders       ShaderSource
	stages        []rendererStage
	teardown      Teardown

	instance     *InstanceContext
	device       *LogicalDeviceContext
	swapchain    *SwapchainContext
	pipeline     *PipelineContext
	framebuffers *Framebuffers
	frames       *FrameExecutor
}

// rendererStage builds one stage. A stage returned together with an
// error is partially built and still released.
type rendererStage struct {
	name  string
	build func() (Destroyable, error)
}

type releaseFunc func()

func (f releaseFunc) Destroy() { f() }

func (r *Renderer) bringUpStages() []rendererStage {
	return []rendererStage{
		{"instance", r.createInstance},
		{"logical device", r.createLogicalDevice},
		{"swapchain", r.createSwapchain},
		{"pipeline", r.createPipeline},
		{"framebuffers", r.createFramebuffers},
		{"frame executor", r.createFrameExecutor},
		// released first, nothing may be destroyed while the GPU still uses it
		{"device idle", r.idleOnTeardown},
	}
}

// Initialise brings up the context. On failure everything created so far
// is released before the error is returned.
func (r *Renderer) Initialise() error {
	for _, stage := range r.stages {
		built, err := stage.build()
		if built != nil {
			r.teardown.PushStage(stage.name, built)
		}
		if err != nil {
			r.teardown.Run()
			return err
		}
		log.WithField("stage", stage.name).Debug("stage ready")
	}
	return nil
}

func (r *Renderer) createInstance() (Destroyable, error) {
	instance, err := NewInstance(r.platform, r.configuration.Instance)
	if err != nil {
		return nil, err
	}
	r.instance = instance
	return instance, nil
}

func (r *Renderer) createLogicalDevice() (Destroyable, error) {
	physical, topology, err := r.selectDevice()
	if err != nil {
		return nil, err
	}

	var layers []string
	if r.configuration.Instance.DebugMode {
		layers = r.instance.Layers()
	}
	logical, err := NewLogicalDevice(physical, topology, LogicalDeviceConfiguration{
		Extensions: r.configuration.Renderer.DeviceExtensions,
		Layers:     layers,
	})
	if err != nil {
		return nil, err
	}
	r.device = logical
	return logical, nil
}

func (r *Renderer) createSwapchain() (Destroyable, error) {
	swapchain := NewSwapchainContext(r.device, r.instance.Surface(), r.platform)
	if err := swapchain.Setup(); err != nil {
		return swapchain, err
	}
	r.swapchain = swapchain
	return swapchain, nil
}

func (r *Renderer) createPipeline() (Destroyable, error) {
	pipeline, err := NewPipeline(r.device.Handle(), r.swapchain.Format().Format, r.shaders)
	if err != nil {
		return nil, err
	}
	r.pipeline = pipeline
	return pipeline, nil
}

func (r *Renderer) createFramebuffers() (Destroyable, error) {
	framebuffers, err := NewFramebuffers(r.device.Handle(), r.pipeline.RenderPass(), r.swapchain.Views(), r.swapchain.Extent())
	if err != nil {
		return nil, err
	}
	r.framebuffers = framebuffers
	return framebuffers, nil
}

func (r *Renderer) createFrameExecutor() (Destroyable, error) {
	frames, err := NewFrameExecutor(r.device, r.swapchain, r.pipeline, r.framebuffers, glm.Vec4(r.configuration.Renderer.ClearColor))
	if err != nil {
		return nil, err
	}
	r.frames = frames
	return frames, nil
}

func (r *Renderer) idleOnTeardown() (Destroyable, error) {
	logical := r.device
	return releaseFunc(func() {
		if err := logical.WaitIdle(); err != nil {
			log.WithError(err).Warn("device did not idle before teardown")
		}
	}), nil
}

func (r *Renderer) selectDevice() (device.PhysicalDeviceInfo, QueueTopology, error) {
	devices, err := r.instance.PhysicalDevices()
	if err != nil {
		return device.PhysicalDeviceInfo{}, QueueTopology{}, err
	}

	surface := r.instance.Surface()
	topologies := map[vk.PhysicalDevice]QueueTopology{}
	selected, err := device.Select(devices, device.Requirements{
		Extensions:      r.configuration.Renderer.DeviceExtensions,
		RequireDiscrete: r.configuration.Renderer.RequireDiscrete,
	}, func(d device.PhysicalDeviceInfo) (bool, string) {
		families, err := queryQueueFamilies(d.Handle, surface)
		if err != nil {
			return false, err.Error()
		}
		topology, err := BuildQueueTopology(families)
		if err != nil {
			return false, err.Error()
		}
		topologies[d.Handle] = topology
		return true, ""
	})
	if err != nil {
		return device.PhysicalDeviceInfo{}, QueueTopology{}, fmt.Errorf("%w among %d devices", err, len(devices))
	}
	return selected, topologies[selected.Handle], nil
}

// DrawFrame draws a single frame
func (r *Renderer) DrawFrame() error {
	if r.frames == nil {
		return illegalState("renderer not initialised")
	}
	return r.frames.DrawFrame()
}

// Run draws frames until the window closes, then waits for the
// device to finish.
func (r *Renderer) Run() error {
	if r.frames == nil {
		return illegalState("renderer not initialised")
	}
	clock := NewTime(r.configuration.Time)
	defer clock.Stop()

	loopErr := Loop(r.platform, r, clock, r.configuration.Window.Title)
	stats := r.frames.Stats()
	log.WithFields(log.Fields{
		"presented": stats.Presented,
		"dropped":   stats.Dropped,
	}).Info("render loop finished")

	if err := r.device.WaitIdle(); err != nil && loopErr == nil {
		return err
	}
	return loopErr
}

// Destroy releases every stage in reverse creation order
func (r *Renderer) Destroy() {
	r.teardown.Run()
	r.frames, r.framebuffers, r.pipeline, r.swapchain, r.device, r.instance = nil, nil, nil, nil, nil, nil
}
