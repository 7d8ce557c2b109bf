package core

import (
	"errors"

	log "github.com/sirupsen/logrus"
	vk "github.com/vulkan-go/vulkan"

	"github.com/devblok/trident/device"
)

// NewInstance creates a Vulkan instance. With a provider the loader it
// exposes is used, its instance extensions are enabled and a surface is
// created for its window. Without one the default loader is used and
// there is no surface.
func NewInstance(provider SurfaceProvider, cfg InstanceConfiguration) (*InstanceContext, error) {
	if provider == nil {
		if err := vk.SetDefaultGetInstanceProcAddr(); err != nil {
			return nil, errors.New("vk.SetDefaultGetInstanceProcAddr(): " + err.Error())
		}
	} else {
		vk.SetGetInstanceProcAddr(provider.ProcAddr())
	}

	if err := vk.Init(); err != nil {
		return nil, errors.New("vk.Init(): " + err.Error())
	}

	extensions := append([]string{}, cfg.Extensions...)
	if provider != nil {
		for _, ext := range provider.InstanceExtensions() {
			if !contains(extensions, ext) {
				extensions = append(extensions, ext)
			}
		}
	}

	requested := append([]string{}, cfg.Layers...)
	if cfg.DebugMode && !contains(requested, ValidationLayer) {
		requested = append(requested, ValidationLayer)
	}
	layers, missing := FilterLayers(requested, availableInstanceLayers())
	for _, l := range missing {
		log.WithField("layer", l).Warn("instance layer not available, skipping")
	}

	appName := safeString(cfg.ApplicationName)
	instanceInfo := vk.InstanceCreateInfo{
		SType: vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo: &vk.ApplicationInfo{
			SType:              vk.StructureTypeApplicationInfo,
			ApiVersion:         vk.MakeVersion(1, 0, 0),
			ApplicationVersion: vk.MakeVersion(1, 0, 0),
			PApplicationName:   appName,
			PEngineName:        "Trident\x00",
		},
		EnabledExtensionCount:   uint32(len(extensions)),
		PpEnabledExtensionNames: safeStrings(extensions),
		EnabledLayerCount:       uint32(len(layers)),
		PpEnabledLayerNames:     safeStrings(layers),
	}

	var instance vk.Instance
	if err := vkCall("vk.CreateInstance", vk.CreateInstance(&instanceInfo, nil, &instance)); err != nil {
		return nil, err
	}
	vk.InitInstance(instance)

	ic := &InstanceContext{
		instance:   instance,
		surface:    vk.NullSurface,
		extensions: extensions,
		layers:     layers,
	}

	if provider != nil {
		surface, err := provider.CreateSurface(instance)
		if err != nil {
			vk.DestroyInstance(instance, nil)
			return nil, err
		}
		ic.surface = surface
	}

	log.WithFields(log.Fields{
		"extensions": extensions,
		"layers":     layers,
	}).Info("instance created")
	return ic, nil
}

// InstanceContext owns the Vulkan instance and the window surface
type InstanceContext struct {
	instance   vk.Instance
	surface    vk.Surface
	extensions []string
	layers     []string
}

// Handle returns the vk.Instance
func (i *InstanceContext) Handle() vk.Instance {
	return i.instance
}

// Surface returns the window surface, vk.NullSurface when there's no window
func (i *InstanceContext) Surface() vk.Surface {
	return i.surface
}

// Extensions returns enabled instance extensions
func (i *InstanceContext) Extensions() []string {
	return i.extensions
}

// Layers returns enabled instance layers
func (i *InstanceContext) Layers() []string {
	return i.layers
}

// PhysicalDevices returns info about every physical device
func (i *InstanceContext) PhysicalDevices() ([]device.PhysicalDeviceInfo, error) {
	return device.Enumerate(i.instance)
}

// Destroy destroys the surface, then the instance
func (i *InstanceContext) Destroy() {
	if i.surface != vk.NullSurface {
		vk.DestroySurface(i.instance, i.surface, nil)
		i.surface = vk.NullSurface
	}
	vk.DestroyInstance(i.instance, nil)
}

func availableInstanceLayers() []string {
	var count uint32
	if err := vk.Error(vk.EnumerateInstanceLayerProperties(&count, nil)); err != nil {
		return nil
	}
	properties := make([]vk.LayerProperties, count)
	if err := vk.Error(vk.EnumerateInstanceLayerProperties(&count, properties)); err != nil {
		return nil
	}

	layers := make([]string, 0, count)
	for _, p := range properties[:count] {
		p.Deref()
		layers = append(layers, vk.ToString(p.LayerName[:]))
	}
	return layers
}
