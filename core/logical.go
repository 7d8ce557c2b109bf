package core

import (
	"fmt"

	log "github.com/sirupsen/logrus"
	vk "github.com/vulkan-go/vulkan"

	"github.com/devblok/trident/device"
)

// LogicalDeviceConfiguration is what gets enabled on the logical device
type LogicalDeviceConfiguration struct {
	Extensions []string

	// Layers are enabled if the device reports them, others are skipped
	Layers []string
}

// NewLogicalDevice creates the logical device with a queue per
// distinct family in the topology and retrieves the queue handles.
func NewLogicalDevice(physical device.PhysicalDeviceInfo, topology QueueTopology, cfg LogicalDeviceConfiguration) (*LogicalDeviceContext, error) {
	layers, missing := FilterLayers(cfg.Layers, physical.Layers)
	for _, l := range missing {
		log.WithField("layer", l).Warn("device layer not available, skipping")
	}

	queueInfos := topology.queueCreateInfos()
	extensions := safeStrings(cfg.Extensions)
	enabledLayers := safeStrings(layers)
	dci := vk.DeviceCreateInfo{
		SType:                   vk.StructureTypeDeviceCreateInfo,
		QueueCreateInfoCount:    uint32(len(queueInfos)),
		PQueueCreateInfos:       queueInfos,
		EnabledExtensionCount:   uint32(len(extensions)),
		PpEnabledExtensionNames: extensions,
		EnabledLayerCount:       uint32(len(enabledLayers)),
		PpEnabledLayerNames:     enabledLayers,
	}

	var vkDevice vk.Device
	if err := vk.Error(vk.CreateDevice(physical.Handle, &dci, nil, &vkDevice)); err != nil {
		return nil, fmt.Errorf("%w: vk.CreateDevice(): %s", ErrDeviceCreation, err.Error())
	}

	queues := make([]vk.Queue, len(topology.Descriptors))
	for i, d := range topology.Descriptors {
		var queue vk.Queue
		vk.GetDeviceQueue(vkDevice, d.Family, d.Index, &queue)
		if queue == nil {
			vk.DestroyDevice(vkDevice, nil)
			return nil, illegalState("vk.GetDeviceQueue(): no queue %d in family %d", d.Index, d.Family)
		}
		queues[i] = queue
	}

	log.WithFields(log.Fields{
		"device":   physical.Name,
		"families": topology.Families(),
		"layers":   layers,
	}).Info("logical device created")

	return &LogicalDeviceContext{
		physical: physical,
		device:   vkDevice,
		topology: topology,
		queues:   queues,
	}, nil
}

// LogicalDeviceContext owns the logical device and its queues
type LogicalDeviceContext struct {
	physical device.PhysicalDeviceInfo
	device   vk.Device
	topology QueueTopology
	queues   []vk.Queue
}

// Handle returns the vk.Device
func (l *LogicalDeviceContext) Handle() vk.Device {
	return l.device
}

// Physical returns the physical device handle
func (l *LogicalDeviceContext) Physical() vk.PhysicalDevice {
	return l.physical.Handle
}

// Topology returns the queue topology the device was created with
func (l *LogicalDeviceContext) Topology() QueueTopology {
	return l.topology
}

// Queue returns the first queue with the capability, and its family.
func (l *LogicalDeviceContext) Queue(c QueueCapability) (vk.Queue, uint32) {
	for i, d := range l.topology.Descriptors {
		if d.Capabilities.Has(c) {
			return l.queues[i], d.Family
		}
	}
	return nil, 0
}

// WaitIdle blocks until the device finished all submitted work
func (l *LogicalDeviceContext) WaitIdle() error {
	return vkCall("vk.DeviceWaitIdle", vk.DeviceWaitIdle(l.device))
}

// Destroy destroys the device, queues go with it
func (l *LogicalDeviceContext) Destroy() {
	vk.DestroyDevice(l.device, nil)
	l.queues = nil
}

// FilterLayers splits requested layers into available and missing ones.
func FilterLayers(requested, available []string) (enabled, missing []string) {
	for _, layer := range requested {
		if contains(available, layer) {
			enabled = append(enabled, layer)
		} else {
			missing = append(missing, layer)
		}
	}
	return enabled, missing
}
