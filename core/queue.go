package core

import (
	"fmt"

	vk "github.com/vulkan-go/vulkan"
)

// QueueCapability is a set of things a queue is used for
type QueueCapability uint8

// Capabilities the renderer needs from its queues
const (
	GraphicsCapability QueueCapability = 1 << iota
	PresentationCapability

	requiredCapabilities = GraphicsCapability | PresentationCapability
)

// Has reports whether every capability in o is in c.
func (c QueueCapability) Has(o QueueCapability) bool {
	return c&o == o
}

func (c QueueCapability) String() string {
	switch c {
	case GraphicsCapability:
		return "graphics"
	case PresentationCapability:
		return "presentation"
	case requiredCapabilities:
		return "graphics|presentation"
	default:
		return "none"
	}
}

// QueueFamily is what a device reports about one queue family
type QueueFamily struct {
	Index    uint32
	Graphics bool
	Present  bool
}

// QueueDescriptor names a single queue and what it's used for
type QueueDescriptor struct {
	Family       uint32
	Index        uint32
	Capabilities QueueCapability
}

// QueueTopology is the minimal set of queues that covers graphics
// and presentation. Descriptors never share a family.
type QueueTopology struct {
	Descriptors []QueueDescriptor
}

// BuildQueueTopology scans families in order until both graphics and
// presentation are found. A family that has both becomes a single descriptor.
func BuildQueueTopology(families []QueueFamily) (QueueTopology, error) {
	var (
		topology          QueueTopology
		foundGraphics     bool
		foundPresentation bool
	)
	for _, family := range families {
		var caps QueueCapability
		if !foundGraphics && family.Graphics {
			caps |= GraphicsCapability
			foundGraphics = true
		}
		if !foundPresentation && family.Present {
			caps |= PresentationCapability
			foundPresentation = true
		}
		if caps != 0 {
			topology.merge(QueueDescriptor{Family: family.Index, Capabilities: caps})
		}
		if foundGraphics && foundPresentation {
			return topology, nil
		}
	}
	return QueueTopology{}, fmt.Errorf("%w: queue families lack graphics or presentation", ErrNoSuitableDevice)
}

func (t *QueueTopology) merge(d QueueDescriptor) {
	for i := range t.Descriptors {
		if t.Descriptors[i].Family == d.Family && t.Descriptors[i].Index == d.Index {
			t.Descriptors[i].Capabilities |= d.Capabilities
			return
		}
	}
	t.Descriptors = append(t.Descriptors, d)
}

// Families lists the distinct queue family indices, in discovery order.
func (t QueueTopology) Families() []uint32 {
	var families []uint32
	for _, d := range t.Descriptors {
		if !containsUint32(families, d.Family) {
			families = append(families, d.Family)
		}
	}
	return families
}

// Capabilities is the union of every descriptor's capabilities
func (t QueueTopology) Capabilities() QueueCapability {
	var caps QueueCapability
	for _, d := range t.Descriptors {
		caps |= d.Capabilities
	}
	return caps
}

// First returns the first descriptor having the capability.
func (t QueueTopology) First(c QueueCapability) (QueueDescriptor, bool) {
	for _, d := range t.Descriptors {
		if d.Capabilities.Has(c) {
			return d, true
		}
	}
	return QueueDescriptor{}, false
}

// SharingMode is exclusive for a single family, otherwise concurrent
// between every family in the topology.
func (t QueueTopology) SharingMode() (vk.SharingMode, []uint32) {
	families := t.Families()
	if len(families) > 1 {
		return vk.SharingModeConcurrent, families
	}
	return vk.SharingModeExclusive, nil
}

// queueCreateInfos yields a create info per distinct family.
func (t QueueTopology) queueCreateInfos() []vk.DeviceQueueCreateInfo {
	families := t.Families()
	infos := make([]vk.DeviceQueueCreateInfo, 0, len(families))
	for _, family := range families {
		infos = append(infos, vk.DeviceQueueCreateInfo{
			SType:            vk.StructureTypeDeviceQueueCreateInfo,
			QueueFamilyIndex: family,
			QueueCount:       1,
			PQueuePriorities: []float32{1.0},
		})
	}
	return infos
}

// queryQueueFamilies reads queue family properties and surface support.
func queryQueueFamilies(physical vk.PhysicalDevice, surface vk.Surface) ([]QueueFamily, error) {
	var queueFamilyCount uint32
	vk.GetPhysicalDeviceQueueFamilyProperties(physical, &queueFamilyCount, nil)
	properties := make([]vk.QueueFamilyProperties, queueFamilyCount)
	vk.GetPhysicalDeviceQueueFamilyProperties(physical, &queueFamilyCount, properties)

	families := make([]QueueFamily, 0, queueFamilyCount)
	for i := uint32(0); i < queueFamilyCount; i++ {
		properties[i].Deref()

		var supportsPresent vk.Bool32
		if err := vkCall("vk.GetPhysicalDeviceSurfaceSupport", vk.GetPhysicalDeviceSurfaceSupport(physical, i, surface, &supportsPresent)); err != nil {
			return nil, err
		}
		families = append(families, QueueFamily{
			Index:    i,
			Graphics: properties[i].QueueCount > 0 && properties[i].QueueFlags&vk.QueueFlags(vk.QueueGraphicsBit) != 0,
			Present:  properties[i].QueueCount > 0 && supportsPresent.B(),
		})
	}
	return families, nil
}

func containsUint32(list []uint32, v uint32) bool {
	for _, l := range list {
		if l == v {
			return true
		}
	}
	return false
}
