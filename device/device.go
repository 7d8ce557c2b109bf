// Package device enumerates physical rendering devices and picks
// one that satisfies the renderer's requirements.
package device

import (
	"errors"

	log "github.com/sirupsen/logrus"
	vk "github.com/vulkan-go/vulkan"
)

// ErrNoSuitableDevice is returned when no device passes the requirements
var ErrNoSuitableDevice = errors.New("no suitable physical device")

// PhysicalDeviceInfo describes available physical properties of a rendering device
type PhysicalDeviceInfo struct {
	Handle vk.PhysicalDevice `json:"-"`

	ID            int
	VendorID      int
	DriverVersion int
	Name          string
	Type          Type
	Invalid       bool
	Extensions    []string
	Layers        []string
	Memory        vk.DeviceSize
	Features      vk.PhysicalDeviceFeatures `json:"-"`
}

// HasExtension reports whether the device advertises the extension.
func (p PhysicalDeviceInfo) HasExtension(name string) bool {
	for _, ext := range p.Extensions {
		if ext == name {
			return true
		}
	}
	return false
}

// Type is the kind of a physical device
type Type int

// Device types as reported by the driver
const (
	TypeOther Type = iota
	TypeIntegrated
	TypeDiscrete
	TypeVirtual
	TypeCPU
)

func typeFromVulkan(t vk.PhysicalDeviceType) Type {
	switch t {
	case vk.PhysicalDeviceTypeIntegratedGpu:
		return TypeIntegrated
	case vk.PhysicalDeviceTypeDiscreteGpu:
		return TypeDiscrete
	case vk.PhysicalDeviceTypeVirtualGpu:
		return TypeVirtual
	case vk.PhysicalDeviceTypeCpu:
		return TypeCPU
	default:
		return TypeOther
	}
}

func (t Type) String() string {
	switch t {
	case TypeIntegrated:
		return "integrated"
	case TypeDiscrete:
		return "discrete"
	case TypeVirtual:
		return "virtual"
	case TypeCPU:
		return "cpu"
	default:
		return "other"
	}
}

// MarshalText makes device types readable in dumps
func (t Type) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// Requirements a device must meet to be selected
type Requirements struct {
	// Extensions must all be advertised by the device
	Extensions []string

	// RequireDiscrete accepts discrete GPUs only
	RequireDiscrete bool
}

// Suitability is an additional caller check, a non-empty reason rejects the device
type Suitability func(PhysicalDeviceInfo) (bool, string)

// Select returns the first device that meets every requirement and passes
// the suitability check. Check may be nil.
func Select(devices []PhysicalDeviceInfo, req Requirements, check Suitability) (PhysicalDeviceInfo, error) {
	for _, d := range devices {
		if ok, reason := meets(d, req, check); !ok {
			log.WithFields(log.Fields{
				"device": d.Name,
				"reason": reason,
			}).Debug("physical device rejected")
			continue
		}
		log.WithFields(log.Fields{
			"device": d.Name,
			"type":   d.Type,
		}).Info("physical device selected")
		return d, nil
	}
	return PhysicalDeviceInfo{}, ErrNoSuitableDevice
}

func meets(d PhysicalDeviceInfo, req Requirements, check Suitability) (bool, string) {
	if d.Invalid {
		return false, "device queries failed"
	}
	if req.RequireDiscrete && d.Type != TypeDiscrete {
		return false, "not a discrete gpu"
	}
	for _, ext := range req.Extensions {
		if !d.HasExtension(ext) {
			return false, "missing extension " + ext
		}
	}
	if check != nil {
		return check(d)
	}
	return true, ""
}
