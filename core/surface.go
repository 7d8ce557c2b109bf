package core

import (
	vk "github.com/vulkan-go/vulkan"
)

// undefinedExtent is reported as current extent when the window
// decides the surface size
const undefinedExtent = 0xFFFFFFFF

// SurfaceSupport is a snapshot of what the surface supports on a device
type SurfaceSupport struct {
	Capabilities vk.SurfaceCapabilities
	Formats      []vk.SurfaceFormat
	PresentModes []vk.PresentMode
}

// QuerySurfaceSupport reads surface capabilities, formats and present modes.
func QuerySurfaceSupport(physical vk.PhysicalDevice, surface vk.Surface) (SurfaceSupport, error) {
	var support SurfaceSupport

	if err := vkCall("vk.GetPhysicalDeviceSurfaceCapabilities", vk.GetPhysicalDeviceSurfaceCapabilities(physical, surface, &support.Capabilities)); err != nil {
		return SurfaceSupport{}, err
	}
	support.Capabilities.Deref()
	support.Capabilities.CurrentExtent.Deref()
	support.Capabilities.MinImageExtent.Deref()
	support.Capabilities.MaxImageExtent.Deref()

	var formatCount uint32
	if err := vkCall("vk.GetPhysicalDeviceSurfaceFormats", vk.GetPhysicalDeviceSurfaceFormats(physical, surface, &formatCount, nil)); err != nil {
		return SurfaceSupport{}, err
	}
	support.Formats = make([]vk.SurfaceFormat, formatCount)
	if err := vkCall("vk.GetPhysicalDeviceSurfaceFormats", vk.GetPhysicalDeviceSurfaceFormats(physical, surface, &formatCount, support.Formats)); err != nil {
		return SurfaceSupport{}, err
	}
	support.Formats = support.Formats[:formatCount]
	for i := range support.Formats {
		support.Formats[i].Deref()
	}

	var presentModeCount uint32
	if err := vkCall("vk.GetPhysicalDeviceSurfacePresentModes", vk.GetPhysicalDeviceSurfacePresentModes(physical, surface, &presentModeCount, nil)); err != nil {
		return SurfaceSupport{}, err
	}
	support.PresentModes = make([]vk.PresentMode, presentModeCount)
	if err := vkCall("vk.GetPhysicalDeviceSurfacePresentModes", vk.GetPhysicalDeviceSurfacePresentModes(physical, surface, &presentModeCount, support.PresentModes)); err != nil {
		return SurfaceSupport{}, err
	}
	support.PresentModes = support.PresentModes[:presentModeCount]

	return support, nil
}

// ChooseSurfaceFormat prefers 8 bit BGRA sRGB, otherwise settles
// for the first format reported.
func ChooseSurfaceFormat(formats []vk.SurfaceFormat) (vk.SurfaceFormat, error) {
	if len(formats) == 0 {
		return vk.SurfaceFormat{}, illegalState("surface reports no formats")
	}
	for _, f := range formats {
		if f.Format == vk.FormatB8g8r8a8Srgb && f.ColorSpace == vk.ColorSpaceSrgbNonlinear {
			return f, nil
		}
	}
	return formats[0], nil
}

// ChoosePresentMode prefers mailbox, FIFO is always available.
func ChoosePresentMode(modes []vk.PresentMode) vk.PresentMode {
	for _, m := range modes {
		if m == vk.PresentModeMailbox {
			return m
		}
	}
	return vk.PresentModeFifo
}

// ClampExtent clamps each dimension into [min, max] independently.
func ClampExtent(width, height uint32, min, max vk.Extent2D) vk.Extent2D {
	return vk.Extent2D{
		Width:  clampUint32(width, min.Width, max.Width),
		Height: clampUint32(height, min.Height, max.Height),
	}
}

// ImageCount asks for one image more than the minimum,
// a max of 0 means no upper limit.
func ImageCount(min, max uint32) uint32 {
	count := min + 1
	if max > 0 && count > max {
		return max
	}
	return count
}

// chooseCompositeAlpha picks the first supported mode, opaque first.
func chooseCompositeAlpha(supported vk.CompositeAlphaFlags) vk.CompositeAlphaFlagBits {
	for _, flag := range []vk.CompositeAlphaFlagBits{
		vk.CompositeAlphaOpaqueBit,
		vk.CompositeAlphaPreMultipliedBit,
		vk.CompositeAlphaPostMultipliedBit,
		vk.CompositeAlphaInheritBit,
	} {
		if supported&vk.CompositeAlphaFlags(flag) != 0 {
			return flag
		}
	}
	return vk.CompositeAlphaOpaqueBit
}

func clampUint32(v, min, max uint32) uint32 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
