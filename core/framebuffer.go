package core

import (
	"fmt"

	vk "github.com/vulkan-go/vulkan"
)

// NewFramebuffers creates a framebuffer for every swapchain image view.
func NewFramebuffers(device vk.Device, renderPass vk.RenderPass, views []vk.ImageView, extent vk.Extent2D) (*Framebuffers, error) {
	fbs := &Framebuffers{device: device}
	for idx, view := range views {
		fci := vk.FramebufferCreateInfo{
			SType:           vk.StructureTypeFramebufferCreateInfo,
			RenderPass:      renderPass,
			AttachmentCount: 1,
			PAttachments:    []vk.ImageView{view},
			Width:           extent.Width,
			Height:          extent.Height,
			Layers:          1,
		}

		var framebuffer vk.Framebuffer
		if err := vk.Error(vk.CreateFramebuffer(device, &fci, nil, &framebuffer)); err != nil {
			fbs.Destroy()
			return nil, fmt.Errorf("vk.CreateFramebuffer()[%d]: %s", idx, err.Error())
		}
		fbs.buffers = append(fbs.buffers, framebuffer)
	}
	return fbs, nil
}

// Framebuffers holds one framebuffer per swapchain image,
// buffers[i] targets image i.
type Framebuffers struct {
	device  vk.Device
	buffers []vk.Framebuffer
}

// At returns the framebuffer for the swapchain image index.
func (f *Framebuffers) At(imageIndex uint32) (vk.Framebuffer, error) {
	if int(imageIndex) >= len(f.buffers) {
		return nil, illegalState("no framebuffer for image %d", imageIndex)
	}
	return f.buffers[imageIndex], nil
}

// Len is the number of framebuffers
func (f *Framebuffers) Len() int {
	return len(f.buffers)
}

// Destroy destroys every framebuffer
func (f *Framebuffers) Destroy() {
	for _, fb := range f.buffers {
		vk.DestroyFramebuffer(f.device, fb, nil)
	}
	f.buffers = nil
}
