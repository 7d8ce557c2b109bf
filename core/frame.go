package core

import (
	"errors"
	"fmt"
	"math"

	glm "github.com/go-gl/mathgl/mgl32"
	log "github.com/sirupsen/logrus"
	vk "github.com/vulkan-go/vulkan"
)

// frameDriver is the GPU side of a frame. Each call maps to one step
// of the frame sequence.
type frameDriver interface {
	WaitFence() error
	ResetFence() error
	AcquireImage() (uint32, error)
	Record(imageIndex uint32) error
	Submit() error
	Present(imageIndex uint32) error

	// RecoverSubmit puts the fence back to signalled and the image
	// semaphore back to unsignalled after a submit that never reached
	// the queue
	RecoverSubmit() error
	Destroy()
}

// FrameStats counts frames since the executor was created
type FrameStats struct {
	Presented uint64
	Dropped   uint64
}

// FrameExecutor drives the per frame record, submit, present sequence
// with a single frame in flight.
type FrameExecutor struct {
	driver frameDriver
	stats  FrameStats

	// images acquired beyond the minimum the presentation engine keeps,
	// a failed submit holds on to one of them for good
	spareImages int
	heldImages  int
}

// NewFrameExecutor creates the command pool, the command buffer and
// the synchronization primitives. The fence starts signalled so the
// first frame does not wait.
func NewFrameExecutor(device *LogicalDeviceContext, swapchain *SwapchainContext, pipeline *PipelineContext, framebuffers *Framebuffers, clearColor glm.Vec4) (*FrameExecutor, error) {
	graphics, graphicsFamily := device.Queue(GraphicsCapability)
	present, _ := device.Queue(PresentationCapability)
	if graphics == nil || present == nil {
		return nil, illegalState("device has no graphics or presentation queue")
	}

	d := &vulkanFrameDriver{
		device:       device.Handle(),
		graphics:     graphics,
		present:      present,
		swapchain:    swapchain.Handle(),
		extent:       swapchain.Extent(),
		renderPass:   pipeline.RenderPass(),
		pipeline:     pipeline.Handle(),
		framebuffers: framebuffers,
		clearColor:   clearColor,
	}
	if err := d.createCommandPool(graphicsFamily); err != nil {
		return nil, err
	}
	if err := d.allocateCommandBuffer(); err != nil {
		d.Destroy()
		return nil, err
	}
	if err := d.createSynchronization(); err != nil {
		d.Destroy()
		return nil, err
	}
	spare := len(swapchain.Views())
	if support, err := swapchain.Support(); err == nil {
		spare -= int(support.Capabilities.MinImageCount)
	}
	if spare < 0 {
		spare = 0
	}
	return &FrameExecutor{driver: d, spareImages: spare}, nil
}

// DrawFrame renders and presents one frame. Failures to submit or present
// drop the frame and are only logged, every other failure is returned.
// Once failed submits hold more images than the swapchain can spare,
// acquiring could block forever and ErrIllegalState is returned instead.
func (f *FrameExecutor) DrawFrame() error {
	if err := f.driver.WaitFence(); err != nil {
		return err
	}
	if err := f.driver.ResetFence(); err != nil {
		return err
	}
	imageIndex, err := f.driver.AcquireImage()
	if err != nil {
		return err
	}
	if err := f.driver.Record(imageIndex); err != nil {
		return err
	}

	if err := f.driver.Submit(); err != nil {
		f.stats.Dropped++
		f.heldImages++
		log.WithError(err).Warn("frame dropped on submit")
		if err := f.driver.RecoverSubmit(); err != nil {
			return err
		}
		if f.heldImages > f.spareImages {
			return illegalState("%d images held by failed submits, %d can be spared", f.heldImages, f.spareImages)
		}
		return nil
	}
	if err := f.driver.Present(imageIndex); err != nil {
		f.stats.Dropped++
		log.WithError(err).Warn("frame dropped on present")
		return nil
	}
	f.stats.Presented++
	return nil
}

// Stats returns frame counters
func (f *FrameExecutor) Stats() FrameStats {
	return f.stats
}

// Destroy releases the command pool and synchronization primitives,
// the device must be idle.
func (f *FrameExecutor) Destroy() {
	f.driver.Destroy()
}

type vulkanFrameDriver struct {
	device   vk.Device
	graphics vk.Queue
	present  vk.Queue

	swapchain    vk.Swapchain
	extent       vk.Extent2D
	renderPass   vk.RenderPass
	pipeline     vk.Pipeline
	framebuffers *Framebuffers
	clearColor   glm.Vec4

	commandPool   vk.CommandPool
	commandBuffer vk.CommandBuffer

	inFlightFence           vk.Fence
	imageAvailableSemaphore vk.Semaphore
	renderFinishedSemaphore vk.Semaphore
}

func (v *vulkanFrameDriver) createCommandPool(family uint32) error {
	cpci := vk.CommandPoolCreateInfo{
		SType:            vk.StructureTypeCommandPoolCreateInfo,
		Flags:            vk.CommandPoolCreateFlags(vk.CommandPoolCreateResetCommandBufferBit),
		QueueFamilyIndex: family,
	}

	var commandPool vk.CommandPool
	if err := vkCall("vk.CreateCommandPool", vk.CreateCommandPool(v.device, &cpci, nil, &commandPool)); err != nil {
		return err
	}
	v.commandPool = commandPool
	return nil
}

func (v *vulkanFrameDriver) allocateCommandBuffer() error {
	cbai := vk.CommandBufferAllocateInfo{
		SType:              vk.StructureTypeCommandBufferAllocateInfo,
		CommandPool:        v.commandPool,
		Level:              vk.CommandBufferLevelPrimary,
		CommandBufferCount: 1,
	}

	commandBuffers := make([]vk.CommandBuffer, 1)
	if err := vkCall("vk.AllocateCommandBuffers", vk.AllocateCommandBuffers(v.device, &cbai, commandBuffers)); err != nil {
		return err
	}
	v.commandBuffer = commandBuffers[0]
	return nil
}

func (v *vulkanFrameDriver) createSynchronization() error {
	sci := vk.SemaphoreCreateInfo{
		SType: vk.StructureTypeSemaphoreCreateInfo,
	}

	var imageAvailableSemaphore, renderFinishedSemaphore vk.Semaphore
	if err := vkCall("vk.CreateSemaphore", vk.CreateSemaphore(v.device, &sci, nil, &imageAvailableSemaphore)); err != nil {
		return err
	}
	v.imageAvailableSemaphore = imageAvailableSemaphore

	if err := vkCall("vk.CreateSemaphore", vk.CreateSemaphore(v.device, &sci, nil, &renderFinishedSemaphore)); err != nil {
		return err
	}
	v.renderFinishedSemaphore = renderFinishedSemaphore

	return v.createFence()
}

func (v *vulkanFrameDriver) createFence() error {
	fci := vk.FenceCreateInfo{
		SType: vk.StructureTypeFenceCreateInfo,
		Flags: vk.FenceCreateFlags(vk.FenceCreateSignaledBit),
	}

	var fence vk.Fence
	if err := vkCall("vk.CreateFence", vk.CreateFence(v.device, &fci, nil, &fence)); err != nil {
		return err
	}
	v.inFlightFence = fence
	return nil
}

func (v *vulkanFrameDriver) WaitFence() error {
	return vkCall("vk.WaitForFences", vk.WaitForFences(v.device, 1, []vk.Fence{v.inFlightFence}, vk.True, math.MaxUint64))
}

func (v *vulkanFrameDriver) ResetFence() error {
	return vkCall("vk.ResetFences", vk.ResetFences(v.device, 1, []vk.Fence{v.inFlightFence}))
}

func (v *vulkanFrameDriver) AcquireImage() (uint32, error) {
	var imageIndex uint32
	ret := vk.AcquireNextImage(v.device, v.swapchain, math.MaxUint64, v.imageAvailableSemaphore, vk.NullFence, &imageIndex)
	if ret == vk.Suboptimal {
		return imageIndex, nil
	}
	if err := vkCall("vk.AcquireNextImage", ret); err != nil {
		return 0, err
	}
	return imageIndex, nil
}

func (v *vulkanFrameDriver) Record(imageIndex uint32) error {
	framebuffer, err := v.framebuffers.At(imageIndex)
	if err != nil {
		return err
	}

	if err := vkCall("vk.ResetCommandBuffer", vk.ResetCommandBuffer(v.commandBuffer, 0)); err != nil {
		return err
	}

	cbbi := vk.CommandBufferBeginInfo{
		SType: vk.StructureTypeCommandBufferBeginInfo,
	}
	if err := vk.Error(vk.BeginCommandBuffer(v.commandBuffer, &cbbi)); err != nil {
		return fmt.Errorf("vk.BeginCommandBuffer()[%d]: %s", imageIndex, err.Error())
	}

	clearValues := make([]vk.ClearValue, 1)
	clearValues[0].SetColor(v.clearColor[:])

	rpbi := vk.RenderPassBeginInfo{
		SType:       vk.StructureTypeRenderPassBeginInfo,
		RenderPass:  v.renderPass,
		Framebuffer: framebuffer,
		RenderArea: vk.Rect2D{
			Offset: vk.Offset2D{
				X: 0, Y: 0,
			},
			Extent: v.extent,
		},
		ClearValueCount: uint32(len(clearValues)),
		PClearValues:    clearValues,
	}

	viewport := vk.Viewport{
		X:        0,
		Y:        0,
		Width:    float32(v.extent.Width),
		Height:   float32(v.extent.Height),
		MinDepth: 0,
		MaxDepth: 1,
	}
	scissor := vk.Rect2D{
		Offset: vk.Offset2D{X: 0, Y: 0},
		Extent: v.extent,
	}

	vk.CmdBeginRenderPass(v.commandBuffer, &rpbi, vk.SubpassContentsInline)
	vk.CmdBindPipeline(v.commandBuffer, vk.PipelineBindPointGraphics, v.pipeline)
	vk.CmdSetViewport(v.commandBuffer, 0, 1, []vk.Viewport{viewport})
	vk.CmdSetScissor(v.commandBuffer, 0, 1, []vk.Rect2D{scissor})
	vk.CmdDraw(v.commandBuffer, 3, 1, 0, 0)
	vk.CmdEndRenderPass(v.commandBuffer)

	if err := vk.Error(vk.EndCommandBuffer(v.commandBuffer)); err != nil {
		return fmt.Errorf("vk.EndCommandBuffer()[%d]: %s", imageIndex, err.Error())
	}
	return nil
}

func (v *vulkanFrameDriver) Submit() error {
	submit := []vk.SubmitInfo{{
		SType:              vk.StructureTypeSubmitInfo,
		WaitSemaphoreCount: 1,
		PWaitSemaphores:    []vk.Semaphore{v.imageAvailableSemaphore},
		PWaitDstStageMask: []vk.PipelineStageFlags{
			vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
		},
		CommandBufferCount:   1,
		PCommandBuffers:      []vk.CommandBuffer{v.commandBuffer},
		SignalSemaphoreCount: 1,
		PSignalSemaphores:    []vk.Semaphore{v.renderFinishedSemaphore},
	}}
	return vkCall("vk.QueueSubmit", vk.QueueSubmit(v.graphics, 1, submit, v.inFlightFence))
}

func (v *vulkanFrameDriver) Present(imageIndex uint32) error {
	presentInfo := vk.PresentInfo{
		SType:              vk.StructureTypePresentInfo,
		WaitSemaphoreCount: 1,
		PWaitSemaphores:    []vk.Semaphore{v.renderFinishedSemaphore},
		SwapchainCount:     1,
		PSwapchains:        []vk.Swapchain{v.swapchain},
		PImageIndices:      []uint32{imageIndex},
	}

	ret := vk.QueuePresent(v.present, &presentInfo)
	if ret == vk.Suboptimal {
		return nil
	}
	return vkCall("vk.QueuePresent", ret)
}

func (v *vulkanFrameDriver) RecoverSubmit() error {
	if v.inFlightFence == nil || v.imageAvailableSemaphore == nil {
		return errors.New("vk.QueueSubmit(): nothing to recover")
	}
	vk.DestroyFence(v.device, v.inFlightFence, nil)
	v.inFlightFence = nil
	if err := v.createFence(); err != nil {
		return err
	}

	// still signalled by the acquire the failed submit never waited on
	vk.DestroySemaphore(v.device, v.imageAvailableSemaphore, nil)
	v.imageAvailableSemaphore = nil
	sci := vk.SemaphoreCreateInfo{
		SType: vk.StructureTypeSemaphoreCreateInfo,
	}
	var semaphore vk.Semaphore
	if err := vkCall("vk.CreateSemaphore", vk.CreateSemaphore(v.device, &sci, nil, &semaphore)); err != nil {
		return err
	}
	v.imageAvailableSemaphore = semaphore
	return nil
}

func (v *vulkanFrameDriver) Destroy() {
	if v.inFlightFence != nil {
		vk.DestroyFence(v.device, v.inFlightFence, nil)
	}
	if v.renderFinishedSemaphore != nil {
		vk.DestroySemaphore(v.device, v.renderFinishedSemaphore, nil)
	}
	if v.imageAvailableSemaphore != nil {
		vk.DestroySemaphore(v.device, v.imageAvailableSemaphore, nil)
	}
	if v.commandBuffer != nil {
		vk.FreeCommandBuffers(v.device, v.commandPool, 1, []vk.CommandBuffer{v.commandBuffer})
	}
	if v.commandPool != nil {
		vk.DestroyCommandPool(v.device, v.commandPool, nil)
	}
	v.inFlightFence, v.renderFinishedSemaphore, v.imageAvailableSemaphore = nil, nil, nil
	v.commandBuffer, v.commandPool = nil, nil
}
