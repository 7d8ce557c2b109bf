package core

import (
	log "github.com/sirupsen/logrus"
	vk "github.com/vulkan-go/vulkan"
)

type swapchainState int

const (
	swapchainUnqueried swapchainState = iota
	swapchainQueried
	swapchainCreated
	swapchainImagesAcquired
	swapchainDestroyed
)

func (s swapchainState) String() string {
	return [...]string{"unqueried", "queried", "created", "images acquired", "destroyed"}[s]
}

type swapchainChoice uint8

const (
	formatChosen swapchainChoice = 1 << iota
	presentModeChosen
	extentChosen

	allChosen = formatChosen | presentModeChosen | extentChosen
)

// swapchainDriver performs the Vulkan calls of the swapchain stages.
type swapchainDriver interface {
	QuerySupport() (SurfaceSupport, error)
	CreateSwapchain(info *vk.SwapchainCreateInfo) (vk.Swapchain, error)
	Images(swapchain vk.Swapchain) ([]vk.Image, error)
	CreateView(image vk.Image, format vk.Format) (vk.ImageView, error)
	DestroyView(view vk.ImageView)
	DestroySwapchain(swapchain vk.Swapchain)
}

// NewSwapchainContext prepares a swapchain for the surface. Nothing is
// created until the support is queried and the configuration chosen.
func NewSwapchainContext(device *LogicalDeviceContext, surface vk.Surface, window Window) *SwapchainContext {
	return &SwapchainContext{
		surface:  surface,
		window:   window,
		topology: device.Topology(),
		driver: &vulkanSwapchainDriver{
			device:   device.Handle(),
			physical: device.Physical(),
			surface:  surface,
		},
	}
}

// SwapchainContext owns the presentable images and their views.
// Its operations must be invoked in order: QuerySupport, the Choose
// methods, Create, AcquireImages, and finally Destroy.
type SwapchainContext struct {
	surface  vk.Surface
	window   Window
	topology QueueTopology
	driver   swapchainDriver

	state   swapchainState
	chosen  swapchainChoice
	support *SurfaceSupport

	format      vk.SurfaceFormat
	presentMode vk.PresentMode
	extent      vk.Extent2D

	swapchain vk.Swapchain
	images    []vk.Image
	views     []vk.ImageView
}

// Setup runs every stage up to acquired images.
func (s *SwapchainContext) Setup() error {
	if err := s.QuerySupport(); err != nil {
		return err
	}
	if _, err := s.ChooseFormat(); err != nil {
		return err
	}
	if _, err := s.ChoosePresentMode(); err != nil {
		return err
	}
	if _, err := s.ChooseExtent(); err != nil {
		return err
	}
	if err := s.Create(); err != nil {
		return err
	}
	return s.AcquireImages()
}

func (s *SwapchainContext) expect(state swapchainState, op string) error {
	if s.state != state {
		return illegalState("swapchain %s while %s", op, s.state)
	}
	return nil
}

// QuerySupport takes the surface support snapshot, it may happen once.
func (s *SwapchainContext) QuerySupport() error {
	if err := s.expect(swapchainUnqueried, "QuerySupport"); err != nil {
		return err
	}
	support, err := s.driver.QuerySupport()
	if err != nil {
		return err
	}
	s.support = &support
	s.state = swapchainQueried
	return nil
}

// Support returns the snapshot taken by QuerySupport.
func (s *SwapchainContext) Support() (SurfaceSupport, error) {
	if s.support == nil {
		return SurfaceSupport{}, illegalState("surface support not queried")
	}
	return *s.support, nil
}

// ChooseFormat picks the surface format from the snapshot.
func (s *SwapchainContext) ChooseFormat() (vk.SurfaceFormat, error) {
	if err := s.expect(swapchainQueried, "ChooseFormat"); err != nil {
		return vk.SurfaceFormat{}, err
	}
	format, err := ChooseSurfaceFormat(s.support.Formats)
	if err != nil {
		return vk.SurfaceFormat{}, err
	}
	s.format = format
	s.chosen |= formatChosen
	return format, nil
}

// ChoosePresentMode picks the present mode from the snapshot.
func (s *SwapchainContext) ChoosePresentMode() (vk.PresentMode, error) {
	if err := s.expect(swapchainQueried, "ChoosePresentMode"); err != nil {
		return 0, err
	}
	s.presentMode = ChoosePresentMode(s.support.PresentModes)
	s.chosen |= presentModeChosen
	return s.presentMode, nil
}

// ChooseExtent reads the live framebuffer size and clamps it into
// the limits of the surface.
func (s *SwapchainContext) ChooseExtent() (vk.Extent2D, error) {
	if err := s.expect(swapchainQueried, "ChooseExtent"); err != nil {
		return vk.Extent2D{}, err
	}
	caps := s.support.Capabilities
	width, height := s.window.FramebufferSize()
	if (width == 0 || height == 0) && caps.CurrentExtent.Width != undefinedExtent {
		width, height = caps.CurrentExtent.Width, caps.CurrentExtent.Height
	}
	s.extent = ClampExtent(width, height, caps.MinImageExtent, caps.MaxImageExtent)
	s.chosen |= extentChosen
	return s.extent, nil
}

// Create creates the swapchain handle with the chosen configuration.
func (s *SwapchainContext) Create() error {
	if err := s.expect(swapchainQueried, "Create"); err != nil {
		return err
	}
	if s.chosen != allChosen {
		return illegalState("swapchain configuration incomplete")
	}

	caps := s.support.Capabilities
	sharingMode, families := s.topology.SharingMode()
	scci := vk.SwapchainCreateInfo{
		SType:                 vk.StructureTypeSwapchainCreateInfo,
		Surface:               s.surface,
		MinImageCount:         ImageCount(caps.MinImageCount, caps.MaxImageCount),
		ImageFormat:           s.format.Format,
		ImageColorSpace:       s.format.ColorSpace,
		ImageExtent:           s.extent,
		ImageArrayLayers:      1,
		ImageUsage:            vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit),
		ImageSharingMode:      sharingMode,
		QueueFamilyIndexCount: uint32(len(families)),
		PQueueFamilyIndices:   families,
		PreTransform:          caps.CurrentTransform,
		CompositeAlpha:        chooseCompositeAlpha(caps.SupportedCompositeAlpha),
		PresentMode:           s.presentMode,
		Clipped:               vk.True,
	}

	swapchain, err := s.driver.CreateSwapchain(&scci)
	if err != nil {
		return err
	}
	s.swapchain = swapchain
	s.state = swapchainCreated

	log.WithFields(log.Fields{
		"images":  scci.MinImageCount,
		"width":   s.extent.Width,
		"height":  s.extent.Height,
		"format":  s.format.Format,
		"present": s.presentMode,
		"sharing": sharingMode,
	}).Info("swapchain created")
	return nil
}

// AcquireImages gets the swapchain images and creates a view for each.
// On failure the views created so far are released.
func (s *SwapchainContext) AcquireImages() error {
	if err := s.expect(swapchainCreated, "AcquireImages"); err != nil {
		return err
	}

	images, err := s.driver.Images(s.swapchain)
	if err != nil {
		return err
	}

	views := make([]vk.ImageView, 0, len(images))
	for _, image := range images {
		view, err := s.driver.CreateView(image, s.format.Format)
		if err != nil {
			for _, v := range views {
				s.driver.DestroyView(v)
			}
			return err
		}
		views = append(views, view)
	}

	s.images = images
	s.views = views
	s.state = swapchainImagesAcquired
	return nil
}

// Handle returns the swapchain handle.
func (s *SwapchainContext) Handle() vk.Swapchain {
	return s.swapchain
}

// Format is the chosen surface format.
func (s *SwapchainContext) Format() vk.SurfaceFormat {
	return s.format
}

// Extent is the chosen image extent.
func (s *SwapchainContext) Extent() vk.Extent2D {
	return s.extent
}

// Views returns one view per swapchain image, views[i] views image i.
func (s *SwapchainContext) Views() []vk.ImageView {
	return s.views
}

// Destroy releases views, then the swapchain, and forgets the snapshot.
// Calling it more than once is harmless.
func (s *SwapchainContext) Destroy() {
	if s.state == swapchainDestroyed {
		return
	}
	for _, v := range s.views {
		s.driver.DestroyView(v)
	}
	s.views = nil
	s.images = nil
	if s.swapchain != nil {
		s.driver.DestroySwapchain(s.swapchain)
		s.swapchain = nil
	}
	s.support = nil
	s.chosen = 0
	s.state = swapchainDestroyed
}

type vulkanSwapchainDriver struct {
	device   vk.Device
	physical vk.PhysicalDevice
	surface  vk.Surface
}

func (v *vulkanSwapchainDriver) QuerySupport() (SurfaceSupport, error) {
	return QuerySurfaceSupport(v.physical, v.surface)
}

func (v *vulkanSwapchainDriver) CreateSwapchain(info *vk.SwapchainCreateInfo) (vk.Swapchain, error) {
	var swapchain vk.Swapchain
	if err := vkCall("vk.CreateSwapchain", vk.CreateSwapchain(v.device, info, nil, &swapchain)); err != nil {
		return nil, err
	}
	return swapchain, nil
}

func (v *vulkanSwapchainDriver) Images(swapchain vk.Swapchain) ([]vk.Image, error) {
	var numImages uint32
	if err := vkCall("vk.GetSwapchainImages", vk.GetSwapchainImages(v.device, swapchain, &numImages, nil)); err != nil {
		return nil, err
	}
	images := make([]vk.Image, numImages)
	if err := vkCall("vk.GetSwapchainImages", vk.GetSwapchainImages(v.device, swapchain, &numImages, images)); err != nil {
		return nil, err
	}
	return images[:numImages], nil
}

func (v *vulkanSwapchainDriver) CreateView(image vk.Image, format vk.Format) (vk.ImageView, error) {
	ivci := vk.ImageViewCreateInfo{
		SType:    vk.StructureTypeImageViewCreateInfo,
		Image:    image,
		ViewType: vk.ImageViewType2d,
		Format:   format,
		Components: vk.ComponentMapping{
			R: vk.ComponentSwizzleIdentity,
			G: vk.ComponentSwizzleIdentity,
			B: vk.ComponentSwizzleIdentity,
			A: vk.ComponentSwizzleIdentity,
		},
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask:     vk.ImageAspectFlags(vk.ImageAspectColorBit),
			BaseMipLevel:   0,
			LevelCount:     1,
			BaseArrayLayer: 0,
			LayerCount:     1,
		},
	}

	var view vk.ImageView
	if err := vkCall("vk.CreateImageView", vk.CreateImageView(v.device, &ivci, nil, &view)); err != nil {
		return nil, err
	}
	return view, nil
}

func (v *vulkanSwapchainDriver) DestroyView(view vk.ImageView) {
	vk.DestroyImageView(v.device, view, nil)
}

func (v *vulkanSwapchainDriver) DestroySwapchain(swapchain vk.Swapchain) {
	vk.DestroySwapchain(v.device, swapchain, nil)
}
