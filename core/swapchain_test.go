package core

import (
	"errors"
	"fmt"
	"testing"
	"unsafe"

	qt "github.com/frankban/quicktest"
	vk "github.com/vulkan-go/vulkan"
)

type sizedWindow struct {
	width, height uint32
}

func (w sizedWindow) FramebufferSize() (uint32, uint32) { return w.width, w.height }
func (sizedWindow) ShouldClose() bool                   { return false }
func (sizedWindow) PollEvents()                         {}
func (sizedWindow) SetTitle(string)                     {}

func testSupport() SurfaceSupport {
	return SurfaceSupport{
		Capabilities: vk.SurfaceCapabilities{
			MinImageCount:  2,
			MaxImageCount:  3,
			CurrentExtent:  vk.Extent2D{Width: undefinedExtent, Height: undefinedExtent},
			MinImageExtent: vk.Extent2D{Width: 1, Height: 1},
			MaxImageExtent: vk.Extent2D{Width: 4096, Height: 2160},
		},
		Formats: []vk.SurfaceFormat{
			{Format: vk.FormatR8g8b8a8Unorm, ColorSpace: vk.ColorSpaceSrgbNonlinear},
			{Format: vk.FormatB8g8r8a8Srgb, ColorSpace: vk.ColorSpaceSrgbNonlinear},
		},
		PresentModes: []vk.PresentMode{vk.PresentModeFifo, vk.PresentModeMailbox},
	}
}

// fakeSwapchainDriver hands out distinct handles backed by Go memory
// and records every release.
type fakeSwapchainDriver struct {
	support    SurfaceSupport
	queryErr   error
	queries    int
	images     int
	failViewAt int

	memory    [32]byte
	next      int
	created   *vk.SwapchainCreateInfo
	viewImage map[vk.ImageView]vk.Image
	viewIndex map[vk.ImageView]int
	formats   []vk.Format
	released  []string
}

func newFakeSwapchainDriver(support SurfaceSupport) *fakeSwapchainDriver {
	return &fakeSwapchainDriver{
		support:    support,
		images:     3,
		failViewAt: -1,
		viewImage:  map[vk.ImageView]vk.Image{},
		viewIndex:  map[vk.ImageView]int{},
	}
}

func (f *fakeSwapchainDriver) handle() unsafe.Pointer {
	p := unsafe.Pointer(&f.memory[f.next])
	f.next++
	return p
}

func (f *fakeSwapchainDriver) QuerySupport() (SurfaceSupport, error) {
	f.queries++
	return f.support, f.queryErr
}

func (f *fakeSwapchainDriver) CreateSwapchain(info *vk.SwapchainCreateInfo) (vk.Swapchain, error) {
	f.created = info
	return vk.Swapchain(f.handle()), nil
}

func (f *fakeSwapchainDriver) Images(vk.Swapchain) ([]vk.Image, error) {
	images := make([]vk.Image, f.images)
	for i := range images {
		images[i] = vk.Image(f.handle())
	}
	return images, nil
}

func (f *fakeSwapchainDriver) CreateView(image vk.Image, format vk.Format) (vk.ImageView, error) {
	idx := len(f.viewIndex)
	if idx == f.failViewAt {
		return nil, errors.New("vk.CreateImageView(): out of memory")
	}
	view := vk.ImageView(f.handle())
	f.viewImage[view] = image
	f.viewIndex[view] = idx
	f.formats = append(f.formats, format)
	return view, nil
}

func (f *fakeSwapchainDriver) DestroyView(view vk.ImageView) {
	f.released = append(f.released, fmt.Sprintf("view %d", f.viewIndex[view]))
}

func (f *fakeSwapchainDriver) DestroySwapchain(vk.Swapchain) {
	f.released = append(f.released, "swapchain")
}

func testSwapchain(window Window, support SurfaceSupport) (*SwapchainContext, *fakeSwapchainDriver) {
	driver := newFakeSwapchainDriver(support)
	return &SwapchainContext{window: window, driver: driver}, driver
}

// createdSwapchain runs every stage before AcquireImages.
func createdSwapchain(c *qt.C, driver *fakeSwapchainDriver) *SwapchainContext {
	sc := &SwapchainContext{window: sizedWindow{800, 600}, driver: driver}
	c.Assert(sc.QuerySupport(), qt.IsNil)
	_, err := sc.ChooseFormat()
	c.Assert(err, qt.IsNil)
	_, err = sc.ChoosePresentMode()
	c.Assert(err, qt.IsNil)
	_, err = sc.ChooseExtent()
	c.Assert(err, qt.IsNil)
	c.Assert(sc.Create(), qt.IsNil)
	return sc
}

func TestChooseExtentBeforeQuery(t *testing.T) {
	c := qt.New(t)
	sc, _ := testSwapchain(sizedWindow{800, 600}, testSupport())

	_, err := sc.ChooseExtent()
	c.Assert(errors.Is(err, ErrIllegalState), qt.IsTrue)
	_, err = sc.ChooseFormat()
	c.Assert(errors.Is(err, ErrIllegalState), qt.IsTrue)
	c.Assert(errors.Is(sc.Create(), ErrIllegalState), qt.IsTrue)
	c.Assert(errors.Is(sc.AcquireImages(), ErrIllegalState), qt.IsTrue)
	_, err = sc.Support()
	c.Assert(errors.Is(err, ErrIllegalState), qt.IsTrue)
}

func TestQueryOnlyOnce(t *testing.T) {
	c := qt.New(t)
	sc, driver := testSwapchain(sizedWindow{800, 600}, testSupport())

	c.Assert(sc.QuerySupport(), qt.IsNil)
	c.Assert(errors.Is(sc.QuerySupport(), ErrIllegalState), qt.IsTrue)
	c.Assert(driver.queries, qt.Equals, 1)
}

func TestQueryFailure(t *testing.T) {
	c := qt.New(t)
	sc, driver := testSwapchain(sizedWindow{800, 600}, testSupport())
	driver.queryErr = errors.New("vk.GetPhysicalDeviceSurfaceCapabilities(): lost")
	c.Assert(sc.QuerySupport(), qt.ErrorMatches, ".*lost")
	_, err := sc.ChooseExtent()
	c.Assert(errors.Is(err, ErrIllegalState), qt.IsTrue)
}

func TestChooseConfiguration(t *testing.T) {
	c := qt.New(t)
	sc, _ := testSwapchain(sizedWindow{5000, 600}, testSupport())
	c.Assert(sc.QuerySupport(), qt.IsNil)

	format, err := sc.ChooseFormat()
	c.Assert(err, qt.IsNil)
	c.Assert(format.Format, qt.Equals, vk.FormatB8g8r8a8Srgb)

	mode, err := sc.ChoosePresentMode()
	c.Assert(err, qt.IsNil)
	c.Assert(mode, qt.Equals, vk.PresentModeMailbox)

	extent, err := sc.ChooseExtent()
	c.Assert(err, qt.IsNil)
	c.Assert(extent, qt.Equals, vk.Extent2D{Width: 4096, Height: 600})
}

func TestCreateNeedsEveryChoice(t *testing.T) {
	c := qt.New(t)
	sc, _ := testSwapchain(sizedWindow{800, 600}, testSupport())
	c.Assert(sc.QuerySupport(), qt.IsNil)
	_, err := sc.ChooseFormat()
	c.Assert(err, qt.IsNil)

	c.Assert(errors.Is(sc.Create(), ErrIllegalState), qt.IsTrue)
}

func TestFixedCurrentExtent(t *testing.T) {
	c := qt.New(t)
	support := testSupport()
	support.Capabilities.CurrentExtent = vk.Extent2D{Width: 640, Height: 480}
	sc, _ := testSwapchain(sizedWindow{0, 0}, support)
	c.Assert(sc.QuerySupport(), qt.IsNil)

	extent, err := sc.ChooseExtent()
	c.Assert(err, qt.IsNil)
	c.Assert(extent, qt.Equals, vk.Extent2D{Width: 640, Height: 480})
}

func TestDestroyIsIdempotent(t *testing.T) {
	c := qt.New(t)
	sc, _ := testSwapchain(sizedWindow{800, 600}, testSupport())
	c.Assert(sc.QuerySupport(), qt.IsNil)

	sc.Destroy()
	sc.Destroy()
	c.Assert(sc.state, qt.Equals, swapchainDestroyed)
	_, err := sc.Support()
	c.Assert(errors.Is(err, ErrIllegalState), qt.IsTrue)
	c.Assert(errors.Is(sc.QuerySupport(), ErrIllegalState), qt.IsTrue)
}

func TestCreateUsesChosenConfiguration(t *testing.T) {
	c := qt.New(t)
	driver := newFakeSwapchainDriver(testSupport())
	sc := createdSwapchain(c, driver)

	c.Assert(sc.Handle(), qt.Not(qt.IsNil))
	c.Assert(driver.created.MinImageCount, qt.Equals, uint32(3))
	c.Assert(driver.created.ImageFormat, qt.Equals, vk.FormatB8g8r8a8Srgb)
	c.Assert(driver.created.PresentMode, qt.Equals, vk.PresentModeMailbox)
	c.Assert(driver.created.ImageSharingMode, qt.Equals, vk.SharingModeExclusive)
	c.Assert(errors.Is(sc.Create(), ErrIllegalState), qt.IsTrue)
}

func TestImageViewCorrespondence(t *testing.T) {
	c := qt.New(t)
	for _, count := range []int{1, 2, 3, 8} {
		driver := newFakeSwapchainDriver(testSupport())
		driver.images = count
		sc := createdSwapchain(c, driver)

		c.Assert(sc.AcquireImages(), qt.IsNil)
		views := sc.Views()
		c.Assert(views, qt.HasLen, count)
		c.Assert(sc.images, qt.HasLen, len(views))
		for i, view := range views {
			c.Assert(driver.viewImage[view], qt.Equals, sc.images[i], qt.Commentf("view %d of %d", i, count))
			c.Assert(driver.formats[i], qt.Equals, sc.Format().Format)
		}
		c.Assert(sc.state, qt.Equals, swapchainImagesAcquired)
	}
}

func TestViewFailureReleasesCreatedViews(t *testing.T) {
	c := qt.New(t)
	driver := newFakeSwapchainDriver(testSupport())
	driver.images = 4
	driver.failViewAt = 2
	sc := createdSwapchain(c, driver)

	c.Assert(sc.AcquireImages(), qt.ErrorMatches, ".*out of memory")
	c.Assert(driver.released, qt.DeepEquals, []string{"view 0", "view 1"})
	c.Assert(sc.state, qt.Equals, swapchainCreated)
	c.Assert(sc.Views(), qt.HasLen, 0)

	sc.Destroy()
	sc.Destroy()
	c.Assert(driver.released, qt.DeepEquals, []string{"view 0", "view 1", "swapchain"})
}

func TestDestroyReleasesViewsBeforeSwapchain(t *testing.T) {
	c := qt.New(t)
	driver := newFakeSwapchainDriver(testSupport())
	sc := createdSwapchain(c, driver)
	c.Assert(sc.AcquireImages(), qt.IsNil)

	sc.Destroy()
	sc.Destroy()
	c.Assert(driver.released, qt.DeepEquals, []string{"view 0", "view 1", "view 2", "swapchain"})
	c.Assert(sc.Views(), qt.HasLen, 0)
	c.Assert(errors.Is(sc.AcquireImages(), ErrIllegalState), qt.IsTrue)
}
