package device_test

import (
	"encoding/json"
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/devblok/trident/device"
)

var swapchainOnly = device.Requirements{
	Extensions:      []string{"VK_KHR_swapchain"},
	RequireDiscrete: true,
}

func TestSelectFirstSuitable(t *testing.T) {
	c := qt.New(t)
	devices := []device.PhysicalDeviceInfo{
		{Name: "integrated", Type: device.TypeIntegrated, Extensions: []string{"VK_KHR_swapchain"}},
		{Name: "no swapchain", Type: device.TypeDiscrete, Extensions: []string{"VK_KHR_maintenance1"}},
		{Name: "broken", Type: device.TypeDiscrete, Invalid: true, Extensions: []string{"VK_KHR_swapchain"}},
		{Name: "good", Type: device.TypeDiscrete, Extensions: []string{"VK_KHR_maintenance1", "VK_KHR_swapchain"}},
		{Name: "also good", Type: device.TypeDiscrete, Extensions: []string{"VK_KHR_swapchain"}},
	}

	selected, err := device.Select(devices, swapchainOnly, nil)
	c.Assert(err, qt.IsNil)
	c.Assert(selected.Name, qt.Equals, "good")
}

func TestSelectNoneSuitable(t *testing.T) {
	c := qt.New(t)
	devices := []device.PhysicalDeviceInfo{
		{Name: "integrated", Type: device.TypeIntegrated, Extensions: []string{"VK_KHR_swapchain"}},
	}

	_, err := device.Select(devices, swapchainOnly, nil)
	c.Assert(err, qt.Equals, device.ErrNoSuitableDevice)

	_, err = device.Select(nil, swapchainOnly, nil)
	c.Assert(err, qt.Equals, device.ErrNoSuitableDevice)
}

func TestSelectAllowsIntegrated(t *testing.T) {
	c := qt.New(t)
	devices := []device.PhysicalDeviceInfo{
		{Name: "integrated", Type: device.TypeIntegrated, Extensions: []string{"VK_KHR_swapchain"}},
	}

	selected, err := device.Select(devices, device.Requirements{Extensions: []string{"VK_KHR_swapchain"}}, nil)
	c.Assert(err, qt.IsNil)
	c.Assert(selected.Name, qt.Equals, "integrated")
}

func TestSelectSuitabilityCheck(t *testing.T) {
	c := qt.New(t)
	devices := []device.PhysicalDeviceInfo{
		{ID: 1, Name: "no present queue", Type: device.TypeDiscrete, Extensions: []string{"VK_KHR_swapchain"}},
		{ID: 2, Name: "presents", Type: device.TypeDiscrete, Extensions: []string{"VK_KHR_swapchain"}},
	}

	var checked []int
	selected, err := device.Select(devices, swapchainOnly, func(d device.PhysicalDeviceInfo) (bool, string) {
		checked = append(checked, d.ID)
		return d.ID == 2, "no queue family can present"
	})
	c.Assert(err, qt.IsNil)
	c.Assert(selected.ID, qt.Equals, 2)
	c.Assert(checked, qt.DeepEquals, []int{1, 2})
}

func TestDumpIsReadable(t *testing.T) {
	c := qt.New(t)
	bytes, err := json.Marshal(device.PhysicalDeviceInfo{Name: "gpu", Type: device.TypeDiscrete})
	c.Assert(err, qt.IsNil)
	c.Assert(string(bytes), qt.Contains, `"Type":"discrete"`)
	c.Assert(string(bytes), qt.Not(qt.Contains), "Handle")
}
