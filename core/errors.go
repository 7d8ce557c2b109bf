package core

import (
	"errors"
	"fmt"

	vk "github.com/vulkan-go/vulkan"

	"github.com/devblok/trident/device"
)

// package errors
var (
	// ErrNoSuitableDevice is returned when no physical device satisfies
	// the rendering requirements
	ErrNoSuitableDevice = device.ErrNoSuitableDevice

	// ErrDeviceCreation is returned when the logical device could not be created
	ErrDeviceCreation = errors.New("logical device creation failed")

	// ErrIllegalState is returned when an operation is invoked out of order
	// or a required resource is missing
	ErrIllegalState = errors.New("illegal state")
)

// vkCall converts a Vulkan result into an error naming the failing call.
func vkCall(call string, ret vk.Result) error {
	if err := vk.Error(ret); err != nil {
		return fmt.Errorf("%s(): %s", call, err.Error())
	}
	return nil
}

func illegalState(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrIllegalState, fmt.Sprintf(format, args...))
}
