package core

import (
	"encoding/binary"
	"testing"
	"unsafe"

	qt "github.com/frankban/quicktest"
)

func TestSliceUint32(t *testing.T) {
	c := qt.New(t)
	data := make([]byte, 12)
	binary.LittleEndian.PutUint32(data[0:], 0x07230203)
	binary.LittleEndian.PutUint32(data[4:], 0x00010000)
	binary.LittleEndian.PutUint32(data[8:], 42)

	words := SliceUint32(data)
	c.Assert(words, qt.HasLen, 3)
	if nativeLittleEndian() {
		c.Assert(words[0], qt.Equals, uint32(0x07230203))
		c.Assert(words[2], qt.Equals, uint32(42))
	}
	c.Assert(SliceUint32([]byte{1, 2}), qt.HasLen, 0)
	c.Assert(SliceUint32(make([]byte, 7)), qt.HasLen, 1)

	// the words share memory with the bytes
	data[8] = 43
	if nativeLittleEndian() {
		c.Assert(words[2], qt.Equals, uint32(43))
	}
	c.Assert(&words[0], qt.Equals, (*uint32)(unsafe.Pointer(&data[0])))
}

func TestSafeStrings(t *testing.T) {
	c := qt.New(t)
	c.Assert(safeStrings([]string{"VK_KHR_swapchain", "VK_KHR_surface\x00"}), qt.DeepEquals,
		[]string{"VK_KHR_swapchain\x00", "VK_KHR_surface\x00"})
	c.Assert(safeStrings(nil), qt.HasLen, 0)
}

func TestFilterLayers(t *testing.T) {
	c := qt.New(t)
	enabled, missing := FilterLayers(
		[]string{"VK_LAYER_KHRONOS_validation", "VK_LAYER_LUNARG_api_dump"},
		[]string{"VK_LAYER_MESA_overlay", "VK_LAYER_KHRONOS_validation"},
	)
	c.Assert(enabled, qt.DeepEquals, []string{"VK_LAYER_KHRONOS_validation"})
	c.Assert(missing, qt.DeepEquals, []string{"VK_LAYER_LUNARG_api_dump"})

	enabled, missing = FilterLayers(nil, []string{"VK_LAYER_KHRONOS_validation"})
	c.Assert(enabled, qt.HasLen, 0)
	c.Assert(missing, qt.HasLen, 0)
}

func nativeLittleEndian() bool {
	marker := []byte{1, 0, 0, 0}
	return SliceUint32(marker)[0] == 1
}

func BenchmarkSliceUint32Small(b *testing.B) {
	data := make([]byte, 100)
	for idx := 0; idx < b.N; idx++ {
		SliceUint32(data)
	}
}

func BenchmarkSliceUint32Medium(b *testing.B) {
	data := make([]byte, 1000)
	for idx := 0; idx < b.N; idx++ {
		SliceUint32(data)
	}
}

func BenchmarkSliceUint32Big(b *testing.B) {
	data := make([]byte, 100000)
	for idx := 0; idx < b.N; idx++ {
		SliceUint32(data)
	}
}
