// Package shader loads compiled SPIR-V shaders from a directory
// or a kar archive.
package shader

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/devblok/trident/core"
)

// SpirvMagic starts every SPIR-V module
const SpirvMagic = 0x07230203

// Names of compiled shaders inside a directory or an archive
const (
	VertexShaderFile   = "VertexShader.spv"
	FragmentShaderFile = "FragmentShader.spv"
)

// DefaultLocation is where compiled shaders live in the repository,
// it's also served from the binary when built with packr
const DefaultLocation = "shaders/compiled"

const archiveSuffix = ".kar"

// Loader provides the bytecode of a compiled shader of a given type.
type Loader interface {
	core.ShaderSource
	Close() error
}

// Open picks a loader by the kind of location, a file ending with .kar
// is an archive, anything else a directory. DefaultLocation falls back
// to the shaders packed into the binary when it's not on disk.
func Open(location string) (Loader, error) {
	info, err := os.Stat(location)
	if err != nil && filepath.ToSlash(filepath.Clean(location)) == DefaultLocation {
		return newCompiledLoader()
	}
	if err != nil {
		return nil, fmt.Errorf("%w: shader location %s: %s", core.ErrIllegalState, location, err.Error())
	}
	if !info.IsDir() && strings.HasSuffix(location, archiveSuffix) {
		return NewArchiveLoader(location)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is neither a directory nor a %s archive", core.ErrIllegalState, location, archiveSuffix)
	}
	return NewBoxLoader(location)
}

// FileName maps a shader type into the fixed file name
func FileName(kind core.ShaderType) (string, error) {
	switch kind {
	case core.VertexShaderType:
		return VertexShaderFile, nil
	case core.FragmentShaderType:
		return FragmentShaderFile, nil
	default:
		return "", fmt.Errorf("%w: no shader file for %s shaders", core.ErrIllegalState, kind)
	}
}

// Validate checks that code looks like a SPIR-V module.
func Validate(name string, code []byte) error {
	switch {
	case len(code) == 0:
		return fmt.Errorf("%w: shader %s is empty", core.ErrIllegalState, name)
	case len(code)%4 != 0:
		return fmt.Errorf("%w: shader %s size %d is not a multiple of 4", core.ErrIllegalState, name, len(code))
	case binary.LittleEndian.Uint32(code) != SpirvMagic:
		return fmt.Errorf("%w: shader %s is not SPIR-V", core.ErrIllegalState, name)
	}
	return nil
}
