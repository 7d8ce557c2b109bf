package shader

import (
	"fmt"
	"path/filepath"

	"github.com/gobuffalo/packr"
	log "github.com/sirupsen/logrus"

	"github.com/devblok/trident/core"
)

//go:generate glslc ../shaders/triangle.vert -o ../shaders/compiled/VertexShader.spv
//go:generate glslc ../shaders/triangle.frag -o ../shaders/compiled/FragmentShader.spv

// compiledBox serves DefaultLocation. packr build embeds it into the
// binary, otherwise it reads the repository's shaders/compiled.
var compiledBox = packr.NewBox("../shaders/compiled")

// NewBoxLoader loads shaders from a directory through a packr box.
// The box is made at runtime, so it always reads from disk.
func NewBoxLoader(dir string) (*BoxLoader, error) {
	// relative box paths are resolved against the caller's source file
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	return &BoxLoader{box: packr.NewBox(abs), dir: abs}, nil
}

// newCompiledLoader serves the shaders compiled by go generate
func newCompiledLoader() (*BoxLoader, error) {
	for _, name := range []string{VertexShaderFile, FragmentShaderFile} {
		if !compiledBox.Has(name) {
			return nil, fmt.Errorf("%w: %s missing from %s, run go generate ./shader", core.ErrIllegalState, name, DefaultLocation)
		}
	}
	return &BoxLoader{box: compiledBox, dir: DefaultLocation}, nil
}

// BoxLoader serves compiled shaders from a packr box
type BoxLoader struct {
	box packr.Box
	dir string
}

// LoadCompiledShader implements core.ShaderSource
func (b *BoxLoader) LoadCompiledShader(kind core.ShaderType) ([]byte, error) {
	name, err := FileName(kind)
	if err != nil {
		return nil, err
	}
	if !b.box.Has(name) {
		return nil, fmt.Errorf("%w: shader %s not found in %s", core.ErrIllegalState, name, b.dir)
	}
	code, err := b.box.Find(name)
	if err != nil {
		return nil, fmt.Errorf("%w: packr.Box.Find(%s): %s", core.ErrIllegalState, name, err.Error())
	}
	if err := Validate(name, code); err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"shader": name,
		"size":   len(code),
	}).Debug("shader loaded from directory")
	return code, nil
}

// Close implements Loader, there is nothing to release
func (b *BoxLoader) Close() error {
	return nil
}
