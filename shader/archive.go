package shader

import (
	"fmt"

	log "github.com/sirupsen/logrus"
	"golang.org/x/exp/mmap"

	"github.com/devblok/trident/core"
	"github.com/devblok/trident/utility/kar"
)

// NewArchiveLoader memory maps a kar archive holding compiled shaders.
func NewArchiveLoader(path string) (*ArchiveLoader, error) {
	r, err := mmap.Open(path)
	if err != nil {
		return nil, fmt.Errorf("mmap.Open(%s): %s", path, err.Error())
	}
	archive, err := kar.Open(r)
	if err != nil {
		r.Close()
		return nil, fmt.Errorf("%w: kar.Open(%s): %s", core.ErrIllegalState, path, err.Error())
	}
	return &ArchiveLoader{
		path:    path,
		mapping: r,
		archive: archive,
	}, nil
}

// ArchiveLoader serves compiled shaders from a kar archive
type ArchiveLoader struct {
	path    string
	mapping *mmap.ReaderAt
	archive *kar.Archive
}

// LoadCompiledShader implements core.ShaderSource
func (a *ArchiveLoader) LoadCompiledShader(kind core.ShaderType) ([]byte, error) {
	name, err := FileName(kind)
	if err != nil {
		return nil, err
	}
	code, err := a.archive.ReadAll(name)
	if err != nil {
		return nil, fmt.Errorf("%w: shader %s in %s: %s", core.ErrIllegalState, name, a.path, err.Error())
	}
	if err := Validate(name, code); err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"shader":  name,
		"archive": a.path,
		"size":    len(code),
	}).Debug("shader loaded from archive")
	return code, nil
}

// Close unmaps the archive
func (a *ArchiveLoader) Close() error {
	return a.mapping.Close()
}
