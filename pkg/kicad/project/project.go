// Package project locates a KiCad project on disk: the .kicad_pro file plus
// its sibling schematic and board files.
package project

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var (
	ErrNoProject   = errors.New("no .kicad_pro file found")
	ErrNoSchematic = errors.New("project has no root schematic")
)

// Project is a located KiCad project.
type Project struct {
	Dir           string
	Name          string
	SchematicPath string
	BoardPath     string // empty when the project has no layout yet
}

// Locate finds the KiCad project in dir. The argument may also point directly
// at a .kicad_pro or .kicad_sch file. When a directory holds more than one
// project the lexically first one wins.
func Locate(dir string) (*Project, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, err
	}

	if !info.IsDir() {
		switch filepath.Ext(dir) {
		case ".kicad_pro":
			return fromProFile(dir)
		case ".kicad_sch":
			name := strings.TrimSuffix(filepath.Base(dir), ".kicad_sch")
			return &Project{
				Dir:           filepath.Dir(dir),
				Name:          name,
				SchematicPath: dir,
				BoardPath:     optionalFile(filepath.Dir(dir), name+".kicad_pcb"),
			}, nil
		default:
			return nil, fmt.Errorf("%s: not a KiCad project or schematic file", dir)
		}
	}

	matches, err := filepath.Glob(filepath.Join(dir, "*.kicad_pro"))
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("%s: %w", dir, ErrNoProject)
	}
	return fromProFile(matches[0])
}

func fromProFile(proPath string) (*Project, error) {
	dir := filepath.Dir(proPath)
	name := strings.TrimSuffix(filepath.Base(proPath), ".kicad_pro")

	sch := filepath.Join(dir, name+".kicad_sch")
	if _, err := os.Stat(sch); err != nil {
		return nil, fmt.Errorf("%s: %w", proPath, ErrNoSchematic)
	}

	return &Project{
		Dir:           dir,
		Name:          name,
		SchematicPath: sch,
		BoardPath:     optionalFile(dir, name+".kicad_pcb"),
	}, nil
}

func optionalFile(dir, name string) string {
	path := filepath.Join(dir, name)
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	return path
}
