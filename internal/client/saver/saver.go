// Package saver is the save-to-device capability: given bytes and a suggested
// file name, persist them where the user expects downloads to land. The
// transfer engine depends only on the interface so its retry and progress
// logic stays testable.
package saver

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/chafidzadlan/anotherfile/internal/filex"
)

type Saver interface {
	Save(name string, data []byte) error
}

// DirSaver writes downloads into a fixed directory, suffixing the name when a
// file with the suggested name already exists ("report.pdf", "report (1).pdf").
type DirSaver struct {
	dir string
}

func NewDirSaver(dir string) (*DirSaver, error) {
	resolved, err := filex.EnsureDir(dir)
	if err != nil {
		return nil, err
	}
	return &DirSaver{dir: resolved}, nil
}

func (s *DirSaver) Save(name string, data []byte) error {
	target, err := s.targetPath(name)
	if err != nil {
		return err
	}
	if err := os.WriteFile(target, data, 0o660); err != nil {
		return fmt.Errorf("write %s: %w", target, err)
	}
	return nil
}

func (s *DirSaver) targetPath(name string) (string, error) {
	base := filepath.Base(strings.TrimSpace(name))
	if base == "" || base == "." || base == string(filepath.Separator) {
		return "", fmt.Errorf("invalid file name %q", name)
	}

	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)

	candidate := filepath.Join(s.dir, base)
	for i := 1; ; i++ {
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate, nil
		}
		candidate = filepath.Join(s.dir, fmt.Sprintf("%s (%d)%s", stem, i, ext))
	}
}
