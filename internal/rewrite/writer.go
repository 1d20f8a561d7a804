// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package rewrite

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/petar-djukic/declash/internal/graph"
)

// staged is a temp file holding the next contents of target. prev holds
// the contents target had before, or nil if it did not exist.
type staged struct {
	tmp    string
	target string
	prev   []byte
	perm   os.FileMode
}

// WriteFiles writes the given files of prog under root. Every file is
// first written to a temp file next to its target; targets are replaced
// only after all temp files were written, so a failure while staging leaves
// the tree untouched. If replacing a target fails, the targets already
// replaced are restored to their previous contents. Original permissions
// are preserved.
//
// Implements: prd004-rename-applicator R5.1-R5.3.
func WriteFiles(root string, prog *graph.Program, files []string) error {
	var pending []staged
	success := false
	defer func() {
		if !success {
			for _, s := range pending {
				os.Remove(s.tmp)
			}
		}
	}()

	for _, f := range files {
		data, ok := prog.Source(f)
		if !ok {
			return fmt.Errorf("%s is not part of the program", f)
		}
		target := filepath.Join(root, filepath.FromSlash(f))
		s, err := stage(target, data)
		if err != nil {
			return fmt.Errorf("staging %s: %w", f, err)
		}
		pending = append(pending, s)
	}

	for i, s := range pending {
		if err := os.Rename(s.tmp, s.target); err != nil {
			for _, rest := range pending[i:] {
				os.Remove(rest.tmp)
			}
			success = true
			err = fmt.Errorf("renaming temp file to %s: %w", s.target, err)
			return errors.Join(err, restore(pending[:i]))
		}
	}

	success = true
	return nil
}

// restore puts back the previous contents of replaced targets.
func restore(replaced []staged) error {
	var errs []error
	for _, s := range replaced {
		if s.prev == nil {
			if err := os.Remove(s.target); err != nil {
				errs = append(errs, fmt.Errorf("removing %s: %w", s.target, err))
			}
			continue
		}
		if err := os.WriteFile(s.target, s.prev, s.perm); err != nil {
			errs = append(errs, fmt.Errorf("restoring %s: %w", s.target, err))
		}
	}
	return errors.Join(errs...)
}

// stage writes data to a temp file in target's directory with target's
// permissions. It records target's current contents for restore.
func stage(target string, data []byte) (staged, error) {
	s := staged{target: target, perm: 0o644}
	if info, err := os.Stat(target); err == nil {
		s.perm = info.Mode().Perm()
		if info.Mode().IsRegular() {
			prev, err := os.ReadFile(target)
			if err != nil {
				return staged{}, fmt.Errorf("reading %s: %w", target, err)
			}
			if prev == nil {
				prev = []byte{}
			}
			s.prev = prev
		}
	}

	dir := filepath.Dir(target)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return staged{}, fmt.Errorf("creating directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".declash-*.tmp")
	if err != nil {
		return staged{}, fmt.Errorf("creating temp file: %w", err)
	}
	s.tmp = tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(s.tmp)
		return staged{}, fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(s.tmp)
		return staged{}, fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Chmod(s.tmp, s.perm); err != nil {
		os.Remove(s.tmp)
		return staged{}, fmt.Errorf("setting permissions: %w", err)
	}
	return s, nil
}
