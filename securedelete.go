package vaultkeep

import (
	"io"
	"os"
	"path/filepath"
)

// SecureDeleteFile overwrites the file's full length three times — pass
// 1 random, pass 2 random, pass 3 zero — fsyncing between passes, then
// unlinks it. Best-effort only: ineffective against wear-leveled flash
// or copy-on-write filesystems that retain prior sector contents.
func SecureDeleteFile(path string) error {
	return secureDeleteFile(path, secureDeletePasses)
}

// secureDeleteFileCfg applies cfg's SecureDeletePasses override (zero
// meaning the spec default of 3) instead of the package constant.
func secureDeleteFileCfg(path string, cfg *Config) error {
	return secureDeleteFile(path, cfg.securePasses())
}

func secureDeleteFile(path string, passes int) error {
	f, err := os.OpenFile(path, os.O_WRONLY, 0)
	if err != nil {
		if os.IsPermission(err) {
			return NewResourceBusy(path, err)
		}
		return NewIOFailure(path, err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return NewIOFailure(path, err)
	}
	size := info.Size()

	for pass := 0; pass < passes; pass++ {
		if err := overwritePass(f, size, pass == passes-1); err != nil {
			f.Close()
			return NewIOFailure(path, err)
		}
		if err := f.Sync(); err != nil {
			f.Close()
			return NewIOFailure(path, err)
		}
	}

	if err := f.Close(); err != nil {
		return NewIOFailure(path, err)
	}
	if err := os.Remove(path); err != nil {
		return NewIOFailure(path, err)
	}
	return nil
}

func overwritePass(f *os.File, size int64, zeroFill bool) error {
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return err
	}
	const bufSize = 64 * 1024
	buf := make([]byte, bufSize)
	var remaining = size
	for remaining > 0 {
		n := bufSize
		if int64(n) > remaining {
			n = int(remaining)
		}
		if !zeroFill {
			if err := randomBytes(buf[:n]); err != nil {
				return err
			}
		} else {
			for i := 0; i < n; i++ {
				buf[i] = 0
			}
		}
		if _, err := f.Write(buf[:n]); err != nil {
			return err
		}
		remaining -= int64(n)
	}
	return nil
}

// SecureDeleteDir recursively secure-deletes every regular file under
// root, then removes now-empty directories depth-first. If any file
// cannot be opened for overwrite (a sharing violation), the operation
// fails with ResourceBusy naming the offending path, and the directory
// is not partially removed from the caller's viewpoint: this function
// collects every file first and opens each one for writing before it
// overwrites or removes any of them.
func SecureDeleteDir(root string) error {
	return secureDeleteDir(root, secureDeletePasses)
}

// secureDeleteDirCfg applies cfg's SecureDeletePasses override (zero
// meaning the spec default of 3) instead of the package constant.
func secureDeleteDirCfg(root string, cfg *Config) error {
	return secureDeleteDir(root, cfg.securePasses())
}

func secureDeleteDir(root string, passes int) error {
	var files []string
	var dirs []string

	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			dirs = append(dirs, path)
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return NewIOFailure(root, err)
	}

	for _, f := range files {
		h, err := os.OpenFile(f, os.O_WRONLY, 0)
		if err != nil {
			if os.IsPermission(err) {
				return NewResourceBusy(f, err)
			}
			return NewIOFailure(f, err)
		}
		h.Close()
	}

	for _, f := range files {
		if err := secureDeleteFile(f, passes); err != nil {
			return err
		}
	}

	// Remove directories deepest-first so each is empty when removed.
	for i := len(dirs) - 1; i >= 0; i-- {
		if err := os.Remove(dirs[i]); err != nil {
			return NewIOFailure(dirs[i], err)
		}
	}
	return nil
}
