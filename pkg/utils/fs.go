package utils

import (
	"fmt"
	"io"

	"github.com/spf13/afero"
)

type Fs = afero.Fs

type File = afero.File

// CopyFile copies src to dst, truncating dst if it exists.
// The copy is not atomic; callers that need atomicity should
// copy to a sibling path and rename.
func CopyFile(fs Fs, src, dst string) error {
	in, err := fs.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", src, err)
	}
	defer in.Close()

	out, err := fs.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dst, err)
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("failed to copy %s to %s: %w", src, dst, err)
	}

	return out.Close()
}
