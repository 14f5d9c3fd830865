package engine

import (
	"fmt"
	"os"
)

const zeroPage = 4096

// writeLastPage extends f to size by writing one zero page at its end.
func writeLastPage(f *os.File, size int64) error {
	if size < zeroPage {
		return f.Truncate(size)
	}
	buf, release, err := alignedBuffer(zeroPage)
	if err != nil {
		return err
	}
	defer release()
	clear(buf)
	if _, err := f.WriteAt(buf, size-zeroPage); err != nil {
		return fmt.Errorf("preallocate: %w", err)
	}
	return nil
}
