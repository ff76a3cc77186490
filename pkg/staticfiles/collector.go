package staticfiles

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"

	"github.com/cardledger/cardledger/internal"
	"github.com/cardledger/cardledger/pkg/models"
)

var log = internal.GetLogger()

// Collector copies static assets from a set of source directories into a
// single serving root. Collection is always non-interactive.
type Collector struct {
	SourceDirs []string
	Root       string
	Clear      bool
}

// Report summarizes a collection run.
type Report struct {
	Copied  int
	Skipped int
	Bytes   int64
}

func NewCollector(sourceDirs []string, root string, clear bool) *Collector {
	return &Collector{
		SourceDirs: sourceDirs,
		Root:       root,
		Clear:      clear,
	}
}

// Collect walks the source directories in order and copies every regular file
// to the same relative path under the root. The first source directory
// containing a given relative path wins; later duplicates are skipped.
func (c *Collector) Collect(ctx context.Context) (*Report, error) {
	if len(c.SourceDirs) == 0 {
		return nil, models.NewBadRequestError("no static source directories configured")
	}
	if c.Root == "" {
		return nil, models.NewBadRequestError("static root is not configured")
	}

	if c.Clear {
		if err := clearRoot(c.Root); err != nil {
			return nil, fmt.Errorf("failed to clear static root: %w", err)
		}
	}

	if err := os.MkdirAll(c.Root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create static root: %w", err)
	}

	report := &Report{}
	seen := make(map[string]struct{})
	for _, dir := range c.SourceDirs {
		if err := c.collectDir(ctx, dir, seen, report); err != nil {
			return nil, err
		}
	}

	log.Infof(
		"collected %d static files (%s written, %d duplicates skipped)",
		report.Copied,
		humanize.Bytes(uint64(report.Bytes)),
		report.Skipped,
	)

	return report, nil
}

func (c *Collector) collectDir(
	ctx context.Context,
	dir string,
	seen map[string]struct{},
	report *Report,
) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() {
			return nil
		}
		if !d.Type().IsRegular() {
			log.Debugf("skipping non-regular file %s", path)
			return nil
		}

		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}

		if _, ok := seen[rel]; ok {
			log.Debugf("skipping duplicate static file %s", rel)
			report.Skipped++
			return nil
		}
		seen[rel] = struct{}{}

		written, err := copyFile(path, filepath.Join(c.Root, rel))
		if err != nil {
			return fmt.Errorf("failed to copy %s: %w", rel, err)
		}

		report.Copied++
		report.Bytes += written

		return nil
	})
}

func copyFile(src string, dst string) (int64, error) {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return 0, err
	}

	in, err := os.Open(src)
	if err != nil {
		return 0, err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return 0, err
	}

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return 0, err
	}

	// OpenFile's mode is filtered by the umask and ignored for existing
	// files, so set the mode explicitly to match the source.
	if err := out.Chmod(info.Mode().Perm()); err != nil {
		_ = out.Close()
		return 0, err
	}

	written, err := io.Copy(out, in)
	if err != nil {
		_ = out.Close()
		return written, err
	}

	return written, out.Close()
}

// clearRoot removes the contents of the root but not the root itself.
func clearRoot(root string) error {
	entries, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	for _, entry := range entries {
		if err := os.RemoveAll(filepath.Join(root, entry.Name())); err != nil {
			return err
		}
	}

	return nil
}
