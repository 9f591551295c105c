// Package progress renders upload progress bars on stderr.
package progress

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
	"golang.org/x/term"
)

// UploadUI shows one progress bar per upload using mpb.
// Uploads run one at a time, so at most one bar is live.
type UploadUI struct {
	progress   *mpb.Progress
	out        io.Writer
	isTerminal bool
	totalFiles int

	mu      sync.Mutex
	started int
}

// FileBar represents a single file upload progress bar
type FileBar struct {
	bar       *mpb.Bar
	ui        *UploadUI
	index     int
	filepath  string
	size      int64
	startTime time.Time
}

// NewUploadUI creates an upload UI writing to out for totalFiles uploads.
// Bars are only drawn when out is a terminal; otherwise one line is printed
// per file.
func NewUploadUI(out io.Writer, totalFiles int) *UploadUI {
	isTerminal := false
	if f, ok := out.(*os.File); ok {
		isTerminal = term.IsTerminal(int(f.Fd()))
		if isTerminal {
			// Enable ANSI escape sequences on Windows for proper progress bar rendering
			enableANSIOnWindows(f)
		}
	}

	var p *mpb.Progress
	if isTerminal {
		p = mpb.New(
			mpb.WithOutput(out),
			mpb.WithRefreshRate(300*time.Millisecond),
			mpb.WithWidth(100),
		)
	} else {
		p = mpb.New(mpb.WithOutput(io.Discard))
	}

	return &UploadUI{
		progress:   p,
		out:        out,
		isTerminal: isTerminal,
		totalFiles: totalFiles,
	}
}

// AddFileBar creates a new progress bar for a file upload
func (u *UploadUI) AddFileBar(localPath string, size int64) FileBarHandle {
	u.mu.Lock()
	u.started++
	index := u.started
	u.mu.Unlock()

	fb := &FileBar{
		ui:        u,
		index:     index,
		filepath:  localPath,
		size:      size,
		startTime: time.Now(),
	}

	if u.isTerminal {
		label := fmt.Sprintf("[%d/%d] %s (%.1f MiB)",
			index, u.totalFiles, truncatePath(localPath, 2), float64(size)/(1024*1024))
		fb.bar = u.progress.New(size,
			mpb.BarStyle().
				Lbound("[").
				Filler("█").
				Tip("█").
				Padding("░").
				Rbound("]"),
			mpb.PrependDecorators(
				decor.Name(label, decor.WCSyncSpace),
			),
			mpb.AppendDecorators(
				decor.CountersKibiByte("% .1f / % .1f", decor.WCSyncSpace),
				decor.Name("  "),
				decor.Percentage(decor.WCSyncSpace),
				decor.Name("  "),
				decor.EwmaSpeed(decor.SizeB1024(0), "% .1f", 30, decor.WCSyncSpace),
				decor.Name("  "),
				decor.Name("ETA ", decor.WCSyncWidth),
				decor.EwmaETA(decor.ET_STYLE_GO, 30),
			),
			mpb.BarRemoveOnComplete(),
		)
	} else {
		fmt.Fprintf(u.out, "Uploading [%d/%d]: %s (%.1f MiB)\n",
			index, u.totalFiles, truncatePath(localPath, 2), float64(size)/(1024*1024))
	}
	return fb
}

// ProxyReader wraps r so the bar advances as the backend consumes the body.
func (f *FileBar) ProxyReader(r io.Reader) io.Reader {
	if f.bar == nil {
		return r
	}
	return f.bar.ProxyReader(r)
}

// Complete marks the upload as finished and prints a summary
func (f *FileBar) Complete(url string, err error) {
	elapsed := time.Since(f.startTime)

	var msg string
	if err == nil {
		if f.bar != nil {
			f.bar.SetCurrent(f.size)
			f.bar.SetTotal(f.size, true)
		}
		msg = fmt.Sprintf("✓ %s (%.1f MiB, %s)\n",
			truncatePath(f.filepath, 2),
			float64(f.size)/(1024*1024),
			elapsed.Round(time.Second))
	} else {
		if f.bar != nil {
			f.bar.Abort(false)
		}
		msg = fmt.Sprintf("✗ %s: %v\n", truncatePath(f.filepath, 2), err)
	}

	_, _ = io.WriteString(f.ui.Writer(), msg)
}

// Wait blocks until all progress bars complete
func (u *UploadUI) Wait() {
	if u.progress != nil {
		u.progress.Wait()
	}
}

// Writer returns an io.Writer that safely prints above the progress bars
func (u *UploadUI) Writer() io.Writer {
	if u.isTerminal {
		return u.progress
	}
	return u.out
}

// IsTerminal returns true if output is to a terminal (progress bars are active).
func (u *UploadUI) IsTerminal() bool {
	return u.isTerminal
}

// truncatePath truncates a file path to show only the last N components
// Example: truncatePath("/a/b/c/d/file.txt", 3) → "…/c/d/file.txt"
func truncatePath(path string, maxComponents int) string {
	parts := strings.Split(filepath.ToSlash(path), "/")
	if len(parts) <= maxComponents {
		return filepath.Base(path)
	}
	relevant := parts[len(parts)-maxComponents:]
	return "…/" + strings.Join(relevant, "/")
}

// enableANSIOnWindows enables Virtual Terminal processing on Windows.
// The implementation lives in uploadui_windows.go.
func enableANSIOnWindows(f *os.File) {
	if runtime.GOOS == "windows" {
		enableWindowsANSI(f)
	}
}
