package progress

import "io"

// UI reports upload progress while a publish run is in flight.
// Terminal and non-terminal renderings implement it, and tests use NopUI.
type UI interface {
	// AddFileBar starts tracking one upload of size bytes
	AddFileBar(localPath string, size int64) FileBarHandle

	// Wait blocks until all progress bars are rendered for the last time
	Wait()

	// Writer returns an io.Writer that safely prints above the progress bars
	Writer() io.Writer

	// IsTerminal returns true if progress bars are active
	IsTerminal() bool
}

// FileBarHandle represents a handle to a single file's progress bar
type FileBarHandle interface {
	// ProxyReader wraps r so that bytes read from it advance the bar
	ProxyReader(r io.Reader) io.Reader

	// Complete marks the upload as finished and prints a summary
	Complete(url string, err error)
}

// NopUI discards all progress.
type NopUI struct{}

func (NopUI) AddFileBar(string, int64) FileBarHandle { return nopBar{} }
func (NopUI) Wait()                                  {}
func (NopUI) Writer() io.Writer                      { return io.Discard }
func (NopUI) IsTerminal() bool                       { return false }

type nopBar struct{}

func (nopBar) ProxyReader(r io.Reader) io.Reader { return r }
func (nopBar) Complete(string, error)            {}
