package generator

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

var (
	// ErrMissingMarker is returned when a template has no placeholder.
	ErrMissingMarker = errors.New("template has no placeholder marker")
	// ErrDuplicateMarker is returned when a template has more than one
	// placeholder.
	ErrDuplicateMarker = errors.New("template has more than one placeholder marker")
	// ErrUnreadableTemplate is returned when a template cannot be read.
	ErrUnreadableTemplate = errors.New("unreadable template")
)

// Job renders Content into Template and writes the result to Output.
type Job struct {
	Template string
	Output   string
	Content  string
}

// Binder substitutes generated text into template documents.
type Binder struct {
	fs     afero.Fs
	marker string
}

// NewBinder creates a Binder over fs replacing marker.
func NewBinder(fs afero.Fs, marker string) *Binder {
	return &Binder{fs: fs, marker: marker}
}

// Render returns the template of job with its marker replaced.
func (b *Binder) Render(job Job) (string, error) {
	data, err := afero.ReadFile(b.fs, job.Template)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrUnreadableTemplate, job.Template, err)
	}
	tmpl := string(data)
	switch n := strings.Count(tmpl, b.marker); {
	case n == 0:
		return "", fmt.Errorf("%w: %s lacks %q", ErrMissingMarker, job.Template, b.marker)
	case n > 1:
		return "", fmt.Errorf("%w: %s has %d", ErrDuplicateMarker, job.Template, n)
	}
	return strings.Replace(tmpl, b.marker, job.Content, 1), nil
}

// Bind renders every job and, only if all succeed, overwrites the outputs.
// Outputs are staged next to their targets and renamed once every stage
// has been written.
func (b *Binder) Bind(jobs ...Job) error {
	rendered := make([]string, len(jobs))
	for i, job := range jobs {
		out, err := b.Render(job)
		if err != nil {
			return err
		}
		rendered[i] = out
	}

	for _, job := range jobs {
		if dir := filepath.Dir(job.Output); dir != "." {
			if err := b.fs.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("creating output directory: %w", err)
			}
		}
	}

	staged := make([]string, 0, len(jobs))
	discard := func() {
		for _, tmp := range staged {
			_ = b.fs.Remove(tmp)
		}
	}
	for i, job := range jobs {
		tmp := job.Output + ".tmp"
		if err := afero.WriteFile(b.fs, tmp, []byte(rendered[i]), 0o644); err != nil {
			discard()
			return fmt.Errorf("writing %s: %w", job.Output, err)
		}
		staged = append(staged, tmp)
	}
	for i, job := range jobs {
		if err := b.fs.Rename(staged[i], job.Output); err != nil {
			discard()
			return fmt.Errorf("committing %s: %w", job.Output, err)
		}
	}
	return nil
}
