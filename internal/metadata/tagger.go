// Package metadata reads and writes the IPTC caption embedded in image files.
package metadata

import (
	"context"
	"errors"
)

var (
	ErrToolUnavailable = errors.New("exiftool not available")
	ErrNotRegular      = errors.New("not a regular file")
	ErrWriteRejected   = errors.New("exiftool did not update the file")
	ErrInvalidArgument = errors.New("invalid exiftool argument")
)

// CaptionTag is the IPTC field the captions are stored in.
const CaptionTag = "IPTC:Caption-Abstract"

// Tagger reads and writes the caption of a single image.
type Tagger interface {
	// ReadCaption returns the stored caption. present is false when the
	// file carries no caption tag.
	ReadCaption(ctx context.Context, path string) (caption string, present bool, err error)

	// WriteCaption replaces the stored caption.
	WriteCaption(ctx context.Context, path, caption string) error

	// Close releases the tagger's resources.
	Close() error
}
