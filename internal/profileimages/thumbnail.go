package profileimages

import (
	"bytes"
	"fmt"
	"io"

	"github.com/disintegration/imaging"
)

// ThumbnailSizes are the square pixel dimensions produced for every
// accepted upload, smallest first.
var ThumbnailSizes = []int{30, 50, 150}

// Thumbnail decodes the source image and re-encodes it as a JPEG scaled to
// fit within dim x dim, preserving aspect ratio and never upscaling. The
// source stream is rewound before returning so callers can thumbnail the
// same stream again for the next dimension.
func Thumbnail(src io.ReadSeeker, dim int) ([]byte, error) {
	img, err := imaging.Decode(src)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	thumb := imaging.Fit(img, dim, dim, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumb, imaging.JPEG); err != nil {
		return nil, fmt.Errorf("encode thumbnail: %w", err)
	}

	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("rewind image stream: %w", err)
	}

	return buf.Bytes(), nil
}
