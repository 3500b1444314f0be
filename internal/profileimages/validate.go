package profileimages

import (
	"encoding/hex"
	"fmt"
	"io"
	"strings"
)

// Size bounds applied to the declared upload size before any content is read.
const (
	MaxUploadBytes = 1024 * 1024
	MinUploadBytes = 100
)

// ImageType is the canonical, validated image kind, independent of the
// client-declared filename and Content-Type.
type ImageType string

const (
	TypeJPEG ImageType = "jpeg"
	TypePNG  ImageType = "png"
	TypeGIF  ImageType = "gif"
)

// Reason is the machine-readable rejection code for a refused upload.
type Reason string

const (
	ReasonNone        Reason = ""
	ReasonTooLarge    Reason = "file_too_large"
	ReasonTooSmall    Reason = "file_too_small"
	ReasonBadType     Reason = "file_bad_type"
	ReasonBadExt      Reason = "file_bad_ext"
	ReasonBadMimeType Reason = "file_bad_mimetype"
)

// Message returns the developer-facing message for a rejection reason.
func (r Reason) Message() string {
	switch r {
	case ReasonTooLarge:
		return "Maximum file size exceeded."
	case ReasonTooSmall:
		return "Minimum file size not met."
	case ReasonBadType:
		return "Unsupported file type."
	case ReasonBadExt:
		return "File extension does not match data."
	case ReasonBadMimeType:
		return "Content-Type header does not match data."
	default:
		return ""
	}
}

// Upload is the plain, framework-free input to validation: the byte stream
// plus the metadata the client declared about it.
type Upload struct {
	Content     io.ReadSeeker
	Size        int64
	ContentType string
	FileName    string
}

// Result carries the outcome of validation as data. Reason is empty on
// acceptance; Type is set only when a profile matched the filename extension.
type Result struct {
	Type   ImageType
	Reason Reason
}

// OK reports whether the upload was accepted.
func (r Result) OK() bool {
	return r.Reason == ReasonNone
}

type typeProfile struct {
	extensions []string
	mimeTypes  []string
	magic      []string
}

// Profiles keyed by canonical type. Extensions are mutually exclusive across
// entries; magic sequences are lowercase hex of the leading bytes.
var imageTypes = map[ImageType]typeProfile{
	TypeJPEG: {
		extensions: []string{".jpeg", ".jpg"},
		mimeTypes:  []string{"image/jpeg", "image/pjpeg"},
		magic:      []string{"ffd8"},
	},
	TypePNG: {
		extensions: []string{".png"},
		mimeTypes:  []string{"image/png"},
		magic:      []string{"89504e470d0a1a0a"},
	},
	TypeGIF: {
		extensions: []string{".gif"},
		mimeTypes:  []string{"image/gif"},
		magic:      []string{"474946383961", "474946383761"},
	},
}

// Validate runs the ordered upload checks: declared size bounds, filename
// extension, declared Content-Type, then magic bytes. It short-circuits on
// the first failure, and on success rewinds the stream so downstream
// consumers read from the start. The error return is reserved for stream
// I/O failures; every policy outcome is expressed through Result.
func Validate(u Upload) (Result, error) {
	if u.Size > MaxUploadBytes {
		return Result{Reason: ReasonTooLarge}, nil
	}
	if u.Size < MinUploadBytes {
		return Result{Reason: ReasonTooSmall}, nil
	}

	imageType, profile, ok := matchExtension(u.FileName)
	if !ok {
		return Result{Reason: ReasonBadType}, nil
	}

	if !contains(profile.mimeTypes, u.ContentType) {
		return Result{Type: imageType, Reason: ReasonBadMimeType}, nil
	}

	// Read exactly as many leading bytes as the first magic sequence covers.
	header := make([]byte, len(profile.magic[0])/2)
	n, err := io.ReadFull(u.Content, header)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return Result{}, fmt.Errorf("read image header: %w", err)
	}
	if !contains(profile.magic, hex.EncodeToString(header[:n])) {
		return Result{Type: imageType, Reason: ReasonBadExt}, nil
	}

	// Downstream consumers expect the stream at offset 0.
	if _, err := u.Content.Seek(0, io.SeekStart); err != nil {
		return Result{}, fmt.Errorf("rewind image stream: %w", err)
	}

	return Result{Type: imageType}, nil
}

func matchExtension(fileName string) (ImageType, typeProfile, bool) {
	name := strings.ToLower(fileName)
	for _, imageType := range []ImageType{TypeJPEG, TypePNG, TypeGIF} {
		profile := imageTypes[imageType]
		for _, ext := range profile.extensions {
			if strings.HasSuffix(name, ext) {
				return imageType, profile, true
			}
		}
	}
	return "", typeProfile{}, false
}

func contains(values []string, want string) bool {
	want = strings.ToLower(want)
	for _, v := range values {
		if v == want {
			return true
		}
	}
	return false
}
