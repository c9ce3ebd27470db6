package uploader

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

var acceptedAudioTypes = []string{"audio/wav", "audio/x-wav", "audio/wave", "audio/mpeg", "audio/mp3"}

var acceptedExtensions = map[string]struct{}{
	".wav": {},
	".mp3": {},
}

// sniffLen is how much of the file is read to detect its type.
const sniffLen = 3072

// ValidateAudio checks that src looks like a WAV or MP3 file no larger than maxBytes.
// Content sniffing wins; the extension is accepted when the content is inconclusive.
func ValidateAudio(src Source, maxBytes int64) error {
	if src == nil || src.Size() <= 0 {
		return &ValidationError{Field: "file", Reason: "file is empty"}
	}
	if maxBytes > 0 && src.Size() > maxBytes {
		return &ValidationError{
			Field:  "file",
			Reason: fmt.Sprintf("file size %d exceeds the limit of %d MB", src.Size(), maxBytes>>20),
		}
	}

	head := make([]byte, min(int64(sniffLen), src.Size()))
	n, err := src.ReadAt(head, 0)
	if err != nil && err != io.EOF {
		return &ValidationError{Field: "file", Reason: fmt.Sprintf("failed to read file: %v", err)}
	}
	detected := mimetype.Detect(head[:n])
	if isAcceptedType(detected) {
		return nil
	}

	ext := strings.ToLower(filepath.Ext(src.Name()))
	if _, ok := acceptedExtensions[ext]; ok && detected.Is("application/octet-stream") {
		return nil
	}
	return &ValidationError{
		Field:  "file",
		Reason: fmt.Sprintf("unsupported audio format %q, only WAV and MP3 are accepted", detected.String()),
	}
}

func isAcceptedType(m *mimetype.MIME) bool {
	for _, t := range acceptedAudioTypes {
		if m.Is(t) {
			return true
		}
	}
	return false
}
