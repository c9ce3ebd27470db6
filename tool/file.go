package tool

import (
	"fmt"
	"net/url"
)

// ResolveLocalPath accepts a plain path or a file:// URL and returns the filesystem path.
func ResolveLocalPath(pathOrURL string) (string, error) {
	if pathOrURL == "" {
		return "", fmt.Errorf("file path is required")
	}
	parsed, err := url.Parse(pathOrURL)
	if err == nil && parsed.Scheme != "" {
		if parsed.Scheme != "file" {
			return "", fmt.Errorf("only file:// protocol is supported for file URLs")
		}
		return parsed.Path, nil
	}
	return pathOrURL, nil
}
