package tool

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

const apiPrefix = "/api/v1"

func buildURL(baseURL, path string, query url.Values) (string, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return "", fmt.Errorf("failed to parse base URL: %v", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("base URL must be absolute: %q", baseURL)
	}
	u.Path = strings.TrimRight(u.Path, "/") + path
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String(), nil
}

// BuildInitUploadURL builds the upload init URL.
func BuildInitUploadURL(baseURL string) (string, error) {
	return buildURL(baseURL, apiPrefix+"/analysis/upload", nil)
}

// BuildChunkURL builds the chunk URL for an upload id.
func BuildChunkURL(baseURL, uploadID string) (string, error) {
	return buildURL(baseURL, apiPrefix+"/analysis/upload/"+url.PathEscape(uploadID)+"/chunk", nil)
}

// BuildCompleteURL builds the complete URL for an upload id.
func BuildCompleteURL(baseURL, uploadID string) (string, error) {
	return buildURL(baseURL, apiPrefix+"/analysis/upload/"+url.PathEscape(uploadID)+"/complete", nil)
}

func BuildTrainingStatusURL(baseURL string) (string, error) {
	return buildURL(baseURL, apiPrefix+"/analysis/training-status", nil)
}

// BuildCallsURL builds the call list URL. limit <= 0 and empty cursor are omitted.
func BuildCallsURL(baseURL string, limit int, cursor string) (string, error) {
	query := url.Values{}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	if cursor != "" {
		query.Set("cursor", cursor)
	}
	return buildURL(baseURL, apiPrefix+"/calls", query)
}

// BuildCallURL builds /calls/{id}[/suffix].
func BuildCallURL(baseURL, callID, suffix string) (string, error) {
	path := apiPrefix + "/calls/" + url.PathEscape(callID)
	if suffix != "" {
		path += "/" + strings.TrimLeft(suffix, "/")
	}
	return buildURL(baseURL, path, nil)
}

func BuildRegisterURL(baseURL string) (string, error) {
	return buildURL(baseURL, apiPrefix+"/users/register", nil)
}

// BuildUserURL builds /users/{id}[/suffix].
func BuildUserURL(baseURL, userID, suffix string) (string, error) {
	path := apiPrefix + "/users/" + url.PathEscape(userID)
	if suffix != "" {
		path += "/" + strings.TrimLeft(suffix, "/")
	}
	return buildURL(baseURL, path, nil)
}

// BuildLiveURL converts the http(s) base URL into the ws(s) live channel URL for a call.
// An empty call id yields an empty URL so the channel stays idle.
func BuildLiveURL(baseURL, callID string) (string, error) {
	if callID == "" {
		return "", nil
	}
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return "", fmt.Errorf("failed to parse base URL: %v", err)
	}
	switch u.Scheme {
	case "https", "wss":
		u.Scheme = "wss"
	case "http", "ws":
		u.Scheme = "ws"
	default:
		return "", fmt.Errorf("unsupported base URL scheme: %q", u.Scheme)
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/ws/" + url.PathEscape(callID)
	u.RawQuery = ""
	return u.String(), nil
}

// BuildCallPageURL builds the front end link to a call details page, used for share QR codes.
func BuildCallPageURL(webBaseURL, callID string) (string, error) {
	return buildURL(webBaseURL, "/calls/"+url.PathEscape(callID), nil)
}

// HostOf returns the host name (without port) of a URL.
func HostOf(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	if u.Hostname() == "" {
		return "", fmt.Errorf("URL has no host: %q", rawURL)
	}
	return u.Hostname(), nil
}
