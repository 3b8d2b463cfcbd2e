package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"golang.org/x/mod/semver"
)

const (
	githubRepo          = "oszuidwest/zwfm-levelmeter"
	versionCheckTimeout = 30 * time.Second
)

// githubRelease represents a release with version and status information.
type githubRelease struct {
	TagName    string `json:"tag_name"`
	Draft      bool   `json:"draft"`
	Prerelease bool   `json:"prerelease"`
}

// checkLatestRelease queries the GitHub releases API once and reports
// the latest published version and whether it is newer than this build.
// Draft and prerelease versions are ignored. Dev builds never report an
// available update.
func checkLatestRelease(ctx context.Context) (latest string, newer bool, err error) {
	ctx, cancel := context.WithTimeout(ctx, versionCheckTimeout)
	defer cancel()

	url := "https://api.github.com/repos/" + githubRepo + "/releases/latest"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return "", false, err
	}
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	req.Header.Set("User-Agent", "zwfm-levelmeter/"+Version)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", false, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		// No releases exist yet.
		return "", false, nil
	default:
		return "", false, errors.New("github API returned " + resp.Status)
	}

	var release githubRelease
	if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
		return "", false, err
	}
	if release.Draft || release.Prerelease || release.TagName == "" {
		return "", false, nil
	}

	latest = normalizeVersion(release.TagName)
	current := normalizeVersion(Version)
	if current == "dev" || current == "unknown" {
		return latest, false, nil
	}
	return latest, isNewerVersion(latest, current), nil
}

// normalizeVersion returns a version string without the leading "v".
func normalizeVersion(v string) string {
	return strings.TrimPrefix(strings.TrimSpace(v), "v")
}

// canonicalVersion returns the version in canonical semver format.
func canonicalVersion(v string) string {
	v = strings.TrimSpace(v)
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	return v
}

// isNewerVersion reports whether latest is newer than current.
func isNewerVersion(latest, current string) bool {
	return semver.Compare(canonicalVersion(latest), canonicalVersion(current)) > 0
}
