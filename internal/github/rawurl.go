package github

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/cli/go-gh/v2/pkg/repository"
)

const (
	// GitHubHost serves raw files under /OWNER/REPO/raw/REF/PATH
	GitHubHost = "github.com"
	// RawContentHost serves raw files under /OWNER/REPO/REF/PATH
	RawContentHost = "raw.githubusercontent.com"
)

var (
	ErrMalformedURL = errors.New("malformed raw URL")
	ErrRawLayout    = errors.New("unexpected raw URL layout")
	ErrRepository   = errors.New("invalid repository")
)

// RawRef is a raw file URL split into its GitHub components
type RawRef struct {
	Scheme string
	Host   string
	Owner  string
	Repo   string
	Ref    string
	// Path is the decoded repository-relative file path.
	Path string
	// EscapedPath is Path exactly as it appears in the URL.
	EscapedPath string
}

func (r RawRef) GetOwner() string {
	return r.Owner
}

func (r RawRef) GetName() string {
	return r.Repo
}

// BuildRawURL returns the github.com raw URL of path at ref, with every path
// separator percent-encoded the way the pull request files API reports it
func BuildRawURL(owner, repo, ref, path string) string {
	return fmt.Sprintf("https://%s/%s/%s/raw/%s/%s",
		GitHubHost,
		url.PathEscape(owner),
		url.PathEscape(repo),
		url.PathEscape(ref),
		url.PathEscape(path),
	)
}

// ParseURL parses s and requires an absolute URL with a host
func ParseURL(s string) (*url.URL, error) {
	u, err := url.Parse(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedURL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%w: %q is not an absolute URL", ErrMalformedURL, s)
	}
	return u, nil
}

// ParseRawURL splits a raw file URL served by github.com (or an enterprise
// host using the same layout) or raw.githubusercontent.com
func ParseRawURL(s string) (RawRef, error) {
	u, err := ParseURL(s)
	if err != nil {
		return RawRef{}, err
	}

	segments := strings.Split(strings.TrimPrefix(u.EscapedPath(), "/"), "/")

	var owner, repo, ref string
	var rest []string
	if strings.EqualFold(u.Hostname(), RawContentHost) {
		if len(segments) < 4 {
			return RawRef{}, fmt.Errorf("%w: want /OWNER/REPO/REF/PATH, got %q", ErrRawLayout, u.EscapedPath())
		}
		owner, repo, ref, rest = segments[0], segments[1], segments[2], segments[3:]
	} else {
		if len(segments) < 5 || segments[2] != "raw" {
			return RawRef{}, fmt.Errorf("%w: want /OWNER/REPO/raw/REF/PATH, got %q", ErrRawLayout, u.EscapedPath())
		}
		owner, repo, ref, rest = segments[0], segments[1], segments[3], segments[4:]
	}

	escaped := strings.Join(rest, "/")
	path, err := url.PathUnescape(escaped)
	if err != nil {
		return RawRef{}, fmt.Errorf("%w: %v", ErrMalformedURL, err)
	}
	if path == "" || owner == "" || repo == "" || ref == "" {
		return RawRef{}, fmt.Errorf("%w: empty component in %q", ErrRawLayout, u.EscapedPath())
	}

	return RawRef{
		Scheme:      u.Scheme,
		Host:        u.Host,
		Owner:       unescape(owner),
		Repo:        unescape(repo),
		Ref:         unescape(ref),
		Path:        path,
		EscapedPath: escaped,
	}, nil
}

// ParseRepository checks that owner and name form a single OWNER/REPO slug on host
func ParseRepository(owner, name, host string) (repository.Repository, error) {
	repo, err := repository.ParseWithHost(owner+"/"+name, host)
	if err != nil {
		return repository.Repository{}, fmt.Errorf("%w: %v", ErrRepository, err)
	}
	if repo.Owner != owner || repo.Name != name {
		return repository.Repository{}, fmt.Errorf("%w: %q is not an OWNER/REPO pair", ErrRepository, owner+"/"+name)
	}
	return repo, nil
}

// SameRepository compares two repositories the way GitHub does, ignoring case
func SameRepository(a, b RepositoryInfo) bool {
	return strings.EqualFold(a.GetOwner(), b.GetOwner()) &&
		strings.EqualFold(a.GetName(), b.GetName())
}

func unescape(s string) string {
	if v, err := url.PathUnescape(s); err == nil {
		return v
	}
	return s
}
