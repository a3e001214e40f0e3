// Package naming derives sandbox names from source references and maps
// names to container and directory identifiers.
//
// Naming only proposes a name. Whether it is free is decided by the
// registry, which reports collisions as NameExists.
package naming

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/firefly-engineering/jail/internal/errors"
)

// MaxComponentLength bounds each name component.
const MaxComponentLength = 63

// componentRegex validates one name component. A derived name has up to
// two components (owner/repo); an explicit name has exactly one.
var componentRegex = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// scpLikeRegex matches scp-style git references such as git@github.com:owner/repo.git.
var scpLikeRegex = regexp.MustCompile(`^(?:[A-Za-z0-9._-]+@)?[A-Za-z0-9.-]+:[^/\\]`)

// SourceKind distinguishes remote references from local paths.
type SourceKind string

const (
	SourceRemote SourceKind = "remote"
	SourceLocal  SourceKind = "local"
	SourceEmpty  SourceKind = "empty"
)

// Source is a parsed source reference.
type Source struct {
	Kind     SourceKind `toml:"kind" json:"kind" yaml:"kind"`
	Ref      string     `toml:"ref" json:"ref" yaml:"ref"`
	Revision string     `toml:"revision,omitempty" json:"revision,omitempty" yaml:"revision,omitempty"`
}

func (s Source) String() string {
	switch {
	case s.Kind == SourceEmpty:
		return "(empty)"
	case s.Revision != "":
		return s.Ref + "#" + s.Revision
	}
	return s.Ref
}

// ParseSource classifies ref as remote or local and splits off an optional
// "#revision" suffix. A local path keeps a '#' that is part of an existing
// file name.
func ParseSource(ref string) Source {
	ref = strings.TrimSpace(ref)
	if !IsRemote(ref) {
		if i := strings.LastIndexByte(ref, '#'); i > 0 && !exists(ref) && exists(ref[:i]) {
			return Source{Kind: SourceLocal, Ref: ref[:i], Revision: ref[i+1:]}
		}
		return Source{Kind: SourceLocal, Ref: ref}
	}

	src := Source{Kind: SourceRemote, Ref: ref}
	if i := strings.LastIndexByte(ref, '#'); i >= 0 {
		src.Ref = ref[:i]
		src.Revision = ref[i+1:]
	}
	return src
}

// IsRemote reports whether ref looks like a URL or an scp-style git reference.
func IsRemote(ref string) bool {
	if strings.Contains(ref, "://") {
		return true
	}
	if filepath.IsAbs(ref) || strings.HasPrefix(ref, ".") || strings.HasPrefix(ref, "~") {
		return false
	}
	// An existing relative path such as "proj:v2/src" is local even though
	// it looks like host:path.
	if exists(ref) {
		return false
	}
	if i := strings.LastIndexByte(ref, '#'); i > 0 && exists(ref[:i]) {
		return false
	}
	return scpLikeRegex.MatchString(ref)
}

// exists reports whether a local path is present, expanding a leading "~".
func exists(path string) bool {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return false
		}
		path = filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	_, err := os.Stat(path)
	return err == nil
}

// Derive proposes a sandbox name for a source reference.
//
// Remote references yield "owner/repo", with scheme, host, credentials,
// ".git" and any revision stripped. Remote references with a single path
// segment yield that segment. Local paths yield their final directory
// component.
func Derive(source string) (string, error) {
	src := ParseSource(source)

	var name string
	if src.Kind == SourceRemote {
		name = deriveRemote(src.Ref)
	} else {
		name = deriveLocal(src.Ref)
	}

	if err := validateDerived(name); err != nil {
		return "", errors.ValidationError(
			fmt.Sprintf("cannot derive a jail name from %q: %v; pass one with --name", source, err))
	}
	return name, nil
}

func deriveRemote(ref string) string {
	var path string
	if u, err := url.Parse(ref); err == nil && u.Scheme != "" && strings.Contains(ref, "://") {
		path = u.Path
	} else if i := strings.IndexByte(ref, ':'); i >= 0 {
		// scp-style: everything after the host separator
		path = ref[i+1:]
	} else {
		path = ref
	}

	path = strings.Trim(path, "/")
	path = strings.TrimSuffix(path, ".git")

	var segments []string
	for _, s := range strings.Split(path, "/") {
		if s != "" {
			segments = append(segments, s)
		}
	}

	switch len(segments) {
	case 0:
		return ""
	case 1:
		return segments[0]
	default:
		return segments[len(segments)-2] + "/" + segments[len(segments)-1]
	}
}

func deriveLocal(path string) string {
	if path == "" {
		return ""
	}
	cleaned := filepath.Clean(path)
	if abs, err := filepath.Abs(cleaned); err == nil {
		cleaned = abs
	}
	base := filepath.Base(cleaned)
	if base == string(filepath.Separator) || base == "." {
		return ""
	}
	return base
}

func validateDerived(name string) error {
	if name == "" {
		return fmt.Errorf("no usable path segment")
	}
	parts := strings.Split(name, "/")
	if len(parts) > 2 {
		return fmt.Errorf("too many path segments")
	}
	for _, p := range parts {
		if err := validateComponent(p); err != nil {
			return err
		}
	}
	return nil
}

func validateComponent(c string) error {
	if len(c) > MaxComponentLength {
		return fmt.Errorf("%q is longer than %d characters", c, MaxComponentLength)
	}
	if !componentRegex.MatchString(c) {
		return fmt.Errorf("%q must start with a letter or digit and contain only letters, digits, '.', '_' or '-'", c)
	}
	return nil
}

// ValidateExplicit checks a user-supplied name. Explicit names are a single
// component: non-empty, restricted character set, no path separators.
func ValidateExplicit(name string) error {
	if name == "" {
		return errors.ValidationError("jail name cannot be empty")
	}
	if strings.ContainsAny(name, `/\`) {
		return errors.ValidationError(fmt.Sprintf("invalid jail name %q: must not contain path separators", name))
	}
	if err := validateComponent(name); err != nil {
		return errors.ValidationError(fmt.Sprintf("invalid jail name: %v", err))
	}
	return nil
}

// Validate accepts any name the registry may hold: a valid explicit name or
// a derived owner/repo pair.
func Validate(name string) error {
	if err := validateDerived(name); err != nil {
		return errors.ValidationError(fmt.Sprintf("invalid jail name %q: %v", name, err))
	}
	return nil
}

// Resolve returns the explicit name if given, otherwise the derived one.
func Resolve(source, explicit string) (string, error) {
	if explicit != "" {
		if err := ValidateExplicit(explicit); err != nil {
			return "", err
		}
		return explicit, nil
	}
	return Derive(source)
}

// ContainerName returns the engine container name for a sandbox. The hash
// suffix keeps names that sanitize alike (owner/repo, owner-repo) distinct.
func ContainerName(name string) string {
	sum := sha256.Sum256([]byte(name))
	return "jail-" + Sanitize(name) + "-" + hex.EncodeToString(sum[:4])
}

// Sanitize maps a sandbox name onto the container-name character set.
func Sanitize(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '.', r == '_', r == '-':
			b.WriteRune(r)
		default:
			b.WriteByte('-')
		}
	}
	return b.String()
}

// DirName returns the on-disk directory name for a sandbox. The mapping is
// injective because '%' never appears in a valid name.
func DirName(name string) string {
	return url.PathEscape(name)
}

// NameFromDir reverses DirName.
func NameFromDir(dir string) (string, error) {
	return url.PathUnescape(dir)
}

// Filter returns the names matching pattern, case-insensitively: the full
// name, the owner or the repo starts with it.
func Filter(names []string, pattern string) []string {
	p := strings.ToLower(pattern)
	var matched []string
	for _, name := range names {
		lower := strings.ToLower(name)
		if strings.HasPrefix(lower, p) {
			matched = append(matched, name)
			continue
		}
		if owner, repo, ok := strings.Cut(lower, "/"); ok {
			if strings.HasPrefix(owner, p) || strings.HasPrefix(repo, p) {
				matched = append(matched, name)
			}
		}
	}
	return matched
}

// ExactMatch returns the name equal to pattern ignoring case, if any.
func ExactMatch(names []string, pattern string) (string, bool) {
	for _, name := range names {
		if strings.EqualFold(name, pattern) {
			return name, true
		}
	}
	return "", false
}
