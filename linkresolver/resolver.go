package linkresolver

import (
	"path"
	"strings"

	ntfserrors "github.com/ntfslive/ntfslive/errors"
	"github.com/ntfslive/ntfslive/ntfsiface"
)

// ntDevicePrefix is the NT object-manager namespace prefix NTFS
// reparse substitute names carry ahead of a drive-relative path.
const ntDevicePrefix = `\??\`

// ntVolumePrefix precedes a volume-GUID form substitute name, e.g.
// `\??\Volume{6f3b...}\Users\...`.
const ntVolumePrefix = `\??\Volume{`

// TargetResolver dereferences reparse points. It is stateless across
// calls: each ResolveTarget call gets a fresh, per-operation
// LinkResolutionState (visited set + depth), per spec.md §3.
type TargetResolver struct {
	interp              ntfsiface.Interpreter
	driveID             string
	maxLinkDepth        int
	followRelativeLinks bool
	followAbsoluteLinks bool
	// currentVolumeGUID is compared against a `\??\Volume{GUID}`
	// substitute name to decide whether it refers to this volume
	// (spec.md §4.5(a), step 2) or a different one (cross-volume,
	// unsupported).
	currentVolumeGUID string
}

// Options bundles the policy knobs from spec.md §3 that affect
// resolution.
type Options struct {
	MaxLinkDepth        int
	FollowRelativeLinks bool
	FollowAbsoluteLinks bool
}

// New creates a TargetResolver for a volume identified by driveID
// (e.g. "C:") and currentVolumeGUID (empty if unknown, in which case
// volume-GUID substitute names are always treated as foreign).
func New(interp ntfsiface.Interpreter, driveID, currentVolumeGUID string, opts Options) *TargetResolver {
	return &TargetResolver{
		interp:              interp,
		driveID:             driveID,
		maxLinkDepth:        opts.MaxLinkDepth,
		followRelativeLinks: opts.FollowRelativeLinks,
		followAbsoluteLinks: opts.FollowAbsoluteLinks,
		currentVolumeGUID:   currentVolumeGUID,
	}
}

// LinkTarget implements spec.md §4.5(a): returns (KindNone, "") if
// path is not a reparse point, otherwise reads and decodes its
// reparse buffer.
func (r *TargetResolver) LinkTarget(normalizedPath string) (Kind, string, error) {
	isDir := r.interp.DirExists(normalizedPath)
	isFile := !isDir && r.interp.FileExists(normalizedPath)
	if !isDir && !isFile {
		return KindNone, "", ntfserrors.New(ntfserrors.KindNotFound).WithPath(normalizedPath)
	}

	var attrs ntfsiface.Attributes
	if isDir {
		info, err := r.interp.DirInfo(normalizedPath)
		if err != nil {
			return KindNone, "", err
		}
		attrs = info.Attributes
	} else {
		info, err := r.interp.FileInfo(normalizedPath)
		if err != nil {
			return KindNone, "", err
		}
		attrs = info.Attributes
	}

	if !attrs.IsReparsePoint() {
		return KindNone, "", nil
	}

	raw, err := r.interp.ReparsePoint(normalizedPath)
	if err != nil {
		return KindNone, "", err
	}

	parsed, err := ParseReparseBuffer(raw.Tag, raw.Content, isDir)
	if err != nil {
		return KindNone, "", err
	}

	target := r.postProcess(parsed.RawTarget)
	return parsed.Kind, target, nil
}

// postProcess implements spec.md §4.5(a) steps 1-3 on a decoded
// substitute name.
func (r *TargetResolver) postProcess(substName string) string {
	name := substName

	switch {
	case strings.HasPrefix(strings.ToLower(name), strings.ToLower(ntVolumePrefix)):
		// \??\Volume{GUID}\rest\of\path
		rest := name[len(ntVolumePrefix):]
		closeBrace := strings.IndexByte(rest, '}')
		if closeBrace == -1 {
			return normalizeSeparators(name)
		}
		guid := rest[:closeBrace]
		tail := strings.TrimPrefix(rest[closeBrace+1:], `\`)

		if r.currentVolumeGUID != "" && strings.EqualFold(guid, r.currentVolumeGUID) {
			name = r.driveID + `\` + tail
		} else {
			// Cross-volume: resolution is not supported for this form;
			// surface the raw target as-is (still under the device
			// prefix) rather than guessing.
			return normalizeSeparators(name)
		}

	case strings.HasPrefix(name, ntDevicePrefix):
		name = name[len(ntDevicePrefix):]
	}

	return normalizeSeparators(name)
}

func normalizeSeparators(p string) string {
	return strings.ReplaceAll(p, "/", `\`)
}

// isAbsolute reports whether target looks like a drive-rooted path
// (`C:\...`), used to pick between followRelativeLinks and
// followAbsoluteLinks.
func isAbsolute(target string) bool {
	return len(target) >= 2 && target[1] == ':'
}

// State is the per-operation ephemeral bookkeeping spec.md §3 calls
// LinkResolutionState: a depth counter and a case-insensitive set of
// visited normalized paths, created fresh on every ResolveTarget call.
type State struct {
	depth   int
	visited map[string]bool
}

func newState() *State {
	return &State{visited: make(map[string]bool)}
}

// ResolveTarget implements spec.md §4.5(b): iteratively dereferences
// reparse points starting from startPath until a non-reparse target,
// a policy refusal, or a failure.
func (r *TargetResolver) ResolveTarget(startPath string) (string, error) {
	state := newState()
	return r.resolve(startPath, state)
}

func (r *TargetResolver) resolve(currentPath string, state *State) (string, error) {
	// Checked before incrementing so the reported depth is the number
	// of hops already followed (spec.md §8 S6: an 11-link chain capped
	// at max_link_depth=10 fails reporting depth=10, the cap itself,
	// not the attempted 11th hop).
	if state.depth >= r.maxLinkDepth {
		return "", ntfserrors.Newf(ntfserrors.KindLinkRecursion, "depth %d exceeds max_link_depth", state.depth).
			WithPath(currentPath)
	}
	state.depth++
	defer func() { state.depth-- }()

	key := strings.ToLower(r.localPath(currentPath))
	if state.visited[key] {
		return "", ntfserrors.Newf(ntfserrors.KindLinkRecursion, "cycle detected at depth %d", state.depth).
			WithPath(currentPath)
	}
	state.visited[key] = true

	kind, rawTarget, err := r.LinkTarget(r.localPath(currentPath))
	if err != nil {
		return "", err
	}
	if kind == KindNone {
		return currentPath, nil
	}

	absolute := isAbsolute(rawTarget)
	if (absolute && !r.followAbsoluteLinks) || (!absolute && !r.followRelativeLinks) {
		// Policy refusal: halt and return the raw target unchanged; an
		// absolute target already carries its drive identifier
		// (spec.md §4.5(b), and the Open Question in §9 resolved in
		// favor of the more informative behavior).
		return rawTarget, nil
	}

	var nextPath string
	if absolute {
		nextPath = rawTarget
	} else {
		nextPath = canonicalize(parentDir(currentPath) + `\` + rawTarget)
	}

	if !r.targetExists(r.localPath(nextPath)) {
		// Target doesn't exist on this volume: terminate resolution
		// and return the current candidate (spec.md §4.5(b) last bullet).
		return nextPath, nil
	}

	return r.resolve(nextPath, state)
}

func (r *TargetResolver) targetExists(p string) bool {
	return r.interp.FileExists(p) || r.interp.DirExists(p)
}

// localPath strips this volume's drive identifier and the separator
// after it from p, giving the interpreter-local form the Interpreter
// looks paths up by. Paths without that drive prefix are unchanged.
func (r *TargetResolver) localPath(p string) string {
	if r.driveID != "" && len(p) >= len(r.driveID) && strings.EqualFold(p[:len(r.driveID)], r.driveID) {
		return strings.TrimPrefix(p[len(r.driveID):], `\`)
	}
	return p
}

func parentDir(p string) string {
	slashed := strings.ReplaceAll(p, `\`, "/")
	dir := path.Dir(slashed)
	return strings.ReplaceAll(dir, "/", `\`)
}

func canonicalize(p string) string {
	slashed := strings.ReplaceAll(p, `\`, "/")
	clean := path.Clean(slashed)
	return strings.ReplaceAll(clean, "/", `\`)
}
