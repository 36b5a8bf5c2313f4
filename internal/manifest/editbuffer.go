package manifest

import (
	"regexp"
	"strings"
)

// EditBuffer is the mutable, trivia-preserving representation of a
// manifest's raw bytes. It never re-serializes the document from a parsed
// structure; every edit is a byte-range replacement over the original
// text, so whitespace, comments, and key quoting survive untouched outside
// the edited region.
//
// Only two edit kinds are supported (RemoveDevDependencies and
// RemovePrivateMembers), and each is idempotent: applying it twice produces the same bytes as applying it
// once.
type EditBuffer struct {
	original []byte
	current  []byte
}

// NewEditBuffer wraps raw manifest bytes for editing.
func NewEditBuffer(raw []byte) *EditBuffer {
	return &EditBuffer{original: raw, current: append([]byte(nil), raw...)}
}

// Bytes returns the buffer's current content.
func (b *EditBuffer) Bytes() []byte { return b.current }

// Original returns the buffer's content as first loaded.
func (b *EditBuffer) Original() []byte { return b.original }

// Changed reports whether any edit has actually modified the bytes.
func (b *EditBuffer) Changed() bool { return string(b.current) != string(b.original) }

// sectionHeader matches a top-level or dotted TOML table header line, e.g.
// "[dev-dependencies]" or "[target.'cfg(unix)'.dev-dependencies]".
var sectionHeader = regexp.MustCompile(`(?m)^\[([^\]]+)\]\s*$`)

// RemoveDevDependencies strips every dev-dependencies table (root and
// target-conditional) from the buffer, used by --no-dev-deps and
// --remove-dev-deps.
func (b *EditBuffer) RemoveDevDependencies() {
	b.current = removeSections(b.current, func(header string) bool {
		return header == "dev-dependencies" || strings.HasSuffix(header, ".dev-dependencies") ||
			strings.HasPrefix(header, "dev-dependencies.") || strings.Contains(header, ".dev-dependencies.")
	})
}

// removeSections deletes every table whose header text satisfies match,
// including its trailing body up to (but not including) the next table
// header or end of file. This is idempotent: once removed, match never
// finds the header again.
func removeSections(src []byte, match func(header string) bool) []byte {
	locs := sectionHeader.FindAllSubmatchIndex(src, -1)
	if locs == nil {
		return src
	}
	type span struct{ start, end int }
	var toRemove []span
	for i, loc := range locs {
		header := string(src[loc[2]:loc[3]])
		if !match(header) {
			continue
		}
		start := loc[0]
		var end int
		if i+1 < len(locs) {
			end = locs[i+1][0]
		} else {
			end = len(src)
		}
		toRemove = append(toRemove, span{start, end})
	}
	if len(toRemove) == 0 {
		return src
	}
	var out []byte
	prev := 0
	for _, s := range toRemove {
		out = append(out, src[prev:s.start]...)
		prev = s.end
	}
	out = append(out, src[prev:]...)
	return out
}

// membersArray matches the workspace members = [...] array, single-line or
// multi-line, non-greedily up to the closing bracket.
var membersArray = regexp.MustCompile(`(?s)(members\s*=\s*)\[(.*?)\]`)
var excludeArray = regexp.MustCompile(`(?s)(exclude\s*=\s*)\[(.*?)\]`)

// RemovePrivateMembers relocates each path in removed from the workspace
// members array into its exclude array, adding an exclude array if none
// exists yet. removed elements must be the literal strings as they appear
// in members (e.g. "crates/internal-only").
func (b *EditBuffer) RemovePrivateMembers(removed []string) {
	if len(removed) == 0 {
		return
	}
	removeSet := map[string]bool{}
	for _, r := range removed {
		removeSet[r] = true
	}

	src := b.current
	loc := membersArray.FindSubmatchIndex(src)
	if loc == nil {
		return
	}
	body := string(src[loc[4]:loc[5]])
	items := splitArrayItems(body)
	var kept []string
	var droppedQuoted []string
	for _, it := range items {
		unquoted := strings.Trim(strings.TrimSpace(it), `"'`)
		if removeSet[unquoted] {
			droppedQuoted = append(droppedQuoted, it)
			continue
		}
		kept = append(kept, it)
	}
	if len(droppedQuoted) == 0 {
		return
	}
	newMembers := "members = [" + strings.Join(kept, ", ") + "]"
	out := append([]byte(nil), src[:loc[0]]...)
	out = append(out, []byte(newMembers)...)
	out = append(out, src[loc[1]:]...)
	src = out

	if exLoc := excludeArray.FindSubmatchIndex(src); exLoc != nil {
		exBody := string(src[exLoc[4]:exLoc[5]])
		exItems := splitArrayItems(exBody)
		exItems = append(exItems, droppedQuoted...)
		newExclude := "exclude = [" + strings.Join(exItems, ", ") + "]"
		out := append([]byte(nil), src[:exLoc[0]]...)
		out = append(out, []byte(newExclude)...)
		out = append(out, src[exLoc[1]:]...)
		src = out
	} else {
		// Insert right after the members array so the new key lands in
		// the same [workspace] table.
		end := loc[0] + len(newMembers)
		addition := "\nexclude = [" + strings.Join(droppedQuoted, ", ") + "]"
		out := append([]byte(nil), src[:end]...)
		out = append(out, []byte(addition)...)
		src = append(out, src[end:]...)
	}
	b.current = src
}

func splitArrayItems(body string) []string {
	var items []string
	for _, raw := range strings.Split(body, ",") {
		t := strings.TrimSpace(raw)
		if t == "" {
			continue
		}
		items = append(items, t)
	}
	return items
}
