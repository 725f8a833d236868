package pickle

import (
	"regexp"
	"strings"
)

const (
	tagOpen  = "<!"
	tagClose = ">"
)

var taggedKey = regexp.MustCompile(`^(.*)<!([^<>]*)>$`)

// JoinKey attaches tag to name. An empty tag leaves the name untouched.
func JoinKey(name, tag string) string {
	if tag == "" {
		return name
	}
	return name + tagOpen + tag + tagClose
}

// SplitKey separates a wire key into its name and tag. Keys without a tag
// suffix return an empty tag. An array-tag whose closing bracket was lost is
// repaired.
func SplitKey(key string) (name, tag string) {
	m := taggedKey.FindStringSubmatch(key)
	if m == nil {
		return key, ""
	}
	name, tag = m[1], m[2]
	if strings.HasPrefix(tag, "[") && !strings.HasSuffix(tag, "]") {
		tag += "]"
	}
	return name, tag
}

// isArrayTag reports whether tag describes the elements of an array.
func isArrayTag(tag string) bool {
	return len(tag) >= 2 && tag[0] == '[' && tag[len(tag)-1] == ']'
}

// arrayTag builds the tag for an array from its element tags. It returns ""
// when no element is tagged, the [*t] shorthand when every element carries
// the same tag, and the per-element form otherwise.
func arrayTag(tags []string) string {
	if len(tags) == 0 {
		return ""
	}
	tagged := 0
	uniform := true
	for _, t := range tags {
		if t != "" {
			tagged++
		}
		if t != tags[0] {
			uniform = false
		}
	}
	if tagged == 0 {
		return ""
	}
	if uniform {
		return "[*" + tags[0] + "]"
	}
	return "[" + strings.Join(tags, ",") + "]"
}

// elementTags expands an array-tag into one tag per element. Slots beyond
// those named by the tag are untagged.
func elementTags(tag string, n int) []string {
	out := make([]string, n)
	if !isArrayTag(tag) {
		return out
	}
	body := tag[1 : len(tag)-1]
	if strings.HasPrefix(body, "*") {
		each := body[1:]
		for i := range out {
			out[i] = each
		}
		return out
	}
	for i, part := range splitTopLevel(body) {
		if i >= n {
			break
		}
		out[i] = part
	}
	return out
}

// splitTopLevel splits s on commas that are not nested inside brackets.
// "" yields a single empty part, matching a one-element array with no tag.
func splitTopLevel(s string) []string {
	var parts []string
	depth := 0
	start := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '[':
			depth++
		case ']':
			if depth > 0 {
				depth--
			}
		case ',':
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	return append(parts, s[start:])
}
