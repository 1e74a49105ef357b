package blob

import (
	"net/url"
	"path"
	"regexp"
	"strings"
)

// mentionPattern matches "(Attachment: name1, name2)" segments embedded in
// free-text fulfillment notes.
var mentionPattern = regexp.MustCompile(`\(Attachment:\s*([^)]+)\)`)

// ParseMentions extracts filenames mentioned in a note. Each comma-separated
// entry is trimmed; full URLs are stripped down to their final path segment.
// Duplicates are dropped, preserving first-mention order.
func ParseMentions(note string) []string {
	if note == "" {
		return nil
	}

	var names []string
	seen := make(map[string]bool)
	for _, match := range mentionPattern.FindAllStringSubmatch(note, -1) {
		for _, entry := range strings.Split(match[1], ",") {
			name := mentionName(entry)
			if name == "" || seen[name] {
				continue
			}
			seen[name] = true
			names = append(names, name)
		}
	}
	return names
}

// mentionName normalizes one mention entry to a display filename.
func mentionName(entry string) string {
	entry = strings.TrimSpace(entry)
	if entry == "" {
		return ""
	}
	if strings.Contains(entry, "://") {
		if u, err := url.Parse(entry); err == nil && u.Path != "" {
			return path.Base(u.Path)
		}
	}
	return path.Base(entry)
}
