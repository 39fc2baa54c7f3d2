package utils

import "strings"

// NormalizePath removes "." and empty segments from a slash-separated path.
// ".." segments, segment order and a leading "/" are preserved.
func NormalizePath(p string) string {
	segments := strings.Split(p, "/")
	kept := make([]string, 0, len(segments))
	for _, s := range segments {
		if s == "" || s == "." {
			continue
		}
		kept = append(kept, s)
	}
	joined := strings.Join(kept, "/")
	if strings.HasPrefix(p, "/") {
		return "/" + joined
	}
	return joined
}

// JoinRemote maps a local path onto the remote tree rooted at base.
// The local path is always nested under base, even when it is absolute.
func JoinRemote(base, local string) string {
	return NormalizePath(base + "/" + local)
}

// ShellQuote quotes s for a POSIX shell
func ShellQuote(s string) string {
	if s == "" {
		return "''"
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
