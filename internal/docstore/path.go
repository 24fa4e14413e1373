package docstore

import (
	"strings"
)

// SplitPath splits "recipes/7/steps" into its segments, ignoring empty ones.
func SplitPath(path string) ([]string, error) {
	raw := strings.Split(path, "/")
	segs := make([]string, 0, len(raw))
	for _, s := range raw {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if s == "." || s == ".." {
			return nil, ErrInvalidPath
		}
		segs = append(segs, s)
	}
	if len(segs) == 0 {
		return nil, ErrInvalidPath
	}
	return segs, nil
}

func JoinPath(parts ...string) string {
	segs := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.Trim(strings.TrimSpace(p), "/")
		if p != "" {
			segs = append(segs, p)
		}
	}
	return strings.Join(segs, "/")
}
