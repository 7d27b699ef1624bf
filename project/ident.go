package project

import (
	"path"
	"strings"
)

// ScriptPathToIdentifier folds a script path into the flat Go
// identifier used for its generated struct, file, and registry key.
// The res:// or user:// prefix (or anything before a /res/ component)
// is stripped, the stem is lower-cased, path separators fold to
// underscores, and the extension is appended: res://scripts/bob.paw
// becomes scripts_bob_paw.
func ScriptPathToIdentifier(p string) string {
	p = strings.ReplaceAll(p, "\\", "/")
	switch {
	case strings.HasPrefix(p, "res://"):
		p = p[len("res://"):]
	case strings.HasPrefix(p, "user://"):
		p = p[len("user://"):]
	default:
		if i := strings.LastIndex(p, "/res/"); i >= 0 {
			p = p[i+len("/res/"):]
		}
	}
	ext := strings.TrimPrefix(path.Ext(p), ".")
	p = strings.TrimSuffix(p, path.Ext(p))
	p = strings.ToLower(p)

	var b strings.Builder
	for _, r := range p {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String() + "_" + strings.ToLower(ext)
}
