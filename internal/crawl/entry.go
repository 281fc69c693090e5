package crawl

import "strings"

// Kind classifies a listing entry by the leading character of its first field.
type Kind int

const (
	KindUnknown Kind = iota
	KindDirectory
	KindSymlinkDir
	KindRegularFile
)

func (k Kind) String() string {
	switch k {
	case KindDirectory:
		return "directory"
	case KindSymlinkDir:
		return "symlink"
	case KindRegularFile:
		return "file"
	default:
		return "unknown"
	}
}

// Entry is one classified line of a directory listing.
type Entry struct {
	Kind   Kind
	Name   string
	Fields []string
}

// ParseLine turns a raw listing line into an Entry. The name is the last
// whitespace-separated field, so names containing spaces come back truncated.
func ParseLine(raw string) Entry {
	fields := strings.Fields(raw)
	if len(fields) == 0 {
		return Entry{Kind: KindUnknown}
	}

	entry := Entry{
		Name:   fields[len(fields)-1],
		Fields: fields,
	}
	switch fields[0][0] {
	case 'd':
		entry.Kind = KindDirectory
	case 'l':
		entry.Kind = KindSymlinkDir
	case '-':
		entry.Kind = KindRegularFile
	default:
		entry.Kind = KindUnknown
	}
	return entry
}

// JoinPath appends name to dir using "/" and trims leading and trailing
// slashes. The root path is "".
func JoinPath(dir, name string) string {
	return strings.Trim(dir+"/"+name, "/")
}

// BaseName returns the last "/"-separated segment of p.
func BaseName(p string) string {
	if i := strings.LastIndex(p, "/"); i >= 0 {
		return p[i+1:]
	}
	return p
}
