package triplog

import "fmt"

// Options selects and configures a backend.
type Options struct {
	Backend    string
	Path       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// Open returns the store described by o. Plain JSONL files switch to the
// rotating writer when a maximum size is set.
func Open(o Options) (Store, error) {
	switch o.Backend {
	case "jsonl":
		if o.MaxSizeMB > 0 {
			return NewRotatingJSONLStore(o.Path, o.MaxSizeMB, o.MaxBackups, o.MaxAgeDays)
		}
		return NewJSONLStore(o.Path)
	case "sqlite":
		return NewSQLiteStore(o.Path)
	default:
		return nil, fmt.Errorf("unknown trip log backend %q", o.Backend)
	}
}
