package fim

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"fim-go/internal/checksum"
	"fim-go/internal/filter"
)

// Options is the set of checks enabled for a watch root. The low bits
// mirror checksum.Attr so they can be written straight into a flag prefix.
type Options uint32

const (
	OptSize                   = Options(checksum.AttrSize)
	OptPerm                   = Options(checksum.AttrPerm)
	OptOwner                  = Options(checksum.AttrOwner)
	OptGroup                  = Options(checksum.AttrGroup)
	OptMD5                    = Options(checksum.AttrMD5)
	OptSHA1                   = Options(checksum.AttrSHA1)
	OptMTime                  = Options(checksum.AttrMTime)
	OptInode                  = Options(checksum.AttrInode)
	OptSHA256                 = Options(checksum.AttrSHA256)
	OptCaptureContent         = Options(checksum.AttrCaptureContent)
	OptRealtime       Options = 1 << 10
	OptWhodata        Options = 1 << 11

	attrMask = Options(1<<checksum.FlagPrefixLen - 1)

	// OptCheckSum enables every digest.
	OptCheckSum = OptMD5 | OptSHA1 | OptSHA256
	// OptCheckAll enables every attribute check.
	OptCheckAll = OptSize | OptPerm | OptOwner | OptGroup | OptCheckSum | OptMTime | OptInode
)

var optionNames = map[string]Options{
	"size":            OptSize,
	"perm":            OptPerm,
	"permissions":     OptPerm,
	"owner":           OptOwner,
	"group":           OptGroup,
	"md5":             OptMD5,
	"sha1":            OptSHA1,
	"sha256":          OptSHA256,
	"mtime":           OptMTime,
	"inode":           OptInode,
	"capture_content": OptCaptureContent,
	"report_changes":  OptCaptureContent,
	"realtime":        OptRealtime,
	"whodata":         OptWhodata,
	"check_sum":       OptCheckSum,
	"check_all":       OptCheckAll,
}

// ParseOptions converts option names (as written in the config file) into
// an Options set.
func ParseOptions(names []string) (Options, error) {
	var o Options
	for _, name := range names {
		v, ok := optionNames[strings.ToLower(strings.TrimSpace(name))]
		if !ok {
			return 0, fmt.Errorf("unknown watch option %q", name)
		}
		o |= v
	}
	return o, nil
}

// Has reports whether every option in x is set.
func (o Options) Has(x Options) bool { return o&x == x }

// Realtime reports whether the root is watched for change events.
// Whodata implies realtime.
func (o Options) Realtime() bool { return o&(OptRealtime|OptWhodata) != 0 }

// Attrs returns the attribute checks as a checksum.Attr.
func (o Options) Attrs() checksum.Attr { return checksum.Attr(o & attrMask) }

// WatchConfig is one configured watch root. It is not modified after the
// engine is built.
type WatchConfig struct {
	Path     string
	Options  Options
	MaxDepth int
	Restrict *regexp.Regexp
	Tag      string
}

// GlobalOptions are the engine-wide scan settings.
type GlobalOptions struct {
	SkipNFS       bool
	RemoveOldDiff bool

	// SleepAfter is the number of files processed between throttling
	// pauses of ScanSleep. Zero disables throttling.
	SleepAfter int
	ScanSleep  time.Duration

	AuditSizeLimit int

	// SendDelay is passed to the sink with every message.
	SendDelay time.Duration

	Ignore *filter.Rules
}
