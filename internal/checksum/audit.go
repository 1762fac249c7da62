package checksum

import (
	"runtime"
	"strconv"
	"strings"
)

// EmptyAuditSum is the wire form of "no audit data".
const EmptyAuditSum = "::::::::::"

// DefaultAuditSizeLimit is the default limit passed to EncodeAudit.
const DefaultAuditSizeLimit = 6144

// auditFields is the number of values in an encoded audit sub-record,
// not counting the optional tag.
const auditFields = 11

// EscapeUserSpaces reports whether user names are escaped for spaces as
// well as colons. Only Windows account names can contain spaces.
var EscapeUserSpaces = runtime.GOOS == "windows"

// Audit identifies the user and process behind a change.
type Audit struct {
	UserID        string
	UserName      string
	GroupID       string
	GroupName     string
	ProcessName   string
	AuditUID      string
	AuditName     string
	EffectiveUID  string
	EffectiveName string
	// ParentPID is nil when the parent process is unknown.
	ParentPID *int64
	ProcessID int64
	Tag       string
}

// EncodeAudit renders a as colon-separated fields. A nil a yields
// EmptyAuditSum. If the result would not fit in limit bytes, EncodeAudit
// returns EmptyAuditSum together with ErrOverflow; callers are expected
// to log and carry on with the sentinel.
func EncodeAudit(a *Audit, limit int) (string, error) {
	if a == nil {
		return EmptyAuditSum, nil
	}

	userName := escape(a.UserName, ':')
	if EscapeUserSpaces {
		userName = escape(userName, ' ')
	}
	ppid := "-"
	if a.ParentPID != nil {
		ppid = strconv.FormatInt(*a.ParentPID, 10)
	}

	fields := []string{
		a.UserID,
		userName,
		a.GroupID,
		a.GroupName,
		escape(escape(a.ProcessName, ':'), ' '),
		a.AuditUID,
		a.AuditName,
		a.EffectiveUID,
		a.EffectiveName,
		ppid,
		strconv.FormatInt(a.ProcessID, 10),
	}
	if a.Tag != "" {
		fields = append(fields, a.Tag)
	}

	out := strings.Join(fields, ":")
	if limit > 0 && len(out) >= limit {
		return EmptyAuditSum, ErrOverflow
	}
	return out, nil
}

// DecodeAudit parses an audit sub-record. An escaped colon does not count
// as a separator. The empty sentinel decodes to nil.
func DecodeAudit(line string) (*Audit, error) {
	fields, rest, ok := splitEscaped(line, auditFields)
	if !ok {
		return nil, ErrMalformedAudit
	}

	a := &Audit{
		UserID:        fields[0],
		UserName:      unescape(fields[1]),
		GroupID:       fields[2],
		GroupName:     fields[3],
		ProcessName:   unescape(fields[4]),
		AuditUID:      fields[5],
		AuditName:     fields[6],
		EffectiveUID:  fields[7],
		EffectiveName: fields[8],
		ProcessID:     parseLenient(fields[10]),
	}
	if p := fields[9]; p != "" && p != "-" {
		v := parseLenient(p)
		a.ParentPID = &v
	}
	if rest != nil {
		a.Tag = *rest
	}

	if rest == nil && isBlank(fields) {
		return nil, nil
	}
	return a, nil
}

// splitEscaped splits s into n fields on unescaped colons. rest is the
// unsplit remainder after the n-th field's separator, or nil when s has
// exactly n fields.
func splitEscaped(s string, n int) ([]string, *string, bool) {
	fields := make([]string, 0, n)
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] != ':' || (i > 0 && s[i-1] == '\\') {
			continue
		}
		fields = append(fields, s[start:i])
		start = i + 1
		if len(fields) == n {
			rest := s[start:]
			return fields, &rest, true
		}
	}
	fields = append(fields, s[start:])
	if len(fields) < n {
		return nil, nil, false
	}
	return fields, nil, true
}

func isBlank(fields []string) bool {
	for _, f := range fields {
		if f != "" {
			return false
		}
	}
	return true
}

func escape(s string, c byte) string {
	if strings.IndexByte(s, c) < 0 {
		return s
	}
	return strings.ReplaceAll(s, string(c), `\`+string(c))
}

func unescape(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	return strings.NewReplacer(`\:`, ":", `\ `, " ").Replace(s)
}
