package checksum

import (
	"strconv"
	"strings"
)

// DigestUnavailable is stored in place of a digest that could not be computed.
const DigestUnavailable = "n/a"

// Record is the decoded attribute part of a checksum line.
type Record struct {
	Size int64
	Perm int
	UID  string
	GID  string
	MD5  string
	SHA1 string

	// Extended is nil for the legacy six-field form.
	Extended *Extended
}

// Extended holds the fields only present in the extended form.
type Extended struct {
	UserName  string
	GroupName string
	MTime     int64
	Inode     int64
	SHA256    string
	Tag       string
}

// Sum is the result of decoding a checksum line and its optional audit line.
type Sum struct {
	// Deleted is set when the line is the deletion marker. Record is zero
	// in that case.
	Deleted bool
	Record  Record
	Audit   *Audit
}

// Encode renders r in the canonical colon-delimited form: six fields for a
// legacy record, eleven for an extended one, plus the tag when set.
func Encode(r Record) string {
	var b strings.Builder
	b.WriteString(strconv.FormatInt(r.Size, 10))
	b.WriteByte(':')
	b.WriteString(strconv.Itoa(r.Perm))
	for _, f := range []string{r.UID, r.GID, r.MD5, r.SHA1} {
		b.WriteByte(':')
		b.WriteString(f)
	}
	if r.Extended == nil {
		return b.String()
	}

	e := r.Extended
	b.WriteByte(':')
	b.WriteString(e.UserName)
	b.WriteByte(':')
	b.WriteString(e.GroupName)
	b.WriteByte(':')
	b.WriteString(strconv.FormatInt(e.MTime, 10))
	b.WriteByte(':')
	b.WriteString(strconv.FormatInt(e.Inode, 10))
	b.WriteByte(':')
	b.WriteString(e.SHA256)
	if e.Tag != "" {
		b.WriteByte(':')
		b.WriteString(e.Tag)
	}
	return b.String()
}

// Decode parses a checksum line and, when auditLine is non-nil, the audit
// sub-record that accompanied it.
//
// Accepted layouts are the legacy form (6 fields) and the extended form
// (10 fields, 11 with sha256, 12 with a tag). The tag is everything after
// the eleventh separator, so it may itself contain colons. A line starting
// with "-1" is the deletion marker and is not split at all.
func Decode(line string, auditLine *string) (*Sum, error) {
	sum := &Sum{}

	if strings.HasPrefix(line, "-1") {
		sum.Deleted = true
	} else {
		rec, err := decodeRecord(line)
		if err != nil {
			return nil, err
		}
		sum.Record = rec
	}

	if auditLine != nil {
		a, err := DecodeAudit(*auditLine)
		if err != nil {
			return nil, err
		}
		sum.Audit = a
	}
	return sum, nil
}

func decodeRecord(line string) (Record, error) {
	fields := strings.SplitN(line, ":", 12)
	switch n := len(fields); {
	case n < 6:
		return Record{}, ErrMalformedRecord
	case n > 6 && n < 10:
		return Record{}, ErrMalformedRecord
	}

	r := Record{
		Size: parseLenient(fields[0]),
		Perm: int(parseLenient(fields[1])),
		UID:  fields[2],
		GID:  fields[3],
		MD5:  fields[4],
		SHA1: fields[5],
	}
	if len(fields) == 6 {
		return r, nil
	}

	e := &Extended{
		UserName:  fields[6],
		GroupName: fields[7],
		MTime:     parseLenient(fields[8]),
		Inode:     parseLenient(fields[9]),
	}
	if len(fields) > 10 {
		e.SHA256 = fields[10]
	}
	if len(fields) > 11 {
		e.Tag = fields[11]
	}
	r.Extended = e
	return r, nil
}

// parseLenient reads an optionally signed base-10 integer prefix of s and
// ignores anything after it. It returns 0 when there are no digits.
func parseLenient(s string) int64 {
	s = strings.TrimLeft(s, " \t")
	i := 0
	if i < len(s) && (s[i] == '-' || s[i] == '+') {
		i++
	}
	start := i
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i == start {
		return 0
	}
	n, err := strconv.ParseInt(s[:i], 10, 64)
	if err != nil {
		return 0
	}
	return n
}
