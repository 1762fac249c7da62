package checksum

import (
	"fmt"
	"strings"
)

// Attr is a set of file attributes tracked for a monitored path. The bit
// order is the order of the flag characters in a stored baseline line.
type Attr uint16

const (
	AttrSize Attr = 1 << iota
	AttrPerm
	AttrOwner
	AttrGroup
	AttrMD5
	AttrSHA1
	AttrMTime
	AttrInode
	AttrSHA256
	AttrCaptureContent
)

// FlagPrefixLen is the width of the +/- flag prefix at the start of every
// stored baseline line. Change detection compares only what follows it.
const FlagPrefixLen = 10

// flagOrder lists the attributes in prefix order.
var flagOrder = [FlagPrefixLen]Attr{
	AttrSize, AttrPerm, AttrOwner, AttrGroup, AttrMD5,
	AttrSHA1, AttrMTime, AttrInode, AttrSHA256, AttrCaptureContent,
}

// Has reports whether every attribute in o is set in a.
func (a Attr) Has(o Attr) bool { return a&o == o }

// EncodeFlags renders the flag prefix for a: '+' for a tracked attribute,
// '-' otherwise.
func EncodeFlags(a Attr) string {
	var b strings.Builder
	b.Grow(FlagPrefixLen)
	for _, f := range flagOrder {
		if a.Has(f) {
			b.WriteByte('+')
		} else {
			b.WriteByte('-')
		}
	}
	return b.String()
}

// DecodeFlags parses the first FlagPrefixLen characters of s.
func DecodeFlags(s string) (Attr, error) {
	if len(s) < FlagPrefixLen {
		return 0, fmt.Errorf("flag prefix %q too short: %w", s, ErrMalformedRecord)
	}
	var a Attr
	for i, f := range flagOrder {
		switch s[i] {
		case '+':
			a |= f
		case '-':
		default:
			return 0, fmt.Errorf("invalid flag %q at position %d: %w", s[i], i, ErrMalformedRecord)
		}
	}
	return a, nil
}

// SplitStored splits a stored baseline line into its flags and the
// comparison substring that follows the prefix.
func SplitStored(stored string) (Attr, string, error) {
	a, err := DecodeFlags(stored)
	if err != nil {
		return 0, "", err
	}
	return a, stored[FlagPrefixLen:], nil
}
