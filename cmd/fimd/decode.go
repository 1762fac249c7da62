package main

import (
	"fmt"
	"strings"
	"time"

	"fim-go/internal/checksum"
)

var flagNames = []struct {
	attr checksum.Attr
	name string
}{
	{checksum.AttrSize, "size"},
	{checksum.AttrPerm, "perm"},
	{checksum.AttrOwner, "owner"},
	{checksum.AttrGroup, "group"},
	{checksum.AttrMD5, "md5"},
	{checksum.AttrSHA1, "sha1"},
	{checksum.AttrMTime, "mtime"},
	{checksum.AttrInode, "inode"},
	{checksum.AttrSHA256, "sha256"},
	{checksum.AttrCaptureContent, "capture_content"},
}

// describeChecksum renders a checksum, or a stored baseline line with its
// flag prefix, as one field per line.
func describeChecksum(line string, auditLine *string) (string, error) {
	var b strings.Builder

	if attrs, rest, err := checksum.SplitStored(line); err == nil {
		var names []string
		for _, f := range flagNames {
			if attrs.Has(f.attr) {
				names = append(names, f.name)
			}
		}
		fmt.Fprintf(&b, "checks:     %s\n", strings.Join(names, ","))
		line = rest
	}

	sum, err := checksum.Decode(line, auditLine)
	if err != nil {
		return "", fmt.Errorf("decoding checksum: %w", err)
	}

	if sum.Deleted {
		b.WriteString("deleted:    true\n")
	} else {
		r := sum.Record
		fmt.Fprintf(&b, "size:       %d\n", r.Size)
		fmt.Fprintf(&b, "perm:       %o\n", r.Perm)
		fmt.Fprintf(&b, "uid:        %s\n", r.UID)
		fmt.Fprintf(&b, "gid:        %s\n", r.GID)
		fmt.Fprintf(&b, "md5:        %s\n", r.MD5)
		fmt.Fprintf(&b, "sha1:       %s\n", r.SHA1)
		if x := r.Extended; x != nil {
			fmt.Fprintf(&b, "user:       %s\n", x.UserName)
			fmt.Fprintf(&b, "group:      %s\n", x.GroupName)
			fmt.Fprintf(&b, "mtime:      %d", x.MTime)
			if x.MTime > 0 {
				fmt.Fprintf(&b, " (%s)", time.Unix(x.MTime, 0).UTC().Format(time.RFC3339))
			}
			b.WriteByte('\n')
			fmt.Fprintf(&b, "inode:      %d\n", x.Inode)
			fmt.Fprintf(&b, "sha256:     %s\n", x.SHA256)
			if x.Tag != "" {
				fmt.Fprintf(&b, "tag:        %s\n", x.Tag)
			}
		}
	}

	if a := sum.Audit; a != nil {
		ppid := "-"
		if a.ParentPID != nil {
			ppid = fmt.Sprint(*a.ParentPID)
		}
		fmt.Fprintf(&b, "audit user: %s (%s)\n", a.UserName, a.UserID)
		fmt.Fprintf(&b, "audit grp:  %s (%s)\n", a.GroupName, a.GroupID)
		fmt.Fprintf(&b, "process:    %s pid=%d ppid=%s\n", a.ProcessName, a.ProcessID, ppid)
		fmt.Fprintf(&b, "login:      %s (%s)\n", a.AuditName, a.AuditUID)
		fmt.Fprintf(&b, "effective:  %s (%s)\n", a.EffectiveName, a.EffectiveUID)
	}
	return b.String(), nil
}
