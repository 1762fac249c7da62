package fim

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"fim-go/internal/checksum"
	"fim-go/internal/filter"
)

// scanCycle is the state of one walk: the report being filled, the
// throttling counter and the audit record attached to alerts.
type scanCycle struct {
	e       *Engine
	report  *CycleReport
	audit   *checksum.Audit
	counter int

	sendErr      error
	sendFailures int
}

func (e *Engine) newCycle(report *CycleReport, audit *checksum.Audit) *scanCycle {
	if audit != nil {
		// The watch tag is appended by the alert encoder.
		a := *audit
		a.Tag = ""
		audit = &a
	}
	return &scanCycle{e: e, report: report, audit: audit}
}

// scanRoot walks one watch root. A missing root is skipped with a warning.
func (c *scanCycle) scanRoot(w int) {
	e := c.e
	watch := e.watches[w]
	if e.opts.Ignore.ShouldIgnore(watch.Path) {
		e.logger.Debug("ignoring watch root", "path", watch.Path)
		return
	}

	info, err := e.fsmgr.Stat(watch.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			e.logger.Warn("watch root does not exist", "path", watch.Path)
		} else {
			e.logger.Warn("cannot open watch root", "path", watch.Path, "error", err)
			c.report.Errors++
		}
		return
	}

	if info.IsDir() {
		c.walkDir(watch.Path, w, watch.MaxDepth)
		return
	}
	c.visit(watch.Path, w, watch.MaxDepth)
}

// walkDir visits the entries of dir. depth is the remaining recursion
// budget; a negative budget stops the walk.
func (c *scanCycle) walkDir(dir string, w int, depth int) {
	e := c.e
	if depth < 0 {
		e.logger.Debug("maximum recursion level reached", "path", dir)
		return
	}

	if e.opts.SkipNFS {
		nfs, err := e.fsmgr.IsNetwork(dir)
		if err != nil {
			e.logger.Warn("cannot determine filesystem type", "path", dir, "error", err)
			c.report.Errors++
			return
		}
		if nfs {
			e.logger.Debug("skipping network filesystem", "path", dir)
			return
		}
	}

	names, err := e.fsmgr.ReadDir(dir)
	if err != nil {
		e.logger.Warn("cannot open directory", "path", dir, "error", err)
		c.report.Errors++
		return
	}

	if e.watches[w].Options.Realtime() {
		if dw := e.getDirWatcher(); dw != nil {
			if err := dw.AddDir(dir); err != nil {
				e.logger.Debug("cannot watch directory", "path", dir, "error", err)
			}
		}
	}

	for _, name := range names {
		c.visit(filepath.Join(dir, name), w, depth)
	}
}

// visit runs the per-path state machine: ignore, lstat, then directory,
// file or unsupported entry.
func (c *scanCycle) visit(path string, w int, depth int) {
	e := c.e
	if e.opts.Ignore.ShouldIgnore(path) {
		e.logger.Debug("ignoring path", "path", path)
		return
	}

	info, err := e.fsmgr.Lstat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			c.vanished(path, w)
			return
		}
		e.logger.Error("cannot access path", "path", path, "error", err)
		c.report.Errors++
		return
	}

	if info.IsDir() {
		c.walkDir(path, w, depth-1)
		return
	}
	c.checkEntry(path, info, w)
}

// checkEntry handles a non-directory entry.
func (c *scanCycle) checkEntry(path string, info fs.FileInfo, w int) {
	e := c.e
	if filter.ShouldRestrict(path, e.watches[w].Restrict) {
		e.logger.Debug("path excluded by restriction", "path", path)
		return
	}
	if !info.Mode().IsRegular() && info.Mode()&fs.ModeSymlink == 0 {
		e.logger.Debug("irregular file", "path", path, "mode", info.Mode().String())
		return
	}

	c.report.Scanned++
	if stored, ok := e.store.Get(path); ok {
		e.store.MarkSeen(path)
		c.compare(path, info, w, stored)
	} else {
		c.create(path, info, w)
	}
	c.throttle()
}

func (c *scanCycle) create(path string, info fs.FileInfo, w int) {
	e := c.e
	watch := e.watches[w]
	attrs := watch.Options.Attrs()

	sum := checksum.Encode(c.buildRecord(path, info, attrs))
	stored := checksum.EncodeFlags(attrs) + sum

	var diff string
	if attrs.Has(checksum.AttrCaptureContent) {
		diff = c.capture(path)
	}

	e.store.Upsert(Entry{Path: path, Checksum: stored, WatchIndex: w})
	c.send(CreationAlert(stored, c.auditSum(path), watch.Tag, path, diff))
	c.report.Created++
}

// compare recomputes the attributes recorded in the stored flag prefix
// and reports a modification when the encoded result differs.
func (c *scanCycle) compare(path string, info fs.FileInfo, w int, stored Entry) {
	e := c.e
	attrs, oldSum, err := checksum.SplitStored(stored.Checksum)
	if err != nil {
		e.logger.Warn("invalid baseline entry, recording it again", "path", path, "error", err)
		c.report.Errors++
		c.create(path, info, w)
		return
	}

	sum := checksum.Encode(c.buildRecord(path, info, attrs))
	if sum == oldSum {
		return
	}

	var diff string
	if attrs.Has(checksum.AttrCaptureContent) {
		diff = c.capture(path)
	}

	e.store.Upsert(Entry{
		Path:       path,
		Checksum:   stored.Checksum[:checksum.FlagPrefixLen] + sum,
		WatchIndex: w,
	})
	c.send(ModificationAlert(sum, c.auditSum(path), e.watches[w].Tag, path, diff))
	c.report.Modified++
}

// vanished handles a path that disappeared between listing and lstat.
func (c *scanCycle) vanished(path string, w int) {
	tag := c.e.watches[w].Tag
	if entry, ok := c.e.store.Remove(path); ok {
		tag = c.e.tagFor(entry.WatchIndex)
		c.dropSnapshot(entry)
	}
	c.send(DeletionAlert(tag, path))
	c.report.Deleted++
}

// removeEntry reports a tracked path as deleted and forgets it.
func (c *scanCycle) removeEntry(path string) {
	entry, ok := c.e.store.Remove(path)
	if !ok {
		return
	}
	c.e.logger.Debug("sending delete message", "path", path)
	c.send(DeletionAlert(c.e.tagFor(entry.WatchIndex), path))
	c.report.Deleted++
	c.dropSnapshot(entry)
}

// removeTree removes path and every tracked path below it.
func (c *scanCycle) removeTree(path string) {
	prefix := strings.TrimSuffix(path, string(os.PathSeparator)) + string(os.PathSeparator)
	c.e.store.ForEach(func(entry Entry) bool {
		if entry.Path == path || strings.HasPrefix(entry.Path, prefix) {
			c.removeEntry(entry.Path)
		}
		return true
	})
}

func (c *scanCycle) dropSnapshot(entry Entry) {
	if c.e.diffs == nil || !captured(entry) {
		return
	}
	if err := c.e.diffs.Delete(entry.Path); err != nil {
		c.e.logger.Warn("removing diff snapshot", "path", entry.Path, "error", err)
	}
}

func captured(entry Entry) bool {
	i := checksum.FlagPrefixLen - 1
	return len(entry.Checksum) > i && entry.Checksum[i] == '+'
}

func (c *scanCycle) capture(path string) string {
	if c.e.diffs == nil {
		return ""
	}
	diff, err := c.e.diffs.Capture(path)
	if err != nil {
		c.e.logger.Warn("capturing file content", "path", path, "error", err)
		return ""
	}
	return diff
}

// buildRecord computes the attributes in attrs. Disabled attributes are
// left at their zero value.
func (c *scanCycle) buildRecord(path string, info fs.FileInfo, attrs checksum.Attr) checksum.Record {
	e := c.e
	st := e.fsmgr.StatData(path, info)
	rec := checksum.Record{Extended: &checksum.Extended{}}

	if attrs.Has(checksum.AttrSize) {
		rec.Size = info.Size()
	}
	if attrs.Has(checksum.AttrPerm) {
		rec.Perm = int(st.Mode)
	}
	if attrs&(checksum.AttrOwner|checksum.AttrGroup) != 0 {
		owner, err := e.owners.ResolveOwner(path, st)
		if err != nil {
			e.logger.Debug("resolving file owner", "path", path, "error", err)
		}
		if attrs.Has(checksum.AttrOwner) {
			rec.UID = owner.UID
			rec.Extended.UserName = owner.UserName
		}
		if attrs.Has(checksum.AttrGroup) {
			rec.GID = owner.GID
			rec.Extended.GroupName = owner.GroupName
		}
	}
	if attrs.Has(checksum.AttrMTime) {
		rec.Extended.MTime = info.ModTime().Unix()
	}
	if attrs.Has(checksum.AttrInode) {
		rec.Extended.Inode = int64(st.Inode)
	}

	d, err := fileDigests(e.fsmgr, path, info, attrs)
	if err != nil {
		e.logger.Warn("computing digests", "path", path, "error", err)
	}
	rec.MD5 = d.md5
	rec.SHA1 = d.sha1
	rec.Extended.SHA256 = d.sha256
	return rec
}

func (c *scanCycle) auditSum(path string) string {
	sum, err := checksum.EncodeAudit(c.audit, c.e.opts.AuditSizeLimit)
	if err != nil {
		c.e.logger.Error("whodata sum could not be included in the alert", "path", path, "error", err)
	}
	return sum
}

func (c *scanCycle) send(body string) {
	err := c.e.sink.Send(Message{
		Delay:  c.e.opts.SendDelay,
		Queue:  SyscheckQueue,
		Body:   body,
		Origin: SyscheckOrigin,
		Kind:   SyscheckKind,
	})
	if err != nil {
		c.e.logger.Error("sending alert", "error", err)
		c.sendErr = err
		c.sendFailures++
	}
}

// throttle pauses for ScanSleep after every SleepAfter files.
func (c *scanCycle) throttle() {
	if c.e.opts.SleepAfter <= 0 {
		return
	}
	if c.counter >= c.e.opts.SleepAfter {
		c.e.sleep(c.e.opts.ScanSleep)
		c.counter = 0
	}
	c.counter++
}
