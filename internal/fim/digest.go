package fim

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"io/fs"

	"fim-go/internal/checksum"
)

// digests holds the hex digests of a file. Fields for algorithms that
// were not requested are empty.
type digests struct {
	md5    string
	sha1   string
	sha256 string
}

const digestAttrs = checksum.AttrMD5 | checksum.AttrSHA1 | checksum.AttrSHA256

// unavailable returns the "n/a" sentinel for every requested algorithm.
func unavailable(attrs checksum.Attr) digests {
	var d digests
	if attrs.Has(checksum.AttrMD5) {
		d.md5 = checksum.DigestUnavailable
	}
	if attrs.Has(checksum.AttrSHA1) {
		d.sha1 = checksum.DigestUnavailable
	}
	if attrs.Has(checksum.AttrSHA256) {
		d.sha256 = checksum.DigestUnavailable
	}
	return d
}

// computeDigests reads path once and feeds every requested hash.
func computeDigests(fsmgr FilesystemManager, path string, attrs checksum.Attr) (digests, error) {
	if attrs&digestAttrs == 0 {
		return digests{}, nil
	}

	var hMD5, hSHA1, hSHA256 hash.Hash
	var writers []io.Writer
	if attrs.Has(checksum.AttrMD5) {
		hMD5 = md5.New()
		writers = append(writers, hMD5)
	}
	if attrs.Has(checksum.AttrSHA1) {
		hSHA1 = sha1.New()
		writers = append(writers, hSHA1)
	}
	if attrs.Has(checksum.AttrSHA256) {
		hSHA256 = sha256.New()
		writers = append(writers, hSHA256)
	}

	f, err := fsmgr.Open(path)
	if err != nil {
		return unavailable(attrs), fmt.Errorf("opening file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(io.MultiWriter(writers...), f); err != nil {
		return unavailable(attrs), fmt.Errorf("reading file: %w", err)
	}

	var d digests
	if hMD5 != nil {
		d.md5 = hex.EncodeToString(hMD5.Sum(nil))
	}
	if hSHA1 != nil {
		d.sha1 = hex.EncodeToString(hSHA1.Sum(nil))
	}
	if hSHA256 != nil {
		d.sha256 = hex.EncodeToString(hSHA256.Sum(nil))
	}
	return d, nil
}

// fileDigests digests a regular file, or the target of a symlink when the
// target is a regular file. Anything else yields "n/a" for each requested
// digest without an error.
func fileDigests(fsmgr FilesystemManager, path string, info fs.FileInfo, attrs checksum.Attr) (digests, error) {
	if attrs&digestAttrs == 0 {
		return digests{}, nil
	}
	if info.Mode()&fs.ModeSymlink != 0 {
		target, err := fsmgr.Stat(path)
		if err != nil || !target.Mode().IsRegular() {
			return unavailable(attrs), nil
		}
	}
	return computeDigests(fsmgr, path, attrs)
}
