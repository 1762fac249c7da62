package checksum

import "errors"

var (
	// ErrMalformedRecord is returned when a checksum line is missing a
	// required field.
	ErrMalformedRecord = errors.New("malformed checksum record")

	// ErrMalformedAudit is returned when an audit sub-record has fewer
	// than eleven fields.
	ErrMalformedAudit = errors.New("malformed audit record")

	// ErrOverflow is returned by EncodeAudit when the encoded record does
	// not fit in the size limit.
	ErrOverflow = errors.New("audit record exceeds size limit")
)
