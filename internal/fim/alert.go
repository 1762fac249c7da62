package fim

import (
	"strings"

	"fim-go/internal/checksum"
)

// deletedAuditSum is the audit part of every deletion alert.
const deletedAuditSum = checksum.EmptyAuditSum + ":"

// CreationAlert builds the alert for a newly seen path. stored is the full
// baseline line including the flag prefix.
func CreationAlert(stored, auditSum, tag, path, diff string) string {
	return changeAlert(stored, auditSum, tag, path, diff)
}

// ModificationAlert builds the alert for a changed path. sum is the new
// comparison substring, without the flag prefix.
func ModificationAlert(sum, auditSum, tag, path, diff string) string {
	return changeAlert(sum, auditSum, tag, path, diff)
}

// DeletionAlert builds the alert for a path that disappeared.
func DeletionAlert(tag, path string) string {
	return "-1!" + deletedAuditSum + tag + " " + path
}

func changeAlert(sum, auditSum, tag, path, diff string) string {
	var b strings.Builder
	b.Grow(len(sum) + len(auditSum) + len(tag) + len(path) + len(diff) + 4)
	b.WriteString(sum)
	b.WriteByte('!')
	b.WriteString(auditSum)
	b.WriteByte(':')
	b.WriteString(tag)
	b.WriteByte(' ')
	b.WriteString(path)
	if diff != "" {
		b.WriteByte('\n')
		b.WriteString(diff)
	}
	return b.String()
}
