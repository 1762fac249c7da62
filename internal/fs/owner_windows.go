//go:build windows

package fs

import (
	"fmt"

	"golang.org/x/sys/windows"

	"fim-go/internal/fim"
)

// WindowsOwnerResolver reads the owner SID from a file's security descriptor.
type WindowsOwnerResolver struct{}

var _ fim.OwnerResolver = (*WindowsOwnerResolver)(nil)

// NewOwnerResolver returns the owner resolver for this platform.
func NewOwnerResolver() *WindowsOwnerResolver {
	return &WindowsOwnerResolver{}
}

// ResolveOwner returns the owner SID as UID and the account name as
// UserName. Windows files carry no group in this model.
func (r *WindowsOwnerResolver) ResolveOwner(path string, _ fim.StatData) (fim.OwnerIdentity, error) {
	sd, err := windows.GetNamedSecurityInfo(path, windows.SE_FILE_OBJECT, windows.OWNER_SECURITY_INFORMATION)
	if err != nil {
		// Usually access denied or a sharing violation.
		return fim.OwnerIdentity{}, fmt.Errorf("reading security descriptor of %s: %w", path, err)
	}

	owner, _, err := sd.Owner()
	if err != nil {
		return fim.OwnerIdentity{}, fmt.Errorf("reading owner of %s: %w", path, err)
	}

	id := fim.OwnerIdentity{UID: owner.String()}
	account, _, _, err := owner.LookupAccount("")
	if err != nil {
		return id, fmt.Errorf("looking up account %s: %w", id.UID, err)
	}
	id.UserName = account
	return id, nil
}
