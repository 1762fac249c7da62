//go:build unix

package fs

import (
	"fmt"
	"os/user"
	"strconv"
	"sync"

	"fim-go/internal/fim"
)

// PosixOwnerResolver maps numeric uid/gid values to names. Lookups are
// cached for the life of the resolver.
type PosixOwnerResolver struct {
	mu     sync.Mutex
	users  map[uint32]string
	groups map[uint32]string
}

var _ fim.OwnerResolver = (*PosixOwnerResolver)(nil)

// NewOwnerResolver returns the owner resolver for this platform.
func NewOwnerResolver() *PosixOwnerResolver {
	return &PosixOwnerResolver{
		users:  make(map[uint32]string),
		groups: make(map[uint32]string),
	}
}

// ResolveOwner always fills in the numeric IDs. Names that cannot be
// resolved are left empty and reported in the returned error.
func (r *PosixOwnerResolver) ResolveOwner(_ string, st fim.StatData) (fim.OwnerIdentity, error) {
	id := fim.OwnerIdentity{
		UID: strconv.FormatUint(uint64(st.UID), 10),
		GID: strconv.FormatUint(uint64(st.GID), 10),
	}

	var firstErr error
	name, err := r.userName(st.UID)
	if err != nil {
		firstErr = err
	}
	id.UserName = name

	group, err := r.groupName(st.GID)
	if err != nil && firstErr == nil {
		firstErr = err
	}
	id.GroupName = group
	return id, firstErr
}

func (r *PosixOwnerResolver) userName(uid uint32) (string, error) {
	r.mu.Lock()
	name, ok := r.users[uid]
	r.mu.Unlock()
	if ok {
		return name, nil
	}

	u, err := user.LookupId(strconv.FormatUint(uint64(uid), 10))
	if err != nil {
		return "", fmt.Errorf("looking up user %d: %w", uid, err)
	}
	r.mu.Lock()
	r.users[uid] = u.Username
	r.mu.Unlock()
	return u.Username, nil
}

func (r *PosixOwnerResolver) groupName(gid uint32) (string, error) {
	r.mu.Lock()
	name, ok := r.groups[gid]
	r.mu.Unlock()
	if ok {
		return name, nil
	}

	g, err := user.LookupGroupId(strconv.FormatUint(uint64(gid), 10))
	if err != nil {
		return "", fmt.Errorf("looking up group %d: %w", gid, err)
	}
	r.mu.Lock()
	r.groups[gid] = g.Name
	r.mu.Unlock()
	return g.Name, nil
}
