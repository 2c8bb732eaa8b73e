package types

// Role is the closed set of user roles. Anything outside this set is
// treated as unknown and fails every role check, including the
// escort-eligibility predicate.
type Role string

const (
	RoleVendor Role = "vendor"
	RoleDCFM   Role = "dcfm"
	RoleSOC    Role = "soc"
	RolePIC    Role = "pic"
)

func (r Role) Known() bool {
	switch r {
	case RoleVendor, RoleDCFM, RoleSOC, RolePIC:
		return true
	}
	return false
}

func (r Role) IsVendor() bool { return r == RoleVendor }

// EscortEligible reports whether the role may act as a PIC on a task.
// Unknown role strings are never eligible.
func (r Role) EscortEligible() bool {
	return r.Known() && r != RoleVendor
}
