package permission

// Permission identifies a single grantable capability. Grants are resolved
// by the auth collaborator and carried in the token claims; this service
// only checks membership.
type Permission string

const (
	ViewLogs   Permission = "logs.view"
	ExportLogs Permission = "logs.export"
)

// Has reports whether p is present in perms.
func Has(perms []Permission, p Permission) bool {
	for _, existing := range perms {
		if existing == p {
			return true
		}
	}
	return false
}
