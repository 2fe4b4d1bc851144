package blog

// Resource identifies a resource type in the ownership policy table.
type Resource string

const (
	// ResourceUsers covers user records: admins may mutate any record,
	// everyone else only their own.
	ResourceUsers Resource = "users"
	// ResourcePosts covers posts: mutation is restricted to the author,
	// with no admin bypass.
	ResourcePosts Resource = "posts"
)

// OwnershipRule decides whether the requesting identity may mutate a
// resource owned by ownerID. Rules assume the resource exists; handlers
// must resolve NotFound before consulting the table so a missing resource
// never leaks through a permission error.
type OwnershipRule func(ident Identity, ownerID string) error

// ownershipPolicies is the per-resource-type policy table. Adding a resource
// type is a data change here, not new control flow in the handlers.
var ownershipPolicies = map[Resource]OwnershipRule{
	ResourcePosts: strictOwner,
	ResourceUsers: adminOrOwner,
}

// Authorize applies the ownership rule registered for the resource type.
// Unknown resource types deny by default.
func Authorize(resource Resource, ident Identity, ownerID string) error {
	if ident == nil {
		return ErrUnauthorized
	}

	rule, ok := ownershipPolicies[resource]
	if !ok {
		return ErrForbidden
	}

	return rule(ident, ownerID)
}

func strictOwner(ident Identity, ownerID string) error {
	if ident.ID() != ownerID {
		return ErrForbidden
	}
	return nil
}

func adminOrOwner(ident Identity, ownerID string) error {
	if ident.Role() == string(RoleAdmin) {
		return nil
	}
	return strictOwner(ident, ownerID)
}
