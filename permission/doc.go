// Package permission maps administrator roles onto the permission tags that
// routes and operations declare.
//
// # Role tiers
//
// Two tiers are gated: [TagAdmin] is satisfied by [RoleAdmin] and
// [RoleSuperAdmin], [TagSuperAdmin] only by [RoleSuperAdmin]. Any tag the
// [Policy] has no gate for is open to every authenticated principal.
//
// # What this package must NOT do
//
//   - Perform I/O or know where the role came from.
//   - Decide whether a principal is authenticated; callers check that first.
package permission
