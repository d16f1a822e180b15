package models

// Role is the permission level of an authenticated principal.
type Role string

const (
	RoleViewer   Role = "viewer"
	RoleOperator Role = "operator"
	RoleAdmin    Role = "admin"
)

var roleRank = map[Role]int{
	RoleViewer:   1,
	RoleOperator: 2,
	RoleAdmin:    3,
}

// AtLeast reports whether the role grants the permissions of required.
func (r Role) AtLeast(required Role) bool {
	return roleRank[r] >= roleRank[required]
}

// Principal is an already-authenticated caller. Authentication itself is an
// external concern; handlers only ever see this resolved form.
type Principal struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Role Role   `json:"role"`
}
