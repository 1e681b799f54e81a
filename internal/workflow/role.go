package workflow

// Role identifies an actor type in the approval chain.
type Role string

const (
	RoleStudent           Role = "STUDENT"
	RoleFaculty           Role = "FACULTY"
	RoleMentor            Role = "MENTOR"
	RoleHod               Role = "HOD"
	RoleDean              Role = "DEAN"
	RoleDeanAcademics     Role = "DEAN_ACADEMICS"
	RoleRegistrar         Role = "REGISTRAR"
	RoleCoe               Role = "COE"
	RoleRnd               Role = "RND"
	RoleIndustryRelations Role = "INDUSTRY_RELATIONS"
	RoleExamCell          Role = "EXAM_CELL"
	RoleAdmin             Role = "ADMIN"
)

// StageRoles are the roles that can hold a document in their pending queue.
// Order follows the canonical chain.
var StageRoles = []Role{
	RoleMentor,
	RoleHod,
	RoleDean,
	RoleDeanAcademics,
	RoleRegistrar,
	RoleCoe,
	RoleRnd,
	RoleIndustryRelations,
	RoleExamCell,
}

var allRoles = map[Role]bool{
	RoleStudent:           true,
	RoleFaculty:           true,
	RoleMentor:            true,
	RoleHod:               true,
	RoleDean:              true,
	RoleDeanAcademics:     true,
	RoleRegistrar:         true,
	RoleCoe:               true,
	RoleRnd:               true,
	RoleIndustryRelations: true,
	RoleExamCell:          true,
	RoleAdmin:             true,
}

// roleSegments maps stage roles to their URL path segments and back.
var roleSegments = map[Role]string{
	RoleMentor:            "mentor",
	RoleHod:               "hod",
	RoleDean:              "dean",
	RoleDeanAcademics:     "dean-academics",
	RoleRegistrar:         "registrar",
	RoleCoe:               "coe",
	RoleRnd:               "rnd",
	RoleIndustryRelations: "industry-relations",
	RoleExamCell:          "exam-cell",
}

// ParseRole validates a role name.
func ParseRole(s string) (Role, bool) {
	r := Role(s)
	return r, allRoles[r]
}

// IsStage reports whether the role can hold documents.
func (r Role) IsStage() bool {
	_, ok := roleSegments[r]
	return ok
}

// Segment returns the URL path segment for a stage role ("dean-academics"
// for DEAN_ACADEMICS). Empty for non-stage roles.
func (r Role) Segment() string {
	return roleSegments[r]
}

// DepartmentScoped reports whether approver resolution for this role is
// constrained to the document owner's department.
func (r Role) DepartmentScoped() bool {
	switch r {
	case RoleMentor, RoleHod, RoleDean:
		return true
	}
	return false
}
