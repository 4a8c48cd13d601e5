package model

// Role represents user roles in the system
type Role struct {
	ID          uint        `gorm:"primaryKey" json:"id"`
	Code        string      `gorm:"type:varchar(50);uniqueIndex;not null" json:"code"`
	Name        string      `gorm:"type:varchar(100)" json:"name"`
	Description string      `gorm:"type:text" json:"description"`
	Privileges  []Privilege `gorm:"many2many:role_privileges;" json:"privileges,omitempty"`
}

const (
	RolePlatformAdmin = "PLATFORM_ADMIN"
	RoleOwner         = "OWNER"
	RoleOperator      = "OPERATOR"
)

// DefaultRoles defines the default roles in the system
var DefaultRoles = []Role{
	{
		Code:        RolePlatformAdmin,
		Name:        "Platform Administrator",
		Description: "Back-office access across companies",
	},
	{
		Code:        RoleOwner,
		Name:        "Company Owner",
		Description: "Full access inside the company",
	},
	{
		Code:        RoleOperator,
		Name:        "Operator",
		Description: "Records entries and confirms payments",
	},
}

// operatorPrivileges is what an OPERATOR starts with
var operatorPrivileges = map[string]bool{
	PrivTransactionView:   true,
	PrivTransactionCreate: true,
	PrivTransactionPay:    true,
	PrivSaleView:          true,
	PrivSaleManage:        true,
	PrivPurchaseView:      true,
	PrivCustomerManage:    true,
	PrivDashboardView:     true,
}

// PrivilegesForRole picks the default privileges of roleCode out of all.
func PrivilegesForRole(roleCode string, all []Privilege) []Privilege {
	var out []Privilege
	for _, p := range all {
		switch roleCode {
		case RolePlatformAdmin:
			out = append(out, p)
		case RoleOwner:
			if p.Code != PrivCompanyAdmin {
				out = append(out, p)
			}
		case RoleOperator:
			if operatorPrivileges[p.Code] {
				out = append(out, p)
			}
		}
	}
	return out
}
