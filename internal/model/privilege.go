package model

// Privilege represents a permission that can be assigned to users
type Privilege struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Code string `gorm:"type:varchar(50);uniqueIndex;not null" json:"code"` // e.g., "sale:create"
	Name string `gorm:"type:varchar(100)" json:"name"`
}

// Privilege codes checked by the router
const (
	PrivUserView            = "user:view"
	PrivUserCreate          = "user:create"
	PrivUserUpdate          = "user:update"
	PrivUserDelete          = "user:delete"
	PrivUserUpdatePrivilege = "user:update_privilege"

	PrivTransactionView   = "transaction:view"
	PrivTransactionCreate = "transaction:create"
	PrivTransactionUpdate = "transaction:update"
	PrivTransactionDelete = "transaction:delete"
	PrivTransactionPay    = "transaction:pay"
	PrivTransactionExport = "transaction:export"

	PrivSaleView   = "sale:view"
	PrivSaleManage = "sale:manage"

	PrivPurchaseView   = "purchase:view"
	PrivPurchaseManage = "purchase:manage"

	PrivCustomerManage = "customer:manage"
	PrivSupplierManage = "supplier:manage"
	PrivCategoryManage = "category:manage"

	PrivDashboardView = "dashboard:view"

	PrivCompanyAdmin = "company:admin" // platform back-office
)

// Default privileges for the system
var DefaultPrivileges = []Privilege{
	{Code: PrivUserView, Name: "View User"},
	{Code: PrivUserCreate, Name: "Create User"},
	{Code: PrivUserUpdate, Name: "Update User"},
	{Code: PrivUserDelete, Name: "Delete User"},
	{Code: PrivUserUpdatePrivilege, Name: "Update User Privileges"},
	{Code: PrivTransactionView, Name: "View Transaction"},
	{Code: PrivTransactionCreate, Name: "Create Transaction"},
	{Code: PrivTransactionUpdate, Name: "Update Transaction"},
	{Code: PrivTransactionDelete, Name: "Delete Transaction"},
	{Code: PrivTransactionPay, Name: "Confirm or Cancel Payment"},
	{Code: PrivTransactionExport, Name: "Export Transactions"},
	{Code: PrivSaleView, Name: "View Sale"},
	{Code: PrivSaleManage, Name: "Manage Sale"},
	{Code: PrivPurchaseView, Name: "View Purchase"},
	{Code: PrivPurchaseManage, Name: "Manage Purchase"},
	{Code: PrivCustomerManage, Name: "Manage Customer"},
	{Code: PrivSupplierManage, Name: "Manage Supplier"},
	{Code: PrivCategoryManage, Name: "Manage Category"},
	{Code: PrivDashboardView, Name: "View Dashboard"},
	{Code: PrivCompanyAdmin, Name: "Platform Back-office"},
}
