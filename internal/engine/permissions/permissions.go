// Package permissions holds the static role/feature/action authorization
// table. Resolution is a pure lookup: no I/O, safe to call from any
// goroutine. Unknown roles, features, or actions deny.
package permissions

type Role string

const (
	RoleSuperAdmin Role = "super_admin"
	RoleAdmin      Role = "admin"
	RoleManager    Role = "manager"
	RoleUser       Role = "user"
	RoleViewer     Role = "viewer"
)

// Roles is the closed set of matrix roles.
var Roles = []Role{RoleSuperAdmin, RoleAdmin, RoleManager, RoleUser, RoleViewer}

type Feature string

const (
	FeatureDashboard     Feature = "dashboard"
	FeatureCustomers     Feature = "customers"
	FeatureJobs          Feature = "jobs"
	FeatureEstimates     Feature = "estimates"
	FeatureInvoices      Feature = "invoices"
	FeaturePayments      Feature = "payments"
	FeatureCSVImport     Feature = "csv_import"
	FeatureReports       Feature = "reports"
	FeatureTeam          Feature = "team"
	FeatureSettings      Feature = "settings"
	FeatureBilling       Feature = "billing"
	FeatureIntegrations  Feature = "integrations"
	FeatureNotifications Feature = "notifications"
	FeatureAuditLog      Feature = "audit_log"
	FeatureOrganization  Feature = "organization"
)

var Features = []Feature{
	FeatureDashboard, FeatureCustomers, FeatureJobs, FeatureEstimates,
	FeatureInvoices, FeaturePayments, FeatureCSVImport, FeatureReports,
	FeatureTeam, FeatureSettings, FeatureBilling, FeatureIntegrations,
	FeatureNotifications, FeatureAuditLog, FeatureOrganization,
}

type Action string

const (
	ActionView   Action = "view"
	ActionCreate Action = "create"
	ActionEdit   Action = "edit"
	ActionDelete Action = "delete"
)

var Actions = []Action{ActionView, ActionCreate, ActionEdit, ActionDelete}

// Permission is one cell of the matrix: what a role may do with a feature.
type Permission struct {
	View   bool `json:"view"`
	Create bool `json:"create"`
	Edit   bool `json:"edit"`
	Delete bool `json:"delete"`
}

var (
	full     = Permission{View: true, Create: true, Edit: true, Delete: true}
	editable = Permission{View: true, Create: true, Edit: true}
	viewOnly = Permission{View: true}
	none     = Permission{}
)

// matrix enumerates every (role, feature) pair. Keep it exhaustive: a
// pair missing here denies all actions, and TestMatrixComplete fails.
var matrix = map[Role]map[Feature]Permission{
	RoleSuperAdmin: {
		FeatureDashboard:     full,
		FeatureCustomers:     full,
		FeatureJobs:          full,
		FeatureEstimates:     full,
		FeatureInvoices:      full,
		FeaturePayments:      full,
		FeatureCSVImport:     full,
		FeatureReports:       full,
		FeatureTeam:          full,
		FeatureSettings:      full,
		FeatureBilling:       full,
		FeatureIntegrations:  full,
		FeatureNotifications: full,
		FeatureAuditLog:      full,
		FeatureOrganization:  full,
	},
	RoleAdmin: {
		FeatureDashboard:     viewOnly,
		FeatureCustomers:     full,
		FeatureJobs:          full,
		FeatureEstimates:     full,
		FeatureInvoices:      full,
		FeaturePayments:      full,
		FeatureCSVImport:     editable,
		FeatureReports:       viewOnly,
		FeatureTeam:          full,
		FeatureSettings:      editable,
		FeatureBilling:       editable,
		FeatureIntegrations:  full,
		FeatureNotifications: editable,
		FeatureAuditLog:      viewOnly,
		FeatureOrganization:  editable,
	},
	RoleManager: {
		FeatureDashboard:     viewOnly,
		FeatureCustomers:     full,
		FeatureJobs:          full,
		FeatureEstimates:     full,
		FeatureInvoices:      editable,
		FeaturePayments:      editable,
		FeatureCSVImport:     editable,
		FeatureReports:       viewOnly,
		FeatureTeam:          viewOnly,
		FeatureSettings:      viewOnly,
		FeatureBilling:       viewOnly,
		FeatureIntegrations:  viewOnly,
		FeatureNotifications: editable,
		FeatureAuditLog:      none,
		FeatureOrganization:  viewOnly,
	},
	RoleUser: {
		FeatureDashboard:     viewOnly,
		FeatureCustomers:     editable,
		FeatureJobs:          editable,
		FeatureEstimates:     editable,
		FeatureInvoices:      viewOnly,
		FeaturePayments:      viewOnly,
		FeatureCSVImport:     none,
		FeatureReports:       viewOnly,
		FeatureTeam:          viewOnly,
		FeatureSettings:      viewOnly,
		FeatureBilling:       none,
		FeatureIntegrations:  none,
		FeatureNotifications: viewOnly,
		FeatureAuditLog:      none,
		FeatureOrganization:  viewOnly,
	},
	RoleViewer: {
		FeatureDashboard:     viewOnly,
		FeatureCustomers:     viewOnly,
		FeatureJobs:          viewOnly,
		FeatureEstimates:     viewOnly,
		FeatureInvoices:      viewOnly,
		FeaturePayments:      viewOnly,
		FeatureCSVImport:     none,
		FeatureReports:       viewOnly,
		FeatureTeam:          none,
		FeatureSettings:      none,
		FeatureBilling:       none,
		FeatureIntegrations:  none,
		FeatureNotifications: viewOnly,
		FeatureAuditLog:      none,
		FeatureOrganization:  none,
	},
}

// Normalize maps membership-level roles onto matrix roles. Owner is a
// membership role, not a matrix row; it carries admin authority.
func Normalize(role string) Role {
	if role == "owner" {
		return RoleAdmin
	}
	return Role(role)
}

// Resolve reports whether role may perform action on feature. Any
// combination outside the static table denies.
func Resolve(role Role, feature Feature, action Action) bool {
	perms, ok := matrix[role]
	if !ok {
		return false
	}
	perm, ok := perms[feature]
	if !ok {
		return false
	}

	switch action {
	case ActionView:
		return perm.View
	case ActionCreate:
		return perm.Create
	case ActionEdit:
		return perm.Edit
	case ActionDelete:
		return perm.Delete
	}
	return false
}

// Grants returns a copy of the role's full feature map, for rendering
// permission-aware UI in a single response.
func Grants(role Role) map[Feature]Permission {
	perms, ok := matrix[role]
	if !ok {
		return map[Feature]Permission{}
	}

	out := make(map[Feature]Permission, len(perms))
	for f, p := range perms {
		out[f] = p
	}
	return out
}

// Missing returns every (role, feature) pair absent from the table. A
// non-empty result is a defect.
func Missing() []string {
	var missing []string
	for _, role := range Roles {
		perms, ok := matrix[role]
		if !ok {
			missing = append(missing, string(role))
			continue
		}
		for _, feature := range Features {
			if _, ok := perms[feature]; !ok {
				missing = append(missing, string(role)+"/"+string(feature))
			}
		}
	}
	return missing
}
