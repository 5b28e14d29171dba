// Package users defines the clinic owner's user-access table: the row
// shape returned by the backend, its columns and its filters.
package users

import (
	"strconv"

	"golang.org/x/text/message"

	"github.com/clinicdesk/console/pkg/tablestate"
	"github.com/clinicdesk/console/pkg/view"
)

// Resource is the backend list endpoint.
const Resource = "/user-access"

// Filter keys and values.
const (
	FilterRole   = "role"
	FilterStatus = "status"

	RoleOwner = "owner"
	RoleStaff = "staff"

	StatusAll      = "all"
	StatusActive   = "active"
	StatusInactive = "inactive"
)

// Sortable columns.
var SortableColumns = []string{"userName", "role", "userType"}

// Row is one user as listed by the backend.
type Row struct {
	No       int    `json:"no"`
	UserID   string `json:"userId"`
	UserName string `json:"userName"`
	Role     string `json:"role"`
	UserType string `json:"userType"`
	Active   bool   `json:"active"`
}

// CodecOptions registers the table's filters and sortable columns.
func CodecOptions() []tablestate.Option {
	return []tablestate.Option{
		tablestate.WithFilterKeys(FilterRole, FilterStatus),
		tablestate.WithWildcard(FilterStatus, StatusAll),
		tablestate.WithSortableColumns(SortableColumns...),
	}
}

// Table returns the view definition. pageSizes may be nil.
func Table(pageSizes []int) view.Table[Row] {
	return view.Table[Row]{
		ID:        "users-table",
		PageSizes: pageSizes,
		Columns: []view.Column[Row]{
			{Key: "no", Header: "column.no", Cell: func(_ *message.Printer, r Row) string { return strconv.Itoa(r.No) }},
			{Key: "userId", Header: "column.user_id", Cell: func(_ *message.Printer, r Row) string { return r.UserID }},
			{Key: "userName", Header: "column.user_name", Sortable: true, Cell: func(_ *message.Printer, r Row) string { return r.UserName }},
			{Key: "role", Header: "column.role", Sortable: true, Cell: func(p *message.Printer, r Row) string { return roleLabel(p, r.Role) }},
			{Key: "userType", Header: "column.user_type", Sortable: true, Cell: func(_ *message.Printer, r Row) string { return r.UserType }},
			{Key: "status", Header: "column.status", Cell: func(p *message.Printer, r Row) string {
				if r.Active {
					return p.Sprintf("status.active")
				}
				return p.Sprintf("status.inactive")
			}},
		},
		Filters: []view.Filter{
			{Key: FilterRole, Label: "filter.role", Options: []view.FilterOption{
				{Value: RoleOwner, Label: "filter.role.owner"},
				{Value: RoleStaff, Label: "filter.role.staff"},
			}},
			{Key: FilterStatus, Label: "filter.status", Options: []view.FilterOption{
				{Value: StatusAll, Label: "filter.status.all"},
				{Value: StatusActive, Label: "filter.status.active"},
				{Value: StatusInactive, Label: "filter.status.inactive"},
			}},
		},
	}
}

func roleLabel(p *message.Printer, role string) string {
	switch role {
	case RoleOwner:
		return p.Sprintf("filter.role.owner")
	case RoleStaff:
		return p.Sprintf("filter.role.staff")
	}
	return role
}

// Field reads a column of r as text, for in-memory sources.
func Field(r Row, column string) (string, bool) {
	switch column {
	case "no":
		return strconv.Itoa(r.No), true
	case "userId":
		return r.UserID, true
	case "userName":
		return r.UserName, true
	case "role":
		return r.Role, true
	case "userType":
		return r.UserType, true
	case "status":
		if r.Active {
			return StatusActive, true
		}
		return StatusInactive, true
	}
	return "", false
}
