package auth

import "depot-backend/internal/models"

// Areas of the back office a role can be granted
const (
	AreaDashboard = "dashboard"
	AreaCustomers = "customers"
	AreaCrates    = "crates"
	AreaWarehouse = "warehouse"
	AreaPOS       = "pos"
	AreaAdmin     = "admin"
)

// AllAreas in menu order
var AllAreas = []string{AreaDashboard, AreaCustomers, AreaCrates, AreaWarehouse, AreaPOS, AreaAdmin}

type grant struct {
	read  bool
	write bool
}

var (
	rw = grant{read: true, write: true}
	ro = grant{read: true}
)

var roleGrants = map[string]map[string]grant{
	models.RoleAdmin: {
		AreaDashboard: rw, AreaCustomers: rw, AreaCrates: rw,
		AreaWarehouse: rw, AreaPOS: rw, AreaAdmin: rw,
	},
	models.RoleCashier: {
		AreaDashboard: rw, AreaCustomers: rw, AreaPOS: rw,
	},
	models.RoleWarehouse: {
		AreaDashboard: rw, AreaWarehouse: rw,
	},
	models.RoleEmpties: {
		AreaDashboard: rw, AreaCustomers: ro, AreaCrates: rw,
	},
}

// CanRead reports whether role may view the area
func CanRead(role, area string) bool {
	return roleGrants[role][area].read
}

// CanWrite reports whether role may change data in the area
func CanWrite(role, area string) bool {
	return roleGrants[role][area].write
}

// AreasFor lists the areas role can open, in menu order
func AreasFor(role string) []string {
	areas := []string{}
	for _, area := range AllAreas {
		if CanRead(role, area) {
			areas = append(areas, area)
		}
	}
	return areas
}
