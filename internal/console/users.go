package console

import (
	"net/http"

	"github.com/JaimeStill/console/internal/tables"
	"github.com/JaimeStill/console/internal/users"
	"github.com/JaimeStill/console/pkg/table"
)

func newUserTable(c *console) tableRoutes {
	return newTableHandler(c, tableSpec[users.User, users.Draft]{
		kind:     users.Kind,
		label:    "Users",
		singular: "User",
		engine: func(ws *tables.Workspace) *table.Engine[users.User] {
			return ws.Users
		},
		draftOf: users.DraftOf,
		fields: func(d users.Draft, _ bool) []fieldView {
			role := d.Role
			if role == "" {
				role = string(users.RoleUser)
			}
			return []fieldView{
				{Name: "name", Label: "Name", Type: "text", Value: d.Name, Required: true},
				{Name: "email", Label: "Email", Type: "email", Value: d.Email, Required: true},
				{Name: "role", Label: "Role", Type: "select", Value: role, Options: users.Roles},
			}
		},
		save: func(r *http.Request, ws *tables.Workspace, d users.Draft, editingID *int) (users.User, error) {
			return ws.SaveUser(r.Context(), d, editingID)
		},
		status: users.MapHTTPStatus,
	})
}
