package tools

import (
	"context"

	"github.com/MakingChatbots/genesys-cloud-mcp-server/internal/genesys"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

var oauthClientsTool = &mcp.Tool{
	Name:        "oauth_clients",
	Annotations: readOnly("List OAuth Clients"),
	Description: "Retrieves a list of all OAuth clients, including their associated roles and divisions. This tool is useful for auditing and managing OAuth clients in the Genesys Cloud organization.",
}

type oauthClientsInput struct{}

type divisionRef struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

// roleDivisions is one role granted to a client and the divisions it is
// granted in. Every roleId of the client appears, with or without divisions.
type roleDivisions struct {
	ID        string        `json:"id"`
	Name      string        `json:"name,omitempty"`
	Divisions []divisionRef `json:"divisions"`
}

type oauthClientSummary struct {
	ID           string          `json:"id,omitempty"`
	Name         string          `json:"name"`
	Description  string          `json:"description,omitempty"`
	Roles        []roleDivisions `json:"roles"`
	DateCreated  string          `json:"dateCreated,omitempty"`
	Scope        []string        `json:"scope,omitempty"`
	State        string          `json:"state,omitempty"`
	DateToDelete string          `json:"dateToDelete,omitempty"`
}

func (ts *toolset) oauthClients(ctx context.Context, _ *mcp.CallToolRequest, _ oauthClientsInput) (*mcp.CallToolResult, any, error) {
	clients, err := ts.deps.Genesys.ListOAuthClients(ctx)
	if err != nil {
		return errorResult(failureMessage("Failed to retrieve list of all OAuth clients", err))
	}

	divisionNames := map[string]string{}
	if divisions, err := ts.deps.Genesys.ListDivisions(ctx); err != nil {
		ts.warnEnrichment("Division names will not be populated", "Failed to retrieve list of divisions", err)
	} else {
		for _, d := range divisions {
			divisionNames[d.ID] = d.Name
		}
	}

	var roleIDs []string
	for _, c := range clients {
		roleIDs = append(roleIDs, c.RoleIDs...)
	}
	roleNames := map[string]string{}
	if roles, err := ts.deps.Genesys.ListRoles(ctx, roleIDs); err != nil {
		ts.warnEnrichment("Role names will not be populated", "Failed to retrieve list of roles", err)
	} else {
		for _, r := range roles {
			roleNames[r.ID] = r.Name
		}
	}

	out := make([]oauthClientSummary, 0, len(clients))
	for _, c := range clients {
		out = append(out, oauthClientSummary{
			ID:           c.ID,
			Name:         c.Name,
			Description:  c.Description,
			Roles:        combineRolesAndDivisions(c, roleNames, divisionNames),
			DateCreated:  c.DateCreated,
			Scope:        c.Scope,
			State:        c.State,
			DateToDelete: c.DateToDelete,
		})
	}
	return textResult(out)
}

func (ts *toolset) warnEnrichment(effect, failure string, err error) {
	reason := failure + ": " + err.Error()
	if genesys.IsMissingPermissions(err) {
		reason = "Missing necessary permission."
	}
	ts.log.Warn(effect, "reason", reason)
}

// combineRolesAndDivisions merges a client's roleIds with its role/division
// grants, keeping first-seen order and naming what it can.
func combineRolesAndDivisions(c genesys.OAuthClient, roleNames, divisionNames map[string]string) []roleDivisions {
	var order []string
	divisionsByRole := map[string][]string{}
	seen := map[string]map[string]bool{}

	addRole := func(id string) {
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = map[string]bool{}
		order = append(order, id)
	}

	for _, id := range c.RoleIDs {
		addRole(id)
	}
	for _, rd := range c.RoleDivisions {
		addRole(rd.RoleID)
		if rd.DivisionID == "" || seen[rd.RoleID][rd.DivisionID] {
			continue
		}
		seen[rd.RoleID][rd.DivisionID] = true
		divisionsByRole[rd.RoleID] = append(divisionsByRole[rd.RoleID], rd.DivisionID)
	}

	out := make([]roleDivisions, 0, len(order))
	for _, roleID := range order {
		rd := roleDivisions{ID: roleID, Name: roleNames[roleID], Divisions: []divisionRef{}}
		for _, divID := range divisionsByRole[roleID] {
			rd.Divisions = append(rd.Divisions, divisionRef{ID: divID, Name: divisionNames[divID]})
		}
		out = append(out, rd)
	}
	return out
}
