package domain

// TenantOwned is implemented by every record that belongs to exactly one
// workspace. Tenant checks compare against this interface so the rule
// lives in one place instead of being re-implemented per call site.
type TenantOwned interface {
	OwnerWorkspaceID() string
}

// OwnerWorkspaceID implements TenantOwned.
func (c *CallRecord) OwnerWorkspaceID() string { return c.WorkspaceID }

// OwnerWorkspaceID implements TenantOwned.
func (j *Job) OwnerWorkspaceID() string { return j.WorkspaceID }

// OwnerWorkspaceID implements TenantOwned.
func (c *Customer) OwnerWorkspaceID() string { return c.WorkspaceID }

// OwnerWorkspaceID implements TenantOwned.
func (q *Quote) OwnerWorkspaceID() string { return q.WorkspaceID }
