package models

// Category is one node of the two-level upstream taxonomy. A category with an
// empty ParentID is a root; everything else is a child of exactly one root.
type Category struct {
	ID       string
	Name     string
	ParentID string
}

// IsRoot reports whether the category is a top-level grouping root.
func (c Category) IsRoot() bool {
	return c.ParentID == ""
}

// UnknownAccountName is displayed when an account arrives without a name.
const UnknownAccountName = "Unknown account"

// Account is a bank account transactions reference by id.
type Account struct {
	ID   string
	Name string
}

// DisplayName returns the account name, or a placeholder when absent.
func (a Account) DisplayName() string {
	if a.Name == "" {
		return UnknownAccountName
	}
	return a.Name
}
