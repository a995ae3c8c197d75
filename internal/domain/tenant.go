package domain

// Tenant es el alcance (empresa, sucursal) resuelto por petición desde la identidad del llamador.
type Tenant struct {
	CompanyID string
	BranchID  string
	UserID    string
}

// HasBranch indica si el contexto trae sucursal.
func (t Tenant) HasBranch() bool { return t.BranchID != "" }

// RequireBranch falla con ErrNoBranchContext si no hay sucursal; toda escritura lo exige.
func (t Tenant) RequireBranch() error {
	if t.BranchID == "" {
		return ErrNoBranchContext
	}
	return nil
}

// Owns indica si un registro con (companyID, branchID) pertenece al tenant.
func (t Tenant) Owns(companyID, branchID string) bool {
	if t.BranchID == "" || t.BranchID != branchID {
		return false
	}
	return t.CompanyID == "" || t.CompanyID == companyID
}
