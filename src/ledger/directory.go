package ledger

import "github.com/username/lotledger/backend/src/models"

// SecurityDirectory is the read-only lookup from security identifier to its
// reference data. Built once per rebuild from the securities table.
type SecurityDirectory struct {
	bySecurityID map[string]models.Security
}

func NewSecurityDirectory(securities []models.Security) *SecurityDirectory {
	d := &SecurityDirectory{bySecurityID: make(map[string]models.Security, len(securities))}
	for _, s := range securities {
		d.bySecurityID[s.SecurityID] = s
	}
	return d
}

func (d *SecurityDirectory) Lookup(securityID string) (models.Security, bool) {
	s, ok := d.bySecurityID[securityID]
	return s, ok
}
