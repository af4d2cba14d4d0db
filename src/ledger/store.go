package ledger

import (
	"sort"

	"github.com/username/lotledger/backend/src/models"
)

// LotStore is the mutable arena of lots for one rebuild. It is owned by the
// engine and passed around explicitly; nothing here is package-global.
// Lots are never deleted: a lot whose open quantity reaches zero simply stops
// appearing in FIFO queries and in the final snapshot.
type LotStore struct {
	lots []*models.Lot
}

func NewLotStore() *LotStore {
	return &LotStore{}
}

func (s *LotStore) Append(l *models.Lot) {
	s.lots = append(s.lots, l)
}

// OpenLots returns the FIFO queue for one (owner, security) pair: open lots
// in ascending acquisition-date order, insertion order preserved on ties.
// Callers mutate the returned lots in place.
func (s *LotStore) OpenLots(ownerID, securityID string) []*models.Lot {
	var open []*models.Lot
	for _, l := range s.lots {
		if l.OwnerID == ownerID && l.SecurityID == securityID && l.OpenQty.IsPositive() {
			open = append(open, l)
		}
	}
	sortByAcquisitionDate(open)
	return open
}

// OpenLotsBySecurity returns every open lot of a security across all owners,
// for corporate actions that apply portfolio-wide.
func (s *LotStore) OpenLotsBySecurity(securityID string) []*models.Lot {
	var open []*models.Lot
	for _, l := range s.lots {
		if l.SecurityID == securityID && l.OpenQty.IsPositive() {
			open = append(open, l)
		}
	}
	sortByAcquisitionDate(open)
	return open
}

// Snapshot returns value copies of all open lots in a deterministic order,
// ready for publishing as Lots_Current.
func (s *LotStore) Snapshot() []models.Lot {
	var out []models.Lot
	for _, l := range s.lots {
		if l.OpenQty.IsPositive() {
			out = append(out, *l)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].OwnerID != out[j].OwnerID {
			return out[i].OwnerID < out[j].OwnerID
		}
		if out[i].SecurityID != out[j].SecurityID {
			return out[i].SecurityID < out[j].SecurityID
		}
		return out[i].AcquisitionDate.Before(out[j].AcquisitionDate)
	})
	return out
}

func sortByAcquisitionDate(lots []*models.Lot) {
	sort.SliceStable(lots, func(i, j int) bool {
		return lots[i].AcquisitionDate.Before(lots[j].AcquisitionDate)
	})
}
