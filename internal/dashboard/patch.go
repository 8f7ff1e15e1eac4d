package dashboard

import (
	"math"
	"math/rand/v2"
)

// Patch is a typed partial update of the cached snapshot. Nil fields are
// left untouched.
type Patch struct {
	OccupancyRate       *float64
	CheckInsToday       *int
	CheckOutsToday      *int
	RevenueToday        *float64
	PendingReservations *int
	// MarkAlertRead is the ID of an alert to flag as read.
	MarkAlertRead string
}

func SetOccupancyRate(rate float64) Patch { return Patch{OccupancyRate: &rate} }

func SetCheckInsToday(n int) Patch { return Patch{CheckInsToday: &n} }

func SetCheckOutsToday(n int) Patch { return Patch{CheckOutsToday: &n} }

func SetRevenueToday(amount float64) Patch { return Patch{RevenueToday: &amount} }

func SetPendingReservations(n int) Patch { return Patch{PendingReservations: &n} }

func MarkAlertRead(id string) Patch { return Patch{MarkAlertRead: id} }

func (p Patch) IsEmpty() bool {
	return p.OccupancyRate == nil &&
		p.CheckInsToday == nil &&
		p.CheckOutsToday == nil &&
		p.RevenueToday == nil &&
		p.PendingReservations == nil &&
		p.MarkAlertRead == ""
}

// applyTo writes the patch into s. Counters shared between the overview and
// today sections are kept in step. Values are clamped to their valid range.
func (p Patch) applyTo(s *Snapshot) {
	if p.OccupancyRate != nil {
		s.Overview.OccupancyRate = clampPercent(*p.OccupancyRate)
	}
	if p.CheckInsToday != nil {
		n := max(*p.CheckInsToday, 0)
		s.Today.CheckIns = n
		s.Overview.CheckInsToday = n
	}
	if p.CheckOutsToday != nil {
		n := max(*p.CheckOutsToday, 0)
		s.Today.CheckOuts = n
		s.Overview.CheckOutsToday = n
	}
	if p.RevenueToday != nil {
		s.Today.Revenue = math.Max(*p.RevenueToday, 0)
	}
	if p.PendingReservations != nil {
		n := max(*p.PendingReservations, 0)
		s.Today.PendingReservations = n
		s.Overview.PendingReservations = n
	}
	if p.MarkAlertRead != "" {
		for i := range s.Alerts {
			if s.Alerts[i].ID == p.MarkAlertRead {
				s.Alerts[i].Read = true
			}
		}
	}
}

func clampPercent(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(100, v))
}

// Simulated fields.
const (
	simCheckIns  = "check_ins"
	simCheckOuts = "check_outs"
	simRevenue   = "revenue"
	simOccupancy = "occupancy_rate"
)

// simulatedPatch picks one field at random and returns the patch that nudges
// it: an occasional check-in or check-out, a small revenue bump, or an
// occupancy drift of at most one point either way.
func simulatedPatch(s Snapshot, r *rand.Rand) (string, Patch) {
	switch r.IntN(4) {
	case 0:
		n := s.Today.CheckIns
		if r.Float64() > 0.8 {
			n++
		}
		return simCheckIns, SetCheckInsToday(n)
	case 1:
		n := s.Today.CheckOuts
		if r.Float64() > 0.9 {
			n++
		}
		return simCheckOuts, SetCheckOutsToday(n)
	case 2:
		revenue := s.Today.Revenue
		if r.Float64() > 0.7 {
			revenue += math.Floor(r.Float64() * 5000)
		}
		return simRevenue, SetRevenueToday(revenue)
	default:
		return simOccupancy, SetOccupancyRate(s.Overview.OccupancyRate + (r.Float64()-0.5)*2)
	}
}
