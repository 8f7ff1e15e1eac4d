package dashboard

import "time"

// Snapshot is the full dashboard payload. Every section is a value so a
// decoded or generated snapshot never has a missing section.
type Snapshot struct {
	Overview           Overview            `json:"overview"`
	Today              Today               `json:"today"`
	Revenue            Revenue             `json:"revenue"`
	RoomStatus         RoomStatus          `json:"roomStatus"`
	RecentReservations []RecentReservation `json:"recentReservations"`
	RecentActivities   []Activity          `json:"recentActivities"`
	Alerts             []Alert             `json:"alerts"`
	Performance        Performance         `json:"performance"`
	Weather            Weather             `json:"weather"`
	LastUpdated        time.Time           `json:"lastUpdated"`
}

type Overview struct {
	TotalRooms          int     `json:"totalRooms"`
	OccupiedRooms       int     `json:"occupiedRooms"`
	AvailableRooms      int     `json:"availableRooms"`
	OccupancyRate       float64 `json:"occupancyRate"`
	AverageRate         float64 `json:"averageRate"`
	TotalGuests         int     `json:"totalGuests"`
	CheckInsToday       int     `json:"checkInsToday"`
	CheckOutsToday      int     `json:"checkOutsToday"`
	PendingReservations int     `json:"pendingReservations"`
	MaintenanceRooms    int     `json:"maintenanceRooms"`
}

type Today struct {
	Date                  time.Time `json:"date"`
	CheckIns              int       `json:"checkIns"`
	CheckOuts             int       `json:"checkOuts"`
	NewReservations       int       `json:"newReservations"`
	CancelledReservations int       `json:"cancelledReservations"`
	Revenue               float64   `json:"revenue"`
	PendingReservations   int       `json:"pendingReservations"`
	WalkIns               int       `json:"walkIns"`
	NoShows               int       `json:"noShows"`
	EarlyCheckouts        int       `json:"earlyCheckouts"`
	LateCheckouts         int       `json:"lateCheckouts"`
	RoomServiceOrders     int       `json:"roomServiceOrders"`
	MaintenanceRequests   int       `json:"maintenanceRequests"`
	Complaints            int       `json:"complaints"`
	Compliments           int       `json:"compliments"`
}

type Revenue struct {
	Daily                   float64          `json:"daily"`
	Weekly                  float64          `json:"weekly"`
	Monthly                 float64          `json:"monthly"`
	Yearly                  float64          `json:"yearly"`
	LastMonth               float64          `json:"lastMonth"`
	Growth                  float64          `json:"growth"`
	AverageDailyRate        float64          `json:"averageDailyRate"`
	RevenuePerAvailableRoom float64          `json:"revenuePerAvailableRoom"`
	Breakdown               RevenueBreakdown `json:"breakdown"`
}

type RevenueBreakdown struct {
	Rooms    float64 `json:"rooms"`
	Food     float64 `json:"food"`
	Services float64 `json:"services"`
	Other    float64 `json:"other"`
}

type RoomStatus struct {
	Occupied    int                        `json:"occupied"`
	Available   int                        `json:"available"`
	Maintenance int                        `json:"maintenance"`
	Cleaning    int                        `json:"cleaning"`
	OutOfOrder  int                        `json:"outOfOrder"`
	Reserved    int                        `json:"reserved"`
	Details     map[string]RoomTypeSummary `json:"details"`
}

type RoomTypeSummary struct {
	Total     int `json:"total"`
	Occupied  int `json:"occupied"`
	Available int `json:"available"`
}

type GuestContact struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

type RoomRef struct {
	Number string `json:"number"`
	Type   string `json:"type"`
}

type RecentReservation struct {
	ID           string       `json:"id"`
	Guest        GuestContact `json:"guest"`
	Room         RoomRef      `json:"room"`
	CheckInDate  time.Time    `json:"checkInDate"`
	CheckOutDate time.Time    `json:"checkOutDate"`
	Status       string       `json:"status"`
	TotalAmount  float64      `json:"totalAmount"`
	Nights       int          `json:"nights"`
	Guests       int          `json:"guests"`
	CreatedAt    time.Time    `json:"createdAt"`
}

type Activity struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Timestamp   time.Time `json:"timestamp"`
	User        string    `json:"user"`
	Priority    string    `json:"priority"`
}

type Alert struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Priority  string    `json:"priority"`
	Read      bool      `json:"read"`
}

type Performance struct {
	AverageStayDuration  float64 `json:"averageStayDuration"`
	RepeatGuestRate      float64 `json:"repeatGuestRate"`
	CustomerSatisfaction float64 `json:"customerSatisfaction"`
	AverageResponseTime  float64 `json:"averageResponseTime"`
	StaffEfficiency      float64 `json:"staffEfficiency"`
	EnergyEfficiency     float64 `json:"energyEfficiency"`
	WasteReduction       float64 `json:"wasteReduction"`
	WaterConservation    float64 `json:"waterConservation"`
}

type Weather struct {
	City        string     `json:"city"`
	Temperature float64    `json:"temperature"`
	Condition   string     `json:"condition"`
	Humidity    float64    `json:"humidity"`
	WindSpeed   float64    `json:"windSpeed"`
	Forecast    []Forecast `json:"forecast"`
}

type Forecast struct {
	Day       string  `json:"day"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Condition string  `json:"condition"`
}

// UnreadAlerts counts alerts not yet marked read.
func (s Snapshot) UnreadAlerts() int {
	n := 0
	for _, a := range s.Alerts {
		if !a.Read {
			n++
		}
	}
	return n
}

// Clone returns a deep copy; listeners receive clones so they can hold on to
// a snapshot while the service keeps mutating its own.
func (s Snapshot) Clone() Snapshot {
	out := s
	out.RecentReservations = cloneSlice(s.RecentReservations)
	out.RecentActivities = cloneSlice(s.RecentActivities)
	out.Alerts = cloneSlice(s.Alerts)
	out.Weather.Forecast = cloneSlice(s.Weather.Forecast)
	if s.RoomStatus.Details != nil {
		out.RoomStatus.Details = make(map[string]RoomTypeSummary, len(s.RoomStatus.Details))
		for k, v := range s.RoomStatus.Details {
			out.RoomStatus.Details[k] = v
		}
	}
	return out
}

func cloneSlice[T any](in []T) []T {
	if in == nil {
		return nil
	}
	out := make([]T, len(in))
	copy(out, in)
	return out
}

// normalize fills nil collections so a remote payload that omits a list
// still renders as an empty list rather than null.
func (s *Snapshot) normalize() {
	if s.RecentReservations == nil {
		s.RecentReservations = []RecentReservation{}
	}
	if s.RecentActivities == nil {
		s.RecentActivities = []Activity{}
	}
	if s.Alerts == nil {
		s.Alerts = []Alert{}
	}
	if s.Weather.Forecast == nil {
		s.Weather.Forecast = []Forecast{}
	}
	if s.RoomStatus.Details == nil {
		s.RoomStatus.Details = map[string]RoomTypeSummary{}
	}
}
