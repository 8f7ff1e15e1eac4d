package dashboard

import "time"

// FallbackSnapshot builds the offline dashboard. The shape is fixed and
// every section is populated; timestamps are relative to now so the recent
// lists read naturally. Amounts are in DZD.
func FallbackSnapshot(now time.Time) Snapshot {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	ago := func(d time.Duration) time.Time { return now.Add(-d) }
	ahead := func(days int) time.Time { return now.Add(time.Duration(days) * 24 * time.Hour) }

	return Snapshot{
		Overview: Overview{
			TotalRooms:          45,
			OccupiedRooms:       32,
			AvailableRooms:      13,
			OccupancyRate:       71.1,
			AverageRate:         12500,
			TotalGuests:         58,
			CheckInsToday:       8,
			CheckOutsToday:      5,
			PendingReservations: 12,
			MaintenanceRooms:    2,
		},
		Today: Today{
			Date:                  today,
			CheckIns:              8,
			CheckOuts:             5,
			NewReservations:       6,
			CancelledReservations: 1,
			Revenue:               156000,
			PendingReservations:   12,
			WalkIns:               2,
			NoShows:               1,
			EarlyCheckouts:        0,
			LateCheckouts:         2,
			RoomServiceOrders:     15,
			MaintenanceRequests:   3,
			Complaints:            1,
			Compliments:           4,
		},
		Revenue: Revenue{
			Daily:                   156000,
			Weekly:                  980000,
			Monthly:                 3850000,
			Yearly:                  45600000,
			LastMonth:               3650000,
			Growth:                  5.5,
			AverageDailyRate:        11200,
			RevenuePerAvailableRoom: 7950,
			Breakdown: RevenueBreakdown{
				Rooms:    2890000,
				Food:     578000,
				Services: 231200,
				Other:    150800,
			},
		},
		RoomStatus: RoomStatus{
			Occupied:    32,
			Available:   13,
			Maintenance: 2,
			Cleaning:    3,
			OutOfOrder:  1,
			Reserved:    8,
			Details: map[string]RoomTypeSummary{
				"single": {Total: 15, Occupied: 12, Available: 3},
				"double": {Total: 20, Occupied: 15, Available: 5},
				"suite":  {Total: 8, Occupied: 4, Available: 4},
				"deluxe": {Total: 2, Occupied: 1, Available: 1},
			},
		},
		RecentReservations: []RecentReservation{
			{
				ID:           "RES-2024-001",
				Guest:        GuestContact{Name: "Ahmed Benali", Email: "ahmed.benali@email.com", Phone: "+213 555 123 456"},
				Room:         RoomRef{Number: "205", Type: "Double Room"},
				CheckInDate:  ahead(1),
				CheckOutDate: ahead(3),
				Status:       "confirmed",
				TotalAmount:  25000,
				Nights:       2,
				Guests:       2,
				CreatedAt:    ago(time.Hour),
			},
			{
				ID:           "RES-2024-002",
				Guest:        GuestContact{Name: "Fatima Zahra", Email: "fatima.zahra@email.com", Phone: "+213 555 234 567"},
				Room:         RoomRef{Number: "301", Type: "Suite"},
				CheckInDate:  today,
				CheckOutDate: ahead(2),
				Status:       "checked_in",
				TotalAmount:  45000,
				Nights:       2,
				Guests:       2,
				CreatedAt:    ago(2 * time.Hour),
			},
			{
				ID:           "RES-2024-003",
				Guest:        GuestContact{Name: "Mohamed Salim", Email: "mohamed.salim@email.com", Phone: "+213 555 345 678"},
				Room:         RoomRef{Number: "102", Type: "Single Room"},
				CheckInDate:  ahead(2),
				CheckOutDate: ahead(4),
				Status:       "pending",
				TotalAmount:  18000,
				Nights:       2,
				Guests:       1,
				CreatedAt:    ago(30 * time.Minute),
			},
			{
				ID:           "RES-2024-004",
				Guest:        GuestContact{Name: "Amina Khelifi", Email: "amina.khelifi@email.com", Phone: "+213 555 456 789"},
				Room:         RoomRef{Number: "401", Type: "Deluxe Suite"},
				CheckInDate:  today,
				CheckOutDate: ahead(3),
				Status:       "checked_in",
				TotalAmount:  75000,
				Nights:       3,
				Guests:       2,
				CreatedAt:    ago(3 * time.Hour),
			},
			{
				ID:           "RES-2024-005",
				Guest:        GuestContact{Name: "Youssef Brahimi", Email: "youssef.brahimi@email.com", Phone: "+213 555 567 890"},
				Room:         RoomRef{Number: "203", Type: "Double Room"},
				CheckInDate:  ahead(1),
				CheckOutDate: ahead(5),
				Status:       "confirmed",
				TotalAmount:  50000,
				Nights:       4,
				Guests:       3,
				CreatedAt:    ago(90 * time.Minute),
			},
		},
		RecentActivities: []Activity{
			{ID: "ACT-001", Type: "checkin", Title: "Guest Check-in", Description: "Fatima Zahra checked into Room 301", Timestamp: ago(30 * time.Minute), User: "Front Desk", Priority: "normal"},
			{ID: "ACT-002", Type: "reservation", Title: "New Reservation", Description: "Mohamed Salim made a reservation for Room 102", Timestamp: ago(30 * time.Minute), User: "Online Booking", Priority: "normal"},
			{ID: "ACT-003", Type: "maintenance", Title: "Maintenance Request", Description: "Room 105 - Air conditioning repair needed", Timestamp: ago(time.Hour), User: "Housekeeping", Priority: "high"},
			{ID: "ACT-004", Type: "payment", Title: "Payment Received", Description: "Payment of 45,000 DZD received for RES-2024-002", Timestamp: ago(90 * time.Minute), User: "Front Desk", Priority: "normal"},
			{ID: "ACT-005", Type: "checkout", Title: "Guest Check-out", Description: "Ahmed Mansouri checked out from Room 208", Timestamp: ago(2 * time.Hour), User: "Front Desk", Priority: "normal"},
		},
		Alerts: []Alert{
			{ID: "ALERT-001", Type: "warning", Title: "Room Maintenance Required", Message: "Room 105 air conditioning needs immediate attention", Timestamp: ago(time.Hour), Priority: "high"},
			{ID: "ALERT-002", Type: "info", Title: "High Occupancy Alert", Message: "Hotel occupancy is at 71% - consider dynamic pricing", Timestamp: ago(2 * time.Hour), Priority: "medium"},
			{ID: "ALERT-003", Type: "success", Title: "Revenue Target Achieved", Message: "Monthly revenue target exceeded by 5.5%", Timestamp: ago(3 * time.Hour), Priority: "low", Read: true},
		},
		Performance: Performance{
			AverageStayDuration:  2.3,
			RepeatGuestRate:      35.2,
			CustomerSatisfaction: 4.6,
			AverageResponseTime:  12,
			StaffEfficiency:      87.5,
			EnergyEfficiency:     92.1,
			WasteReduction:       15.3,
			WaterConservation:    8.7,
		},
		Weather: Weather{
			City:        "Algiers",
			Temperature: 22,
			Condition:   "Partly Cloudy",
			Humidity:    65,
			WindSpeed:   12,
			Forecast: []Forecast{
				{Day: "Today", High: 24, Low: 18, Condition: "Partly Cloudy"},
				{Day: "Tomorrow", High: 26, Low: 19, Condition: "Sunny"},
				{Day: now.Add(48 * time.Hour).Weekday().String(), High: 23, Low: 17, Condition: "Cloudy"},
			},
		},
		LastUpdated: now,
	}
}
