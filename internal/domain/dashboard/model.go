package dashboard

import "time"

// TrendDays is the length of the appointment and revenue trends, today included.
const TrendDays = 7

type DayCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

type DayAmount struct {
	Date   string  `json:"date"`
	Amount float64 `json:"amount"`
}

// Overview is the landing page aggregate.
type Overview struct {
	TotalPatients     int         `json:"total_patients"`
	TodayAppointments int         `json:"today_appointments"`
	LowStockDrugs     int         `json:"low_stock_drugs"`
	ActiveBeds        int         `json:"active_beds"`
	OccupiedBeds      int         `json:"occupied_beds"`
	AvailableBeds     int         `json:"available_beds"`
	UnpaidBills       int         `json:"unpaid_bills"`
	AppointmentTrend  []DayCount  `json:"appointment_trend"`
	RevenueTrend      []DayAmount `json:"revenue_trend"`
	GeneratedAt       time.Time   `json:"generated_at"`
}
