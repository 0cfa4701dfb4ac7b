// Package domain defines the dashboard statistics payload.
package domain

import (
	"time"

	"civic-connect/backend/internal/platform/civil"
)

type Stats struct {
	Summary            Summary           `json:"summary"`
	ComplaintsByStatus []StatusCount     `json:"complaintsByStatus"`
	MonthlyTrend       []MonthCount      `json:"monthlyTrend"`
	RecentComplaints   []RecentComplaint `json:"recentComplaints"`
	RecentEvents       []UpcomingEvent   `json:"recentEvents"`
}

type Summary struct {
	TotalComplaints    int64 `json:"totalComplaints"`
	ResolvedComplaints int64 `json:"resolvedComplaints"`
	PendingComplaints  int64 `json:"pendingComplaints"`
	ActiveWorks        int64 `json:"activeWorks"`
	UpcomingEvents     int64 `json:"upcomingEvents"`
}

type StatusCount struct {
	Status string `json:"status"`
	Count  int64  `json:"count"`
}

// MonthCount is the number of complaints filed in the month starting at Month.
type MonthCount struct {
	Month time.Time `json:"month"`
	Count int64     `json:"count"`
}

type RecentComplaint struct {
	ComplaintID string    `json:"complaint_id"`
	CitizenName string    `json:"citizen_name"`
	Category    string    `json:"category"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

type UpcomingEvent struct {
	EventID   string     `json:"event_id"`
	Title     string     `json:"title"`
	EventDate civil.Date `json:"event_date"`
	Status    string     `json:"status"`
}
