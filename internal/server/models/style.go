package models

import "time"

// DrivingStyle is one point-in-time style verdict. Verdicts are never
// updated; the latest one is the newest by CreatedAt.
type DrivingStyle struct {
	ID                 int64
	UserID             int64
	StyleCategory      string
	Confidence         float64
	AvgSpeed           *float64
	TotalEvents        int
	HarshEventsCount   int
	AnalysisPeriodDays int
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

type DrivingStyleInput struct {
	StyleCategory      string
	Confidence         float64
	AvgSpeed           *float64
	TotalEvents        int
	HarshEventsCount   int
	AnalysisPeriodDays int
}
