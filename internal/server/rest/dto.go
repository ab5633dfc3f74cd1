package rest

import (
	"time"

	"github.com/dmitrijs2005/drivesense/internal/server/classifier"
	"github.com/dmitrijs2005/drivesense/internal/server/models"
)

type registerRequest struct {
	Email    string  `json:"email" validate:"required,email"`
	Username string  `json:"username" validate:"required,max=50"`
	Password string  `json:"password" validate:"required"`
	FullName *string `json:"full_name"`
}

// loginRequest is read from a JSON body or, when the body is empty, from
// the query string.
type loginRequest struct {
	Username string `json:"username" query:"username" validate:"required"`
	Password string `json:"password" query:"password" validate:"required"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type userResponse struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Username  string    `json:"username"`
	FullName  *string   `json:"full_name"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

func toUserResponse(u *models.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Email:     u.Email,
		Username:  u.UserName,
		FullName:  u.FullName,
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt,
	}
}

type eventRequest struct {
	EventType    string   `json:"event_type" validate:"required,max=50"`
	Severity     *float64 `json:"severity" validate:"required"`
	Latitude     *float64 `json:"latitude"`
	Longitude    *float64 `json:"longitude"`
	Speed        *float64 `json:"speed"`
	Acceleration *float64 `json:"acceleration"`
	Notes        *string  `json:"notes"`
}

func (r eventRequest) toInput() models.DrivingEventInput {
	return models.DrivingEventInput{
		EventType:    r.EventType,
		Severity:     *r.Severity,
		Latitude:     r.Latitude,
		Longitude:    r.Longitude,
		Speed:        r.Speed,
		Acceleration: r.Acceleration,
		Notes:        r.Notes,
	}
}

type pageQuery struct {
	Skip  int `query:"skip" validate:"min=0"`
	Limit int `query:"limit" validate:"min=1,max=1000"`
}

type eventResponse struct {
	ID           int64     `json:"id"`
	UserID       int64     `json:"user_id"`
	EventType    string    `json:"event_type"`
	Severity     float64   `json:"severity"`
	Latitude     *float64  `json:"latitude"`
	Longitude    *float64  `json:"longitude"`
	Speed        *float64  `json:"speed"`
	Acceleration *float64  `json:"acceleration"`
	Notes        *string   `json:"notes"`
	Timestamp    time.Time `json:"timestamp"`
	CreatedAt    time.Time `json:"created_at"`
}

func toEventResponse(e *models.DrivingEvent) eventResponse {
	return eventResponse{
		ID:           e.ID,
		UserID:       e.UserID,
		EventType:    e.EventType,
		Severity:     e.Severity,
		Latitude:     e.Latitude,
		Longitude:    e.Longitude,
		Speed:        e.Speed,
		Acceleration: e.Acceleration,
		Notes:        e.Notes,
		Timestamp:    e.Timestamp,
		CreatedAt:    e.CreatedAt,
	}
}

type predictionRequest struct {
	Features []float64 `json:"features" validate:"required"`
}

type predictionResponse struct {
	Prediction string  `json:"prediction"`
	Confidence float64 `json:"confidence"`
	ModelType  string  `json:"model_type"`
}

func toPredictionResponse(v *classifier.Verdict) predictionResponse {
	return predictionResponse{Prediction: v.Label, Confidence: v.Confidence, ModelType: v.ModelType}
}

// styleSaveRequest is read from a JSON body or, when the body is empty,
// from the query string.
type styleSaveRequest struct {
	StyleCategory      string   `json:"style_category" query:"style_category" validate:"required,max=50"`
	Confidence         *float64 `json:"confidence" query:"confidence" validate:"required"`
	AvgSpeed           *float64 `json:"avg_speed" query:"avg_speed"`
	TotalEvents        int      `json:"total_events" query:"total_events" validate:"min=0"`
	HarshEventsCount   int      `json:"harsh_events_count" query:"harsh_events_count" validate:"min=0"`
	AnalysisPeriodDays int      `json:"analysis_period_days" query:"analysis_period_days" validate:"min=0"`
}

func (r styleSaveRequest) toInput() models.DrivingStyleInput {
	return models.DrivingStyleInput{
		StyleCategory:      r.StyleCategory,
		Confidence:         *r.Confidence,
		AvgSpeed:           r.AvgSpeed,
		TotalEvents:        r.TotalEvents,
		HarshEventsCount:   r.HarshEventsCount,
		AnalysisPeriodDays: r.AnalysisPeriodDays,
	}
}

type styleResponse struct {
	ID                 int64     `json:"id"`
	UserID             int64     `json:"user_id"`
	StyleCategory      string    `json:"style_category"`
	Confidence         float64   `json:"confidence"`
	AvgSpeed           *float64  `json:"avg_speed"`
	TotalEvents        int       `json:"total_events"`
	HarshEventsCount   int       `json:"harsh_events_count"`
	AnalysisPeriodDays int       `json:"analysis_period_days"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

func toStyleResponse(s *models.DrivingStyle) styleResponse {
	return styleResponse{
		ID:                 s.ID,
		UserID:             s.UserID,
		StyleCategory:      s.StyleCategory,
		Confidence:         s.Confidence,
		AvgSpeed:           s.AvgSpeed,
		TotalEvents:        s.TotalEvents,
		HarshEventsCount:   s.HarshEventsCount,
		AnalysisPeriodDays: s.AnalysisPeriodDays,
		CreatedAt:          s.CreatedAt,
		UpdatedAt:          s.UpdatedAt,
	}
}

type errorResponse struct {
	Detail string `json:"detail"`
}
