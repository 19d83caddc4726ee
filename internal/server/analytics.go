package server

import (
	"net/http"
	"strconv"

	analyticsdomain "github.com/dermalens/dermalens/internal/analytics/domain"
	"github.com/gin-gonic/gin"
)

// analyticsResponse is the dashboard wire shape: one labels array plus one
// parallel value array per series, with visit counters keyed by trailing
// window length in days.
type analyticsResponse struct {
	RangeDays             int              `json:"rangeDays"`
	Labels                []string         `json:"labels"`
	ActiveSeries          []int64          `json:"activeSeries"`
	ConvSeries            []int64          `json:"convSeries"`
	NewUsersSeries        []int64          `json:"newUsersSeries"`
	AttemptsSeries        []int64          `json:"attemptsSeries"`
	SessionDurationSeries []float64        `json:"sessionDurationSeries"`
	LiveUsers             int64            `json:"liveUsers"`
	VisitCounts           map[string]int64 `json:"visitCounts"`
	Totals                analyticsTotals  `json:"totals"`
	PreviousTotals        analyticsTotals  `json:"previousTotals"`
	Growth                analyticsGrowth  `json:"growth"`
}

type analyticsTotals struct {
	ActiveUsers int64 `json:"activeUsers"`
	Attempts    int64 `json:"attempts"`
	Conversions int64 `json:"conversions"`
	NewUsers    int64 `json:"newUsers"`
}

type analyticsGrowth struct {
	ActivePct   int `json:"activePct"`
	AttemptsPct int `json:"attemptsPct"`
	ConvPct     int `json:"convPct"`
	NewUsersPct int `json:"newUsersPct"`
}

func newAnalyticsResponse(report *analyticsdomain.Report) analyticsResponse {
	resp := analyticsResponse{
		RangeDays:             report.RangeDays,
		Labels:                make([]string, len(report.Series)),
		ActiveSeries:          make([]int64, len(report.Series)),
		ConvSeries:            make([]int64, len(report.Series)),
		NewUsersSeries:        make([]int64, len(report.Series)),
		AttemptsSeries:        make([]int64, len(report.Series)),
		SessionDurationSeries: make([]float64, len(report.Series)),
		LiveUsers:             report.LiveUsers,
		VisitCounts:           make(map[string]int64, len(report.Visits)),
		Totals:                newAnalyticsTotals(report.Totals),
		PreviousTotals:        newAnalyticsTotals(report.Previous),
		Growth: analyticsGrowth{
			ActivePct:   report.Growth.ActiveUsersPct,
			AttemptsPct: report.Growth.AttemptsPct,
			ConvPct:     report.Growth.ConversionsPct,
			NewUsersPct: report.Growth.NewUsersPct,
		},
	}
	for i, bucket := range report.Series {
		resp.Labels[i] = bucket.Date
		resp.ActiveSeries[i] = bucket.ActiveUsers
		resp.ConvSeries[i] = bucket.Conversions
		resp.NewUsersSeries[i] = bucket.NewUsers
		resp.AttemptsSeries[i] = bucket.Attempts
		resp.SessionDurationSeries[i] = bucket.AvgSessionDurationSeconds
	}
	for window, count := range report.Visits {
		resp.VisitCounts[strconv.Itoa(window)] = count
	}
	return resp
}

func newAnalyticsTotals(totals analyticsdomain.WindowTotals) analyticsTotals {
	return analyticsTotals{
		ActiveUsers: totals.ActiveUsers,
		Attempts:    totals.Attempts,
		Conversions: totals.Conversions,
		NewUsers:    totals.NewUsers,
	}
}

func (s *Server) GetAnalytics(c *gin.Context) {
	days := 30
	if raw := c.Query("range"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			AbortWithError(c, newValidationError("range", "invalid_range", "range must be a number of days"))
			return
		}
		days = parsed
	}

	report, err := s.analyticsSvc.Report(c.Request.Context(), days)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, newAnalyticsResponse(report))
}
