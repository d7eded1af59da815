package handlers

import (
	"encoding/csv"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ethixlearn/ethixlearn-backend/internal/http/response"
	"github.com/ethixlearn/ethixlearn-backend/internal/platform/apierr"
	"github.com/ethixlearn/ethixlearn-backend/internal/services"
)

var complianceHeader = []string{
	"Learner Email",
	"Learner Name",
	"Course",
	"Progress",
	"Score",
	"Completed",
	"Time Spent (mins)",
}

type AnalyticsHandler struct {
	analytics services.AnalyticsService
	now       func() time.Time
}

func NewAnalyticsHandler(analytics services.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{analytics: analytics, now: time.Now}
}

// GET /api/analytics
func (ah *AnalyticsHandler) Report(c *gin.Context) {
	report, err := ah.analytics.Report(c.Request.Context())
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, report)
}

// GET /api/reports/compliance?format=csv|json
func (ah *AnalyticsHandler) Compliance(c *gin.Context) {
	format := strings.ToLower(strings.TrimSpace(c.DefaultQuery("format", "csv")))
	if format != "csv" && format != "json" {
		if format == "pdf" {
			response.RespondErr(c, apierr.Validation("PDF export is not supported"))
			return
		}
		response.RespondErr(c, apierr.Validation("Unknown report format: "+format))
		return
	}

	rows, err := ah.analytics.ComplianceRows(c.Request.Context())
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	if format == "json" {
		response.RespondOK(c, gin.H{"rows": rows})
		return
	}

	filename := fmt.Sprintf("ethixlearn-compliance-%d.csv", ah.now().UnixMilli())
	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Status(http.StatusOK)

	w := csv.NewWriter(c.Writer)
	_ = w.Write(complianceHeader)
	for _, r := range rows {
		_ = w.Write(complianceRecord(r))
	}
	w.Flush()
	if err := w.Error(); err != nil {
		_ = c.Error(err)
	}
}

func complianceRecord(r services.ComplianceRow) []string {
	score := ""
	if r.Score != nil {
		score = percent(*r.Score)
	}
	completed := "No"
	if r.Completed {
		completed = "Yes"
	}
	return []string{
		r.LearnerEmail,
		r.LearnerName,
		r.CourseTitle,
		percent(r.Progress * 100),
		score,
		completed,
		strconv.Itoa(r.TotalTimeMinutes),
	}
}

func percent(v float64) string {
	return strconv.FormatFloat(math.Round(v), 'f', 0, 64) + "%"
}
