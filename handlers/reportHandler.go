package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"bitbucket.org/mmdatafocus/pos_backend/models"
	"bitbucket.org/mmdatafocus/pos_backend/models/reports"
	"bitbucket.org/mmdatafocus/pos_backend/utils"
	"github.com/gin-gonic/gin"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// dateRangeQuery parses optional from/to query params (YYYY-MM-DD). The
// returned range covers the whole of both days, half-open.
func dateRangeQuery(c *gin.Context) (*time.Time, *time.Time, bool) {
	fromQuery := c.Query("from")
	toQuery := c.Query("to")
	if fromQuery == "" && toQuery == "" {
		return nil, nil, true
	}

	parse := func(value string) (time.Time, bool) {
		t, err := time.Parse("2006-01-02", value)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date, want YYYY-MM-DD", "code": "INVALID_DATE"})
			return time.Time{}, false
		}
		return t, true
	}

	var fromDate, toDate *time.Time
	if fromQuery != "" {
		t, ok := parse(fromQuery)
		if !ok {
			return nil, nil, false
		}
		fromDate = &t
	}
	if toQuery != "" {
		t, ok := parse(toQuery)
		if !ok {
			return nil, nil, false
		}
		toDate = &t
	}

	if fromDate != nil && toDate != nil {
		start, end := utils.DayRange(*fromDate, *toDate)
		return &start, &end, true
	}
	if fromDate != nil {
		start, _ := utils.DayRange(*fromDate, *fromDate)
		return &start, nil, true
	}
	_, end := utils.DayRange(*toDate, *toDate)
	return nil, &end, true
}

// GetBoxSummary serves the summary route for one box kind. The kind is baked
// in at route registration so /cash-boxes/:id/summary can never read a money
// box and vice versa.
func (h *Handler) GetBoxSummary(kind models.BoxKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := requireIdentity(c); !ok {
			return
		}
		id, ok := pathId(c)
		if !ok {
			return
		}
		fromDate, toDate, ok := dateRangeQuery(c)
		if !ok {
			return
		}
		summary, err := reports.GetBoxSummary(c.Request.Context(), kind, id, fromDate, toDate)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, summary)
	}
}

func (h *Handler) GetBoxReport(kind models.BoxKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := requireIdentity(c); !ok {
			return
		}
		id, ok := pathId(c)
		if !ok {
			return
		}
		fromDate, toDate, ok := dateRangeQuery(c)
		if !ok {
			return
		}
		report, err := reports.GetBoxReport(c.Request.Context(), kind, id, fromDate, toDate)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, report)
	}
}

func (h *Handler) GetVarianceReport(c *gin.Context) {
	if !requireAdmin(c) {
		return
	}
	fromDate, toDate, ok := dateRangeQuery(c)
	if !ok {
		return
	}
	rows, err := reports.GetCashBoxVarianceReport(c.Request.Context(), fromDate, toDate)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

// ExportBoxReport renders the report as xlsx. By default the workbook streams
// back as an attachment; with ?upload=true it lands in object storage and the
// response carries the object key instead.
func (h *Handler) ExportBoxReport(kind models.BoxKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := requireIdentity(c); !ok {
			return
		}
		id, ok := pathId(c)
		if !ok {
			return
		}
		fromDate, toDate, ok := dateRangeQuery(c)
		if !ok {
			return
		}

		report, err := reports.GetBoxReport(c.Request.Context(), kind, id, fromDate, toDate)
		if err != nil {
			respondError(c, err)
			return
		}
		file, err := reports.ExportBoxReportExcel(report)
		if err != nil {
			respondError(c, err)
			return
		}
		var buf bytes.Buffer
		if err := file.Write(&buf); err != nil {
			respondError(c, err)
			return
		}

		if c.Query("upload") == "true" {
			objectKey := fmt.Sprintf("reports/%s-box-%d-%s.xlsx", kind, id, utils.GenerateUniqueFilename())
			if err := utils.UploadBytesToGCS(c.Request.Context(), objectKey, buf.Bytes(), xlsxContentType); err != nil {
				respondError(c, err)
				return
			}
			download, err := utils.SignReportDownload(c.Request.Context(), objectKey, 15*time.Minute)
			if err != nil {
				respondError(c, err)
				return
			}
			c.JSON(http.StatusOK, download)
			return
		}

		filename := fmt.Sprintf("box-report-%s-%d.xlsx", kind, id)
		c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename=%q`, filename))
		c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
	}
}
