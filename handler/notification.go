package handler

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/WedtreeAutomation/PaySlip-Sender/model"
	"github.com/WedtreeAutomation/PaySlip-Sender/pkg/logger"
	"github.com/WedtreeAutomation/PaySlip-Sender/service"
	"github.com/gin-gonic/gin"
)

type NotificationHandler struct {
	dispatcher *service.Dispatcher
	now        func() time.Time
}

func NewNotificationHandler(d *service.Dispatcher) *NotificationHandler {
	return &NotificationHandler{dispatcher: d, now: time.Now}
}

// Send dispatches SMS links for every row of an uploaded report workbook.
func (h *NotificationHandler) Send(c *gin.Context) {
	if h.dispatcher == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "SMS notifications are disabled"})
		return
	}

	file, header, err := c.Request.FormFile("report")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No report file provided"})
		return
	}
	defer file.Close()

	report, err := service.ReadReport(file, header.Filename)
	if err != nil {
		respondError(c, err)
		return
	}

	period := strings.TrimSpace(c.PostForm("period"))
	if period == "" {
		period = service.PreviousMonthPeriod(h.now())
	}

	log, err := h.dispatcher.Dispatch(c.Request.Context(), report, period)
	writeDispatchLog(c, log, err)
}

// writeDispatchLog renders a notification pass as JSON, or as the outcome
// CSV when ?format=csv is given. A cancelled pass still reports what was
// sent before it stopped.
func writeDispatchLog(c *gin.Context, log *model.DispatchLog, err error) {
	if err != nil {
		logger.Warn(c.Request.Context(), "sms pass interrupted", "error", err)
		if log == nil {
			respondError(c, err)
			return
		}
	}

	if c.Query("format") == "csv" {
		filename := fmt.Sprintf("sms_log_%s.csv", strings.ReplaceAll(log.Period, " ", "_"))
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
		c.Header("Content-Type", "text/csv; charset=utf-8")
		c.Status(http.StatusOK)
		if werr := service.WriteDispatchCSV(c.Writer, log); werr != nil {
			_ = c.Error(werr)
		}
		return
	}

	resp := gin.H{"log": log}
	if err != nil {
		resp["error"] = err.Error()
	}
	c.JSON(http.StatusOK, resp)
}
