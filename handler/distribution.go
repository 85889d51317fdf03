package handler

import (
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/WedtreeAutomation/PaySlip-Sender/config"
	"github.com/WedtreeAutomation/PaySlip-Sender/middleware"
	"github.com/WedtreeAutomation/PaySlip-Sender/model"
	"github.com/WedtreeAutomation/PaySlip-Sender/service"
	"github.com/gin-gonic/gin"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type DistributionHandler struct {
	distributor *service.Distributor
	dispatcher  *service.Dispatcher // nil when SMS is disabled
	store       *service.RunStore
	config      *config.DistributionConfig
	maxUpload   int64
}

func NewDistributionHandler(d *service.Distributor, sms *service.Dispatcher, store *service.RunStore, cfg *config.DistributionConfig, maxUploadMB int) *DistributionHandler {
	return &DistributionHandler{
		distributor: d,
		dispatcher:  sms,
		store:       store,
		config:      cfg,
		maxUpload:   int64(maxUploadMB) << 20,
	}
}

// Create runs a distribution from an uploaded payslip PDF and roster. The
// run completes before the response is written.
func (h *DistributionHandler) Create(c *gin.Context) {
	if h.maxUpload > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUpload)
	}

	document, docHeader, err := c.Request.FormFile("document")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No payslip document provided"})
		return
	}
	defer document.Close()

	if ext := strings.ToLower(filepath.Ext(docHeader.Filename)); ext != ".pdf" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Payslip document must be a PDF"})
		return
	}
	data, err := io.ReadAll(document)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read document"})
		return
	}
	if !strings.Contains(http.DetectContentType(data), "pdf") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid file type"})
		return
	}

	records, err := readRosterFile(c, "roster")
	if err != nil {
		respondError(c, err)
		return
	}

	period := strings.TrimSpace(c.PostForm("period"))
	if period == "" {
		period = h.config.Period
	}
	if period != "" {
		if _, err := time.Parse(service.PeriodLayout, period); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Period must look like %q", service.PeriodLayout)})
			return
		}
	}

	run, err := h.distributor.Run(c.Request.Context(), service.DistributionInput{
		Owner:        middleware.GetUsername(c),
		Period:       period,
		ParentID:     h.config.ParentID,
		DocumentName: docHeader.Filename,
		Document:     data,
		Records:      records,
	})
	if err != nil && run == nil {
		respondError(c, err)
		return
	}
	h.store.Save(run)
	if err != nil {
		c.JSON(statusFor(err), gin.H{
			"error":  err.Error(),
			"id":     run.ID,
			"status": run.Status,
		})
		return
	}

	c.JSON(http.StatusCreated, run)
}

func readRosterFile(c *gin.Context, field string) ([]*model.RosterRecord, error) {
	file, header, err := c.Request.FormFile(field)
	if err != nil {
		return nil, fmt.Errorf("%w: no %s file provided", service.ErrInvalidRoster, field)
	}
	defer file.Close()
	return service.ReadRoster(file, header.Filename)
}

// runFor loads a run the caller may see; admins see every run.
func (h *DistributionHandler) runFor(c *gin.Context) *model.DistributionRun {
	run := h.store.Get(c.Param("id"))
	if run == nil || (middleware.GetRole(c) != RoleAdmin && run.Owner != middleware.GetUsername(c)) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Distribution not found"})
		return nil
	}
	return run
}

func (h *DistributionHandler) List(c *gin.Context) {
	owner := middleware.GetUsername(c)
	if middleware.GetRole(c) == RoleAdmin {
		owner = ""
	}

	runs := h.store.ListByOwner(owner)
	result := make([]gin.H, len(runs))
	for i, run := range runs {
		result[i] = gin.H{
			"id":         run.ID,
			"owner":      run.Owner,
			"period":     run.Period,
			"document":   run.Document,
			"status":     run.Status,
			"summary":    run.Summary,
			"created_at": run.CreatedAt.Format(time.RFC3339),
		}
	}

	c.JSON(http.StatusOK, gin.H{"distributions": result})
}

func (h *DistributionHandler) Get(c *gin.Context) {
	if run := h.runFor(c); run != nil {
		c.JSON(http.StatusOK, run)
	}
}

// Report downloads the four-column report of a completed run.
func (h *DistributionHandler) Report(c *gin.Context) {
	run := h.runFor(c)
	if run == nil {
		return
	}
	if run.Report == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Distribution has no report"})
		return
	}

	filename := fmt.Sprintf("payslip_report_%s.xlsx", strings.ReplaceAll(run.Period, " ", "_"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Header("Content-Type", xlsxContentType)
	c.Status(http.StatusOK)
	if err := service.WriteReportXLSX(c.Writer, run.Report); err != nil {
		_ = c.Error(err)
	}
}

func (h *DistributionHandler) Delete(c *gin.Context) {
	if run := h.runFor(c); run != nil {
		h.store.Delete(run.ID)
		c.JSON(http.StatusOK, gin.H{"message": "Distribution deleted"})
	}
}

// Notify sends the SMS pass for a stored run's report.
func (h *DistributionHandler) Notify(c *gin.Context) {
	if h.dispatcher == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "SMS notifications are disabled"})
		return
	}
	run := h.runFor(c)
	if run == nil {
		return
	}
	if run.Report == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Distribution has no report"})
		return
	}

	log, err := h.dispatcher.Dispatch(c.Request.Context(), run.Report, run.Period)
	writeDispatchLog(c, log, err)
}
