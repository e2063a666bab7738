package handlers

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/yukikurage/faculty-feedback-api/internal/dto"
	apierrors "github.com/yukikurage/faculty-feedback-api/internal/errors"
	"github.com/yukikurage/faculty-feedback-api/internal/services"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type DashboardHandler struct {
	dashboardService *services.DashboardService
	exportService    *services.ExportService
}

func NewDashboardHandler(dashboardService *services.DashboardService, exportService *services.ExportService) *DashboardHandler {
	return &DashboardHandler{
		dashboardService: dashboardService,
		exportService:    exportService,
	}
}

// GetStats returns the dashboard summary for the optional startDate/endDate range
func (h *DashboardHandler) GetStats(c *gin.Context) {
	r, ok := parseDateRange(c)
	if !ok {
		return
	}

	stats, err := h.dashboardService.Stats(c.Request.Context(), r)
	if err != nil {
		_ = c.Error(err)
		apierrors.InternalError(c, "Failed to compute statistics")
		return
	}

	c.JSON(http.StatusOK, dto.ToStatsDTO(stats))
}

func (h *DashboardHandler) GetUnitPerformance(c *gin.Context) {
	units, err := h.dashboardService.UnitPerformance(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		apierrors.InternalError(c, "Failed to compute unit performance")
		return
	}

	c.JSON(http.StatusOK, gin.H{"units": dto.ToUnitPerformanceDTOs(units)})
}

// Export downloads the dashboard figures as an .xlsx workbook
func (h *DashboardHandler) Export(c *gin.Context) {
	r, ok := parseDateRange(c)
	if !ok {
		return
	}

	buf, filename, err := h.exportService.Export(c.Request.Context(), r)
	if err != nil {
		_ = c.Error(err)
		apierrors.InternalError(c, "Failed to generate export")
		return
	}

	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+url.QueryEscape(filename))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}
