package handlers

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	apierrors "github.com/yukikurage/faculty-feedback-api/internal/errors"
	"github.com/yukikurage/faculty-feedback-api/internal/repository"
	"github.com/yukikurage/faculty-feedback-api/internal/utils"
)

// parseIDParam reads a positive numeric path parameter, responding 400 otherwise
func parseIDParam(c *gin.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		apierrors.BadRequest(c, "Invalid "+name)
		return 0, false
	}
	return id, true
}

// parseOptionalIDQuery reads an optional positive numeric query parameter
func parseOptionalIDQuery(c *gin.Context, name string) (*uint64, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		apierrors.BadRequest(c, "Invalid "+name)
		return nil, false
	}
	return &id, true
}

// parseDateRange reads startDate and endDate. A date-only endDate includes that
// whole day; a full timestamp endDate is inclusive.
func parseDateRange(c *gin.Context) (repository.DateRange, bool) {
	from, err := utils.ParseDateParam(c.Query("startDate"), false)
	if err != nil {
		apierrors.BadRequest(c, "Invalid startDate: "+err.Error())
		return repository.DateRange{}, false
	}
	end := c.Query("endDate")
	to, err := utils.ParseDateParam(end, true)
	if err != nil {
		apierrors.BadRequest(c, "Invalid endDate: "+err.Error())
		return repository.DateRange{}, false
	}
	if from != nil && to != nil && from.After(*to) {
		apierrors.BadRequest(c, "startDate must not be after endDate")
		return repository.DateRange{}, false
	}
	return repository.DateRange{From: from, To: to, IncludeTo: to != nil && !utils.IsDateOnly(end)}, true
}

// respondBindError answers 400, listing the failed rule per field when the
// body decoded but did not validate
func respondBindError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = fe.Tag()
	}
	apierrors.BadRequestWithDetails(c, "Invalid request body", fields)
}
