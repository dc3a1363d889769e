package appointment

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/hospital-api/internal/handler"
	"github.com/jwalitptl/hospital-api/internal/model"
	"github.com/jwalitptl/hospital-api/internal/service/ledger"
	apperrors "github.com/jwalitptl/hospital-api/pkg/errors"
)

type Handler struct {
	service *ledger.Service
}

func NewHandler(service *ledger.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup, guard handler.RoleGuard) {
	appointments := r.Group("/appointments")
	{
		appointments.POST("", guard(model.RolePatient), h.BookAppointment)
		appointments.GET("", guard(model.RoleAdmin), h.ListAppointments)
		appointments.GET("/mine", guard(model.RolePatient, model.RoleDoctor), h.ListMyAppointments)
		appointments.GET("/:id", h.GetAppointment)
		appointments.POST("/:id/cancel", guard(model.RolePatient), h.CancelAppointment)
		appointments.POST("/:id/complete", guard(model.RoleDoctor), h.CompleteAppointment)
	}
}

func (h *Handler) BookAppointment(c *gin.Context) {
	actor, ok := handler.MustIdentity(c)
	if !ok {
		return
	}

	var req model.BookAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.RespondError(c, handler.BindError(err))
		return
	}

	appointment, err := h.service.Book(c.Request.Context(), actor, req.DoctorID, req.Date, req.TimeSlot)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, handler.NewSuccessResponse(appointment))
}

// listQuery carries the admin list filters.
type listQuery struct {
	PatientID string `form:"patient_id" binding:"omitempty,uuid"`
	DoctorID  string `form:"doctor_id" binding:"omitempty,uuid"`
	Status    string `form:"status"`
	From      string `form:"from" binding:"omitempty,isodate"`
	To        string `form:"to" binding:"omitempty,isodate"`
}

func (q listQuery) filters() (*model.AppointmentFilters, error) {
	filters := &model.AppointmentFilters{}
	if q.PatientID != "" {
		filters.PatientID = uuid.MustParse(q.PatientID)
	}
	if q.DoctorID != "" {
		filters.DoctorID = uuid.MustParse(q.DoctorID)
	}
	if q.Status != "" {
		status, err := model.ParseAppointmentStatus(q.Status)
		if err != nil {
			return nil, apperrors.Validation("status must be one of Booked, Completed, Cancelled")
		}
		filters.Status = status
	}
	if q.From != "" {
		from, _ := model.ParseDate(q.From)
		filters.From = &from
	}
	if q.To != "" {
		to, _ := model.ParseDate(q.To)
		filters.To = &to
	}
	return filters, nil
}

func (h *Handler) ListAppointments(c *gin.Context) {
	actor, ok := handler.MustIdentity(c)
	if !ok {
		return
	}

	var q listQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		handler.RespondError(c, handler.BindError(err))
		return
	}
	filters, err := q.filters()
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	appointments, err := h.service.ListAll(c.Request.Context(), actor, filters)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(appointments))
}

func (h *Handler) ListMyAppointments(c *gin.Context) {
	actor, ok := handler.MustIdentity(c)
	if !ok {
		return
	}

	appointments, err := h.service.ListMine(c.Request.Context(), actor)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(appointments))
}

func (h *Handler) GetAppointment(c *gin.Context) {
	actor, ok := handler.MustIdentity(c)
	if !ok {
		return
	}
	id, ok := handler.ParamUUID(c, "id")
	if !ok {
		return
	}

	appointment, err := h.service.Get(c.Request.Context(), actor, id)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(appointment))
}

func (h *Handler) CancelAppointment(c *gin.Context) {
	actor, ok := handler.MustIdentity(c)
	if !ok {
		return
	}
	id, ok := handler.ParamUUID(c, "id")
	if !ok {
		return
	}

	appointment, err := h.service.Cancel(c.Request.Context(), actor, id)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(appointment))
}

func (h *Handler) CompleteAppointment(c *gin.Context) {
	actor, ok := handler.MustIdentity(c)
	if !ok {
		return
	}
	id, ok := handler.ParamUUID(c, "id")
	if !ok {
		return
	}

	// The treatment body is optional.
	var req model.CompleteAppointmentRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			handler.RespondError(c, handler.BindError(err))
			return
		}
	}

	treatment, err := h.service.Complete(c.Request.Context(), actor, id, req)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(treatment))
}
