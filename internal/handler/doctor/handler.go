package doctor

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/hospital-api/internal/handler"
	"github.com/jwalitptl/hospital-api/internal/model"
	"github.com/jwalitptl/hospital-api/internal/service/doctor"
)

type Handler struct {
	service *doctor.Service
}

func NewHandler(service *doctor.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup, guard handler.RoleGuard) {
	doctors := r.Group("/doctors")
	{
		doctors.GET("", h.SearchDoctors)
		doctors.GET("/:id", h.GetDoctor)
		doctors.POST("", guard(model.RoleAdmin), h.CreateDoctor)
		doctors.PUT("/:id", guard(model.RoleAdmin), h.UpdateDoctor)
		doctors.DELETE("/:id", guard(model.RoleAdmin), h.DeactivateDoctor)
		doctors.PUT("/:id/availability", guard(model.RoleDoctor), h.UpdateAvailability)
	}
}

func (h *Handler) SearchDoctors(c *gin.Context) {
	actor, ok := handler.MustIdentity(c)
	if !ok {
		return
	}

	includeInactive, _ := strconv.ParseBool(c.Query("include_inactive"))
	doctors, err := h.service.Search(c.Request.Context(), actor, model.DoctorFilters{
		Name:            c.Query("q"),
		Specialization:  c.Query("specialization"),
		IncludeInactive: includeInactive,
	})
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(doctors))
}

func (h *Handler) GetDoctor(c *gin.Context) {
	actor, ok := handler.MustIdentity(c)
	if !ok {
		return
	}
	id, ok := handler.ParamUUID(c, "id")
	if !ok {
		return
	}

	doctor, err := h.service.Get(c.Request.Context(), actor, id)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(doctor))
}

func (h *Handler) CreateDoctor(c *gin.Context) {
	actor, ok := handler.MustIdentity(c)
	if !ok {
		return
	}

	var req model.CreateDoctorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.RespondError(c, handler.BindError(err))
		return
	}

	doctor, err := h.service.Create(c.Request.Context(), actor, req)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, handler.NewSuccessResponse(doctor))
}

func (h *Handler) UpdateDoctor(c *gin.Context) {
	actor, ok := handler.MustIdentity(c)
	if !ok {
		return
	}
	id, ok := handler.ParamUUID(c, "id")
	if !ok {
		return
	}

	var req model.UpdateDoctorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.RespondError(c, handler.BindError(err))
		return
	}

	doctor, err := h.service.Update(c.Request.Context(), actor, id, req)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(doctor))
}

func (h *Handler) UpdateAvailability(c *gin.Context) {
	actor, ok := handler.MustIdentity(c)
	if !ok {
		return
	}
	id, ok := handler.ParamUUID(c, "id")
	if !ok {
		return
	}

	var req model.UpdateAvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.RespondError(c, handler.BindError(err))
		return
	}

	doctor, err := h.service.UpdateAvailability(c.Request.Context(), actor, id, req.Availability)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(doctor))
}

func (h *Handler) DeactivateDoctor(c *gin.Context) {
	actor, ok := handler.MustIdentity(c)
	if !ok {
		return
	}
	id, ok := handler.ParamUUID(c, "id")
	if !ok {
		return
	}

	if err := h.service.Deactivate(c.Request.Context(), actor, id); err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse("doctor deactivated"))
}
