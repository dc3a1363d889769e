package patient

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/hospital-api/internal/handler"
	"github.com/jwalitptl/hospital-api/internal/model"
	"github.com/jwalitptl/hospital-api/internal/service/ledger"
	"github.com/jwalitptl/hospital-api/internal/service/patient"
)

type Handler struct {
	service patient.PatientService
	ledger  *ledger.Service
}

func NewHandler(service patient.PatientService, ledger *ledger.Service) *Handler {
	return &Handler{
		service: service,
		ledger:  ledger,
	}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup, guard handler.RoleGuard) {
	patients := r.Group("/patients")
	{
		patients.GET("", guard(model.RoleAdmin), h.SearchPatients)
		patients.GET("/me", guard(model.RolePatient), h.GetMe)
		patients.PUT("/me", guard(model.RolePatient), h.UpdateMe)
		patients.GET("/:id/history", h.GetHistory)
		patients.DELETE("/:id", guard(model.RoleAdmin), h.DeactivatePatient)
	}
}

func (h *Handler) GetMe(c *gin.Context) {
	actor, ok := handler.MustIdentity(c)
	if !ok {
		return
	}

	patient, err := h.service.GetMe(c.Request.Context(), actor)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(patient))
}

func (h *Handler) UpdateMe(c *gin.Context) {
	actor, ok := handler.MustIdentity(c)
	if !ok {
		return
	}

	var req model.UpdatePatientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.RespondError(c, handler.BindError(err))
		return
	}

	patient, err := h.service.UpdateProfile(c.Request.Context(), actor, req)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(patient))
}

func (h *Handler) SearchPatients(c *gin.Context) {
	actor, ok := handler.MustIdentity(c)
	if !ok {
		return
	}

	patients, err := h.service.Search(c.Request.Context(), actor, c.Query("q"))
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(patients))
}

func (h *Handler) GetHistory(c *gin.Context) {
	actor, ok := handler.MustIdentity(c)
	if !ok {
		return
	}
	id, ok := handler.ParamUUID(c, "id")
	if !ok {
		return
	}

	history, err := h.ledger.PatientHistory(c.Request.Context(), actor, id)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(history))
}

func (h *Handler) DeactivatePatient(c *gin.Context) {
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

	c.JSON(http.StatusOK, handler.NewSuccessResponse("patient deactivated"))
}
