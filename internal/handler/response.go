package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/jwalitptl/hospital-api/internal/model"
	apperrors "github.com/jwalitptl/hospital-api/pkg/errors"
	pkgvalidator "github.com/jwalitptl/hospital-api/pkg/validator"
)

// ContextIdentity is the gin context key holding the authenticated model.Identity.
const ContextIdentity = "identity"

type Response struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func NewSuccessResponse(data interface{}) *Response {
	return &Response{
		Status: "success",
		Data:   data,
	}
}

func NewErrorResponse(message string) *Response {
	return &Response{
		Status:  "error",
		Message: message,
	}
}

// RespondError writes err with the status its kind maps to. Internal
// failures are attached to the context for the error middleware to log.
func RespondError(c *gin.Context, err error) {
	status := apperrors.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		_ = c.Error(err)
	}
	c.AbortWithStatusJSON(status, NewErrorResponse(apperrors.PublicMessage(err)))
}

// BindError converts a gin binding failure into a validation error.
func BindError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return apperrors.Validation(pkgvalidator.Describe(verrs[0]))
	}
	return apperrors.Validation("invalid request body")
}

// CurrentIdentity returns the actor set by the auth middleware.
func CurrentIdentity(c *gin.Context) (model.Identity, bool) {
	v, ok := c.Get(ContextIdentity)
	if !ok {
		return model.Identity{}, false
	}
	id, ok := v.(model.Identity)
	return id, ok
}

// MustIdentity is CurrentIdentity for routes behind the auth middleware;
// it responds 401 and returns false when no identity is present.
func MustIdentity(c *gin.Context) (model.Identity, bool) {
	id, ok := CurrentIdentity(c)
	if !ok {
		RespondError(c, apperrors.Unauthorized(nil))
	}
	return id, ok
}

// ParamUUID parses a path parameter, responding 400 when it is malformed.
func ParamUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		RespondError(c, apperrors.Validation("invalid "+name))
		return uuid.Nil, false
	}
	return id, true
}

// RoleGuard builds middleware that admits only the given roles. Handlers
// take it at registration so route tables state who may call them.
type RoleGuard func(roles ...model.Role) gin.HandlerFunc
