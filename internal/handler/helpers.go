package handler

import (
	"net/http"

	"boutique/internal/apierror"
	"boutique/internal/dto"
	"boutique/internal/model"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// bindAndValidate binds JSON body and runs go-playground/validator tags.
// Returns false and writes the error response if validation fails —
// the caller should return immediately without writing another response.
func bindAndValidate(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("JSON invalido: "+err.Error()))
		return false
	}
	if err := validate.Struct(req); err != nil {
		fields := make(map[string]string)
		for _, fe := range err.(validator.ValidationErrors) {
			fields[fe.Field()] = fe.Tag()
		}
		c.JSON(http.StatusUnprocessableEntity, apierror.NewValidation(fields))
		return false
	}
	return true
}

func identityResponse(id *model.Identity) *dto.IdentityResponse {
	if id == nil {
		return nil
	}
	return &dto.IdentityResponse{
		ID:              id.ID,
		Email:           id.Email,
		FirstName:       id.FirstName,
		LastName:        id.LastName,
		Rol:             string(id.Rol),
		IsSuperuser:     id.IsSuperuser,
		IsStaff:         id.IsStaff,
		IsActive:        id.IsActive,
		Telefono:        id.Telefono,
		FechaNacimiento: id.FechaNacimiento,
		Genero:          id.Genero,
		Direccion:       id.Direccion,
		Ciudad:          id.Ciudad,
	}
}
