package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/wwtech/onboarding-backend/internal/services"
	"github.com/wwtech/onboarding-backend/pkg/validator"
)

// optionalUpload returns the file sent under field, or nil when the request
// carries none (including non-multipart requests)
func optionalUpload(c *gin.Context, field string) *validator.FileUpload {
	fh, err := c.FormFile(field)
	if err != nil {
		return nil
	}
	return validator.FromMultipart(field, fh)
}

// formUploads collects the first file of every multipart field
func formUploads(c *gin.Context) map[string]*validator.FileUpload {
	files := make(map[string]*validator.FileUpload)
	form, err := c.MultipartForm()
	if err != nil || form == nil {
		return files
	}
	for field, headers := range form.File {
		if len(headers) > 0 {
			files[field] = validator.FromMultipart(field, headers[0])
		}
	}
	return files
}

// optionalFormValue returns the first value of key, or nil when key is absent
func optionalFormValue(c *gin.Context, key string) *string {
	values, ok := c.GetPostFormArray(key)
	if !ok || len(values) == 0 {
		return nil
	}
	v := values[0]
	return &v
}

func paramID(c *gin.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, services.ErrInvalidID
	}
	return id, nil
}
