package apis

import (
	"github.com/gin-gonic/gin"
	"github.com/supakorn-kn/propadmin/errors"
	"github.com/supakorn-kn/propadmin/models"
	"github.com/supakorn-kn/propadmin/objects"
)

type CRUDResponse struct {
	Result any               `json:"result,omitempty"`
	Error  *errors.BaseError `json:"error,omitempty"`
}

type CrudAPI[Item objects.Item] interface {
	Insert(ctx *gin.Context) (string, error)
	ReadOne(itemID string, ctx *gin.Context) (*Item, error)
	Read(ctx *gin.Context) (*models.PaginationData[Item], error)
	Update(itemID string, ctx *gin.Context) error
	Delete(itemID string, ctx *gin.Context) error
}

func CreatedResponse(itemID string) CRUDResponse {
	return CRUDResponse{Result: map[string]any{"status": "OK", "id": itemID}}
}
