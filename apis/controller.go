package apis

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/supakorn-kn/propadmin/errors"
	"github.com/supakorn-kn/propadmin/objects"
)

func RegisterCrudAPI[Item objects.Item](api CrudAPI[Item], group *gin.RouterGroup) {

	group.POST("", func(ctx *gin.Context) {

		itemID, err := api.Insert(ctx)
		if err != nil {
			writeErrorJSON(ctx, err)
			return
		}

		ctx.JSON(http.StatusCreated, CreatedResponse(itemID))
	})

	group.GET(":id", func(ctx *gin.Context) {

		itemID := ctx.Param("id")

		item, err := api.ReadOne(itemID, ctx)
		if err != nil {
			writeErrorJSON(ctx, err)
			return
		}

		ctx.JSON(http.StatusOK, CRUDResponse{Result: item})
	})

	group.GET("", func(ctx *gin.Context) {

		paginateResult, err := api.Read(ctx)
		if err != nil {
			writeErrorJSON(ctx, err)
			return
		}

		ctx.JSON(http.StatusOK, CRUDResponse{Result: paginateResult})
	})

	group.PUT(":id", func(ctx *gin.Context) {

		err := api.Update(ctx.Param("id"), ctx)
		if err != nil {
			writeErrorJSON(ctx, err)
			return
		}

		ctx.Status(http.StatusNoContent)
	})

	group.DELETE(":id", func(ctx *gin.Context) {

		err := api.Delete(ctx.Param("id"), ctx)
		if err != nil {
			writeErrorJSON(ctx, err)
			return
		}

		ctx.Status(http.StatusNoContent)
	})
}

func writeErrorJSON(ctx *gin.Context, err error) {

	assertedError, ok := errors.Assert(err)
	if !ok {
		ctx.JSON(http.StatusInternalServerError, CRUDResponse{Error: &assertedError})
		return
	}

	var statusCode int
	var errorResponse = CRUDResponse{Error: &assertedError}

	switch assertedError.Code {
	case errors.ObjectIDNotFoundErrorCode:
		statusCode = http.StatusNotFound
	case errors.OperationUnsupportedCode:
		statusCode = http.StatusMethodNotAllowed
	case errors.TransportErrorCode, errors.BackendQueryErrorCode:
		statusCode = http.StatusBadGateway
	default:
		statusCode = http.StatusBadRequest
	}

	ctx.JSON(statusCode, errorResponse)
}
