package apis

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/supakorn-kn/propadmin/collection"
	"github.com/supakorn-kn/propadmin/errors"
	"github.com/supakorn-kn/propadmin/models"
	"github.com/supakorn-kn/propadmin/objects"
	"github.com/supakorn-kn/propadmin/query"
)

// ListQuery is read from the query string of a list request.
type ListQuery struct {
	Page     int    `form:"page"`
	PageSize int    `form:"page_size"`
	Search   string `form:"search"`
}

// CollectionAPI serves one collection: single record operations go to the
// model, listings go through the query client so they share its cache.
type CollectionAPI[T objects.Item] struct {
	model    models.Model[T]
	client   *query.Client
	ref      collection.Reference
	pageSize int
}

func NewCollectionAPI[T objects.Item](model models.Model[T], client *query.Client, pageSize int) (*CollectionAPI[T], error) {

	def, err := objects.Lookup(model.GetCollectionName())
	if err != nil {
		return nil, err
	}

	ref, err := def.Reference()
	if err != nil {
		return nil, err
	}

	if pageSize < 1 {
		pageSize = collection.DefaultPageSize
	}

	return &CollectionAPI[T]{model: model, client: client, ref: ref, pageSize: pageSize}, nil
}

func (api CollectionAPI[T]) Insert(ctx *gin.Context) (string, error) {

	var item T
	if err := ctx.ShouldBindJSON(&item); err != nil {
		return "", errors.RequestInvalidError.New(err.Error())
	}

	itemID, err := api.model.Insert(ctx.Request.Context(), item)
	if err != nil {
		return "", err
	}

	api.client.RevalidateCollection(api.ref.Name)

	return itemID, nil
}

func (api CollectionAPI[T]) ReadOne(itemID string, ctx *gin.Context) (*T, error) {

	item, err := api.model.GetByID(ctx.Request.Context(), itemID)
	if err != nil {
		return nil, err
	}

	return &item, nil
}

func (api CollectionAPI[T]) Read(ctx *gin.Context) (*models.PaginationData[T], error) {

	opt := ListQuery{Page: 1, PageSize: api.pageSize}
	if err := ctx.ShouldBindQuery(&opt); err != nil {
		return nil, errors.RequestInvalidError.New(err.Error())
	}

	if opt.PageSize > collection.MaxPageSize {
		return nil, errors.PageSizeInvalidError.New()
	}

	page, err := api.client.Fetch(ctx.Request.Context(), api.ref, opt.Page, opt.PageSize, strings.TrimSpace(opt.Search))
	if err != nil {
		return nil, err
	}

	data, err := objects.DecodeAll[T](page.Rows)
	if err != nil {
		return nil, err
	}

	return &models.PaginationData[T]{
		Page:       opt.Page,
		TotalPages: collection.PageCount(page.Count, opt.PageSize),
		Count:      page.Count,
		Data:       data,
	}, nil
}

func (api CollectionAPI[T]) Update(itemID string, ctx *gin.Context) error {

	var item T
	if err := ctx.ShouldBindJSON(&item); err != nil {
		return errors.RequestInvalidError.New(err.Error())
	}

	if err := api.model.Update(ctx.Request.Context(), itemID, item); err != nil {
		return err
	}

	api.client.RevalidateCollection(api.ref.Name)

	return nil
}

func (api CollectionAPI[T]) Delete(itemID string, ctx *gin.Context) error {

	if err := api.model.Delete(ctx.Request.Context(), itemID); err != nil {
		return err
	}

	api.client.RevalidateCollection(api.ref.Name)

	return nil
}
