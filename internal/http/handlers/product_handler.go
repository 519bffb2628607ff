// Product HTTP handlers.
//
//   - POST /products      (create)
//   - GET  /products      (list; on-sale only unless all=true)
//   - GET  /products/{id} (fetch one)
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	"github.com/tbourn/go-failurelog-api/internal/apperr"
	"github.com/tbourn/go-failurelog-api/internal/http/response"
	"github.com/tbourn/go-failurelog-api/internal/services"
)

// CreateProduct godoc
// @ID          createProduct
// @Summary     Create a product
// @Tags        Products
// @Accept      json
// @Produce     json
// @Security    BearerAuth
//
// @Param       body  body  handlers.CreateProductRequest  true  "Product payload"
//
// @Success     201  {object}  handlers.Envelope{data=domain.Product}
// @Failure     400  {object}  handlers.Envelope  "Invalid request data"
// @Failure     401  {object}  handlers.Envelope  "Access token is required"
// @Failure     422  {object}  handlers.Envelope  "Validation failed"
// @Failure     500  {object}  handlers.Envelope  "Internal error"
// @Router      /products [post]
func (h *Handlers) CreateProduct(c *gin.Context) {
	var req CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, apperr.Wrap(err, response.MsgInvalidInput, http.StatusBadRequest, true))
		return
	}

	p, err := h.products.Create(c.Request.Context(), req.model())
	if err != nil {
		abort(c, err)
		return
	}
	response.Created(c, p)
}

// ListProducts godoc
// @ID          listProducts
// @Summary     List products
// @Description Returns active products, newest first. Without all=true only on-sale products are listed.
// @Tags        Products
// @Produce     json
// @Security    BearerAuth
//
// @Param       all  query  bool  false  "Include products that are not on sale"
//
// @Success     200  {object}  handlers.Envelope{data=[]domain.Product}
// @Failure     401  {object}  handlers.Envelope  "Access token is required"
// @Failure     500  {object}  handlers.Envelope  "Internal error"
// @Router      /products [get]
func (h *Handlers) ListProducts(c *gin.Context) {
	items, err := h.products.List(c.Request.Context(), c.Query("all") == "true")
	if err != nil {
		abort(c, err)
		return
	}
	response.OK(c, response.MsgSuccess, items)
}

// GetProduct godoc
// @ID          getProduct
// @Summary     Get a product
// @Tags        Products
// @Produce     json
// @Security    BearerAuth
//
// @Param       id  path  string  true  "Product ID (UUID)"  format(uuid)
//
// @Success     200  {object}  handlers.Envelope{data=domain.Product}
// @Failure     400  {object}  handlers.Envelope  "Invalid id"
// @Failure     401  {object}  handlers.Envelope  "Access token is required"
// @Failure     404  {object}  handlers.Envelope  "Product not found"
// @Failure     500  {object}  handlers.Envelope  "Internal error"
// @Router      /products/{id} [get]
func (h *Handlers) GetProduct(c *gin.Context) {
	p, err := h.products.Get(c.Request.Context(), c.Param("id"))
	if errors.Is(err, services.ErrProductNotFound) {
		abort(c, apperr.NotFound("Product not found"))
		return
	}
	if err != nil {
		abort(c, err)
		return
	}
	response.OK(c, response.MsgSuccess, p)
}
