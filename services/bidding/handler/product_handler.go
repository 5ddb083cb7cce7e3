package handler

import (
	"context"
	"errors"
	"net/http"

	"auction-marketplace/internal/biddingerrors"
	catalog "auction-marketplace/internal/catalogService"
	model "auction-marketplace/internal/models"
	"auction-marketplace/services/bidding/helpers"
	"auction-marketplace/utils"

	"github.com/gin-gonic/gin"
)

type CatalogServiceInterface interface {
	CreateProduct(ctx context.Context, in catalog.NewProduct) (model.Product, error)
	GetProduct(ctx context.Context, productID int64) (model.ProductListing, error)
	ListProducts(ctx context.Context) ([]model.ProductListing, error)
	CreateDepartment(ctx context.Context, name string) (model.Department, error)
	ListDepartments(ctx context.Context) ([]model.Department, error)
}

type ProductHandler struct {
	service CatalogServiceInterface
}

func NewProductHandler(service CatalogServiceInterface) *ProductHandler {
	return &ProductHandler{service: service}
}

// CreateProductHandler handles POST /products; the seller is the caller
func (h *ProductHandler) CreateProductHandler(c *gin.Context) {
	sellerID, ok := helpers.CallerID(c)
	if !ok {
		utils.JSONError(c, http.StatusUnauthorized, errors.New("missing caller identity"), "authentication required")
		return
	}

	var req helpers.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "CreateProductHandler", err)
		return
	}
	startingBid, _ := helpers.ParseMoney(req.StartingBid)

	product, err := h.service.CreateProduct(c.Request.Context(), catalog.NewProduct{
		SellerID:     sellerID,
		DepartmentID: req.DepartmentID,
		Name:         req.Name,
		Description:  req.Description,
		ImageRef:     req.ImageRef,
		StartingBid:  startingBid,
	})
	if err != nil {
		helpers.RespondError(c, "CreateProductHandler", err, map[string]any{"seller_id": sellerID})
		return
	}

	utils.JSONResponse(c, http.StatusCreated, product, "product created successfully")
	helpers.LogSuccess("CreateProductHandler", "product created successfully", map[string]any{
		"product_id": product.ProductID,
		"seller_id":  sellerID,
	})
}

// GetProductHandler handles GET /products/:product_id
func (h *ProductHandler) GetProductHandler(c *gin.Context) {
	productID, ok := helpers.ParseID(c.Param("product_id"))
	if !ok {
		helpers.RespondError(c, "GetProductHandler", biddingerrors.ErrInvalidInput, map[string]any{"product_id": c.Param("product_id")})
		return
	}

	listing, err := h.service.GetProduct(c.Request.Context(), productID)
	if err != nil {
		helpers.RespondError(c, "GetProductHandler", err, map[string]any{"product_id": productID})
		return
	}

	utils.JSONResponse(c, http.StatusOK, listing, "product retrieved successfully")
}

// ListProductsHandler handles GET /products
func (h *ProductHandler) ListProductsHandler(c *gin.Context) {
	listings, err := h.service.ListProducts(c.Request.Context())
	if err != nil {
		helpers.RespondError(c, "ListProductsHandler", err, nil)
		return
	}
	if listings == nil {
		listings = []model.ProductListing{}
	}

	utils.JSONResponse(c, http.StatusOK, listings, "products retrieved successfully")
}

// CreateDepartmentHandler handles POST /departments
func (h *ProductHandler) CreateDepartmentHandler(c *gin.Context) {
	var req helpers.CreateDepartmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "CreateDepartmentHandler", err)
		return
	}

	dept, err := h.service.CreateDepartment(c.Request.Context(), req.Name)
	if err != nil {
		helpers.RespondError(c, "CreateDepartmentHandler", err, map[string]any{"name": req.Name})
		return
	}

	utils.JSONResponse(c, http.StatusCreated, dept, "department created successfully")
	helpers.LogSuccess("CreateDepartmentHandler", "department created successfully", map[string]any{
		"department_id": dept.DepartmentID,
	})
}

// ListDepartmentsHandler handles GET /departments
func (h *ProductHandler) ListDepartmentsHandler(c *gin.Context) {
	depts, err := h.service.ListDepartments(c.Request.Context())
	if err != nil {
		helpers.RespondError(c, "ListDepartmentsHandler", err, nil)
		return
	}
	if depts == nil {
		depts = []model.Department{}
	}

	utils.JSONResponse(c, http.StatusOK, depts, "departments retrieved successfully")
}
