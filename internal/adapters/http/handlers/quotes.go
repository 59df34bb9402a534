package handlers

import (
	"errors"
	"io"
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/quotevault/internal/adapters/http/dto"
	"github.com/jsamuelsen/quotevault/internal/app"
	"github.com/jsamuelsen/quotevault/internal/domain"
)

// maxImportBytes bounds the import document size.
const maxImportBytes = 4 << 20 // 4 MiB

// QuotesHandler handles the quote collection endpoints.
type QuotesHandler struct {
	store    *app.QuoteStore
	transfer *app.Transfer
}

// NewQuotesHandler creates a new quotes handler.
func NewQuotesHandler(store *app.QuoteStore, transfer *app.Transfer) *QuotesHandler {
	return &QuotesHandler{
		store:    store,
		transfer: transfer,
	}
}

// List handles GET /api/v1/quotes.
// Returns the collection, optionally filtered by category, as a
// cursor-paginated page sorted by text.
func (h *QuotesHandler) List(c *gin.Context) {
	var req dto.ListQuotesRequest
	if err := dto.BindQueryAndValidate(c, &req); err != nil {
		dto.HandleError(c, domain.NewValidationError("query", err.Error()))
		return
	}

	quotes := h.store.Filter(req.Category)
	sort.Slice(quotes, func(i, j int) bool {
		if quotes[i].Text != quotes[j].Text {
			return quotes[i].Text < quotes[j].Text
		}
		return quotes[i].ID < quotes[j].ID
	})

	cursor, err := req.DecodeCursor()
	if err != nil && !errors.Is(err, dto.ErrNoCursor) {
		dto.HandleError(c, domain.NewValidationError("cursor", "invalid cursor"))
		return
	}

	if cursor != nil {
		idx := sort.Search(len(quotes), func(i int) bool {
			if quotes[i].Text != cursor.Value {
				return quotes[i].Text > cursor.Value
			}
			return quotes[i].ID > cursor.ID
		})
		quotes = quotes[idx:]
	}

	limit := req.GetLimit()
	if len(quotes) > limit+1 {
		quotes = quotes[:limit+1]
	}

	page := dto.NewPaginatedResponse(dto.QuotesFromDomain(quotes), limit, func(q dto.QuoteResponse) *dto.CursorData {
		return dto.NewCursor("text", q.Text, q.ID)
	})

	c.JSON(http.StatusOK, page)
}

// Add handles POST /api/v1/quotes.
func (h *QuotesHandler) Add(c *gin.Context) {
	var req dto.AddQuoteRequest
	if err := dto.BindAndValidate(c, &req); err != nil {
		if fieldErrors := dto.ValidationErrors(err); len(fieldErrors) > 0 {
			c.JSON(http.StatusBadRequest, dto.NewErrorResponseWithDetails(
				dto.ErrorCodeValidation,
				"request validation failed",
				fieldErrors,
			).WithTraceID(dto.GetTraceID(c)))
			return
		}

		c.JSON(http.StatusBadRequest, dto.NewErrorResponse(
			dto.ErrorCodeBadRequest,
			"request body is not valid JSON",
		).WithTraceID(dto.GetTraceID(c)))

		return
	}

	added, err := h.store.Append(c.Request.Context(), domain.Quote{
		Text:     req.Text,
		Category: req.Category,
	})
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.QuoteFromDomain(added))
}

// Random handles GET /api/v1/quotes/random.
// The category query parameter overrides the persisted filter; absent,
// the persisted filter applies.
func (h *QuotesHandler) Random(c *gin.Context) {
	category, explicit := c.GetQuery("category")
	if !explicit {
		persisted, err := h.store.SelectedCategory(c.Request.Context())
		if err != nil {
			dto.HandleError(c, err)
			return
		}
		category = persisted
	}

	quote, err := h.store.Random(c.Request.Context(), category)
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.QuoteFromDomain(quote))
}

// Export handles GET /api/v1/quotes/export.
// Serves the collection as a downloadable JSON document.
func (h *QuotesHandler) Export(c *gin.Context) {
	data, err := h.transfer.Export(c.Request.Context())
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="quotes.json"`)
	c.Data(http.StatusOK, "application/json", data)
}

// Import handles POST /api/v1/quotes/import.
// The body must be a JSON array of quote records.
func (h *QuotesHandler) Import(c *gin.Context) {
	data, err := io.ReadAll(io.LimitReader(c.Request.Body, maxImportBytes))
	if err != nil {
		dto.HandleError(c, domain.NewFormatErrorWithCause("reading import document", err))
		return
	}

	added, err := h.transfer.Import(c.Request.Context(), data)
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ImportResult{
		Added: added,
		Total: h.store.Count(),
	})
}

// Categories handles GET /api/v1/categories.
func (h *QuotesHandler) Categories(c *gin.Context) {
	c.JSON(http.StatusOK, dto.CategoriesResponse{
		Categories: h.store.Categories(),
	})
}

// GetFilter handles GET /api/v1/filter.
func (h *QuotesHandler) GetFilter(c *gin.Context) {
	category, err := h.store.SelectedCategory(c.Request.Context())
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.FilterResponse{Category: category})
}

// SetFilter handles PUT /api/v1/filter.
// An empty category clears the filter.
func (h *QuotesHandler) SetFilter(c *gin.Context) {
	var req dto.FilterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse(
			dto.ErrorCodeBadRequest,
			"request body is not valid JSON",
		).WithTraceID(dto.GetTraceID(c)))
		return
	}

	if err := h.store.SetSelectedCategory(c.Request.Context(), req.Category); err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.FilterResponse{Category: req.Category})
}

// UpdateCategory handles PUT /api/v1/quotes/:id/category.
// This is the manual conflict resolution path: the caller picks the
// category a conflicted record should keep.
func (h *QuotesHandler) UpdateCategory(c *gin.Context) {
	id := c.Param("id")

	var req dto.FilterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse(
			dto.ErrorCodeBadRequest,
			"request body is not valid JSON",
		).WithTraceID(dto.GetTraceID(c)))
		return
	}

	updated, err := h.store.UpdateCategory(c.Request.Context(), id, req.Category)
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.QuoteFromDomain(updated))
}

// RegisterQuoteRoutes registers the quote routes on the given router group.
func (h *QuotesHandler) RegisterQuoteRoutes(rg *gin.RouterGroup) {
	quotes := rg.Group("/quotes")
	quotes.GET("", h.List)
	quotes.POST("", h.Add)
	quotes.GET("/random", h.Random)
	quotes.GET("/export", h.Export)
	quotes.POST("/import", h.Import)
	quotes.PUT("/:id/category", h.UpdateCategory)

	rg.GET("/categories", h.Categories)
	rg.GET("/filter", h.GetFilter)
	rg.PUT("/filter", h.SetFilter)
}
