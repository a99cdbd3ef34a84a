package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/vidahome/backend/internal/domain/integration"
)

// AddressLookup answers cadastral queries, typically through a caching
// layer in front of the registry client.
type AddressLookup interface {
	SearchByAddress(ctx context.Context, q integration.AddressQuery) ([]integration.AddressCandidate, error)
	SearchByReference(ctx context.Context, reference string) ([]integration.AddressCandidate, error)
	ListStreets(ctx context.Context, province, municipality, filter string) ([]integration.Street, error)
	ListStreetNumbers(ctx context.Context, province, municipality, streetType, street, number string) ([]integration.StreetNumber, error)
}

// CatastroHandler exposes the cadastral lookup endpoints.
type CatastroHandler struct {
	BaseHandler
	lookup AddressLookup
}

// NewCatastroHandler creates a new catastro handler.
func NewCatastroHandler(lookup AddressLookup) *CatastroHandler {
	return &CatastroHandler{lookup: lookup}
}

// RegisterRoutes registers catastro routes
func (h *CatastroHandler) RegisterRoutes(rg *gin.RouterGroup) {
	catastro := rg.Group("/catastro")
	{
		catastro.GET("/search", h.Search)
		catastro.GET("/reference/:rc", h.ByReference)
		catastro.GET("/streets", h.Streets)
		catastro.GET("/numbers", h.Numbers)
	}
}

// Search finds parcel candidates for a postal address.
// GET /api/v1/catastro/search?province=..&municipality=..&street=..&number=..
func (h *CatastroHandler) Search(c *gin.Context) {
	q := integration.AddressQuery{
		Province:     c.Query("province"),
		Municipality: c.Query("municipality"),
		StreetType:   c.Query("streetType"),
		Street:       c.Query("street"),
		Number:       c.Query("number"),
	}
	if q.Province == "" || q.Municipality == "" || q.Street == "" {
		h.BadRequest(c, "province, municipality and street are required")
		return
	}

	candidates, err := h.lookup.SearchByAddress(c.Request.Context(), q)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, candidates)
}

// ByReference resolves a cadastral reference.
// GET /api/v1/catastro/reference/:rc
func (h *CatastroHandler) ByReference(c *gin.Context) {
	candidates, err := h.lookup.SearchByReference(c.Request.Context(), c.Param("rc"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, candidates)
}

// Streets lists the street index of a municipality.
// GET /api/v1/catastro/streets?province=..&municipality=..&filter=..
func (h *CatastroHandler) Streets(c *gin.Context) {
	province := c.Query("province")
	municipality := c.Query("municipality")
	if province == "" || municipality == "" {
		h.BadRequest(c, "province and municipality are required")
		return
	}

	streets, err := h.lookup.ListStreets(c.Request.Context(), province, municipality, c.Query("filter"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, streets)
}

// Numbers lists the known portal numbers of a street.
// GET /api/v1/catastro/numbers?province=..&municipality=..&street=..&number=..
func (h *CatastroHandler) Numbers(c *gin.Context) {
	province := c.Query("province")
	municipality := c.Query("municipality")
	street := c.Query("street")
	if province == "" || municipality == "" || street == "" {
		h.BadRequest(c, "province, municipality and street are required")
		return
	}

	numbers, err := h.lookup.ListStreetNumbers(c.Request.Context(),
		province, municipality, c.Query("streetType"), street, c.Query("number"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, numbers)
}
