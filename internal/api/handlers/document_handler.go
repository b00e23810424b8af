package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"spatialprefix/internal/index"
	"spatialprefix/internal/shapeio"
	"spatialprefix/pkg/utils"
)

type DocumentHandler struct {
	index *index.Service
}

func NewDocumentHandler(svc *index.Service) *DocumentHandler {
	return &DocumentHandler{index: svc}
}

// DocumentResponse describes a stored document.
type DocumentResponse struct {
	ID        string          `json:"id"`
	GeoJSON   json.RawMessage `json:"geojson"`
	WKT       string          `json:"wkt,omitempty"`
	Tokens    int             `json:"tokens"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func newDocumentResponse(doc *index.Document) (*DocumentResponse, error) {
	body, err := shapeio.ToGeoJSON(doc.Shape)
	if err != nil {
		return nil, err
	}
	resp := &DocumentResponse{ID: doc.ID, GeoJSON: body, Tokens: len(doc.Tokens), UpdatedAt: doc.UpdatedAt}
	if text, err := shapeio.ToWKT(doc.Shape); err == nil {
		resp.WKT = text
	}
	return resp, nil
}

// Put handles PUT /documents/:id
func (h *DocumentHandler) Put(c *gin.Context) {
	id := c.Param("id")
	if !utils.ValidID(id) {
		writeError(c, index.ErrInvalidID)
		return
	}
	h.store(c, id, http.StatusOK)
}

// Create handles POST /documents. The id is generated.
func (h *DocumentHandler) Create(c *gin.Context) {
	h.store(c, utils.GenerateID(), http.StatusCreated)
}

func (h *DocumentHandler) store(c *gin.Context, id string, status int) {
	var req ShapeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	sh, err := req.Shape(h.index.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	doc, err := h.index.Put(c.Request.Context(), id, sh)
	if err != nil {
		writeError(c, err)
		return
	}
	resp, err := newDocumentResponse(doc)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(status, resp)
}

// Get handles GET /documents/:id
func (h *DocumentHandler) Get(c *gin.Context) {
	doc, err := h.index.Get(c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	resp, err := newDocumentResponse(doc)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Delete handles DELETE /documents/:id
func (h *DocumentHandler) Delete(c *gin.Context) {
	if err := h.index.Delete(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
