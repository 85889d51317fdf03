package handler

import (
	"bytes"
	"fmt"
	"net/http"
	"path"
	"strings"

	"github.com/WedtreeAutomation/PaySlip-Sender/middleware"
	"github.com/WedtreeAutomation/PaySlip-Sender/service"
	"github.com/gin-gonic/gin"
)

// ExplorerHandler exposes a per-operator browsing session over the remote
// store. Every navigation call answers with the refreshed listing.
type ExplorerHandler struct {
	gateway  *service.Gateway
	sessions *service.NavigatorStore
}

func NewExplorerHandler(gw *service.Gateway, sessions *service.NavigatorStore) *ExplorerHandler {
	return &ExplorerHandler{gateway: gw, sessions: sessions}
}

type openRequest struct {
	ID string `json:"id" binding:"required"`
}

type pageSizeRequest struct {
	Size int `json:"size" binding:"required"`
}

func (h *ExplorerHandler) navigator(c *gin.Context) *service.Navigator {
	return h.sessions.For(middleware.GetUsername(c))
}

func (h *ExplorerHandler) list(c *gin.Context, nav *service.Navigator) {
	page, err := nav.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *ExplorerHandler) List(c *gin.Context) {
	h.list(c, h.navigator(c))
}

func (h *ExplorerHandler) Open(c *gin.Context) {
	var req openRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	nav := h.navigator(c)
	if _, err := nav.OpenChild(c.Request.Context(), req.ID); err != nil {
		respondError(c, err)
		return
	}
	h.list(c, nav)
}

// step wraps a navigation action that cannot fail.
func (h *ExplorerHandler) step(action func(*service.Navigator)) gin.HandlerFunc {
	return func(c *gin.Context) {
		nav := h.navigator(c)
		action(nav)
		h.list(c, nav)
	}
}

func (h *ExplorerHandler) Back() gin.HandlerFunc    { return h.step((*service.Navigator).Back) }
func (h *ExplorerHandler) Root() gin.HandlerFunc    { return h.step((*service.Navigator).GoToRoot) }
func (h *ExplorerHandler) Refresh() gin.HandlerFunc { return h.step((*service.Navigator).Refresh) }
func (h *ExplorerHandler) Next() gin.HandlerFunc    { return h.step((*service.Navigator).NextPage) }
func (h *ExplorerHandler) Prev() gin.HandlerFunc    { return h.step((*service.Navigator).PrevPage) }

func (h *ExplorerHandler) PageSize(c *gin.Context) {
	var req pageSizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	nav := h.navigator(c)
	if err := nav.ChangePageSize(req.Size); err != nil {
		respondError(c, err)
		return
	}
	h.list(c, nav)
}

// itemID reads the *id wildcard. Object-store ids contain slashes.
func itemID(c *gin.Context) string {
	return strings.TrimPrefix(c.Param("id"), "/")
}

// Download streams a stored file. ?name= overrides the attachment name.
func (h *ExplorerHandler) Download(c *gin.Context) {
	id := itemID(c)
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Item id required"})
		return
	}

	name := c.Query("name")
	if name == "" {
		name = path.Base(id)
	}

	var body bytes.Buffer
	if err := h.gateway.Download(c.Request.Context(), id, &body); err != nil {
		respondError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	c.Data(http.StatusOK, http.DetectContentType(body.Bytes()), body.Bytes())
}

// Delete removes a file or folder and answers with the refreshed listing.
func (h *ExplorerHandler) Delete(c *gin.Context) {
	id := itemID(c)
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Item id required"})
		return
	}

	if err := h.gateway.DeleteObject(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	h.list(c, h.navigator(c))
}
