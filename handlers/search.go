package handlers

import (
	"context"
	"net/http"

	"labbook/models"

	"github.com/gin-gonic/gin"
)

// TestSearcher answers search-as-you-type queries per visitor session.
type TestSearcher interface {
	Search(ctx context.Context, sessionID, query string) ([]models.TestSearchResult, error)
}

type SearchHandler struct {
	Searcher TestSearcher
}

func NewSearchHandler(searcher TestSearcher) *SearchHandler {
	return &SearchHandler{Searcher: searcher}
}

// SearchTestsHandler looks up lab tests and scans by name (?q=). Queries
// shorter than two characters return no results; a query overtaken by a
// newer one from the same visitor answers 409.
func (h *SearchHandler) SearchTestsHandler(c *gin.Context) {
	results, err := h.Searcher.Search(c.Request.Context(), sessionID(c), c.Query("q"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": results})
}
