package runtime

import (
	"codeduel/pkg/utils/response"

	"github.com/gin-gonic/gin"
)

// Controller exposes the language catalog over REST.
type Controller struct {
	registry *Registry
}

func NewController(registry *Registry) *Controller {
	return &Controller{registry: registry}
}

// RegisterRoutes mounts language endpoints under the given group.
func (c *Controller) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/languages", c.listLanguages)
}

// listLanguages returns every supported language with its boilerplate, for
// client editors to prefill.
func (c *Controller) listLanguages(ctx *gin.Context) {
	response.Success(ctx, c.registry.List())
}
