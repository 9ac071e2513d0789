package duel

import (
	"strings"

	"codeduel/pkg/utils/response"

	"github.com/gin-gonic/gin"
)

// Controller exposes read-only room inspection over REST. All mutation goes
// through the websocket transport.
type Controller struct {
	service *Service
}

func NewController(service *Service) *Controller {
	return &Controller{service: service}
}

// RegisterRoutes mounts room endpoints under the given group.
func (c *Controller) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/rooms/:id", c.getRoom)
}

func (c *Controller) getRoom(ctx *gin.Context) {
	roomID := strings.ToUpper(strings.TrimSpace(ctx.Param("id")))
	r, err := c.service.Room(ctx.Request.Context(), roomID)
	if err != nil {
		response.Error(ctx, err)
		return
	}
	// Hidden tests stay hidden even over the inspection endpoint.
	if r.Challenge != nil {
		redacted := *r.Challenge
		redacted.TestCases = nil
		r.Challenge = &redacted
	}
	response.Success(ctx, r)
}
