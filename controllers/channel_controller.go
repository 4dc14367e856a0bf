package controllers

import (
	"github.com/gin-gonic/gin"

	"github.com/kageban/kageban/models"
	"github.com/kageban/kageban/utils"
)

// ChannelController serves the fixed channel catalogue the frontend builds
// its navigation from.
type ChannelController struct {
	channels *models.ChannelSet
}

func NewChannelController(channels *models.ChannelSet) *ChannelController {
	return &ChannelController{channels: channels}
}

// List returns every channel code with its display name, in listing order.
func (c *ChannelController) List(ctx *gin.Context) {
	utils.Success(ctx, gin.H{"items": c.channels.All()})
}
