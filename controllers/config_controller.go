package controllers

import (
	"github.com/gin-gonic/gin"

	"github.com/cppla/blogcms/config"
	"github.com/cppla/blogcms/utils"
)

// ConfigController serves site settings that front ends need for rendering.
type ConfigController struct {
	cfg config.AppConfig
}

func NewConfigController(cfg config.AppConfig) *ConfigController { return &ConfigController{cfg: cfg} }

// GetSite returns the site name, canonical URL and the image host allowlist.
func (c *ConfigController) GetSite(ctx *gin.Context) {
	domains := c.cfg.ImageDomains
	if domains == nil {
		domains = []string{}
	}
	utils.Success(ctx, gin.H{
		"name":         c.cfg.SiteName,
		"url":          c.cfg.SiteURL,
		"imageDomains": domains,
		"uploadMaxMB":  c.cfg.UploadMaxMB,
	})
}
