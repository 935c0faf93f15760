package handler

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/storefront/internal/courier"
	"github.com/storefront/internal/render"
	"github.com/storefront/internal/service"
	"gorm.io/gorm"
)

// API bundles shared dependencies for HTTP handlers.
type API struct {
	db          *gorm.DB
	pages       *service.PageService
	collections *service.CollectionService
	products    *service.ProductService
	categories  *service.CategoryService
	catalog     *service.CatalogService
	system      *service.SystemSettingService
	renderer    *render.Renderer
	courier     *courier.Proxy
	auth        *Authenticator
	// deferBlocks renders data-bound blocks as loading placeholders filled by fragment requests.
	deferBlocks bool
	baseURL     string
}

// Options configures the optional parts of an API.
type Options struct {
	Courier     *courier.Proxy
	Auth        *Authenticator
	DeferBlocks bool
	// BaseURL is the public origin used for canonical links. Empty omits them.
	BaseURL string
}

type siteViewModel struct {
	Name        string
	Footer      string
	AccentColor string
	Render      render.Settings
}

const siteSettingsContextKey = "__site_settings"

// NewAPI constructs a handler set with shared services.
func NewAPI(db *gorm.DB, renderer *render.Renderer, opts Options) *API {
	auth := opts.Auth
	if auth == nil {
		auth = NewAuthenticator("", "")
	}
	return &API{
		db:          db,
		pages:       service.NewPageService(db),
		collections: service.NewCollectionService(db),
		products:    service.NewProductService(db),
		categories:  service.NewCategoryService(db),
		catalog:     service.NewCatalogService(db),
		system:      service.NewSystemSettingService(db),
		renderer:    renderer,
		courier:     opts.Courier,
		auth:        auth,
		deferBlocks: opts.DeferBlocks,
		baseURL:     strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/"),
	}
}

// Auth exposes the token verifier used by the admin middleware.
func (a *API) Auth() *Authenticator {
	return a.auth
}

func (a *API) siteSettings(c *gin.Context) siteViewModel {
	if cached, exists := c.Get(siteSettingsContextKey); exists {
		if view, ok := cached.(siteViewModel); ok {
			return view
		}
	}

	settings, err := a.system.GetSettings()
	if err != nil {
		c.Error(err)
	}

	view := siteViewModel{
		Name:        strings.TrimSpace(settings.SiteName),
		Footer:      strings.TrimSpace(settings.FooterText),
		AccentColor: settings.AccentColor,
	}
	if view.Name == "" {
		view.Name = "Storefront"
	}
	if view.Footer == "" {
		view.Footer = "© " + view.Name
	}
	view.Render = settings.RenderSettings()
	view.Render.SiteName = view.Name

	c.Set(siteSettingsContextKey, view)
	return view
}

func (a *API) renderHTML(c *gin.Context, status int, template string, data gin.H) {
	view := a.siteSettings(c)

	payload := gin.H{}
	for key, value := range data {
		payload[key] = value
	}

	if _, exists := payload["site"]; !exists {
		payload["site"] = gin.H{
			"name":        view.Name,
			"footer":      view.Footer,
			"accentColor": view.AccentColor,
		}
	}
	if _, exists := payload["siteName"]; !exists {
		payload["siteName"] = view.Name
	}
	if _, exists := payload["title"]; !exists {
		payload["title"] = view.Name
	}
	if _, exists := payload["canonical"]; !exists && a.baseURL != "" {
		payload["canonical"] = a.baseURL + c.Request.URL.Path
	}

	c.HTML(status, template, payload)
}
