package router

import (
	"html/template"
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/storefront/internal/handler"
	"github.com/storefront/internal/metrics"
	"github.com/storefront/internal/render"
	"gorm.io/gorm"
)

const defaultTemplateGlob = "web/template/*.html"

// Options 汇总路由所需的外部依赖。
type Options struct {
	SessionSecret string
	// TemplateGlob 默认为 web/template/*.html。
	TemplateGlob string
	// CourierRateLimit 为每位管理员每秒允许的物流代理请求数，零表示不限流。
	CourierRateLimit float64
	API              handler.Options
}

// SetupRouter 配置 Gin 引擎和路由
func SetupRouter(gdb *gorm.DB, renderer *render.Renderer, opts Options) *gin.Engine {
	r := gin.Default()

	secret := strings.TrimSpace(opts.SessionSecret)
	if secret == "" {
		secret = "storefront-dev-secret"
	}
	store := cookie.NewStore([]byte(secret))
	store.Options(sessions.Options{Path: "/", HttpOnly: true, MaxAge: 7 * 24 * 60 * 60})
	r.Use(sessions.Sessions("storefront_session", store))

	r.SetFuncMap(template.FuncMap{
		"add": func(a, b int) int {
			return a + b
		},
		"sub": func(a, b int) int {
			return a - b
		},
	})
	glob := opts.TemplateGlob
	if glob == "" {
		glob = defaultTemplateGlob
	}
	r.LoadHTMLGlob(glob)

	api := handler.NewAPI(gdb, renderer, opts.API)

	registry := prometheus.NewRegistry()
	metrics.RegisterCollectors(registry)

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
		})
	})
	r.GET("/healthz", api.HealthCheck)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	// 店铺前台
	r.GET("/", api.ShowHome)
	r.GET("/pages/:slug", api.ShowPage)
	r.GET("/collections/:slug", api.ShowCollection)
	r.GET("/collections/id/:id", api.ShowCollectionByID)
	r.GET("/products", api.ShowProducts)
	r.GET("/products/:slug", api.ShowProduct)
	r.GET("/fragments/pages/:id/blocks/:blockID", api.RenderBlockFragment)
	r.NoRoute(api.NotFound)

	// 后台管理路由
	admin := r.Group("/admin")
	{
		admin.POST("/session", api.Login)
		admin.DELETE("/session", api.Logout)

		auth := admin.Group("/api")
		auth.Use(api.AuthRequired())
		{
			auth.GET("/schema", api.GetBuilderSchema)

			auth.GET("/pages", api.ListPages)
			auth.POST("/pages", api.CreatePage)
			auth.GET("/pages/:id", api.GetPage)
			auth.PUT("/pages/:id", api.UpdatePage)
			auth.DELETE("/pages/:id", api.DeletePage)
			auth.PUT("/pages/:id/blocks", api.SavePageBlocks)
			auth.POST("/pages/:id/blocks", api.InsertPageBlock)
			auth.POST("/pages/:id/blocks/:blockID/move", api.MovePageBlock)
			auth.DELETE("/pages/:id/blocks/:blockID", api.RemovePageBlock)
			auth.POST("/pages/:id/home", api.SetHomePage)
			auth.POST("/pages/:id/preview", api.PreviewPage)

			auth.GET("/collections", api.ListCollections)
			auth.POST("/collections", api.CreateCollection)
			auth.GET("/collections/:id", api.GetCollection)
			auth.PUT("/collections/:id", api.UpdateCollection)
			auth.DELETE("/collections/:id", api.DeleteCollection)
			auth.PUT("/collections/:id/products", api.SetCollectionProducts)
			auth.POST("/collections/:id/products/:productID", api.AddCollectionProduct)
			auth.DELETE("/collections/:id/products/:productID", api.RemoveCollectionProduct)

			auth.GET("/products", api.ListProducts)
			auth.POST("/products", api.CreateProduct)
			auth.GET("/products/:id", api.GetProduct)
			auth.PUT("/products/:id", api.UpdateProduct)
			auth.DELETE("/products/:id", api.DeleteProduct)

			auth.GET("/categories", api.GetCategories)
			auth.POST("/categories", api.CreateCategory)
			auth.PUT("/categories/:id", api.UpdateCategory)
			auth.DELETE("/categories/:id", api.DeleteCategory)

			auth.GET("/settings", api.GetSystemSettings)
			auth.PUT("/settings", api.UpdateSystemSettings)

			courier := []gin.HandlerFunc{}
			if opts.CourierRateLimit > 0 {
				courier = append(courier, handler.RateLimit("courier", opts.CourierRateLimit, burstFor(opts.CourierRateLimit)))
			}
			courier = append(courier, api.ProxyCourier)
			auth.POST("/courier", courier...)
		}
	}

	return r
}

func burstFor(rps float64) int {
	burst := int(rps * 2)
	if burst < 1 {
		burst = 1
	}
	return burst
}
