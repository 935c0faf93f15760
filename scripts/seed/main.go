package main

import (
	"errors"
	"fmt"
	"log"

	"github.com/storefront/internal/block"
	"github.com/storefront/internal/config"
	"github.com/storefront/internal/db"
	"github.com/storefront/internal/service"
	"gorm.io/gorm"
)

// 演示数据生成器
func main() {
	cfg := config.Load()
	if err := db.Init(cfg.DatabaseDriver, cfg.DatabaseDSN); err != nil {
		log.Fatal("数据库初始化失败:", err)
	}

	fmt.Println("开始生成演示数据...")
	summary, err := seed(db.DB)
	if err != nil {
		log.Fatal("演示数据生成失败:", err)
	}
	fmt.Println("演示数据生成完成！")
	fmt.Printf("分类: %d, 商品: %d, 集合: %d, 页面: %d\n", summary.Categories, summary.Products, summary.Collections, summary.Pages)
}

type seedSummary struct {
	Categories  int
	Products    int
	Collections int
	Pages       int
}

type seedProduct struct {
	name     string
	category string
	price    float64
	stock    int
	image    string
}

var seedProducts = []seedProduct{
	{"Brass Desk Lamp", "lighting", 89, 12, "https://images.unsplash.com/photo-1507473885765-e6ed057f782c"},
	{"Paper Pendant", "lighting", 45, 0, "https://images.unsplash.com/photo-1513506003901-1e6a229e2d15"},
	{"Linen Throw", "textiles", 64.5, 30, "https://images.unsplash.com/photo-1580301762395-21ce84d00bc6"},
	{"Jute Rug", "textiles", 129, 4, "https://images.unsplash.com/photo-1600166898405-da9535204843"},
	{"Stoneware Mug", "kitchen", 18, 120, "https://images.unsplash.com/photo-1514228742587-6b1558fcca3d"},
	{"Oak Serving Board", "kitchen", 39, 25, "https://images.unsplash.com/photo-1594041680534-e8c8cdebd659"},
}

func seed(gdb *gorm.DB) (seedSummary, error) {
	var summary seedSummary

	var count int64
	if err := gdb.Model(&db.Product{}).Count(&count).Error; err != nil {
		return summary, err
	}
	if count > 0 {
		fmt.Println("商品已存在，跳过创建")
		return summary, nil
	}

	categories := service.NewCategoryService(gdb)
	categoryIDs := make(map[string]uint)
	for _, name := range []string{"Lighting", "Textiles", "Kitchen"} {
		category, err := categories.Create(service.CategoryInput{Name: name})
		if err != nil && !errors.Is(err, service.ErrCategorySlugTaken) {
			return summary, fmt.Errorf("create category %s: %w", name, err)
		}
		if category != nil {
			categoryIDs[category.Slug] = category.ID
			summary.Categories++
		}
	}
	fmt.Println("✅ 商品分类创建完成")

	products := service.NewProductService(gdb)
	productIDs := make(map[string][]uint)
	for _, p := range seedProducts {
		var categoryID *uint
		if id, ok := categoryIDs[p.category]; ok {
			categoryID = &id
		}
		created, err := products.Create(service.ProductInput{
			Name:        p.name,
			Description: fmt.Sprintf("**%s** from our autumn range.", p.name),
			Price:       p.price,
			Images:      []string{p.image},
			CategoryID:  categoryID,
			Stock:       p.stock,
			IsActive:    true,
		})
		if err != nil {
			return summary, fmt.Errorf("create product %s: %w", p.name, err)
		}
		productIDs[p.category] = append(productIDs[p.category], created.ID)
		summary.Products++
	}
	fmt.Println("✅ 商品创建完成")

	pages := service.NewPageService(gdb)
	template, err := pages.Create(service.PageInput{
		Title: "Collection template",
		Slug:  "collection-template",
		Content: []block.Block{
			{ID: "intro", Type: block.KindRichText, Content: block.Content{"markdown": "Hand-picked pieces for every room.", "textAlign": "center"}},
			{ID: "products", Type: block.KindProductGrid},
			{ID: "categories", Type: block.KindCategoryGrid, Content: block.Content{"title": "Keep browsing", "limit": 3}},
		},
	})
	if err != nil {
		return summary, fmt.Errorf("create collection template: %w", err)
	}
	summary.Pages++

	collections := service.NewCollectionService(gdb)
	for slug, ids := range productIDs {
		collection, err := collections.Create(service.CollectionInput{Title: "Best of " + slug, Slug: slug + "-edit"})
		if err != nil {
			return summary, fmt.Errorf("create collection %s: %w", slug, err)
		}
		if err := collections.SetProducts(collection.ID, ids); err != nil {
			return summary, fmt.Errorf("fill collection %s: %w", slug, err)
		}
		summary.Collections++
	}
	fmt.Println("✅ 商品集合创建完成")

	home, err := pages.Create(service.PageInput{
		Title:           "Home",
		Slug:            "home",
		Status:          db.PageStatusPublished,
		MetaDescription: "Objects for slow living.",
		Content: []block.Block{
			{ID: "hero", Type: block.KindHero, Content: block.Content{
				"title":      "Autumn arrivals",
				"subtitle":   "Warm light and soft textures",
				"buttonText": "Shop lighting",
				"buttonLink": "/collections/lighting-edit",
			}},
			{ID: "featured", Type: block.KindFeaturedProducts, Content: block.Content{"title": "New in", "limit": 4}},
			{ID: "gap", Type: block.KindSpacer, Content: block.Content{"size": "medium"}},
			{ID: "shop-by-room", Type: block.KindCategoryGrid, Content: block.Content{"title": "Shop by room"}},
		},
	})
	if err != nil {
		return summary, fmt.Errorf("create home page: %w", err)
	}
	if _, err := pages.SetHome(home.ID); err != nil {
		return summary, fmt.Errorf("set home page: %w", err)
	}
	summary.Pages++
	fmt.Println("✅ 首页创建完成")

	if _, err := service.NewSystemSettingService(gdb).UpdateSettings(service.SystemSettingsInput{
		SiteName:                 "Maison Demo",
		Currency:                 "USD",
		Locale:                   "en-US",
		AccentColor:              "#b45309",
		CollectionTemplatePageID: template.ID,
	}); err != nil {
		return summary, fmt.Errorf("save settings: %w", err)
	}
	fmt.Println("✅ 站点设置完成")

	return summary, nil
}
