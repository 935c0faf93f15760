package render

import (
	"bytes"
	"context"
	"fmt"
	"html/template"

	"github.com/microcosm-cc/bluemonday"
	"github.com/storefront/internal/block"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

var (
	markdownEngine = goldmark.New(
		goldmark.WithExtensions(extension.GFM, extension.Linkify, extension.Table),
		goldmark.WithRendererOptions(html.WithHardWraps(), html.WithXHTML()),
	)
	sanitizer = bluemonday.UGCPolicy()
)

type heroView struct {
	ID           string
	Title        string
	Subtitle     string
	ButtonText   string
	ButtonLink   string
	Image        string
	OverlayStyle template.CSS
	HeightClass  string
	AlignClass   string
}

func renderHero(_ *Renderer, _ context.Context, b block.Block, _ Context) (string, any) {
	cfg := block.DecodeHero(b.Content)
	overlay := colorStyle("background-color", cfg.OverlayColor)
	if overlay != "" {
		overlay += template.CSS(fmt.Sprintf("; opacity: %.2f", float64(cfg.OverlayOpacity)/100))
	}
	return "hero", heroView{
		ID:           b.ID,
		Title:        cfg.Title,
		Subtitle:     cfg.Subtitle,
		ButtonText:   cfg.ButtonText,
		ButtonLink:   cfg.ButtonLink,
		Image:        cfg.BackgroundImage,
		OverlayStyle: overlay,
		HeightClass:  block.HeroHeightClass(cfg.Height),
		AlignClass:   block.FlexAlignClass(cfg.TextAlign),
	}
}

type richTextView struct {
	ID           string
	Body         template.HTML
	WidthClass   string
	PaddingClass string
	AlignClass   string
	SectionStyle template.CSS
}

func renderRichText(_ *Renderer, _ context.Context, b block.Block, _ Context) (string, any) {
	cfg := block.DecodeRichText(b.Content)

	var body template.HTML
	switch {
	case cfg.HTML != "":
		body = template.HTML(sanitizer.Sanitize(cfg.HTML))
	case cfg.Markdown != "":
		rendered, err := renderMarkdown(cfg.Markdown)
		if err != nil {
			return "", nil
		}
		body = rendered
	}
	if body == "" {
		return "", nil
	}

	return "rich-text", richTextView{
		ID:           b.ID,
		Body:         body,
		WidthClass:   block.MaxWidthClass(cfg.MaxWidth),
		PaddingClass: block.PaddingClass(cfg.Padding),
		AlignClass:   block.AlignClass(cfg.TextAlign),
		SectionStyle: colorStyle("background-color", cfg.BackgroundColor),
	}
}

func renderMarkdown(content string) (template.HTML, error) {
	var buf bytes.Buffer
	if err := markdownEngine.Convert([]byte(content), &buf); err != nil {
		return "", err
	}
	safe := sanitizer.SanitizeBytes(buf.Bytes())
	return template.HTML(safe), nil
}

// RichText renders markdown the way rich-text blocks do. Conversion failures yield empty output.
func RichText(markdown string) template.HTML {
	if markdown == "" {
		return ""
	}
	out, err := renderMarkdown(markdown)
	if err != nil {
		return ""
	}
	return out
}

type bannerView struct {
	ID          string
	Image       string
	Alt         string
	Link        string
	HeightClass string
}

func renderImageBanner(_ *Renderer, _ context.Context, b block.Block, _ Context) (string, any) {
	cfg := block.DecodeImageBanner(b.Content)
	if cfg.ImageURL == "" {
		return "", nil
	}
	return "image-banner", bannerView{
		ID:          b.ID,
		Image:       cfg.ImageURL,
		Alt:         cfg.Alt,
		Link:        cfg.Link,
		HeightClass: block.BannerHeightClass(cfg.Height),
	}
}

type spacerView struct {
	ID    string
	Class string
}

func renderSpacer(_ *Renderer, _ context.Context, b block.Block, _ Context) (string, any) {
	cfg := block.DecodeSpacer(b.Content)
	return "spacer", spacerView{ID: b.ID, Class: block.SpacerClass(cfg.Size)}
}

// colorStyle builds a declaration from a colour already passed through block.SanitizeColor.
func colorStyle(property, color string) template.CSS {
	if color == "" {
		return ""
	}
	return template.CSS(property + ": " + color)
}
