package block

import (
	"regexp"
	"strings"
)

// DefaultEmptyMessage is shown when a product grid has nothing to list.
const DefaultEmptyMessage = "No products found in this collection."

// GridConfig configures the grid-style blocks.
type GridConfig struct {
	Title            string
	Subtitle         string
	Columns          Columns
	Limit            int
	ShowDescription  bool
	AspectRatio      AspectRatio
	OverlayStyle     OverlayStyle
	OverlayColor     string
	ShowProductCount bool
	HeaderAlign      Align
	Gap              Gap
	CardStyle        CardStyle
	HoverEffect      HoverEffect
	TextPosition     TextPosition
	Padding          Padding
	BackgroundColor  string
	ShowEmptyState   bool
	EmptyMessage     string
	SortBy           SortKey
	// Category narrows featured-products to one category slug.
	Category string
}

// DefaultColumns returns the column count used when columns is absent or invalid.
func DefaultColumns(kind Kind) Columns {
	if kind == KindCategoryGrid {
		return 3
	}
	return 4
}

func defaultLimit(kind Kind) int {
	switch kind {
	case KindCategoryGrid:
		return 6
	case KindFeaturedProducts:
		return 8
	default:
		return 0
	}
}

// DecodeGrid reads a grid configuration, applying the defaults of kind to every missing or invalid key.
func DecodeGrid(kind Kind, c Content) GridConfig {
	cols := Columns(c.Int("columns", int(DefaultColumns(kind))))
	if cols < 2 || cols > 6 {
		cols = DefaultColumns(kind)
	}

	limit := c.Int("limit", defaultLimit(kind))
	if limit < 0 {
		limit = defaultLimit(kind)
	}

	return GridConfig{
		Title:            c.String("title", ""),
		Subtitle:         c.String("subtitle", ""),
		Columns:          cols,
		Limit:            limit,
		ShowDescription:  c.Bool("showDescription", false),
		AspectRatio:      oneOf(c.String("aspectRatio", ""), AspectSquare, AspectSquare, AspectPortrait, AspectLandscape, AspectWide, AspectAuto),
		OverlayStyle:     oneOf(c.String("overlayStyle", ""), OverlayGradient, OverlayNone, OverlayGradient, OverlaySolid),
		OverlayColor:     SanitizeColor(c.String("overlayColor", "")),
		ShowProductCount: c.Bool("showProductCount", true),
		HeaderAlign:      oneOf(c.String("headerAlign", ""), AlignCenter, AlignLeft, AlignCenter, AlignRight),
		Gap:              oneOf(c.String("gap", ""), GapMedium, GapSmall, GapMedium, GapLarge),
		CardStyle:        oneOf(c.String("cardStyle", ""), CardMinimal, CardMinimal, CardBordered, CardShadow, CardRounded),
		HoverEffect:      oneOf(c.String("hoverEffect", ""), HoverZoom, HoverNone, HoverZoom, HoverLift, HoverFade),
		TextPosition:     oneOf(c.String("textPosition", ""), TextBelow, TextBelow, TextOverlayBottom, TextOverlayCenter),
		Padding:          oneOf(c.String("padding", ""), PaddingMedium, PaddingNone, PaddingSmall, PaddingMedium, PaddingLarge),
		BackgroundColor:  SanitizeColor(c.String("backgroundColor", "")),
		ShowEmptyState:   c.Bool("showEmptyState", true),
		EmptyMessage:     c.String("emptyMessage", DefaultEmptyMessage),
		SortBy:           ParseSortKey(c.String("sortBy", "")),
		Category:         c.String("category", ""),
	}
}

// HeroConfig configures the hero block.
type HeroConfig struct {
	Title           string
	Subtitle        string
	ButtonText      string
	ButtonLink      string
	BackgroundImage string
	OverlayColor    string
	OverlayOpacity  int
	TextAlign       Align
	Height          string
}

// DecodeHero reads a hero configuration. Opacity outside 0..100 falls back to 40.
func DecodeHero(c Content) HeroConfig {
	opacity := c.Int("overlayOpacity", 40)
	if opacity < 0 || opacity > 100 {
		opacity = 40
	}
	height := strings.ToLower(c.String("height", "large"))
	switch height {
	case "small", "medium", "large", "full":
	default:
		height = "large"
	}
	overlay := SanitizeColor(c.String("overlayColor", ""))
	if overlay == "" {
		overlay = "#000000"
	}
	return HeroConfig{
		Title:           c.String("title", ""),
		Subtitle:        c.String("subtitle", ""),
		ButtonText:      c.String("buttonText", ""),
		ButtonLink:      c.String("buttonLink", ""),
		BackgroundImage: c.String("backgroundImage", ""),
		OverlayColor:    overlay,
		OverlayOpacity:  opacity,
		TextAlign:       oneOf(c.String("textAlign", ""), AlignCenter, AlignLeft, AlignCenter, AlignRight),
		Height:          height,
	}
}

// RichTextConfig configures the rich-text block. HTML wins over Markdown when both are set.
type RichTextConfig struct {
	HTML            string
	Markdown        string
	MaxWidth        string
	Padding         Padding
	TextAlign       Align
	BackgroundColor string
}

// DecodeRichText reads a rich-text configuration.
func DecodeRichText(c Content) RichTextConfig {
	return RichTextConfig{
		HTML:            c.String("html", ""),
		Markdown:        c.String("markdown", ""),
		MaxWidth:        c.String("maxWidth", "normal"),
		Padding:         oneOf(c.String("padding", ""), PaddingMedium, PaddingNone, PaddingSmall, PaddingMedium, PaddingLarge),
		TextAlign:       oneOf(c.String("textAlign", ""), AlignLeft, AlignLeft, AlignCenter, AlignRight),
		BackgroundColor: SanitizeColor(c.String("backgroundColor", "")),
	}
}

// ImageBannerConfig configures the image banner block.
type ImageBannerConfig struct {
	ImageURL string
	Alt      string
	Link     string
	Height   string
}

// DecodeImageBanner reads an image banner configuration.
func DecodeImageBanner(c Content) ImageBannerConfig {
	return ImageBannerConfig{
		ImageURL: c.String("imageUrl", ""),
		Alt:      c.String("alt", ""),
		Link:     c.String("link", ""),
		Height:   c.String("height", "medium"),
	}
}

// SpacerConfig configures the spacer block.
type SpacerConfig struct {
	Size string
}

// DecodeSpacer reads a spacer configuration.
func DecodeSpacer(c Content) SpacerConfig {
	return SpacerConfig{Size: c.String("size", "medium")}
}

var (
	hexColor   = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3,4}|[0-9a-fA-F]{6}|[0-9a-fA-F]{8})$`)
	funcColor  = regexp.MustCompile(`^(?:rgb|rgba|hsl|hsla)\(\s*[0-9.]+%?\s*(?:,\s*[0-9.]+%?\s*){2,3}\)$`)
	namedColor = regexp.MustCompile(`^[a-zA-Z]{3,20}$`)
)

// SanitizeColor keeps CSS colour values that are safe to place in a style attribute.
func SanitizeColor(value string) string {
	v := strings.TrimSpace(value)
	if v == "" {
		return ""
	}
	if hexColor.MatchString(v) || funcColor.MatchString(v) || namedColor.MatchString(v) {
		return v
	}
	return ""
}

func oneOf[T ~string](raw string, fallback T, allowed ...T) T {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	for _, candidate := range allowed {
		if normalized == string(candidate) {
			return candidate
		}
	}
	return fallback
}
