package block

import "strings"

// Columns is the number of grid columns on wide screens.
type Columns int

// Gap is the spacing between grid cells.
type Gap string

const (
	GapSmall  Gap = "small"
	GapMedium Gap = "medium"
	GapLarge  Gap = "large"
)

// Padding is the vertical padding of a section.
type Padding string

const (
	PaddingNone   Padding = "none"
	PaddingSmall  Padding = "small"
	PaddingMedium Padding = "medium"
	PaddingLarge  Padding = "large"
)

// AspectRatio is the shape of card images.
type AspectRatio string

const (
	AspectSquare    AspectRatio = "square"
	AspectPortrait  AspectRatio = "portrait"
	AspectLandscape AspectRatio = "landscape"
	AspectWide      AspectRatio = "wide"
	AspectAuto      AspectRatio = "auto"
)

// Align is a horizontal alignment.
type Align string

const (
	AlignLeft   Align = "left"
	AlignCenter Align = "center"
	AlignRight  Align = "right"
)

// HoverEffect is applied to cards on pointer hover.
type HoverEffect string

const (
	HoverNone HoverEffect = "none"
	HoverZoom HoverEffect = "zoom"
	HoverLift HoverEffect = "lift"
	HoverFade HoverEffect = "fade"
)

// TextPosition places card text relative to the card image.
type TextPosition string

const (
	TextBelow         TextPosition = "below"
	TextOverlayBottom TextPosition = "overlay-bottom"
	TextOverlayCenter TextPosition = "overlay-center"
)

// CardStyle is the card chrome.
type CardStyle string

const (
	CardMinimal  CardStyle = "minimal"
	CardBordered CardStyle = "bordered"
	CardShadow   CardStyle = "shadow"
	CardRounded  CardStyle = "rounded"
)

// OverlayStyle is drawn over card images when text sits on the image.
type OverlayStyle string

const (
	OverlayNone     OverlayStyle = "none"
	OverlayGradient OverlayStyle = "gradient"
	OverlaySolid    OverlayStyle = "solid"
)

// Layout is the resolved set of classes for a grid-style block.
type Layout struct {
	Grid         string
	Gap          string
	Padding      string
	Aspect       string
	HeaderAlign  string
	Hover        string
	Card         string
	Overlay      string
	TextPosition string
	// TextOverlay is true when card text sits on top of the image.
	TextOverlay bool
}

// ResolveLayout maps every visual option of cfg to its concrete classes.
func ResolveLayout(cfg GridConfig) Layout {
	return Layout{
		Grid:         ColumnsClass(cfg.Columns),
		Gap:          GapClass(cfg.Gap),
		Padding:      PaddingClass(cfg.Padding),
		Aspect:       AspectClass(cfg.AspectRatio),
		HeaderAlign:  AlignClass(cfg.HeaderAlign),
		Hover:        HoverClass(cfg.HoverEffect),
		Card:         CardClass(cfg.CardStyle),
		Overlay:      OverlayClass(cfg.OverlayStyle),
		TextPosition: TextPositionClass(cfg.TextPosition),
		TextOverlay:  cfg.TextPosition == TextOverlayBottom || cfg.TextPosition == TextOverlayCenter,
	}
}

// ColumnsClass returns the responsive grid class for c. Values outside 2..6 use the 4-column layout.
func ColumnsClass(c Columns) string {
	switch c {
	case 2:
		return "grid-cols-1 sm:grid-cols-2"
	case 3:
		return "grid-cols-1 sm:grid-cols-2 lg:grid-cols-3"
	case 4:
		return "grid-cols-2 md:grid-cols-3 lg:grid-cols-4"
	case 5:
		return "grid-cols-2 md:grid-cols-3 lg:grid-cols-5"
	case 6:
		return "grid-cols-2 md:grid-cols-4 lg:grid-cols-6"
	default:
		return "grid-cols-2 md:grid-cols-3 lg:grid-cols-4"
	}
}

// GapClass maps the grid gap option.
func GapClass(g Gap) string {
	switch g {
	case GapSmall:
		return "gap-2"
	case GapLarge:
		return "gap-8"
	case GapMedium:
		return "gap-4"
	default:
		return "gap-4"
	}
}

// PaddingClass maps the vertical section padding option.
func PaddingClass(p Padding) string {
	switch p {
	case PaddingNone:
		return "py-0"
	case PaddingSmall:
		return "py-6"
	case PaddingLarge:
		return "py-20"
	case PaddingMedium:
		return "py-12"
	default:
		return "py-12"
	}
}

// AspectClass maps the card image aspect ratio.
func AspectClass(a AspectRatio) string {
	switch a {
	case AspectPortrait:
		return "aspect-[3/4]"
	case AspectLandscape:
		return "aspect-[4/3]"
	case AspectWide:
		return "aspect-video"
	case AspectAuto:
		return "aspect-auto"
	case AspectSquare:
		return "aspect-square"
	default:
		return "aspect-square"
	}
}

// AlignClass maps a header alignment to a text alignment class.
func AlignClass(a Align) string {
	switch a {
	case AlignLeft:
		return "text-left"
	case AlignRight:
		return "text-right"
	case AlignCenter:
		return "text-center"
	default:
		return "text-center"
	}
}

// HoverClass maps the card hover effect.
func HoverClass(h HoverEffect) string {
	switch h {
	case HoverNone:
		return "hover-none"
	case HoverLift:
		return "transition-transform hover:-translate-y-1 hover:shadow-lg"
	case HoverFade:
		return "transition-opacity group-hover:opacity-80"
	case HoverZoom:
		return "transition-transform duration-300 group-hover:scale-105"
	default:
		return "transition-transform duration-300 group-hover:scale-105"
	}
}

// CardClass maps the card chrome.
func CardClass(s CardStyle) string {
	switch s {
	case CardBordered:
		return "border border-slate-200"
	case CardShadow:
		return "shadow-md"
	case CardRounded:
		return "rounded-2xl overflow-hidden"
	case CardMinimal:
		return "card-minimal"
	default:
		return "card-minimal"
	}
}

// OverlayClass maps the image overlay drawn behind overlaid text.
func OverlayClass(o OverlayStyle) string {
	switch o {
	case OverlayNone:
		return "overlay-none"
	case OverlaySolid:
		return "bg-black/40"
	case OverlayGradient:
		return "bg-gradient-to-t from-black/60 to-transparent"
	default:
		return "bg-gradient-to-t from-black/60 to-transparent"
	}
}

// TextPositionClass places card text below the image or on top of it.
func TextPositionClass(p TextPosition) string {
	switch p {
	case TextOverlayBottom:
		return "absolute inset-x-0 bottom-0 p-4 text-white"
	case TextOverlayCenter:
		return "absolute inset-0 flex flex-col items-center justify-center p-4 text-center text-white"
	case TextBelow:
		return "mt-3"
	default:
		return "mt-3"
	}
}

// HeroHeightClass maps the hero height option.
func HeroHeightClass(h string) string {
	switch strings.ToLower(h) {
	case "small":
		return "min-h-[40vh]"
	case "medium":
		return "min-h-[60vh]"
	case "full":
		return "min-h-screen"
	case "large":
		return "min-h-[80vh]"
	default:
		return "min-h-[80vh]"
	}
}

// BannerHeightClass maps the image banner height option.
func BannerHeightClass(h string) string {
	switch strings.ToLower(h) {
	case "small":
		return "h-48"
	case "large":
		return "h-[32rem]"
	case "medium":
		return "h-80"
	default:
		return "h-80"
	}
}

// SpacerClass maps the spacer size option.
func SpacerClass(size string) string {
	switch strings.ToLower(size) {
	case "small":
		return "h-6"
	case "large":
		return "h-24"
	case "medium":
		return "h-12"
	default:
		return "h-12"
	}
}

// MaxWidthClass maps the rich text width option.
func MaxWidthClass(w string) string {
	switch strings.ToLower(w) {
	case "narrow":
		return "max-w-2xl"
	case "wide":
		return "max-w-6xl"
	case "normal":
		return "max-w-4xl"
	default:
		return "max-w-4xl"
	}
}

// FlexAlignClass lays out hero content for a text alignment.
func FlexAlignClass(a Align) string {
	switch a {
	case AlignLeft:
		return "items-start text-left"
	case AlignRight:
		return "items-end text-right"
	case AlignCenter:
		return "items-center text-center"
	default:
		return "items-center text-center"
	}
}
