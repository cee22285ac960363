// Package export renders batch artifacts of a computed zone layout:
// static SVG/PNG snapshots, markdown and JSON reports, and a SQLite dump.
package export

import (
	"fmt"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"strings"

	"git.sr.ht/~sbinet/gg"
	svg "github.com/ajstarks/svgo"
	"golang.org/x/image/font/basicfont"

	"github.com/vanderheijden86/keyspan/pkg/analysis"
	"github.com/vanderheijden86/keyspan/pkg/interval"
	"github.com/vanderheijden86/keyspan/pkg/metrics"
	"github.com/vanderheijden86/keyspan/pkg/zones"
)

// SnapshotOptions controls layout snapshot export behaviour.
type SnapshotOptions struct {
	Path     string            // Output path; format inferred from extension when Format empty
	Format   string            // "svg" or "png" (case-insensitive). If empty, inferred from Path.
	Title    string            // Optional title rendered in summary block
	Preset   string            // Layout preset: "compact" (default) or "roomy"
	AxisLow  int               // Lowest note drawn (default MinNote)
	AxisHigh int               // Highest note drawn (default MaxNote; 0 means MaxNote)
	Set      *zones.Set        // Zones to render
	Manager  *interval.Manager // Layout manager holding the group/layer partition
}

// SaveSnapshot renders a static picture of the zone layout: the piano
// axis along the bottom and, above it, every zone as a rectangle whose
// horizontal extent is its note range and whose vertical slot is its
// layer within its overlap group.
func SaveSnapshot(opts SnapshotOptions) error {
	defer metrics.Timer(metrics.SnapshotRender)()

	if opts.Set == nil || len(opts.Set.Zones) == 0 {
		return fmt.Errorf("no zones to export")
	}
	if opts.Manager == nil {
		return fmt.Errorf("layout manager is required for snapshot export")
	}

	format := strings.ToLower(strings.TrimPrefix(opts.Format, "."))
	if format == "" {
		switch strings.ToLower(filepath.Ext(opts.Path)) {
		case ".svg":
			format = "svg"
		case ".png":
			format = "png"
		default:
			format = "svg" // safe default
			if opts.Path != "" && filepath.Ext(opts.Path) == "" {
				opts.Path = opts.Path + ".svg"
			}
		}
	}
	if format != "svg" && format != "png" {
		return fmt.Errorf("unsupported format %q (want svg or png)", format)
	}
	if opts.Path == "" {
		return fmt.Errorf("output path is required")
	}

	if err := os.MkdirAll(filepath.Dir(opts.Path), 0o755); err != nil {
		return fmt.Errorf("create parent dir: %w", err)
	}

	layout, err := buildLayout(opts)
	if err != nil {
		return err
	}

	switch format {
	case "svg":
		return renderSVG(opts, layout)
	case "png":
		return renderPNG(opts, layout)
	default:
		return fmt.Errorf("unhandled format %q", format)
	}
}

// --- layout computation ----------------------------------------------------

type zoneBox struct {
	ID      string
	Label   string
	X, Y    float64
	W, H    float64
	Fill    color.RGBA
	GroupID int
	Layer   int
}

type keyBox struct {
	Note  int
	X, W  float64
	Black bool
	Label string // "C2" on Cs, empty otherwise
}

type layoutResult struct {
	Zones   []zoneBox
	Keys    []keyBox
	Width   int
	Height  int
	Header  float64
	KeyTop  float64 // y of the piano strip
	KeyH    float64
	Summary summaryInfo
}

type summaryInfo struct {
	Title      string
	ZoneCount  int
	GroupCount int
	MaxDepth   int
	PeakNote   string
}

func buildLayout(opts SnapshotOptions) (layoutResult, error) {
	const (
		noteWCompact = 9.0
		noteWRoomy   = 14.0
		zoneAreaH    = 260.0
		keyHCompact  = 36.0
		keyHRoomy    = 52.0
		padding      = 24.0
		headerHeight = 96.0
	)

	roomy := strings.EqualFold(opts.Preset, "roomy")
	noteW := noteWCompact
	keyH := keyHCompact
	if roomy {
		noteW = noteWRoomy
		keyH = keyHRoomy
	}

	low := opts.AxisLow
	high := opts.AxisHigh
	if high == 0 {
		high = interval.MaxNote
	}
	if low < interval.MinNote || high > interval.MaxNote || low > high {
		return layoutResult{}, fmt.Errorf("invalid axis window [%d, %d]", low, high)
	}

	noteX := func(n int) float64 {
		return padding + float64(n-low)*noteW
	}

	zoneTop := padding + headerHeight
	keyTop := zoneTop + zoneAreaH + 8

	var boxes []zoneBox
	for _, z := range opts.Set.Zones {
		pl, err := opts.Manager.Placement(z.ID)
		if err != nil {
			return layoutResult{}, fmt.Errorf("zone %q has no placement: %w", z.ID, err)
		}
		if pl.Span.End < low || pl.Span.Start > high {
			continue // outside the axis window
		}

		// Stack the group's layers top to bottom; the bottom row absorbs
		// the integer rounding remainder so rows fill the band exactly.
		rows := interval.RowHeights(int(zoneAreaH), pl.LayerCount)
		y := zoneTop
		for i := 0; i < pl.LayerIndex; i++ {
			y += float64(rows[i])
		}

		start := max(pl.Span.Start, low)
		end := min(pl.Span.End, high)
		boxes = append(boxes, zoneBox{
			ID:      z.ID,
			Label:   z.Label(),
			X:       noteX(start),
			Y:       y,
			W:       float64(end-start+1) * noteW,
			H:       float64(rows[pl.LayerIndex]),
			Fill:    zoneFill(z, pl.GroupID),
			GroupID: pl.GroupID,
			Layer:   pl.LayerIndex,
		})
	}

	var keys []keyBox
	for n := low; n <= high; n++ {
		k := keyBox{
			Note:  n,
			X:     noteX(n),
			W:     noteW,
			Black: zones.IsBlackKey(n),
		}
		if n%12 == 0 {
			k.Label = zones.NoteName(n)
		}
		keys = append(keys, k)
	}

	spans := make([]interval.Span, 0, len(opts.Set.Zones))
	for _, z := range opts.Set.Zones {
		spans = append(spans, z.Span())
	}
	profile := analysis.Profile(spans)

	title := opts.Title
	if strings.TrimSpace(title) == "" {
		title = opts.Set.Name
	}
	if strings.TrimSpace(title) == "" {
		title = "Zone Layout"
	}

	width := int(padding*2 + float64(high-low+1)*noteW)
	if width < 640 {
		width = 640
	}
	height := int(keyTop + keyH + padding)

	return layoutResult{
		Zones:  boxes,
		Keys:   keys,
		Width:  width,
		Height: height,
		Header: headerHeight,
		KeyTop: keyTop,
		KeyH:   keyH,
		Summary: summaryInfo{
			Title:      title,
			ZoneCount:  len(opts.Set.Zones),
			GroupCount: opts.Manager.GroupCount(),
			MaxDepth:   profile.MaxDepth,
			PeakNote:   zones.NoteName(profile.PeakNote),
		},
	}, nil
}

// --- rendering -------------------------------------------------------------

var (
	colorBackdrop = color.RGBA{0x20, 0x20, 0x20, 0xff}
	colorHeaderBG = color.RGBA{0x2a, 0x2a, 0x2a, 0xff}
	colorStroke   = color.RGBA{0xf0, 0xf0, 0xf0, 0xff}
	colorText     = color.RGBA{0xd3, 0xd3, 0xd3, 0xff}
	colorSubtle   = color.RGBA{0x8a, 0x8a, 0x8a, 0xff}
	colorWhiteKey = color.RGBA{0xf4, 0xf4, 0xf4, 0xff}
	colorBlackKey = color.RGBA{0x12, 0x12, 0x12, 0xff}
)

// groupPalette rotates per group for zones without an explicit color.
var groupPalette = []color.RGBA{
	{0x66, 0x99, 0xcc, 0xb3},
	{0x99, 0xc7, 0x94, 0xb3},
	{0xcc, 0x99, 0x66, 0xb3},
	{0xc5, 0x94, 0xc5, 0xb3},
	{0x66, 0xcc, 0xcc, 0xb3},
	{0xd2, 0x7b, 0x7b, 0xb3},
}

func zoneFill(z zones.Zone, groupID int) color.RGBA {
	if c, ok := parseHexColor(z.Color); ok {
		c.A = 0xb3 // keep the original's translucent look
		return c
	}
	return groupPalette[groupID%len(groupPalette)]
}

func parseHexColor(s string) (color.RGBA, bool) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) != 6 {
		return color.RGBA{}, false
	}
	var r, g, b uint8
	if _, err := fmt.Sscanf(s, "%02x%02x%02x", &r, &g, &b); err != nil {
		return color.RGBA{}, false
	}
	return color.RGBA{r, g, b, 0xff}, true
}

func renderPNG(opts SnapshotOptions, layout layoutResult) error {
	dc := gg.NewContext(layout.Width, layout.Height)
	dc.SetColor(colorBackdrop)
	dc.Clear()

	// header
	dc.SetColor(colorHeaderBG)
	dc.DrawRoundedRectangle(16, 16, float64(layout.Width)-32, layout.Header-24, 10)
	dc.Fill()

	dc.SetFontFace(basicfont.Face7x13)
	drawSummaryBlock(dc, layout)

	// piano strip
	for _, k := range layout.Keys {
		if k.Black {
			dc.SetColor(colorBlackKey)
		} else {
			dc.SetColor(colorWhiteKey)
		}
		dc.DrawRectangle(k.X, layout.KeyTop, k.W-1, layout.KeyH)
		dc.Fill()
		if k.Label != "" {
			dc.SetColor(colorSubtle)
			dc.DrawStringAnchored(k.Label, k.X+1, layout.KeyTop+layout.KeyH-6, 0, 0)
		}
	}

	// zones
	for _, zb := range layout.Zones {
		dc.SetColor(zb.Fill)
		dc.DrawRectangle(zb.X, zb.Y, zb.W-1, zb.H-1)
		dc.Fill()
		dc.SetColor(colorStroke)
		dc.SetLineWidth(1)
		dc.DrawRectangle(zb.X, zb.Y, zb.W-1, zb.H-1)
		dc.Stroke()

		dc.SetColor(colorText)
		dc.DrawStringAnchored(truncate(zb.Label, int(zb.W/7)), zb.X+3, zb.Y+11, 0, 0.5)
	}

	return dc.SavePNG(opts.Path)
}

func renderSVG(opts SnapshotOptions, layout layoutResult) error {
	file, err := os.Create(opts.Path)
	if err != nil {
		return err
	}
	defer file.Close()

	return renderSVGToWriter(file, layout)
}

func renderSVGToWriter(w io.Writer, layout layoutResult) error {
	canvas := svg.New(w)
	canvas.Start(layout.Width, layout.Height)
	canvas.Rect(0, 0, layout.Width, layout.Height, fmt.Sprintf("fill:%s", css(colorBackdrop)))
	canvas.Roundrect(16, 16, layout.Width-32, int(layout.Header-24), 10, 10, fmt.Sprintf("fill:%s", css(colorHeaderBG)))

	drawSummaryBlockSVG(canvas, layout)

	for _, k := range layout.Keys {
		fill := colorWhiteKey
		if k.Black {
			fill = colorBlackKey
		}
		canvas.Rect(int(k.X), int(layout.KeyTop), int(k.W)-1, int(layout.KeyH),
			fmt.Sprintf("fill:%s", css(fill)))
		if k.Label != "" {
			canvas.Text(int(k.X)+1, int(layout.KeyTop+layout.KeyH)-4, k.Label,
				fmt.Sprintf("fill:%s;font-size:9px;font-family:monospace", css(colorSubtle)))
		}
	}

	for _, zb := range layout.Zones {
		canvas.Rect(int(zb.X), int(zb.Y), int(zb.W)-1, int(zb.H)-1,
			fmt.Sprintf("fill:%s;stroke:%s;stroke-width:1", css(zb.Fill), css(colorStroke)))
		canvas.Text(int(zb.X)+3, int(zb.Y)+13, truncate(zb.Label, int(zb.W/7)),
			fmt.Sprintf("fill:%s;font-size:11px;font-family:monospace", css(colorText)))
	}

	canvas.End()
	return nil
}

func drawSummaryBlock(dc *gg.Context, layout layoutResult) {
	dc.SetColor(colorText)
	dc.DrawStringAnchored(layout.Summary.Title, 32, 40, 0, 0.5)
	dc.SetColor(colorSubtle)
	dc.DrawStringAnchored(fmt.Sprintf("zones: %d  groups: %d", layout.Summary.ZoneCount, layout.Summary.GroupCount), 32, 58, 0, 0.5)
	dc.DrawStringAnchored(fmt.Sprintf("max overlap: %d at %s", layout.Summary.MaxDepth, layout.Summary.PeakNote), 32, 76, 0, 0.5)
}

func drawSummaryBlockSVG(canvas *svg.SVG, layout layoutResult) {
	canvas.Text(32, 44, layout.Summary.Title, fmt.Sprintf("fill:%s;font-size:16px;font-family:monospace;font-weight:bold", css(colorText)))
	canvas.Text(32, 62, fmt.Sprintf("zones: %d  groups: %d", layout.Summary.ZoneCount, layout.Summary.GroupCount),
		fmt.Sprintf("fill:%s;font-size:13px;font-family:monospace", css(colorSubtle)))
	canvas.Text(32, 80, fmt.Sprintf("max overlap: %d at %s", layout.Summary.MaxDepth, layout.Summary.PeakNote),
		fmt.Sprintf("fill:%s;font-size:13px;font-family:monospace", css(colorSubtle)))
}

// --- helpers ---------------------------------------------------------------

func truncate(s string, maxLen int) string {
	if maxLen <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}

func css(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}
