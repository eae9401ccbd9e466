package stats

import (
	"bytes"
	"fmt"
	"time"

	"wagerbot/bot/common"
	"wagerbot/models"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	log "github.com/sirupsen/logrus"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gomono"
)

// TableColumn defines a column in the leaderboard table
type TableColumn struct {
	Header    string
	XPosition int
	ColorRGB  [3]float64
}

// TableRow represents a single row of data
type TableRow struct {
	Rank   int
	Data   []string
	Winner bool // Colors the win rate green instead of red
}

// TableStyle defines the visual style of the table
type TableStyle struct {
	Width           int
	MinHeight       int
	Padding         int
	RowHeight       int
	HighlightColors map[int][4]float64 // RGBA highlight by row index
}

// LeaderboardImageGenerator renders the win/loss leaderboard as a PNG
type LeaderboardImageGenerator struct {
	style TableStyle
}

// NewLeaderboardImageGenerator creates a new image generator with default style
func NewLeaderboardImageGenerator() *LeaderboardImageGenerator {
	return &LeaderboardImageGenerator{
		style: TableStyle{
			Width:     360,
			MinHeight: 120,
			Padding:   15,
			RowHeight: 26,
			HighlightColors: map[int][4]float64{
				0: {1, 0.84, 0, 0.1},     // Gold for 1st place
				1: {0.8, 0.8, 0.8, 0.08}, // Silver for 2nd place
				2: {0.8, 0.5, 0.2, 0.06}, // Bronze for 3rd place
			},
		},
	}
}

// GenerateLeaderboard renders one row per user in the given order
func (g *LeaderboardImageGenerator) GenerateLeaderboard(entries []models.UserStats) ([]byte, error) {
	columns := []TableColumn{
		{Header: "#", XPosition: g.style.Padding, ColorRGB: [3]float64{0.85, 0.85, 0.9}},
		{Header: "User", XPosition: g.style.Padding + 20, ColorRGB: [3]float64{1.0, 1.0, 1.0}},
		{Header: "W", XPosition: g.style.Padding + 160, ColorRGB: [3]float64{0.85, 1.0, 0.85}},
		{Header: "L", XPosition: g.style.Padding + 200, ColorRGB: [3]float64{1.0, 0.85, 0.85}},
		{Header: "Win%", XPosition: g.style.Padding + 250, ColorRGB: [3]float64{0.85, 0.85, 1.0}},
	}

	rows := make([]TableRow, len(entries))
	for i, entry := range entries {
		rows[i] = TableRow{
			Rank: i + 1,
			Data: []string{
				fmt.Sprintf("%d", i+1),
				common.Truncate(entry.User, 18),
				fmt.Sprintf("%d", entry.Wins),
				fmt.Sprintf("%d", entry.Losses),
				fmt.Sprintf("%.1f%%", entry.WinPercentage()),
			},
			Winner: entry.WinPercentage() >= 50,
		}
	}

	return g.generateTable(columns, rows)
}

// generateTable creates the actual image
func (g *LeaderboardImageGenerator) generateTable(columns []TableColumn, rows []TableRow) ([]byte, error) {
	start := time.Now()
	defer func() {
		log.WithFields(log.Fields{
			"duration_ms": time.Since(start).Milliseconds(),
			"row_count":   len(rows),
		}).Debug("Leaderboard image generation completed")
	}()

	// Header (25px) + header padding (30px) + rows + footer (40px)
	height := 25 + 30 + len(rows)*g.style.RowHeight + 40
	if height < g.style.MinHeight {
		height = g.style.MinHeight
	}

	dc := gg.NewContext(g.style.Width, height)

	// Vertical gradient background
	for i := 0; i < height; i++ {
		t := float64(i) / float64(height)
		dc.SetRGB(0.02+t*0.03, 0.02+t*0.05, 0.05+t*0.1)
		dc.DrawLine(0, float64(i), float64(g.style.Width), float64(i))
		dc.Stroke()
	}

	face, err := loadFont(gomono.TTF, 11)
	if err != nil {
		return nil, fmt.Errorf("failed to load font: %w", err)
	}
	rankFace, err := loadFont(gobold.TTF, 9)
	if err != nil {
		return nil, fmt.Errorf("failed to load font: %w", err)
	}
	dc.SetFontFace(face)

	y := float64(25)

	// Header background
	dc.SetRGBA(0.3, 0.3, 0.4, 0.4)
	dc.DrawRectangle(0, y-15, float64(g.style.Width), 20)
	dc.Fill()

	dc.SetRGB(1.0, 1.0, 1.0)
	for _, col := range columns {
		drawSharpText(dc, col.Header, float64(col.XPosition), y)
	}

	// Header underline
	dc.SetRGBA(0.6, 0.6, 0.7, 0.7)
	dc.SetLineWidth(1)
	dc.DrawLine(0, y+8, float64(g.style.Width), y+8)
	dc.Stroke()

	y += 30
	for i, row := range rows {
		color, top3 := g.style.HighlightColors[i]
		if !top3 {
			color = [4]float64{0.5, 0.5, 0.6, 0.02}
		}
		dc.SetRGBA(color[0], color[1], color[2], color[3])
		dc.DrawRectangle(0, y-15, float64(g.style.Width), float64(g.style.RowHeight))
		dc.Fill()

		if top3 {
			r, gr, b := medalColor(i)
			dc.SetRGB(r, gr, b)
			dc.DrawCircle(float64(g.style.Padding+3), y-4, 5)
			dc.Fill()

			dc.SetRGB(0, 0, 0)
			dc.SetFontFace(rankFace)
			dc.DrawStringAnchored(row.Data[0], float64(g.style.Padding+3), y-5, 0.5, 0.4)
			dc.SetFontFace(face)
		} else {
			rgb := columns[0].ColorRGB
			dc.SetRGB(rgb[0], rgb[1], rgb[2])
			drawSharpText(dc, row.Data[0], float64(columns[0].XPosition), y)
		}

		for j := 1; j < len(columns) && j < len(row.Data); j++ {
			col := columns[j]
			switch {
			case col.Header == "Win%" && row.Winner:
				dc.SetRGB(0.4, 1.0, 0.4)
			case col.Header == "Win%":
				dc.SetRGB(1.0, 0.4, 0.4)
			default:
				dc.SetRGB(col.ColorRGB[0], col.ColorRGB[1], col.ColorRGB[2])
			}
			drawSharpText(dc, row.Data[j], float64(col.XPosition), y)
		}

		y += float64(g.style.RowHeight)
	}

	y += 15
	dc.SetRGB(0.7, 0.7, 0.7)
	footerText := "Ranked by wins, then fewest losses"
	w, _ := dc.MeasureString(footerText)
	drawSharpText(dc, footerText, (float64(g.style.Width)-w)/2, y)

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("failed to encode PNG: %w", err)
	}

	return buf.Bytes(), nil
}

func medalColor(index int) (float64, float64, float64) {
	switch index {
	case 0:
		return 1, 0.84, 0 // Gold
	case 1:
		return 0.75, 0.75, 0.75 // Silver
	default:
		return 0.8, 0.5, 0.2 // Bronze
	}
}

// drawSharpText draws text over a faint shadow
func drawSharpText(dc *gg.Context, text string, x, y float64) {
	dc.Push()
	dc.SetRGBA(0, 0, 0, 0.5)
	dc.DrawString(text, x+0.5, y+0.5)
	dc.Pop()

	dc.DrawString(text, x, y)
}

// loadFont loads a font from byte data
func loadFont(fontData []byte, size float64) (font.Face, error) {
	f, err := truetype.Parse(fontData)
	if err != nil {
		return nil, err
	}
	face := truetype.NewFace(f, &truetype.Options{
		Size:       size,
		DPI:        72,
		Hinting:    font.HintingFull,
		SubPixelsX: 4,
		SubPixelsY: 4,
	})
	return face, nil
}
