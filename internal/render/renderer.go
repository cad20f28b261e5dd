// Package render draws the notification card images pushed to chat groups.
package render

import (
	"fmt"
	"image"
	"path/filepath"
	"time"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
	"github.com/google/uuid"
	"golang.org/x/image/font/basicfont"

	"github.com/moemoli/steamwatch/internal/steam"
)

// Entry is one enriched change event ready to be drawn on a status card.
type Entry struct {
	DisplayName  string
	StatusDesc   string
	GameName     string
	PlaytimeText string
	CommentText  string
	Avatar       image.Image
	Cover        image.Image
	NewState     steam.PlayerState
}

// NewsCard is the payload for one game announcement card.
type NewsCard struct {
	AppID    int64
	GameName string
	Title    string
	Author   string
	Date     int64
	Contents string
	Cover    image.Image
}

const (
	cardWidth  = 1080
	rowHeight  = 180
	cardMargin = 24

	newsWidth  = 960
	newsHeight = 560
)

// Renderer composes card images and saves them as PNG artifacts.
type Renderer struct {
	cardsDir string
	fontPath string
}

// NewRenderer creates a renderer writing into cardsDir. fontPath may be
// empty, in which case a built-in bitmap face is used.
func NewRenderer(cardsDir, fontPath string) *Renderer {
	return &Renderer{cardsDir: cardsDir, fontPath: fontPath}
}

// setFace selects the drawing font at the given size.
func (r *Renderer) setFace(dc *gg.Context, points float64) {
	if r.fontPath != "" {
		if err := dc.LoadFontFace(r.fontPath, points); err == nil {
			return
		}
	}
	dc.SetFontFace(basicfont.Face7x13)
}

func stateColor(s steam.PlayerState) (float64, float64, float64) {
	switch s {
	case steam.StateInGame:
		return 0.56, 0.78, 0.24
	case steam.StateOnline:
		return 0.34, 0.61, 0.84
	default:
		return 0.55, 0.57, 0.60
	}
}

// RenderBatchStatusCard draws all entries for one destination session onto a
// single card, one row per entry, and returns the saved PNG path.
func (r *Renderer) RenderBatchStatusCard(entries []Entry) (string, error) {
	if len(entries) == 0 {
		return "", fmt.Errorf("no entries to render")
	}

	height := cardMargin*2 + rowHeight*len(entries)
	dc := gg.NewContext(cardWidth, height)

	dc.SetRGB(0.09, 0.12, 0.16)
	dc.Clear()

	for i, e := range entries {
		r.drawEntryRow(dc, e, float64(cardMargin), float64(cardMargin+i*rowHeight))
	}

	return r.save(dc)
}

func (r *Renderer) drawEntryRow(dc *gg.Context, e Entry, x, y float64) {
	rowW := float64(cardWidth - 2*cardMargin)
	rowH := float64(rowHeight - 12)

	dc.SetRGB(0.13, 0.17, 0.22)
	dc.DrawRoundedRectangle(x, y, rowW, rowH, 10)
	dc.Fill()

	// State accent bar.
	cr, cg, cb := stateColor(e.NewState)
	dc.SetRGB(cr, cg, cb)
	dc.DrawRoundedRectangle(x, y, 6, rowH, 3)
	dc.Fill()

	// Avatar.
	textX := x + 28
	if e.Avatar != nil {
		avatar := imaging.Fill(e.Avatar, 128, 128, imaging.Center, imaging.Lanczos)
		dc.DrawImage(avatar, int(x)+20, int(y)+int(rowH-128)/2)
		textX = x + 168
	}

	// Cover art on the right edge.
	textRight := x + rowW - 24
	if e.Cover != nil {
		cover := imaging.Fill(e.Cover, 100, 150, imaging.Center, imaging.Lanczos)
		dc.DrawImage(cover, int(x+rowW)-116, int(y)+int(rowH-150)/2)
		textRight = x + rowW - 132
	}

	maxW := textRight - textX
	lineY := y + 34

	r.setFace(dc, 26)
	dc.SetRGB(0.92, 0.94, 0.96)
	dc.DrawStringAnchored(truncateToWidth(dc, e.DisplayName, maxW), textX, lineY, 0, 0.5)
	lineY += 34

	r.setFace(dc, 20)
	dc.SetRGB(cr, cg, cb)
	dc.DrawStringAnchored(truncateToWidth(dc, e.StatusDesc, maxW), textX, lineY, 0, 0.5)
	lineY += 30

	dc.SetRGB(0.72, 0.76, 0.80)
	if e.PlaytimeText != "" {
		dc.DrawStringAnchored(truncateToWidth(dc, e.PlaytimeText, maxW), textX, lineY, 0, 0.5)
		lineY += 28
	}
	if e.CommentText != "" {
		dc.SetRGB(0.85, 0.80, 0.55)
		dc.DrawStringAnchored(truncateToWidth(dc, e.CommentText, maxW), textX, lineY, 0, 0.5)
	}
}

// RenderNewsCard draws one announcement card and returns the saved PNG path.
func (r *Renderer) RenderNewsCard(card NewsCard) (string, error) {
	dc := gg.NewContext(newsWidth, newsHeight)

	dc.SetRGB(0.09, 0.12, 0.16)
	dc.Clear()

	textX := float64(cardMargin)
	if card.Cover != nil {
		cover := imaging.Fill(card.Cover, 280, 420, imaging.Center, imaging.Lanczos)
		dc.DrawImage(cover, cardMargin, (newsHeight-420)/2)
		textX = cardMargin + 280 + 28
	}
	maxW := float64(newsWidth) - textX - cardMargin

	r.setFace(dc, 22)
	dc.SetRGB(0.56, 0.78, 0.24)
	dc.DrawStringAnchored(truncateToWidth(dc, card.GameName, maxW), textX, 52, 0, 0.5)

	r.setFace(dc, 28)
	dc.SetRGB(0.92, 0.94, 0.96)
	dc.DrawStringWrapped(card.Title, textX, 80, 0, 0, maxW, 1.4, gg.AlignLeft)

	r.setFace(dc, 18)
	dc.SetRGB(0.55, 0.57, 0.60)
	meta := card.Author
	if card.Date > 0 {
		when := time.Unix(card.Date, 0).Format("2006-01-02 15:04")
		if meta != "" {
			meta += " · "
		}
		meta += when
	}
	dc.DrawStringAnchored(truncateToWidth(dc, meta, maxW), textX, 190, 0, 0.5)

	r.setFace(dc, 20)
	dc.SetRGB(0.78, 0.81, 0.84)
	dc.DrawStringWrapped(card.Contents, textX, 220, 0, 0, maxW, 1.5, gg.AlignLeft)

	r.setFace(dc, 16)
	dc.SetRGB(0.45, 0.48, 0.52)
	dc.DrawStringAnchored(fmt.Sprintf("store.steampowered.com/app/%d", card.AppID), textX, newsHeight-32, 0, 0.5)

	return r.save(dc)
}

// save writes the context to a uniquely named PNG under cardsDir.
func (r *Renderer) save(dc *gg.Context) (string, error) {
	path := filepath.Join(r.cardsDir, uuid.NewString()+".png")
	if err := gg.SavePNG(path, dc.Image()); err != nil {
		return "", fmt.Errorf("failed to save card: %w", err)
	}
	return path, nil
}

// truncateToWidth shortens s with an ellipsis until it fits maxW.
func truncateToWidth(dc *gg.Context, s string, maxW float64) string {
	if w, _ := dc.MeasureString(s); w <= maxW {
		return s
	}
	runes := []rune(s)
	for len(runes) > 1 {
		runes = runes[:len(runes)-1]
		if w, _ := dc.MeasureString(string(runes) + "…"); w <= maxW {
			break
		}
	}
	return string(runes) + "…"
}
