package render

import (
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/moemoli/steamwatch/internal/steam"
)

func sampleImage(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 128, A: 255})
		}
	}
	return img
}

func TestRenderBatchStatusCard(t *testing.T) {
	dir := t.TempDir()
	r := NewRenderer(dir, "")

	entries := []Entry{
		{
			DisplayName:  "player(nick)",
			StatusDesc:   "Started playing Counter-Strike 2",
			GameName:     "Counter-Strike 2",
			PlaytimeText: "12.3 hrs on record",
			Avatar:       sampleImage(64, 64),
			Cover:        sampleImage(300, 450),
			NewState:     steam.StateInGame,
		},
		{
			DisplayName:  "other",
			StatusDesc:   "Stopped playing Dota 2, now Offline",
			GameName:     "Dota 2",
			PlaytimeText: "Session length: 1h 23m",
			CommentText:  "Long one, nicely done.",
			NewState:     steam.StateOffline,
		},
	}

	path, err := r.RenderBatchStatusCard(entries)
	if err != nil {
		t.Fatalf("RenderBatchStatusCard: %v", err)
	}
	if filepath.Dir(path) != dir || !strings.HasSuffix(path, ".png") {
		t.Errorf("path = %q, want a png under %q", path, dir)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Size() == 0 {
		t.Error("rendered card is empty")
	}
}

func TestRenderBatchStatusCardRejectsEmpty(t *testing.T) {
	r := NewRenderer(t.TempDir(), "")
	if _, err := r.RenderBatchStatusCard(nil); err == nil {
		t.Fatal("expected error for an empty batch")
	}
}

func TestRenderNewsCard(t *testing.T) {
	dir := t.TempDir()
	r := NewRenderer(dir, "")

	path, err := r.RenderNewsCard(NewsCard{
		AppID:    730,
		GameName: "Counter-Strike 2",
		Title:    "Major update released",
		Author:   "valve",
		Date:     1700000000,
		Contents: "A long list of balance changes and map fixes.",
		Cover:    sampleImage(300, 450),
	})
	if err != nil {
		t.Fatalf("RenderNewsCard: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("stat: %v", err)
	}
}

func TestRenderUniquePaths(t *testing.T) {
	r := NewRenderer(t.TempDir(), "")
	entry := []Entry{{DisplayName: "p", StatusDesc: "Online -> Offline"}}

	p1, err := r.RenderBatchStatusCard(entry)
	if err != nil {
		t.Fatal(err)
	}
	p2, err := r.RenderBatchStatusCard(entry)
	if err != nil {
		t.Fatal(err)
	}
	if p1 == p2 {
		t.Errorf("consecutive renders share the path %q", p1)
	}
}
