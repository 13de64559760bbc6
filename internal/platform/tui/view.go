package tui

import (
	"fmt"
	"sort"

	"github.com/vovakirdan/skyfall/internal/core"
	"github.com/vovakirdan/skyfall/internal/dialogue"
	"github.com/vovakirdan/skyfall/internal/games/shooter"
	"github.com/vovakirdan/skyfall/internal/rules"
)

// Glyphs.
const (
	glyphPlayer  = 'A'
	glyphBullet  = '|'
	glyphEnemy   = 'V'
	glyphZigzag  = 'W'
	hudRows      = 1
	dialogueRows = 3
)

// viewport maps field coordinates onto the screen rows below the HUD.
type viewport struct {
	fieldW, fieldH float64
	cols, rows     int
}

func newViewport(snap shooter.Snapshot, s *core.Screen) viewport {
	return viewport{
		fieldW: snap.Width,
		fieldH: snap.Height,
		cols:   s.Width(),
		rows:   s.Height() - hudRows,
	}
}

// cell returns the screen cell for a field point and whether it is visible.
func (v viewport) cell(x, y float64) (int, int, bool) {
	if v.fieldW <= 0 || v.fieldH <= 0 || v.cols <= 0 || v.rows <= 0 {
		return 0, 0, false
	}
	if x < 0 || y < 0 || x >= v.fieldW || y >= v.fieldH {
		return 0, 0, false
	}
	col := int(x / v.fieldW * float64(v.cols))
	row := int(y/v.fieldH*float64(v.rows)) + hudRows
	return col, row, true
}

// drawSnapshot renders the world and HUD. self is the local player's id.
func drawSnapshot(s *core.Screen, snap shooter.Snapshot, self string) {
	s.Clear()
	vp := newViewport(snap, s)

	for _, e := range snap.Enemies {
		glyph, color := glyphEnemy, core.ColorRed
		if e.Pattern == shooter.PatternZigzag {
			glyph, color = glyphZigzag, core.ColorMagenta
		}
		if col, row, ok := vp.cell(e.X, e.Y); ok {
			s.SetColored(col, row, glyph, color)
		}
	}

	for _, b := range snap.Bullets {
		if col, row, ok := vp.cell(b.X, b.Y); ok {
			s.SetColored(col, row, glyphBullet, core.ColorBrightYellow)
		}
	}

	ids := make([]string, 0, len(snap.Players))
	for id := range snap.Players {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		p := snap.Players[id]
		color := core.ColorGreen
		if id == self {
			color = core.ColorBrightCyan
		}
		if col, row, ok := vp.cell(p.X, p.Y); ok {
			s.SetColored(col, row, glyphPlayer, color)
			if row+1 < s.Height() {
				label := p.Name
				if len([]rune(label)) > 8 {
					label = string([]rune(label)[:8])
				}
				s.DrawText(col-len([]rune(label))/2, row+1, label, core.ColorGray)
			}
		}
	}

	drawHUD(s, snap)

	switch {
	case snap.GameOver:
		mid := s.Height() / 2
		s.DrawTextCentered(mid-1, "GAME OVER", core.ColorBrightRed)
		s.DrawTextCentered(mid, fmt.Sprintf("level %d  score %d", snap.Level, snap.Score), core.ColorDefault)
		s.DrawTextCentered(mid+1, "press r to restart", core.ColorGray)
	case snap.Waiting:
		s.DrawTextCentered(s.Height()/2, "WAITING FOR PLAYERS", core.ColorYellow)
	}
}

func drawHUD(s *core.Screen, snap shooter.Snapshot) {
	left := fmt.Sprintf(" LEVEL %d  SCORE %d  %s", snap.Level, snap.Score, goalText(snap))
	s.DrawText(0, 0, left, core.ColorCyan)

	right := fmt.Sprintf("players %d ", len(snap.Players))
	if !snap.Rules.CanFire {
		right = "weapons offline  " + right
	}
	s.DrawText(s.Width()-len(right), 0, right, core.ColorOrange)
}

func goalText(snap shooter.Snapshot) string {
	g := snap.Rules.Goal
	switch g.Type {
	case rules.GoalAvoid:
		return fmt.Sprintf("GOAL avoid %d/%d", snap.GoalProgress, g.Value)
	case rules.GoalScore:
		return fmt.Sprintf("GOAL score %d/%d", snap.Score, g.Value)
	default:
		return ""
	}
}

// drawDialogue draws a single dialogue line in a box above the bottom edge.
func drawDialogue(s *core.Screen, line dialogue.Line) {
	if s.Height() < dialogueRows+hudRows || s.Width() < 10 {
		return
	}
	r := core.NewRect(1, s.Height()-dialogueRows, s.Width()-2, dialogueRows)
	s.DrawRect(r, ' ', core.ColorDefault)
	s.DrawBox(r, core.ColorGray)

	text := line.Speaker + ": " + line.Text
	if maxLen := r.W - 4; len([]rune(text)) > maxLen {
		text = string([]rune(text)[:maxLen])
	}
	s.DrawText(r.X+2, r.Y+1, text, core.ColorBrightYellow)
}
