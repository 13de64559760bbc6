package core

import (
	"strings"
	"testing"
)

func TestNewScreen(t *testing.T) {
	s := NewScreen(80, 24)

	if s.Width() != 80 {
		t.Errorf("Width() = %d, expected 80", s.Width())
	}
	if s.Height() != 24 {
		t.Errorf("Height() = %d, expected 24", s.Height())
	}

	for y := 0; y < s.Height(); y++ {
		for x := 0; x < s.Width(); x++ {
			if s.Get(x, y) != ' ' {
				t.Fatalf("New screen should be filled with spaces, got %q at (%d, %d)", s.Get(x, y), x, y)
			}
		}
	}
}

func TestScreenSetGet(t *testing.T) {
	s := NewScreen(10, 10)

	s.SetColored(5, 5, 'X', ColorRed)
	cell := s.GetCell(5, 5)
	if cell.Rune != 'X' || cell.Color != ColorRed {
		t.Errorf("GetCell(5, 5) = %+v, expected red 'X'", cell)
	}

	// Out of bounds should be silent
	s.Set(-1, 0, 'A')
	s.Set(100, 0, 'A')
	s.Set(0, -1, 'A')
	s.Set(0, 100, 'A')

	if s.Get(-1, 0) != ' ' {
		t.Error("Out of bounds Get should return space")
	}
	if s.Get(100, 0) != ' ' {
		t.Error("Out of bounds Get should return space")
	}
}

func TestScreenClear(t *testing.T) {
	s := NewScreen(10, 10)
	s.DrawRect(NewRect(0, 0, 10, 10), 'X', ColorGreen)
	s.Clear()

	for y := 0; y < 10; y++ {
		for x := 0; x < 10; x++ {
			if cell := s.GetCell(x, y); cell.Rune != ' ' || cell.Color != ColorDefault {
				t.Fatalf("After Clear, expected blank cell at (%d, %d), got %+v", x, y, cell)
			}
		}
	}
}

func TestScreenDrawText(t *testing.T) {
	s := NewScreen(10, 3)
	s.DrawText(8, 0, "clipped", ColorDefault)
	if got := s.Row(0); got != "        cl" {
		t.Errorf("Row(0) = %q, expected text clipped at right edge", got)
	}

	s.DrawTextCentered(1, "hi", ColorYellow)
	if got := s.Row(1); got != "    hi    " {
		t.Errorf("Row(1) = %q, expected centered text", got)
	}
}

func TestScreenDrawBox(t *testing.T) {
	s := NewScreen(4, 3)
	s.DrawBox(NewRect(0, 0, 4, 3), ColorDefault)

	expected := strings.Join([]string{"┌──┐", "│  │", "└──┘"}, "\n")
	if got := s.String(); got != expected {
		t.Errorf("String() =\n%s\nexpected\n%s", got, expected)
	}
}

func TestScreenResize(t *testing.T) {
	s := NewScreen(5, 5)
	s.Resize(8, 2)

	if s.Width() != 8 || s.Height() != 2 {
		t.Errorf("Resize(8, 2) gave %dx%d", s.Width(), s.Height())
	}
	if len(s.Row(1)) != 8 {
		t.Errorf("Row(1) length = %d, expected 8", len(s.Row(1)))
	}
}
