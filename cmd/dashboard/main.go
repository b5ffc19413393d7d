// Dashboard demo: a few bordered panels, a table, and a status bar,
// re-rendered on every key press and once a second.
package main

import (
	"fmt"
	"log"
	"time"

	"weft"
)

type state struct {
	ticks    int
	selected int
	rows     [][]string
}

func main() {
	s := &state{
		rows: [][]string{
			{"api", "running", "12m"},
			{"worker", "running", "12m"},
			{"scheduler", "degraded", "3m"},
			{"cache", "running", "47m"},
		},
	}

	view := func(weft.Size) *weft.Widget {
		theme := weft.ThemeDark
		panels := weft.Row(
			weft.Box(
				weft.Table([]string{"SERVICE", "STATE", "UPTIME"}, s.rows).Styled(theme.Base),
			).Bordered(weft.BorderRounded).BorderColored(weft.BrightBlack).Padded(1).Growing(2),
			weft.Box(
				weft.Text(fmt.Sprintf("ticks\n%d", s.ticks)).Styled(theme.Accent),
			).Bordered(weft.BorderRounded).BorderColored(weft.BrightBlack).Padded(1).Growing(1),
		).Gapped(1)

		return weft.Col(
			weft.Text(" weft dashboard ").Styled(theme.Accent.Bold()),
			panels.Growing(1),
			weft.Text(fmt.Sprintf(" q quit · j/k select · row %d ", s.selected)).Styled(theme.Muted),
		)
	}

	var prog *weft.Program
	prog, err := weft.NewProgram(view, weft.ConfigFromEnv(), weft.OnKey(func(b []byte) {
		switch string(b) {
		case "q", "\x03":
			prog.Quit()
		case "j":
			if s.selected < len(s.rows)-1 {
				s.selected++
			}
		case "k":
			if s.selected > 0 {
				s.selected--
			}
		}
	}))
	if err != nil {
		log.Fatal(err)
	}

	go func() {
		for range time.Tick(time.Second) {
			s.ticks++
			prog.Post(weft.TickEvent{At: time.Now()})
		}
	}()

	if err := prog.Run(); err != nil {
		log.Fatal(err)
	}
}
