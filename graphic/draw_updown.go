package graphic

import "github.com/nsf/termbox-go"

// drawUpDown draws the first channel up and the second down from a shared
// base line in the middle of the screen. One channel is drawn both ways.
func drawUpDown(bins [][]float64, count int, st state, cfg Config) {
	var cSetCount = len(bins)

	var centerStart = (st.Height - cfg.BaseThick) / 2
	if centerStart < 0 {
		centerStart = 0
	}

	var centerStop = centerStart + cfg.BaseThick

	var scale = float64(centerStart)

	var xCol = (st.Width - ((cfg.BinWidth * count) - cfg.SpaceWidth)) / 2
	if xCol < 0 {
		xCol = 0
	}

	var fg, bg = cfg.Styles.Foreground, cfg.Styles.Background

	for xBin := 0; xBin < count && xCol < st.Width; xBin++ {
		var lStop, lTop = stopAndTop(bins[0][xBin]*scale, centerStart, true)
		var rStop, rTop = stopAndTop(bins[1%cSetCount][xBin]*scale, centerStart, false)
		if rStop += centerStop; rStop >= st.Height {
			rStop = st.Height
			rTop = BarRune
		}

		for lCol := xCol + cfg.BarWidth; xCol < lCol; xCol++ {
			var xRow = lStop

			if lTop > SpaceRune {
				termbox.SetCell(xCol, xRow-1, lTop, fg, bg)
			}

			for xRow < centerStart {
				termbox.SetCell(xCol, xRow, BarRune, fg, bg)
				xRow++
			}

			// center line
			for xRow < centerStop {
				termbox.SetCell(xCol, xRow, BarRune, cfg.Styles.CenterLine, bg)
				xRow++
			}

			// right bars go down
			for xRow < rStop {
				termbox.SetCell(xCol, xRow, BarRune, fg, bg)
				xRow++
			}

			// last part of right bars.
			if rTop < BarRune {
				termbox.SetCell(xCol, xRow, rTop, fg|termbox.AttrReverse, bg)
			}
		}

		xCol += cfg.SpaceWidth
	}
}
