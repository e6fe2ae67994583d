package graphic

import "github.com/nsf/termbox-go"

// drawDown is drawUp hanging from the top of the screen.
func drawDown(bins [][]float64, count int, st state, cfg Config) {
	var vHeight = st.Height - cfg.BaseThick
	if vHeight < 0 {
		vHeight = 0
	}

	var scale = float64(vHeight)

	var cPaddedWidth = (cfg.BinWidth * count * len(bins)) - cfg.SpaceWidth
	if cPaddedWidth > st.Width || cPaddedWidth < 0 {
		cPaddedWidth = st.Width
	}

	var xCol = (st.Width - cPaddedWidth) / 2
	var fg, bg = cfg.Styles.Foreground, cfg.Styles.Background

	for xCh := range bins {
		var xBin, delta = count - 1, -1
		if xCh%2 == 1 {
			xBin, delta = 0, 1
		}

		for n := 0; n < count; n++ {
			var stop, top = stopAndTop(bins[xCh][xBin]*scale, vHeight, false)
			if stop += cfg.BaseThick; stop >= st.Height {
				stop = st.Height
				top = BarRune
			}

			for lCol := xCol + cfg.BarWidth; xCol < lCol; xCol++ {
				var xRow = 0

				for xRow < cfg.BaseThick {
					termbox.SetCell(xCol, xRow, BarRune, cfg.Styles.CenterLine, bg)
					xRow++
				}

				for xRow < stop {
					termbox.SetCell(xCol, xRow, BarRune, fg, bg)
					xRow++
				}

				if top < BarRune {
					termbox.SetCell(xCol, xRow, top, fg|termbox.AttrReverse, bg)
				}
			}

			xCol += cfg.SpaceWidth
			xBin += delta
		}
	}
}
