// Package all imports all backends implemented by the input package.
package all

import (
	_ "github.com/noriah/whisker/input/ffmpeg"
	_ "github.com/noriah/whisker/input/mp3file"
	_ "github.com/noriah/whisker/input/parec"
	_ "github.com/noriah/whisker/input/stdinput"
	_ "github.com/noriah/whisker/input/wavfile"
)
