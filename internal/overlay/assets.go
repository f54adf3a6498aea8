package overlay

import "github.com/ayusman/mudra/internal/gesture"

// assets maps each supported gesture code to its icon. Codes 0, 4, 7 and
// anything else have no icon and never animate.
var assets = map[gesture.Code]string{
	1: "1pose", // thumbs up
	2: "2pose", // open palm
	3: "3pose", // ok
	5: "5pose", // point down
	6: "6pose", // fist
	8: "8pose", // love you
}

// AssetFor returns the icon for code, and false when the code is unsupported.
func AssetFor(code gesture.Code) (string, bool) {
	asset, ok := assets[code]
	return asset, ok
}

// Assets returns a copy of the code to icon table.
func Assets() map[gesture.Code]string {
	out := make(map[gesture.Code]string, len(assets))
	for code, asset := range assets {
		out[code] = asset
	}
	return out
}
