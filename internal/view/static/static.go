// Package static は静的アセットをHTTP配信用に公開する。
package static

import "embed"

//go:embed *.css
var FS embed.FS
