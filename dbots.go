// Package dbots posts a Discord bot's guild/user/shard statistics to
// third-party bot listing websites and exposes their public read APIs.
//
// The core surface is Poster: it owns the API-key store, resolves listing
// services through a Registry, fans a single statistics snapshot out to one
// or all configured services, and announces outcomes through an Emitter
// ("post", "post_fail", "auto_post", "auto_post_fail"), optionally on a
// recurring timer.
package dbots

import (
	"fmt"
	"runtime"
)

// Version is the library version reported in the User-Agent of every request.
const Version = "1.0.0"

// userAgent identifies this library to listing services.
var userAgent = fmt.Sprintf("dbots (https://github.com/dbots-pkg/dbots.go %s) Go/%s", Version, runtime.Version())
