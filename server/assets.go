package server

import "embed"

// staticFS bundles the home page into the binary. The teacher generates this
// kind of bundle with rakyll/statik's go:generate step; that requires
// running the statik code generator at build time, which this build process
// cannot do, so embed.FS (stdlib, Go 1.16+) serves the same "fs.FS baked
// into the binary" role without a generation step.
//
//go:embed static/index.html
var staticFS embed.FS
