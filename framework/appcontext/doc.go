// Package appcontext provides the hierarchical key/value store used for
// configuration and per-scope state across a running application.
//
// # Scopes
//
// Every Context may have a parent. Reads fall through to the parent chain,
// writes never do:
//
//	app := appcontext.New(nil)
//	app.Put("db.pool", 10)
//
//	req := app.Child()
//	req.ContainsKey("db.pool") // true, visible through the parent
//	req.HasKey("db.pool")      // false, not defined here
//
// HasKey vs ContainsKey lets callers tell "defined here" from "visible here",
// which is what override detection needs.
//
// # Values
//
// Stored values are classified into a closed set of variants (see Kind):
// bool, int, long, float, double, string and an opaque reference. Typed
// accessors coerce between them:
//
//	ctx.Put("port", "8080")
//	ctx.GetAsInt("port")          // 8080
//	ctx.GetAsInt("missing")       // 0
//	ctx.GetAsIntOr("missing", 80) // 80
//
// Coercion failures are never reported as errors; the accessor falls back to
// the zero value or the supplied default.
//
// # Teardown
//
// Destroy clears local entries and detaches the parent. The parent link is a
// weak pointer, so a child never extends its parent's lifetime.
package appcontext
