// Package workspace manages scratch directories for documentation builds,
// supporting both ephemeral (timestamped) and persistent (fixed-path) modes.
//
// Ephemeral mode creates timestamped directories (e.g. doccbuild-20260831-122336)
// suitable for one-shot conversions, removed completely on cleanup.
//
// Persistent mode uses a fixed directory path that survives across builds,
// which lets the page cache and staged snippet bundles carry over between runs.
package workspace
