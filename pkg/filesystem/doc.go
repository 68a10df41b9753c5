// Package filesystem provides filesystem implementations for modpak.
//
// This package contains implementations of the types.FS interface,
// including the standard OS filesystem used by real builds.
package filesystem
