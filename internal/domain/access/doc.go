// Package access is the whitelist and policy engine.
//
// Every path a caller supplies goes through Validator.Validate, which
// canonicalizes it (symlinks resolved, "." and ".." removed, missing tail
// components allowed) and checks component-wise ancestry against the
// configured allowed directories. Policy then enforces the extension
// allow-list, the size ceiling and the delete flag.
//
// Both components emit a denied SecurityEvent on every rejection and are
// silent on success; callers audit successful destructive operations
// themselves.
//
// Settings is built once at startup and is immutable afterwards. Nothing in
// this package caches resolution results between calls.
package access
