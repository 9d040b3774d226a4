// Package files implements the user-visible file and directory operations.
//
// Every operation follows the same shape: validate each path with the
// access.Validator, apply access.Policy checks, touch the filesystem, record
// the outcome, and return either a result or an *access.Error. Reads and
// listings are audited only when denied; create, move and delete operations
// are audited on every outcome.
//
// Create, move and delete act on the directory entry the caller named: the
// final component is never followed, so a symlink is removed or renamed
// itself. Its target must still lie inside the whitelist.
//
// Destructive operations re-validate their paths immediately before the
// syscall. Moves never overwrite: on Linux they use renameat2 with
// RENAME_NOREPLACE, elsewhere a check followed by rename. File reads open
// with O_NOFOLLOW on Unix.
//
// This narrows races with concurrent writers but does not close them. The
// syscalls take paths, not directory descriptors, so an intermediate
// component swapped for a symlink between re-validation and the syscall is
// still followed. Treat the whitelist as a guard against mistaken or
// hostile requests, not against hostile processes sharing the directories.
package files
