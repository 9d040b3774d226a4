// Package walker is the traversal primitive behind directory listing, tree
// rendering and content search.
//
// The walker never validates caller input itself: every entry point takes an
// access.ResolvedPath that already passed the whitelist check. Symlinked
// children are resolved through the validator's silent Contains check, so a
// link that leaves the whitelist is reported but never followed.
//
//   - ListOne lists a single directory level.
//   - Files enumerates files recursively with fastwalk, not following links.
//   - Walk builds a depth-bounded DirectoryNode tree, following contained
//     directory links and breaking cycles per descent path.
//   - Search lazily yields line matches as an iter.Seq2.
package walker
