// Package filesystem exposes the whitelisted file operations as registry
// tools.
//
// The tool surface is a fixed dispatch table: every row pairs a tool
// definition with the function that decodes its parameters and calls
// files.Service. Nothing is discovered by reflection.
//
// Tools:
//   - list_allowed_directories
//   - get_files, get_directories, search_files, get_files_content
//   - create_directory, create_file
//   - move_file, move_directory
//   - delete_file, delete_directory
//
// Parameter decoding accepts the names older clients send (file_path,
// source_path, target_path) alongside the documented ones. Malformed
// parameters fail with an invalid_argument result; domain failures come back
// as a Result with Success false and the stable kind and outcome set, never
// as a Go error.
//
// Example Usage:
//
//	provider := filesystem.NewProvider(svc, filesystem.WithObserver(metrics))
//	registry.Register(provider)
package filesystem
