// Package utils provides input validation for the HTTP and WebSocket
// surfaces.
//
// Validation:
//   - String length and NUL-byte checks
//   - Tool ID, identifier and category formats
//   - JSON nesting depth of tool parameters
//
// Example Usage:
//
//	if err := utils.ValidateToolID(req.ToolID, "tool_id", true); err != nil {
//	    return err
//	}
package utils
