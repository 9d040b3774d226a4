// Package mcpserver exposes the file tools over the Model Context Protocol.
//
// Every tool in the service registry becomes an MCP tool under its bare
// name, with a JSON schema built from its parameter list. A call runs the
// same registry path as the REST API, so validation, policy and audit are
// shared. Tool results are the JSON-encoded Result; failures set isError.
//
// Resources:
//   - files://directories: the allowed directories as JSON
//   - files://{+path}: text content of one file, e.g. files:///srv/data/a.txt
//
// Transports:
//   - SSE, mounted on the HTTP server
//   - stdio, for clients that spawn the server
package mcpserver
