// Package checkpoint persists the collector's search cursor between runs.
//
// It is only used when the collector runs with --resume. Each query gets its
// own JSON file named after a hash of the query, stored in a
// platform-specific data directory unless one is configured:
//   - Linux: ~/.local/share/tweetcloud/checkpoints/
//   - macOS: ~/Library/Application Support/tweetcloud/checkpoints/
//   - Windows: %APPDATA%/tweetcloud/checkpoints/
//
// Files are written to a temporary path and renamed into place.
package checkpoint
