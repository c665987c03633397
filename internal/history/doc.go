// Package history persists a local record of submitted tasks so past
// searches and edits can be reviewed after the process exits.
package history
