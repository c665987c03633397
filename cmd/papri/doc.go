// Command papri is the command-line client for the Papri video search
// and editing backend. It submits search and edit tasks, polls them to
// completion, and renders results.
package main
