// Package internal has output rendering helpers that are only useful
// within the cqscope runtime.
package internal
