// Package aggregates declares the enrollment write boundary, its inputs and
// results, and the coded errors it returns.
package aggregates
