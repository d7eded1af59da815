// Package aggregates implements the enrollment aggregate on top of the table
// repos. Each write runs in one transaction and reports to Hooks.
package aggregates
