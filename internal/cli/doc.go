// Package cli implements the minorm command line.
package cli
