// Package types defines the interfaces shared across vendorsync packages.
package types
