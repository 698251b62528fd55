// Package data provides an in-memory data view and a record loader used to
// feed pipelines.
package data
