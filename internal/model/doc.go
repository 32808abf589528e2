// Package model defines the records that flow through the catalog pipeline:
// entities and headers read from disk, and the Item union over them.
package model
