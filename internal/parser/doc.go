// Package parser reads a single entity document: it checks the file name,
// splits the "---" front-block from the body, decodes the front-block as YAML
// and validates the result against the directory that holds the file.
//
// Validation runs in a fixed order and stops at the first failure, so a
// document yields exactly one error.
package parser
