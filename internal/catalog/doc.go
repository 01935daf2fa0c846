// Package catalog holds the static mapping from (university, sport) to a canonical roster URL.
//
// The catalog is reference data: it is loaded once at process start, either from the
// built-in catalog.yaml or from a YAML file supplied by the operator, and is read-only
// afterwards. Entry order follows the document order and drives resolution order.
package catalog
