// Package output renders authtoken-cli results as a table, JSON or YAML.
//
// Structs are rendered field by field; field names come from the json tag.
// A `table:"-"` tag hides a field from tables and `table:"wide"` shows it
// only with --wide.
package output
