// Package xlsx parses OOXML spreadsheets. Each worksheet becomes one page
// holding a sheet-name heading and a table block; merged regions carry over
// as cell spans.
package xlsx
