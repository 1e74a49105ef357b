package store

import "fmt"

// columnLetter converts a zero-based column index to its A1-notation letters
// (0 → A, 25 → Z, 26 → AA).
func columnLetter(index int) string {
	letters := ""
	n := index
	for {
		letters = string(rune('A'+n%26)) + letters
		n = n/26 - 1
		if n < 0 {
			break
		}
	}
	return letters
}

// cellRange renders the A1 range for a single cell, e.g. "Orders!C7".
func cellRange(sheetName string, columnIndex, row int) string {
	return fmt.Sprintf("%s!%s%d", sheetName, columnLetter(columnIndex), row)
}
