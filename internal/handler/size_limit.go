package handler

import "strconv"

// formatSizeLimit renders a byte budget for error messages. Limits below one
// megabyte are shown in KB so a small budget never reads as "0MB".
func formatSizeLimit(bytes int64) string {
	const (
		kb = 1024
		mb = 1024 * kb
	)
	switch {
	case bytes <= 0:
		return "0B"
	case bytes < kb:
		return strconv.FormatInt(bytes, 10) + "B"
	case bytes < mb:
		return strconv.FormatInt(bytes/kb, 10) + "KB"
	case bytes%mb == 0:
		return strconv.FormatInt(bytes/mb, 10) + "MB"
	default:
		return strconv.FormatFloat(float64(bytes)/mb, 'f', 1, 64) + "MB"
	}
}
