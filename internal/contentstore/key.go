package contentstore

import "strings"

// Key derives the storage key of a source from its id and kind.
func Key(sourceID, kind string) string {
	return sourceID + extension(kind)
}

func extension(kind string) string {
	switch strings.ToLower(kind) {
	case "html", "law":
		return ".html"
	case "pdf":
		return ".pdf"
	case "json", "rules":
		return ".json"
	case "text", "txt":
		return ".txt"
	default:
		return ".bin"
	}
}
