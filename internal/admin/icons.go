package admin

import "strings"

const defaultFileIcon = "📄"

var fileIcons = map[string]string{
	"pdf":      "📄",
	"docx":     "📝",
	"doc":      "📝",
	"xlsx":     "📊",
	"xls":      "📊",
	"md":       "📃",
	"markdown": "📃",
	"txt":      "📃",
}

func FileIcon(fileType string) string {
	if icon, ok := fileIcons[strings.ToLower(strings.TrimPrefix(fileType, "."))]; ok {
		return icon
	}
	return defaultFileIcon
}
