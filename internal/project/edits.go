package project

import sitter "github.com/smacker/go-tree-sitter"

// DeleteEdit removes a statement. When the statement is alone on its line the
// whole line goes, including its line break.
func DeleteEdit(stmt *sitter.Node, src []byte) Edit {
	start, end := stmt.StartByte(), stmt.EndByte()

	lineStart := start
	for lineStart > 0 && (src[lineStart-1] == ' ' || src[lineStart-1] == '\t') {
		lineStart--
	}
	lineEnd := end
	for int(lineEnd) < len(src) && (src[lineEnd] == ' ' || src[lineEnd] == '\t') {
		lineEnd++
	}
	atLineStart := lineStart == 0 || src[lineStart-1] == '\n'
	switch {
	case int(lineEnd) < len(src) && src[lineEnd] == '\n':
		lineEnd++
	case int(lineEnd)+1 < len(src) && src[lineEnd] == '\r' && src[lineEnd+1] == '\n':
		lineEnd += 2
	case int(lineEnd) == len(src):
	default:
		atLineStart = false
	}
	if atLineStart {
		return Edit{Start: lineStart, End: lineEnd}
	}
	return Edit{Start: start, End: end}
}
