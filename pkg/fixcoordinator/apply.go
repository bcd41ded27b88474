package fixcoordinator

import "bytes"

// ApplyEdits applies non-conflicting, (start,end)-sorted edits to
// content in a single forward pass, copying untouched bytes and
// substituting each edit's replacement in turn. Because this writes to
// a fresh buffer from original-content offsets rather than mutating
// content in place, a single ascending pass is equivalent to (and more
// efficient than) applying the edits one at a time in descending order
// of start, which is the naive in-place-splice strategy the reverse
// ordering exists to keep safe.
func ApplyEdits(content []byte, edits []Edit) []byte {
	if len(edits) == 0 {
		return content
	}

	delta := 0
	for _, e := range edits {
		delta += len(e.Replacement) - e.Span.Len()
	}

	var out bytes.Buffer
	out.Grow(len(content) + delta)

	cursor := 0
	for _, e := range edits {
		out.Write(content[cursor:e.Span.Start])
		out.WriteString(e.Replacement)
		cursor = e.Span.End
	}
	out.Write(content[cursor:])

	return out.Bytes()
}
