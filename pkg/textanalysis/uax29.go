package textanalysis

import (
	"iter"

	"github.com/clipperhouse/uax29/v2/sentences"
	"github.com/clipperhouse/uax29/v2/words"
)

// wordSegments yields successive word-boundary segments of text in
// order, using uax29's word segmenter. Segments are contiguous and
// gap-free: concatenating every yielded segment reproduces text exactly,
// which is what lets callers reconstruct byte offsets by accumulating
// segment lengths instead of depending on segmenter-specific offset
// accessors.
func wordSegments(text []byte) iter.Seq[[]byte] {
	return func(yield func([]byte) bool) {
		seg := words.NewSegmenter(text)
		for seg.Next() {
			if !yield(seg.Bytes()) {
				return
			}
		}
	}
}

// rawSentenceSegments yields uax29's baseline UAX #29 sentence segments,
// again contiguous and gap-free over text.
func rawSentenceSegments(text []byte) iter.Seq[[]byte] {
	return func(yield func([]byte) bool) {
		seg := sentences.NewSegmenter(text)
		for seg.Next() {
			if !yield(seg.Bytes()) {
				return
			}
		}
	}
}
