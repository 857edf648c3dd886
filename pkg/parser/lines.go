package parser

import (
	"bufio"
	"io"
	"iter"

	"github.com/pkg/errors"
)

// Line is one input line without its line ending. Size is the number of
// bytes it took in the input, the ending and any discarded tail included.
type Line struct {
	Text string
	Size int64
}

// Lines yields the lines of r. A line longer than maxLen is cut to maxLen+1
// bytes and the rest discarded, so memory stays bounded while the tokenizer
// still sees it as oversized.
func Lines(r io.Reader, maxLen int) iter.Seq2[Line, error] {
	return func(yield func(Line, error) bool) {
		br := bufio.NewReaderSize(r, 64*1024)
		var buf []byte
		var size int64
		for {
			frag, err := br.ReadSlice('\n')
			size += int64(len(frag))
			if len(frag) > 0 && len(buf) <= maxLen {
				room := maxLen + 1 - len(buf)
				if len(frag) > room {
					frag = frag[:room]
				}
				buf = append(buf, frag...)
			}
			if err == bufio.ErrBufferFull {
				continue
			}
			if err != nil && err != io.EOF {
				yield(Line{}, errors.Wrap(err, "read line"))
				return
			}
			if size > 0 {
				if len(buf) > 0 && buf[len(buf)-1] == '\n' {
					buf = buf[:len(buf)-1]
				}
				if !yield(Line{Text: string(buf), Size: size}, nil) {
					return
				}
			}
			if err == io.EOF {
				return
			}
			buf = buf[:0]
			size = 0
		}
	}
}
