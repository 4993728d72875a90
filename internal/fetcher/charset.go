package fetcher

import (
	"bufio"
	"bytes"
	"io"

	"github.com/rotisserie/eris"
	"golang.org/x/text/encoding/htmlindex"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// DecodeReader wraps r so it yields UTF-8. charset is any WHATWG encoding
// label ("windows-1252", "latin1", "shift_jis"); empty means UTF-8. A leading
// UTF-8 byte order mark is dropped.
func DecodeReader(r io.Reader, charset string) (io.Reader, error) {
	if charset != "" {
		enc, err := htmlindex.Get(charset)
		if err != nil {
			return nil, eris.Wrapf(err, "fetcher: unsupported charset %q", charset)
		}
		if name, _ := htmlindex.Name(enc); name != "utf-8" {
			return enc.NewDecoder().Reader(r), nil
		}
	}

	br := bufio.NewReader(r)
	if head, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}
	return br, nil
}
