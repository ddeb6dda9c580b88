package export

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"strings"
)

// Report is the outcome of checking a results file against its digest header
type Report struct {
	Digest   string            `json:"digest"`   // digest name, e.g. MD5
	Expected string            `json:"expected"` // value from the header
	Actual   string            `json:"actual"`   // recomputed from the body
	Valid    bool              `json:"valid"`
	Metadata map[string]string `json:"metadata"`
	Rows     int               `json:"rows"` // data rows, header row excluded
}

// ErrNoDigest is returned for files without a digest line
var ErrNoDigest = errors.New("results file has no digest header")

// Parse splits a results document into its metadata lines and body
func Parse(data []byte) (map[string]string, []byte) {
	meta := make(map[string]string)
	rest := data
	for bytes.HasPrefix(rest, []byte("#")) {
		line := rest
		next := []byte(nil)
		if i := bytes.IndexByte(rest, '\n'); i >= 0 {
			line, next = rest[:i], rest[i+1:]
		}
		if key, value, ok := strings.Cut(strings.TrimPrefix(string(line), "#"), ":"); ok {
			meta[strings.TrimSpace(key)] = strings.TrimSpace(value)
		}
		rest = next
	}
	return meta, rest
}

// Verify recomputes the digest of a results document with the given digests
// and compares it to the header. The first digest whose name appears in the
// header is used.
func Verify(r io.Reader, digests ...Digest) (Report, error) {
	if len(digests) == 0 {
		digests = []Digest{MD5}
	}

	data, err := io.ReadAll(bufio.NewReader(r))
	if err != nil {
		return Report{}, err
	}
	meta, body := Parse(data)

	report := Report{Metadata: meta, Rows: countRows(body)}
	for _, d := range digests {
		expected, ok := meta[d.Name]
		if !ok {
			continue
		}
		report.Digest = d.Name
		report.Expected = expected
		actual, err := d.Sum(body)
		if err != nil {
			return report, err
		}
		report.Actual = actual
		report.Valid = expected != Unavailable && expected == actual
		return report, nil
	}
	return report, ErrNoDigest
}

func countRows(body []byte) int {
	if len(body) == 0 {
		return 0
	}
	return bytes.Count(body, []byte("\n"))
}
