package export

import (
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"

	"ap-task/debug"
	"ap-task/model"
)

// Unavailable replaces the digest when it cannot be computed
const Unavailable = "UNAVAILABLE"

// Metadata keys written as "# KEY: value" lines before the body
const (
	KeyBaseFreq = "BASE_FREQ"
	KeySession  = "SESSION"
)

// Digest is a pluggable content hash
type Digest struct {
	Name string
	Sum  func(data []byte) (string, error)
}

// MD5 is the digest existing results files carry
var MD5 = Digest{
	Name: "MD5",
	Sum: func(data []byte) (string, error) {
		sum := md5.Sum(data)
		return hex.EncodeToString(sum[:]), nil
	},
}

// Exporter writes session results to a text file
type Exporter struct {
	Dir      string
	Filename string
	BaseFreq float64
	Digest   Digest
}

// NewExporter returns an MD5 exporter writing dir/filename
func NewExporter(dir, filename string, baseFreq float64) *Exporter {
	return &Exporter{
		Dir:      dir,
		Filename: filename,
		BaseFreq: baseFreq,
		Digest:   MD5,
	}
}

// Body renders the header row and one row per record
func Body(records []model.TrialRecord) []byte {
	rows := make([]string, 0, len(records)+1)
	rows = append(rows, strings.Join(model.Columns(), ","))
	for _, r := range records {
		rows = append(rows, strings.Join(r.Values(), ","))
	}
	return []byte(strings.Join(rows, "\n"))
}

// Render produces the full document: metadata comments then body.
// A failing digest is replaced by Unavailable; results are still produced.
func (e *Exporter) Render(result model.SessionResult) []byte {
	body := Body(result.Records)

	digest, err := e.Digest.Sum(body)
	if err != nil {
		debug.Log("export", "digest %s failed, writing sentinel: %v", e.Digest.Name, err)
		digest = Unavailable
	}

	header := []string{
		fmt.Sprintf("# %s: %s", e.Digest.Name, digest),
		fmt.Sprintf("# %s: %s", KeyBaseFreq, strconv.FormatFloat(e.BaseFreq, 'f', -1, 64)),
		fmt.Sprintf("# %s: %s", KeySession, result.ID),
	}

	var out strings.Builder
	out.WriteString(strings.Join(header, "\n"))
	out.WriteString("\n")
	out.Write(body)
	return []byte(out.String())
}

// Path is where Export writes when no earlier file has the name
func (e *Exporter) Path() string {
	return filepath.Join(e.Dir, e.Filename)
}

// pathN numbers a name the way browsers rename downloads: "results (2).csv"
func (e *Exporter) pathN(n int) string {
	if n == 0 {
		return e.Path()
	}
	ext := filepath.Ext(e.Filename)
	base := strings.TrimSuffix(e.Filename, ext)
	return filepath.Join(e.Dir, fmt.Sprintf("%s (%d)%s", base, n, ext))
}

// Export writes the rendered results and returns the file path. An
// existing file is never overwritten; the name gets the first free number.
func (e *Exporter) Export(result model.SessionResult) (string, error) {
	if err := os.MkdirAll(e.Dir, 0755); err != nil {
		return "", fault.Wrap(err, fmsg.With("create results directory"))
	}

	data := e.Render(result)
	var (
		path string
		f    *os.File
		err  error
	)
	for n := 0; ; n++ {
		path = e.pathN(n)
		f, err = os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
		if !errors.Is(err, fs.ErrExist) {
			break
		}
	}
	if err != nil {
		return "", fault.Wrap(err, fmsg.With("create results file"))
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return "", fault.Wrap(err, fmsg.With("write results file"))
	}
	if err := f.Close(); err != nil {
		return "", fault.Wrap(err, fmsg.With("close results file"))
	}

	debug.Log("export", "wrote %d records to %s", len(result.Records), path)
	return path, nil
}
