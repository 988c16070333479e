// Package repair post-processes generated chart code before it is handed to
// the execution provider. Generated code routinely guesses at the uploaded
// file's name and format; both guesses are rewritten here with textual
// pattern substitution. Running the repair twice never changes the result of
// the first run.
package repair

import (
	"path"
	"regexp"
	"strings"
)

const dataMount = "/mnt/data/"

// dataPathPattern matches any reference to a data file under the fixed mount
// path whose extension is one of the known data formats.
var dataPathPattern = regexp.MustCompile(`(?i)/mnt/data/[^\s'"]+\.(xlsx|xls|csv|json|txt|pdf|docx|doc|xml|html|md|tsv|parquet)`)

// readCallPattern matches the tabular pandas loader calls we know how to
// rewrite. pd.read_json is deliberately absent: a generated read_json call is
// left alone unless the upload actually is JSON.
var readCallPattern = regexp.MustCompile(`pd\.(read_excel|read_csv|read_parquet)\s*\(`)

// jsonCallPattern matches the loader call swapped out for JSON uploads. The
// payloads vary too much in shape for pandas' literal reader; the execution
// image ships a tolerant helper instead.
var jsonCallPattern = regexp.MustCompile(`pd\.read_json\s*\(`)

// readerByExt maps the uploaded file's extension to the loader call the
// generated code should use.
var readerByExt = map[string]string{
	"csv":     "pd.read_csv(",
	"tsv":     "pd.read_csv(",
	"txt":     "pd.read_csv(",
	"xlsx":    "pd.read_excel(",
	"xls":     "pd.read_excel(",
	"parquet": "pd.read_parquet(",
}

// Code rewrites generated chart code so it loads the actual uploaded file:
// every mount-path reference is pointed at uploadedName, and every known
// loader call is swapped for the loader matching uploadedName's extension.
// Code that matches no pattern is returned unchanged; that is not an error.
func Code(generated, uploadedName string) string {
	uploadedName = strings.TrimSpace(path.Base(uploadedName))
	if generated == "" || uploadedName == "" {
		return generated
	}

	repaired := dataPathPattern.ReplaceAllString(generated, dataMount+uploadedName)

	ext := strings.ToLower(strings.TrimPrefix(path.Ext(uploadedName), "."))
	if ext == "json" {
		repaired = jsonCallPattern.ReplaceAllString(repaired, "read_json_flexible(")
	} else if reader, ok := readerByExt[ext]; ok {
		repaired = readCallPattern.ReplaceAllString(repaired, reader)
	}
	return repaired
}
