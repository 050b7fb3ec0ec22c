package fat

import (
	"bytes"

	"github.com/gocarina/gocsv"
)

// lsRow is one CSV row of an `ls --csv` listing.
type lsRow struct {
	Name         string `csv:"name"`
	Kind         string `csv:"kind"`
	Size         uint32 `csv:"size"`
	StartCluster uint32 `csv:"start_cluster"`
}

// EntriesToCSV renders a directory listing as CSV, the same gocsv round trip the
// size-preset catalog uses in reverse (UnmarshalToCallback there, Marshal here). See
// SPEC_FULL.md section 4.6.5.
func EntriesToCSV(entries []DirectoryEntry) (string, error) {
	rows := make([]lsRow, len(entries))
	for i, e := range entries {
		kind := "<FILE>"
		if e.IsDirectory {
			kind = "<DIR>"
		}
		rows[i] = lsRow{
			Name:         e.Name,
			Kind:         kind,
			Size:         e.Size,
			StartCluster: uint32(e.StartCluster),
		}
	}

	var buf bytes.Buffer
	if err := gocsv.Marshal(rows, &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}
