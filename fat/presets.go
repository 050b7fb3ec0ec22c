package fat

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gocarina/gocsv"
)

// sizePreset is one row of the named image-size catalog, loaded from an embedded CSV
// the same way the teacher library's disks.go loads its floppy/disk geometry table with
// gocsv.UnmarshalToCallback.
type sizePreset struct {
	Slug      string `csv:"slug"`
	Bytes     int64  `csv:"bytes"`
	Notes     string `csv:"notes"`
}

const presetsCSV = `slug,bytes,notes
floppy360,368640,"5.25"" double-density floppy"
floppy720,737280,"3.5"" double-density floppy"
floppy1440,1474560,"3.5"" high-density floppy"
floppy2880,2949120,"3.5"" extended-density floppy"
zip100,100431872,Iomega Zip 100
`

var sizePresets map[string]int64

func init() {
	sizePresets = make(map[string]int64)
	reader := strings.NewReader(presetsCSV)
	err := gocsv.UnmarshalToCallback(reader, func(row sizePreset) error {
		if _, exists := sizePresets[row.Slug]; exists {
			return fmt.Errorf("duplicate size preset %q", row.Slug)
		}
		sizePresets[row.Slug] = row.Bytes
		return nil
	})
	if err != nil {
		panic(err)
	}
}

// ParseImageSize parses `format`'s size argument. It first checks the named preset
// catalog; failing that, it parses a decimal byte count with an optional KB/MB/GB
// suffix scaling by 1024/1024^2/1024^3.
func ParseImageSize(arg string) (int64, error) {
	if bytes, ok := sizePresets[strings.ToLower(arg)]; ok {
		return bytes, nil
	}

	upper := strings.ToUpper(strings.TrimSpace(arg))
	multiplier := int64(1)
	numeric := upper

	switch {
	case strings.HasSuffix(upper, "KB"):
		multiplier = 1024
		numeric = strings.TrimSuffix(upper, "KB")
	case strings.HasSuffix(upper, "MB"):
		multiplier = 1024 * 1024
		numeric = strings.TrimSuffix(upper, "MB")
	case strings.HasSuffix(upper, "GB"):
		multiplier = 1024 * 1024 * 1024
		numeric = strings.TrimSuffix(upper, "GB")
	}

	value, err := strconv.ParseInt(strings.TrimSpace(numeric), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid image size %q: %w", arg, err)
	}
	return value * multiplier, nil
}
