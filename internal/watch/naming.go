package watch

import (
	"path/filepath"

	"reportship/internal/clock"
	"reportship/internal/model"
)

// ReportName builds <dir>-<MMDDHHmm><ext> from the directory the file was
// created in and the current zone time.
func ReportName(zone *clock.Zone, event model.FileEvent) string {
	return filepath.Base(event.Dir) + "-" + zone.Now().Stamp() + filepath.Ext(event.Name)
}
