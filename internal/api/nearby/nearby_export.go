package nearby

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/FACorreiaa/go-medguide-api/internal/types"
)

const exportSheet = "Nearby"

var exportHeaders = []interface{}{"ID", "Name", "Latitude", "Longitude", "Distance (km)", "Address", "Pinned"}

// renderWorkbook writes a search result as a single-sheet workbook. The pinned
// entry, when present, is the first data row.
func renderWorkbook(result *types.NearbyResult) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return nil, err
	}

	sw, err := f.NewStreamWriter(exportSheet)
	if err != nil {
		return nil, err
	}
	if err := sw.SetRow("A1", exportHeaders); err != nil {
		return nil, err
	}

	rows := make([]types.RankedPoint, 0, len(result.Points)+1)
	if result.Pinned != nil {
		rows = append(rows, *result.Pinned)
	}
	rows = append(rows, result.Points...)

	placeholder := result.Category.Placeholder()
	for i, p := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		isPinned := result.Pinned != nil && i == 0
		row := []interface{}{
			p.ID, p.DisplayName(placeholder), p.Location.Lat, p.Location.Lon,
			p.DistanceKm, p.Address, isPinned,
		}
		if err := sw.SetRow(cell, row); err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
	}

	if err := sw.Flush(); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
