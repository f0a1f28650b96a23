// Package export renders registry listings as spreadsheet downloads.
package export

import (
	"fmt"
	"io"
	"time"

	"device-registry/internal/marshaling"

	"github.com/xuri/excelize/v2"
)

const deviceSheet = "Devices"

var deviceHeaders = []string{
	"Hardware Id",
	"Site Token",
	"Specification",
	"Asset",
	"Status",
	"Assignment Token",
	"Parent Hardware Id",
	"Comments",
	"Created",
	"Last Updated",
}

// WriteDeviceWorkbook writes the hydrated device list as an xlsx workbook.
// Devices marshaled with the specification attached get the spec name in
// the Specification column, otherwise the raw token is used.
func WriteDeviceWorkbook(w io.Writer, devices []marshaling.MarshaledDevice) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", deviceSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	for col, header := range deviceHeaders {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(deviceSheet, cell, header); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
	}

	for row, device := range devices {
		specName := device.SpecificationToken
		if device.Specification != nil {
			specName = device.Specification.Name
		}
		assetName := device.AssetName
		if device.Specification != nil && device.Specification.AssetName != "" {
			assetName = device.Specification.AssetName
		}
		values := []any{
			device.HardwareID,
			device.SiteToken,
			specName,
			assetName,
			device.Status,
			device.AssignmentToken,
			device.ParentHardwareID,
			device.Comments,
			device.CreatedDate.Format(time.RFC3339),
			device.LastUpdatedDate.Format(time.RFC3339),
		}
		for col, value := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(deviceSheet, cell, value); err != nil {
				return fmt.Errorf("write device row: %w", err)
			}
		}
	}

	if err := f.SetColWidth(deviceSheet, "A", "J", 22); err != nil {
		return err
	}
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
