package export

import (
	"bytes"
	"testing"
	"time"

	"device-registry/internal/domain"
	"device-registry/internal/marshaling"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestWriteDeviceWorkbook(t *testing.T) {
	created := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

	device := domain.Device{
		HardwareID:         "hw-1",
		SiteToken:          "site-1",
		SpecificationToken: "spec-1",
		Status:             "active",
		Comments:           "rack 4",
	}
	device.Token = "hw-1"
	device.CreatedDate = created
	device.LastUpdatedDate = created

	spec := domain.DeviceSpecification{Name: "GPS Tracker"}
	spec.Token = "spec-1"

	devices := []marshaling.MarshaledDevice{
		{
			Device: device,
			Specification: &marshaling.MarshaledSpecification{
				DeviceSpecification: spec,
				AssetName:           "MeiTrack GPS",
			},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteDeviceWorkbook(&buf, devices))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	require.Equal(t, []string{deviceSheet}, f.GetSheetList())

	for col, header := range deviceHeaders {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		require.NoError(t, err)
		value, err := f.GetCellValue(deviceSheet, cell)
		require.NoError(t, err)
		require.Equal(t, header, value)
	}

	hardwareID, err := f.GetCellValue(deviceSheet, "A2")
	require.NoError(t, err)
	require.Equal(t, "hw-1", hardwareID)

	specName, err := f.GetCellValue(deviceSheet, "C2")
	require.NoError(t, err)
	require.Equal(t, "GPS Tracker", specName)

	assetName, err := f.GetCellValue(deviceSheet, "D2")
	require.NoError(t, err)
	require.Equal(t, "MeiTrack GPS", assetName)

	createdCell, err := f.GetCellValue(deviceSheet, "I2")
	require.NoError(t, err)
	require.Equal(t, "2026-03-14T09:30:00Z", createdCell)
}

func TestWriteDeviceWorkbookCollapsedSpecification(t *testing.T) {
	device := domain.Device{
		HardwareID:         "hw-2",
		SiteToken:          "site-1",
		SpecificationToken: "spec-1",
	}
	device.Token = "hw-2"
	device.CreatedDate = time.Now().UTC()
	device.LastUpdatedDate = device.CreatedDate

	devices := []marshaling.MarshaledDevice{
		{Device: device, AssetName: "MeiTrack GPS"},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteDeviceWorkbook(&buf, devices))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	// With no specification attached the token and collapsed asset name are used.
	specName, err := f.GetCellValue(deviceSheet, "C2")
	require.NoError(t, err)
	require.Equal(t, "spec-1", specName)

	assetName, err := f.GetCellValue(deviceSheet, "D2")
	require.NoError(t, err)
	require.Equal(t, "MeiTrack GPS", assetName)
}
