package utils

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/RecoveryAshes/ListHarvest/internal/models"
	"github.com/xuri/excelize/v2"
)

// ErrNothingToExport 没有记录可导出
var ErrNothingToExport = errors.New("没有找到任何记录")

// ExportFormat 导出格式
type ExportFormat string

const (
	FormatXLSX ExportFormat = "xlsx"
	FormatCSV  ExportFormat = "csv"
	FormatJSON ExportFormat = "json"
)

// SheetName 工作表名称
const SheetName = "Sheet1"

// FormatFromPath 根据扩展名判断导出格式
func FormatFromPath(path string) (ExportFormat, error) {
	switch ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), ".")); ext {
	case "xlsx":
		return FormatXLSX, nil
	case "csv":
		return FormatCSV, nil
	case "json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("不支持的导出格式: %q (支持 .xlsx, .csv, .json)", filepath.Ext(path))
	}
}

// Export 按收集顺序导出记录,每条记录一行,列为 Name, URL
// records为空时不创建文件,返回ErrNothingToExport
func Export(path string, records []models.Record) error {
	if len(records) == 0 {
		return ErrNothingToExport
	}

	format, err := FormatFromPath(path)
	if err != nil {
		return err
	}
	if err := EnsureParentDir(path); err != nil {
		return err
	}

	rows := models.ToExportRows(records)
	switch format {
	case FormatCSV:
		err = writeCSV(path, rows)
	case FormatJSON:
		err = writeJSON(path, rows)
	default:
		err = writeXLSX(path, rows)
	}
	if err != nil {
		return err
	}

	Infof("已导出 %d 条记录: %s", len(rows), path)
	return nil
}

// writeXLSX 写入Excel文件
func writeXLSX(path string, rows []models.ExportRow) error {
	f := excelize.NewFile()
	defer f.Close()

	header := make([]interface{}, len(models.ExportColumns))
	for i, col := range models.ExportColumns {
		header[i] = col
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return fmt.Errorf("写入表头失败: %w", err)
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(SheetName, cell, &[]interface{}{row.Name, row.URL}); err != nil {
			return fmt.Errorf("写入第%d行失败: %w", i+1, err)
		}
	}

	if err := f.SetColWidth(SheetName, "A", "A", 40); err != nil {
		return err
	}
	if err := f.SetColWidth(SheetName, "B", "B", 80); err != nil {
		return err
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("保存Excel文件失败: %w", err)
	}
	return nil
}

// writeCSV 写入CSV文件
func writeCSV(path string, rows []models.ExportRow) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("创建CSV文件失败: %w", err)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.Write(models.ExportColumns); err != nil {
		return fmt.Errorf("写入表头失败: %w", err)
	}
	for _, row := range rows {
		if err := w.Write([]string{row.Name, row.URL}); err != nil {
			return fmt.Errorf("写入CSV失败: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("写入CSV失败: %w", err)
	}
	return nil
}

// writeJSON 写入JSON数组
func writeJSON(path string, rows []models.ExportRow) error {
	data, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return fmt.Errorf("序列化JSON失败: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("写入JSON文件失败: %w", err)
	}
	return nil
}
