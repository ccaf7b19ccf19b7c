package catalog

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"

	"github.com/highfive-goorm/highfive-back/core"
)

// Format 是记录集的文件格式
type Format string

const (
	FormatJSON Format = "json" // 整体数组或逐行 JSON（NDJSON）
	FormatCSV  Format = "csv"
)

// Records 是解析后的原始记录集：每条记录是列名到单元格的映射，
// Columns 是所有记录中出现过的列（CSV 为表头）。
type Records struct {
	Rows    []map[string]any
	Columns map[string]struct{}
}

// Has 判断列是否在记录集中出现过
func (r *Records) Has(col string) bool {
	_, ok := r.Columns[col]
	return ok
}

// FormatFromPath 根据扩展名推断格式，未知扩展名按 JSON 处理。
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return FormatCSV
	default:
		return FormatJSON
	}
}

// ParseRecords 解析原始字节。
func ParseRecords(data []byte, format Format) (*Records, error) {
	switch format {
	case FormatCSV:
		return parseCSV(data)
	case FormatJSON, "":
		return parseJSON(data)
	default:
		return nil, core.NewDomainError(core.ModuleCatalog, core.ErrorCodeNotSupported,
			fmt.Sprintf("catalog: unsupported format %q", format))
	}
}

// parseJSON 同时支持 `[{...},{...}]` 与逐行对象两种写法。
// 数字以 json.Number 保留，由 ParseNumeric 统一转换。
func parseJSON(data []byte) (*Records, error) {
	recs := &Records{Columns: map[string]struct{}{}}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return recs, nil
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()

	if trimmed[0] == '[' {
		var rows []map[string]any
		if err := dec.Decode(&rows); err != nil {
			return nil, schemaError(fmt.Sprintf("catalog: invalid json array: %v", err))
		}
		recs.Rows = rows
	} else {
		for {
			var row map[string]any
			err := dec.Decode(&row)
			if err == io.EOF {
				break
			}
			if err != nil {
				return nil, schemaError(fmt.Sprintf("catalog: invalid json record %d: %v", len(recs.Rows), err))
			}
			recs.Rows = append(recs.Rows, row)
		}
	}

	for i, row := range recs.Rows {
		if row == nil {
			return nil, schemaError(fmt.Sprintf("catalog: record %d is not an object", i))
		}
		for k := range row {
			recs.Columns[k] = struct{}{}
		}
	}
	return recs, nil
}

// parseCSV 首行为表头；空单元格视为缺失。
func parseCSV(data []byte) (*Records, error) {
	recs := &Records{Columns: map[string]struct{}{}}
	r := csv.NewReader(bytes.NewReader(data))
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err == io.EOF {
		return recs, nil
	}
	if err != nil {
		return nil, schemaError(fmt.Sprintf("catalog: invalid csv header: %v", err))
	}
	for i := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(header[i], "\ufeff"))
		recs.Columns[header[i]] = struct{}{}
	}

	for line := 1; ; line++ {
		fields, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, schemaError(fmt.Sprintf("catalog: invalid csv row %d: %v", line, err))
		}
		row := make(map[string]any, len(header))
		for i, col := range header {
			if fields[i] == "" {
				row[col] = nil
				continue
			}
			row[col] = fields[i]
		}
		recs.Rows = append(recs.Rows, row)
	}
	return recs, nil
}

func schemaError(msg string) error {
	return core.NewDomainError(core.ModuleCatalog, core.ErrorCodeSchema, msg)
}

func typeMismatch(msg string) error {
	return core.NewDomainError(core.ModuleCatalog, core.ErrorCodeTypeMismatch, msg)
}
