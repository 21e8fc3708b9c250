package models

import (
	"database/sql/driver"
	"encoding/json"
	"strings"
)

// JSON 类型定义，用于存储结构化扩展字段
type JSON map[string]interface{}

// Value 实现 driver.Valuer 接口
func (j JSON) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

// Scan 实现 sql.Scanner 接口
func (j *JSON) Scan(value interface{}) error {
	if value == nil {
		*j = make(JSON)
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		if text, ok := value.(string); ok {
			return json.Unmarshal([]byte(text), j)
		}
		return nil
	}
	return json.Unmarshal(bytes, j)
}

// StringArray 字符串数组类型，用于存储 tags 等集合字段
type StringArray []string

// Value 实现 driver.Valuer 接口
func (s StringArray) Value() (driver.Value, error) {
	if s == nil {
		return nil, nil
	}
	return json.Marshal(s)
}

// Scan 实现 sql.Scanner 接口
func (s *StringArray) Scan(value interface{}) error {
	if value == nil {
		*s = StringArray{}
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		if text, ok := value.(string); ok {
			return json.Unmarshal([]byte(text), s)
		}
		return nil
	}
	return json.Unmarshal(bytes, s)
}

// NormalizeTagSet 归一化标签集合：小写、去空白、去重、保持输入顺序
func NormalizeTagSet(raw []string) StringArray {
	result := make(StringArray, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))
	for _, tag := range raw {
		normalized := strings.ToLower(strings.TrimSpace(tag))
		if normalized == "" {
			continue
		}
		if _, ok := seen[normalized]; ok {
			continue
		}
		seen[normalized] = struct{}{}
		result = append(result, normalized)
	}
	return result
}
