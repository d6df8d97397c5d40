package common

import (
	"strings"

	"github.com/bwmarrin/snowflake"
)

var snowflakeNode *snowflake.Node

func init() {
	var err error
	snowflakeNode, err = snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
}

// UUIDint64 generates a snowflake int64 id
func UUIDint64() int64 {
	return snowflakeNode.Generate().Int64()
}

// UUID generates a snowflake id string
func UUID() string {
	return snowflakeNode.Generate().String()
}

// SplitAndTrim splits a comma joined column into trimmed non-empty items.
func SplitAndTrim(s string) []string {
	if strings.TrimSpace(s) == "" {
		return []string{}
	}
	parts := strings.Split(s, ",")
	items := make([]string, 0, len(parts))
	for _, p := range parts {
		if v := strings.TrimSpace(p); v != "" {
			items = append(items, v)
		}
	}
	return items
}

// JoinTrimmed is the inverse of SplitAndTrim.
func JoinTrimmed(items []string) string {
	parts := make([]string, 0, len(items))
	for _, it := range items {
		if v := strings.TrimSpace(it); v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, ",")
}

// IfEmptyStr returns defval when src is blank.
func IfEmptyStr(src string, defval string) string {
	if strings.TrimSpace(src) == "" {
		return defval
	}
	return src
}
