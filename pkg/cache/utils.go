package cache

import "fmt"

// GenerateKeyWithParams creates a cache key "prefix:p1:p2:...".
func GenerateKeyWithParams(prefix string, params ...interface{}) string {
	key := prefix
	for _, param := range params {
		key = fmt.Sprintf("%s:%v", key, param)
	}
	return key
}

// BuildPattern matches every key that starts with prefix.
func BuildPattern(prefix string) string {
	return prefix + "*"
}
