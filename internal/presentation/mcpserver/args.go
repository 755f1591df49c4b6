package mcpserver

import (
	"fmt"
	"math"
	"strings"
)

// 引数の型と範囲はハンドラ側で検証する

func optionalString(args map[string]interface{}, key string) (string, error) {
	raw, ok := args[key]
	if !ok || raw == nil {
		return "", nil
	}
	s, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("`%s` must be a string", key)
	}
	return s, nil
}

func requiredString(args map[string]interface{}, key string) (string, error) {
	s, err := optionalString(args, key)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("`%s` is required", key)
	}
	return s, nil
}

func optionalBool(args map[string]interface{}, key string, def bool) (bool, error) {
	raw, ok := args[key]
	if !ok || raw == nil {
		return def, nil
	}
	b, ok := raw.(bool)
	if !ok {
		return false, fmt.Errorf("`%s` must be a boolean", key)
	}
	return b, nil
}

func optionalBoolPtr(args map[string]interface{}, key string) (*bool, error) {
	if raw, ok := args[key]; !ok || raw == nil {
		return nil, nil
	}
	b, err := optionalBool(args, key, false)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func requiredNumber(args map[string]interface{}, key string) (float64, error) {
	raw, ok := args[key]
	if !ok || raw == nil {
		return 0, fmt.Errorf("`%s` is required", key)
	}
	f, ok := raw.(float64)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("`%s` must be a number", key)
	}
	return f, nil
}

// limitArg 1..100の整数。省略時は既定値
func limitArg(args map[string]interface{}, def int) (int, error) {
	raw, ok := args["limit"]
	if !ok || raw == nil {
		return def, nil
	}
	f, ok := raw.(float64)
	if !ok || f != math.Trunc(f) || f < 1 || f > 100 {
		return 0, fmt.Errorf("`limit` must be an integer between 1 and 100")
	}
	return int(f), nil
}
