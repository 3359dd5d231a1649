package util

import (
	"strconv"
	"strings"
)

// KeywordArgs splits command line arguments into positional arguments and
// key=value pairs.
func KeywordArgs(args []string) ([]string, map[string]string) {
	var positional []string
	kwargs := map[string]string{}
	for _, arg := range args {
		if k, v, ok := strings.Cut(arg, "="); ok && k != "" {
			kwargs[k] = v
		} else {
			positional = append(positional, arg)
		}
	}
	return positional, kwargs
}

// ParseArg converts a value to a bool, int or float where it looks like one.
func ParseArg(value string) interface{} {
	switch value {
	case "true":
		return true
	case "false":
		return false
	}
	if n, err := strconv.ParseInt(value, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(value, 64); err == nil {
		return f
	}
	return value
}

// ParseArgs returns the first positional argument as the command and the
// key=value pairs as typed event fields.
func ParseArgs(args []string) (string, map[string]interface{}) {
	positional, kwargs := KeywordArgs(args)
	command := ""
	if len(positional) > 0 {
		command = positional[0]
	}
	fields := map[string]interface{}{}
	for k, v := range kwargs {
		fields[k] = ParseArg(v)
	}
	return command, fields
}
