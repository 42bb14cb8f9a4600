package util

import (
	"reflect"
	"testing"
)

func TestParseBoolEnv(t *testing.T) {
	tests := []struct {
		name         string
		value        string
		defaultValue bool
		expected     bool
	}{
		{name: "unset returns default true", value: "", defaultValue: true, expected: true},
		{name: "unset returns default false", value: "", defaultValue: false, expected: false},
		{name: "true", value: "true", defaultValue: false, expected: true},
		{name: "one", value: "1", defaultValue: false, expected: true},
		{name: "yes uppercase", value: "YES", defaultValue: false, expected: true},
		{name: "on", value: "on", defaultValue: false, expected: true},
		{name: "false", value: "false", defaultValue: true, expected: false},
		{name: "zero", value: "0", defaultValue: true, expected: false},
		{name: "off padded", value: " off ", defaultValue: true, expected: false},
		{name: "garbage returns default", value: "maybe", defaultValue: true, expected: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.value != "" {
				t.Setenv("TEST_BOOL_ENV", tt.value)
			}
			if got := ParseBoolEnv("TEST_BOOL_ENV", tt.defaultValue); got != tt.expected {
				t.Errorf("ParseBoolEnv(%q, %v) = %v, expected %v", tt.value, tt.defaultValue, got, tt.expected)
			}
		})
	}
}

func TestSplitList(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected []string
	}{
		{name: "empty", raw: "", expected: nil},
		{name: "single", raw: "123", expected: []string{"123"}},
		{name: "padded entries", raw: " 123 , 456 ", expected: []string{"123", "456"}},
		{name: "empty entries dropped", raw: "123,,456,", expected: []string{"123", "456"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SplitList(tt.raw); !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("SplitList(%q) = %v, expected %v", tt.raw, got, tt.expected)
			}
		})
	}
}

func TestParseChatIDs(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected []int64
	}{
		{name: "empty", raw: "", expected: nil},
		{name: "single id", raw: "123456", expected: []int64{123456}},
		{name: "multiple ids", raw: "123, -1009876, 42", expected: []int64{123, -1009876, 42}},
		{name: "invalid entries skipped", raw: "123,abc,456", expected: []int64{123, 456}},
		{name: "all invalid", raw: "abc, def", expected: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseChatIDs(tt.raw); !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("ParseChatIDs(%q) = %v, expected %v", tt.raw, got, tt.expected)
			}
		})
	}
}
