package ocr

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"  고객명  ", "고객명"},
		{"보증금  /\t선납금", "보증금 / 선납금"},
		{"월 대여료\u00a0(VAT포함)", "월 대여료 (VAT포함)"},
		{"차량\u3000소비자 가격", "차량 소비자 가격"},
		{"line\r\nbreak", "line break"},
		{"_____", ""},
		{"---", ""},
		{"1,000-", "1,000-"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Normalize(tt.in), "input %q", tt.in)
	}
}
